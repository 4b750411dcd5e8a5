package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrTokenNotFound    = errors.New("token not found")
	ErrRedisUnavailable = errors.New("redis unavailable")
	ErrExtendFailed     = errors.New("token extend failed")
)

const (
	UserTokenPrefix = "login:user:token"
	UserTokenExpire = 30 * time.Minute
)

// TokenRepository 登录服务写入的当前有效 token，一个用户只保留一个
type TokenRepository struct {
	client redis.Cmdable
}

func NewTokenRepository(client redis.Cmdable) *TokenRepository {
	return &TokenRepository{client: client}
}

func tokenKey(userID uint64) string {
	return fmt.Sprintf("%s:%d", UserTokenPrefix, userID)
}

func (r *TokenRepository) Set(ctx context.Context, userID uint64, token string) error {
	if err := r.client.Set(ctx, tokenKey(userID), token, UserTokenExpire).Err(); err != nil {
		return ErrRedisUnavailable
	}
	return nil
}

func (r *TokenRepository) Get(ctx context.Context, userID uint64) (string, error) {
	token, err := r.client.Get(ctx, tokenKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", ErrRedisUnavailable
	}
	return token, nil
}

// Extend 校验通过后续期
func (r *TokenRepository) Extend(ctx context.Context, userID uint64) error {
	if err := r.client.Expire(ctx, tokenKey(userID), UserTokenExpire).Err(); err != nil {
		return ErrExtendFailed
	}
	return nil
}
