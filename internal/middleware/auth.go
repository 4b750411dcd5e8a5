package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"Neighbor_Board/internal/pkg"
	"Neighbor_Board/internal/repository/redis"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const ContextUserIDKey = "user_id"

// TokenStore 当前有效 token 的登记处，生产环境为 redis.TokenRepository
type TokenStore interface {
	Get(ctx context.Context, userID uint64) (string, error)
	Extend(ctx context.Context, userID uint64) error
}

func AuthMiddleware(codec *pkg.TokenCodec, tokens TokenStore, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "missing authorization header"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid authorization format"})
			return
		}
		tokenStr := parts[1]

		claims, err := codec.ParseAccess(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid or expired token"})
			return
		}

		// redis校验是否是正确的token
		origin, err := tokens.Get(c.Request.Context(), claims.UserID)
		if err != nil && !errors.Is(err, redis.ErrTokenNotFound) {
			log.Error("token lookup failed", zap.Uint64("user_id", claims.UserID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"msg": "internal error"})
			return
		}
		if err != nil || origin != tokenStr {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "Account has been logging elsewhere"})
			return
		}

		// 校验通过后更新过期时间
		if err = tokens.Extend(c.Request.Context(), claims.UserID); err != nil {
			log.Error("token extend failed", zap.Uint64("user_id", claims.UserID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"msg": "internal error"})
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Next()
	}
}

// UserID handler 中取当前用户
func UserID(c *gin.Context) uint64 {
	return c.GetUint64(ContextUserIDKey)
}
