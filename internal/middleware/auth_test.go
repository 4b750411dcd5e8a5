package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"Neighbor_Board/internal/pkg"
	"Neighbor_Board/internal/repository/redis"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mapTokens struct {
	tokens   map[uint64]string
	extended []uint64
}

func (m *mapTokens) Get(_ context.Context, userID uint64) (string, error) {
	tok, ok := m.tokens[userID]
	if !ok {
		return "", redis.ErrTokenNotFound
	}
	return tok, nil
}

func (m *mapTokens) Extend(_ context.Context, userID uint64) error {
	m.extended = append(m.extended, userID)
	return nil
}

func newEngine(codec *pkg.TokenCodec, tokens TokenStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(codec, tokens, zap.NewNop()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UserID(c)})
	})
	return r
}

func call(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	codec := pkg.NewTokenCodec("secret")
	tok, err := codec.GenerateAccess(7)
	require.NoError(t, err)
	stale, err := codec.GenerateAccess(8)
	require.NoError(t, err)

	tokens := &mapTokens{tokens: map[uint64]string{7: tok, 8: "newer-login"}}
	r := newEngine(codec, tokens)

	w := call(r, "Bearer "+tok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":7}`, w.Body.String())
	assert.Equal(t, []uint64{7}, tokens.extended)

	assert.Equal(t, http.StatusUnauthorized, call(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, "Token "+tok).Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, "Bearer garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, "Bearer "+stale).Code)
}
