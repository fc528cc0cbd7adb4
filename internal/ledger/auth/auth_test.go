package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/earnlift/ledger/internal/ledger/db"
	e "github.com/earnlift/ledger/internal/ledger/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testSecret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("acme", testSecret)
	require.NoError(t, err)

	claims, err := validateToken(token, testSecret)
	require.NoError(t, err)

	sub, err := claims.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, "acme", sub)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("acme", testSecret)
	require.NoError(t, err)

	_, err = validateToken(token, "other-secret")
	assert.Error(t, err)
}

func TestExtractTokenFromHeader(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{name: "valid", header: "Bearer abc", want: "abc"},
		{name: "missing", header: "", wantErr: errMissingAuthorization},
		{name: "wrong scheme", header: "Basic abc", wantErr: errInvalidAuthorization},
		{name: "empty token", header: "Bearer ", wantErr: errInvalidAuthorization},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractTokenFromHeader(tt.header)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func middlewareRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware(testSecret))
	router.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, string(CallerFrom(c)))
	})
	return router
}

func TestMiddleware(t *testing.T) {
	router := middlewareRouter(t)

	token, err := GenerateToken("acme", testSecret)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "acme", rec.Body.String())
}

func TestMiddlewareRejectsBadTokens(t *testing.T) {
	router := middlewareRouter(t)

	foreign, err := GenerateToken("acme", "other-secret")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{name: "no header", header: ""},
		{name: "not bearer", header: "Basic abc"},
		{name: "garbage token", header: "Bearer not-a-jwt"},
		{name: "wrong secret", header: "Bearer " + foreign},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func setupAuthService(t *testing.T) *Service {
	repo, err := db.NewSQLiteRepository(":memory:")
	require.NoError(t, err)
	return NewService(repo, zaptest.NewLogger(t))
}

func TestAdminLifecycle(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.Bootstrap(ctx, "root"))

	ok, err := svc.IsAdmin(ctx, "root")
	require.NoError(t, err)
	assert.True(t, ok)

	// Only an admin may grant or revoke.
	assert.ErrorIs(t, svc.AddAdmin(ctx, "mallory", "mallory"), e.ErrUnauthorized)

	require.NoError(t, svc.AddAdmin(ctx, "root", "ops"))
	ok, err = svc.IsAdmin(ctx, "ops")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.RemoveAdmin(ctx, "root", "ops"))
	ok, err = svc.IsAdmin(ctx, "ops")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOwnership(t *testing.T) {
	svc := setupAuthService(t)

	assert.True(t, svc.IsCompanyOwner("acme", "acme"))
	assert.False(t, svc.IsCompanyOwner("mallory", "acme"))
	assert.False(t, svc.IsCompanyOwner("", ""), "zero identity owns nothing")

	assert.True(t, svc.IsEmployeeOwner("alice", "alice"))
	assert.False(t, svc.IsEmployeeOwner("mallory", "alice"))
}
