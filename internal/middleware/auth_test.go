package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/config"
)

func newTestRouter(auth *Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(auth.Middleware())
	router.GET("/test", func(c *gin.Context) {
		id, _ := GetClientID(c)
		c.String(http.StatusOK, id)
	})
	return router
}

func TestAPIKeyAuth(t *testing.T) {
	router := newTestRouter(NewAuthenticator(config.AuthConfig{APIKey: "secret-key"}))

	tests := []struct {
		name           string
		key            string
		expectedStatus int
	}{
		{"valid key", "secret-key", http.StatusOK},
		{"wrong key", "nope", http.StatusUnauthorized},
		{"missing key", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.key != "" {
				req.Header.Set(APIKeyHeader, tt.key)
			}
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestEmptyAPIKeyNeverMatches(t *testing.T) {
	auth := NewAuthenticator(config.AuthConfig{})
	assert.False(t, auth.validAPIKey(""))
	assert.False(t, auth.validAPIKey("anything"))
}

func TestBearerAuth(t *testing.T) {
	auth := NewAuthenticator(config.AuthConfig{APIKey: "k", JWTSecret: "jwt-secret"})
	router := newTestRouter(auth)

	token, err := auth.GenerateToken("mobile-app", time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "mobile-app", w.Body.String())

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", token)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestParseTokenRejects(t *testing.T) {
	auth := NewAuthenticator(config.AuthConfig{JWTSecret: "jwt-secret"})

	expired, err := auth.GenerateToken("c", -time.Minute)
	require.NoError(t, err)
	_, err = auth.ParseToken(expired)
	assert.Error(t, err)

	other := NewAuthenticator(config.AuthConfig{JWTSecret: "different"})
	foreign, err := other.GenerateToken("c", time.Hour)
	require.NoError(t, err)
	_, err = auth.ParseToken(foreign)
	assert.Error(t, err)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{ClientID: "c"})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = auth.ParseToken(raw)
	assert.Error(t, err)
}

func TestBearerDisabledWithoutSecret(t *testing.T) {
	auth := NewAuthenticator(config.AuthConfig{APIKey: "k"})

	_, err := auth.GenerateToken("c", time.Hour)
	assert.Error(t, err)

	_, err = auth.ParseToken("whatever")
	assert.Error(t, err)
}
