package middleware

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/config"
)

const (
	AuthContextKey = "client_id"
	APIKeyHeader   = "X-API-Key"

	apiKeyClient = "api-key"
)

// Claims represents JWT claims
type Claims struct {
	ClientID string `json:"client_id"`
	jwt.RegisteredClaims
}

// Authenticator accepts either the static API key or a signed bearer token
type Authenticator struct {
	apiKey    []byte
	jwtSecret []byte
}

// NewAuthenticator creates an authenticator from config. Bearer tokens are
// only accepted when a JWT secret is configured.
func NewAuthenticator(cfg config.AuthConfig) *Authenticator {
	return &Authenticator{
		apiKey:    []byte(cfg.APIKey),
		jwtSecret: []byte(cfg.JWTSecret),
	}
}

// Middleware rejects requests without valid credentials
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if key := c.GetHeader(APIKeyHeader); key != "" {
			if !a.validAPIKey(key) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
				return
			}
			c.Set(AuthContextKey, apiKeyClient)
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API key or bearer token required"})
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format"})
			return
		}

		claims, err := a.ParseToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(AuthContextKey, claims.ClientID)
		c.Next()
	}
}

func (a *Authenticator) validAPIKey(key string) bool {
	if len(a.apiKey) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), a.apiKey) == 1
}

// ParseToken validates an HS256 token and returns its claims
func (a *Authenticator) ParseToken(tokenString string) (*Claims, error) {
	if len(a.jwtSecret) == 0 {
		return nil, errors.New("bearer tokens are disabled")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ClientID == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// GenerateToken issues a token for clientID
func (a *Authenticator) GenerateToken(clientID string, expiresIn time.Duration) (string, error) {
	if len(a.jwtSecret) == 0 {
		return "", errors.New("bearer tokens are disabled")
	}

	now := time.Now()
	claims := Claims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.jwtSecret)
}

// GetClientID retrieves the authenticated client from the context
func GetClientID(c *gin.Context) (string, bool) {
	clientID, exists := c.Get(AuthContextKey)
	if !exists {
		return "", false
	}

	id, ok := clientID.(string)
	return id, ok
}
