package auth

import (
	"net/http"
	"strings"

	"github.com/earnlift/ledger/internal/ledger/models"
	"github.com/gin-gonic/gin"
)

const callerContextKey = "caller"

// Middleware returns a gin middleware that validates the Bearer token and
// stores the caller identity in the request context.
func Middleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := extractTokenFromHeader(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		claims, err := validateToken(tokenString, jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		sub, err := claims.GetSubject()
		if err != nil || sub == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token subject missing"})
			return
		}

		c.Set(callerContextKey, models.Identity(sub))
		c.Next()
	}
}

// CallerFrom returns the authenticated caller identity set by Middleware.
func CallerFrom(c *gin.Context) models.Identity {
	v, ok := c.Get(callerContextKey)
	if !ok {
		return ""
	}
	identity, _ := v.(models.Identity)
	return identity
}

func extractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errMissingAuthorization
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", errInvalidAuthorization
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == "" {
		return "", errInvalidAuthorization
	}
	return tokenString, nil
}
