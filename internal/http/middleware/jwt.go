package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/lumen/internal/auth"
	"github.com/Nixie-Tech-LLC/lumen/internal/model"
)

// UserLookup loads the admin a token was issued to.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (model.User, error)
}

func bearerClaims(c *gin.Context, secret, kind string) (auth.Claims, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing auth header", "code": "unauthenticated"})
		return auth.Claims{}, false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid auth header", "code": "unauthenticated"})
		return auth.Claims{}, false
	}

	claims, err := auth.ParseToken(parts[1], secret)
	if err != nil || claims.Kind != kind {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "code": "unauthenticated"})
		return auth.Claims{}, false
	}
	return claims, true
}

// JWTMiddleware checks "Authorization: Bearer <token>" for an admin, loads the user and sets "currentUser".
func JWTMiddleware(secret string, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := bearerClaims(c, secret, auth.KindAdmin)
		if !ok {
			return
		}

		user, err := users.GetUserByID(c.Request.Context(), claims.Subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found", "code": "unauthenticated"})
			return
		}
		c.Set(currentUserKey, &user)
		c.Next()
	}
}

// ScreenJWTMiddleware accepts screen session tokens and sets "currentScreen" to the screen ID.
// The screen itself is not loaded: a deleted screen must still reach the handlers to learn it is gone.
func ScreenJWTMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := bearerClaims(c, secret, auth.KindScreen)
		if !ok {
			return
		}
		c.Set(currentScreenKey, claims.Subject)
		c.Next()
	}
}
