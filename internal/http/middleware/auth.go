package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/lumen/internal/model"
)

const (
	currentUserKey   = "currentUser"
	currentScreenKey = "currentScreen"
)

// GetCurrentUser retrieves *model.User from Gin context (after JWTMiddleware has run).
func GetCurrentUser(c *gin.Context) (*model.User, bool) {
	u, exists := c.Get(currentUserKey)
	if !exists {
		return nil, false
	}
	user, ok := u.(*model.User)
	return user, ok
}

// GetCurrentScreen returns the screen ID set by ScreenJWTMiddleware.
func GetCurrentScreen(c *gin.Context) (string, bool) {
	id := c.GetString(currentScreenKey)
	return id, id != ""
}
