package middleware

import "github.com/gin-gonic/gin"

// userIDKey is the key used to store the authenticated user's ID in the
// request context.
const userIDKey = contextKey("userID")

// worldIDKey is the key used to store the authenticated user's world in the
// request context.
const worldIDKey = contextKey("worldID")

// isGMKey is the key used to store the authenticated user's GM status in the
// request context.
const isGMKey = contextKey("isGM")

// GetUserIDFromContext retrieves the authenticated user ID from the Gin
// context. It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userIDVal := c.Request.Context().Value(userIDKey)
	if userIDVal == nil {
		return "", false
	}
	userID, ok := userIDVal.(string)
	if !ok {
		return "", false
	}
	return userID, true
}

// GetWorldIDFromContext retrieves the authenticated user's world ID from the
// Gin context.
func GetWorldIDFromContext(c *gin.Context) (string, bool) {
	worldIDVal := c.Request.Context().Value(worldIDKey)
	if worldIDVal == nil {
		return "", false
	}
	worldID, ok := worldIDVal.(string)
	if !ok {
		return "", false
	}
	return worldID, true
}

// GetIsGMFromContext retrieves the authenticated user's GM status from the
// Gin context. Absent means false.
func GetIsGMFromContext(c *gin.Context) bool {
	isGMVal := c.Request.Context().Value(isGMKey)
	if isGMVal == nil {
		return false
	}
	isGM, ok := isGMVal.(bool)
	return ok && isGM
}
