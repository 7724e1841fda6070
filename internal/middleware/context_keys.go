package middleware

import "github.com/gin-gonic/gin"

const (
	// userIDKey holds the token subject.
	userIDKey = contextKey("userID")
	// userNameKey holds the display name recorded as createdBy, postedBy and reversedBy.
	userNameKey = contextKey("userName")
)

// GetUserIDFromContext retrieves the authenticated user ID from the request context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, ok := c.Request.Context().Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

// GetActorFromContext returns the display name of the authenticated user,
// falling back to the user ID when the token carried no name.
func GetActorFromContext(c *gin.Context) (string, bool) {
	if name, ok := c.Request.Context().Value(userNameKey).(string); ok && name != "" {
		return name, true
	}
	return GetUserIDFromContext(c)
}
