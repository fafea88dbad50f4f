package utils

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// BearerToken pulls the raw credential out of the Authorization header.
// Returns "" when no credential was presented or the scheme is not Bearer.
func BearerToken(c *gin.Context) string {
	authHeader := c.Request.Header.Get("Authorization")
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == authHeader {
		return ""
	}
	return strings.TrimSpace(token)
}
