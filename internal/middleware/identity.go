package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/transcript-api/pkg/errors"
	"github.com/noah-isme/transcript-api/pkg/logger"
	"github.com/noah-isme/transcript-api/pkg/response"
)

// DefaultIdentityHeader carries the user id set by the upstream auth proxy.
const DefaultIdentityHeader = "X-User-ID"

const maxUserIDLength = 255

// Identity trusts the user id forwarded by the authentication layer in front of
// the API. Requests without one are rejected with 401.
func Identity(header string) gin.HandlerFunc {
	if header == "" {
		header = DefaultIdentityHeader
	}
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(header))
		if userID == "" || len(userID) > maxUserIDLength {
			response.Abort(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing user identity"))
			return
		}
		c.Set(logger.UserIDKey, userID)
		c.Next()
	}
}

// UserID returns the identity stored by Identity.
func UserID(c *gin.Context) string {
	return c.GetString(logger.UserIDKey)
}
