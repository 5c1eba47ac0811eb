package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/gramlabs/gramd/internal/auth"
	"github.com/gramlabs/gramd/pkg/errors"
	"github.com/gramlabs/gramd/pkg/response"
)

const (
	CtxClaimsKey     = "authClaims"
	CtxBusinessIDKey = "businessID"
	CtxSessionIDKey  = "sessionID"
)

// Auth enforces vendor JWT authentication using the supplied JWT service.
// The business id claim becomes the authorization scope for the request.
func Auth(jwt *iauth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		token := strings.TrimSpace(authz[7:])
		claims, err := jwt.ValidateAccessToken(token)
		if err != nil {
			// Normalise all validation failures to 401
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxBusinessIDKey, claims.BusinessID)
		if claims.SessionID != "" {
			c.Set(CtxSessionIDKey, claims.SessionID)
		}

		c.Next()
	}
}
