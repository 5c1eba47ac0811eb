package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gramlabs/gramd/pkg/errors"
	"github.com/gramlabs/gramd/pkg/response"
)

// ProducerKeyHeader carries the producer workflow credential used by gram
// creation tooling.
const ProducerKeyHeader = "X-Producer-Key"

// ProducerKey guards the producer endpoints (gram creation) behind a shared
// key. An empty configured key disables the surface entirely.
func ProducerKey(key string) gin.HandlerFunc {
	key = strings.TrimSpace(key)
	return func(c *gin.Context) {
		if key == "" {
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}

		supplied := strings.TrimSpace(c.GetHeader(ProducerKeyHeader))
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(key)) != 1 {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Next()
	}
}
