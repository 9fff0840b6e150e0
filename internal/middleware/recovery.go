package middleware

import (
	"errors"
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/social-core/pkg/logger"
	"github.com/d60-Lab/social-core/pkg/response"
)

// Recovery turns panics into 500 responses and forwards them to Sentry
// when a DSN is configured.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				err, ok := r.(error)
				if !ok {
					err = fmt.Errorf("panic: %v", r)
				}
				logger.Error("panic recovered",
					zap.Error(err),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
				)
				if hub := sentry.CurrentHub(); hub.Client() != nil {
					hub.CaptureException(err)
				}
				response.InternalError(c, errors.New("internal server error"))
				c.Abort()
			}
		}()
		c.Next()
	}
}
