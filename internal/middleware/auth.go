package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/d60-Lab/social-core/internal/service"
	"github.com/d60-Lab/social-core/pkg/logger"
	"github.com/d60-Lab/social-core/pkg/response"
)

const callerIDKey = "callerID"

// identityClaims is what the external identity provider signs into the
// bearer token: an opaque subject plus the profile snapshot used for sync.
type identityClaims struct {
	jwt.RegisteredClaims
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Pfp      string `json:"pfp,omitempty"`
}

// Auth resolves the caller's identity token into a local user id and puts
// it on the request context. With required=false an absent or malformed
// token degrades to an anonymous request instead of failing; mutations
// mount the required variant.
func Auth(users service.UserService, secret string, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			if required {
				response.Unauthorized(c, "authentication required")
				c.Abort()
				return
			}
			c.Next()
			return
		}

		claims := &identityClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid || claims.Subject == "" {
			if required {
				response.Unauthorized(c, "invalid token")
				c.Abort()
				return
			}
			c.Next()
			return
		}

		// create-on-first-contact + profile sync
		u, err := users.EnsureUser(c.Request.Context(), claims.Subject, service.Profile{
			Name:     claims.Name,
			Email:    claims.Email,
			Username: claims.Username,
			Pfp:      claims.Pfp,
		})
		if err != nil {
			logger.Error("resolve identity", zap.Error(err))
			response.InternalError(c, err)
			c.Abort()
			return
		}
		c.Set(callerIDKey, u.ID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// CallerID returns the resolved caller or nil for anonymous requests.
func CallerID(c *gin.Context) *string {
	v, ok := c.Get(callerIDKey)
	if !ok {
		return nil
	}
	id, ok := v.(string)
	if !ok || id == "" {
		return nil
	}
	return &id
}
