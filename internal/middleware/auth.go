package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/coursehub/pkg/models"
)

const (
	// ActorContextKey holds the authenticated models.Actor
	ActorContextKey = "actor"
)

// TokenParser validates bearer tokens
type TokenParser interface {
	Parse(token string) (models.Actor, error)
}

// JWTAuth middleware validates bearer tokens and stores the actor in the context
func JWTAuth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthenticated(c, "Authorization header required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			abortUnauthenticated(c, "Invalid authorization format")
			return
		}

		actor, err := parser.Parse(parts[1])
		if err != nil {
			abortUnauthenticated(c, "Invalid or expired token")
			return
		}

		c.Set(ActorContextKey, actor)
		c.Next()
	}
}

// GetActor retrieves the authenticated actor from the context
func GetActor(c *gin.Context) (models.Actor, bool) {
	value, exists := c.Get(ActorContextKey)
	if !exists {
		return models.Actor{}, false
	}

	actor, ok := value.(models.Actor)
	return actor, ok
}

func abortUnauthenticated(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": msg,
		"kind":  models.ErrorKind(models.ErrUnauthenticated),
	})
}
