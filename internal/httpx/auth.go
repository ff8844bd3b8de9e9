package httpx

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/foodapp/internal/apperr"
	"github.com/MikeMC777/foodapp/internal/auth"
)

const actorKey = "actor"

// Verifier turns a raw access token into the acting user.
type Verifier interface {
	Verify(raw string) (auth.Actor, error)
}

// Auth rejects requests without a valid token. The token is read from
// "Authorization: Bearer <token>" or, failing that, the x-auth-token header.
func Auth(v Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := tokenFrom(c)
		if raw == "" {
			WriteError(c, apperr.Unauthenticated("No token, authorization denied"))
			c.Abort()
			return
		}
		a, err := v.Verify(raw)
		if err != nil {
			WriteError(c, apperr.Wrap(apperr.KindUnauthenticated, "Token is not valid", err))
			c.Abort()
			return
		}
		c.Set(actorKey, a)
		c.Next()
	}
}

// ActorFrom returns the user set by Auth.
func ActorFrom(c *gin.Context) (auth.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return auth.Actor{}, false
	}
	a, ok := v.(auth.Actor)
	return a, ok
}

func tokenFrom(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if scheme, tok, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tok)
		}
	}
	return strings.TrimSpace(c.GetHeader("x-auth-token"))
}
