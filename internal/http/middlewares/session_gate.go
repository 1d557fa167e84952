package middlewares

import (
	"context"
	"net/http"

	"github.com/docaidkit/medkit/internal/auth"
	"github.com/docaidkit/medkit/internal/domain/session"
	"github.com/gin-gonic/gin"
)

// SessionSource is kept small so tests can fake it easily.
type SessionSource interface {
	Session(ctx context.Context) (session.Session, error)
}

type SessionGate struct {
	sessions SessionSource
}

func NewSessionGate(sessions SessionSource) *SessionGate {
	return &SessionGate{sessions: sessions}
}

// RequireAuth loads the session once, runs the authorization decision and
// either aborts with a redirect signal or stashes the snapshot on the gin
// context. Handlers read that same snapshot, so the navigation decision
// and any render predicate always agree within one request.
func (g *SessionGate) RequireAuth(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := g.sessions.Session(c.Request.Context())

		switch auth.Decide(sess, err, requiredRole) {
		case auth.DecisionRedirectLogin:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "redirect_login",
					"message": "Authentication required",
				},
			})
			return
		case auth.DecisionRedirectHome:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    "redirect_home",
					"message": "Insufficient role",
				},
			})
			return
		}

		// Stash the snapshot so handlers re-check against the same state
		c.Set(string(CtxSession), sess)
		c.Set(string(CtxUserID), sess.UserID)
		c.Set(string(CtxRole), sess.Role)

		c.Next()
	}
}

// Helpers so handlers do not need to know the magic keys.

func SessionFromContext(c *gin.Context) (session.Session, bool) {
	v, ok := c.Get(string(CtxSession))
	if !ok {
		return session.Session{}, false
	}
	sess, ok := v.(session.Session)
	return sess, ok
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(string(CtxUserID))
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

func RoleFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(string(CtxRole))
	if !ok {
		return "", false
	}
	role, ok := v.(string)
	return role, ok
}
