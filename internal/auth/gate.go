package auth

import (
	"github.com/docaidkit/medkit/internal/domain/account"
	"github.com/docaidkit/medkit/internal/domain/session"
)

type Decision int

const (
	DecisionAllow Decision = iota
	// no session at all: the client should go to the login view
	DecisionRedirectLogin
	// authenticated but the role does not satisfy the requirement:
	// the client should go back home
	DecisionRedirectHome
)

// Decide is the single authorization predicate. Both the route middleware
// and any in-handler render check call it with the same session snapshot,
// so the two call sites cannot diverge within one request.
//
// An empty requiredRole means "any authenticated user". Admin satisfies
// every role requirement; that is the only elevation, not a general
// hierarchy.
func Decide(sess session.Session, sessErr error, requiredRole string) Decision {
	if sessErr != nil {
		return DecisionRedirectLogin
	}

	if requiredRole != "" && sess.Role != requiredRole && sess.Role != account.RoleAdmin {
		return DecisionRedirectHome
	}

	return DecisionAllow
}
