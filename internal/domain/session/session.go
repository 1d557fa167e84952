package session

// Session is a denormalized snapshot of the account taken at login time.
// It is not live-linked: a later account change does not flow into it
// unless profile logic re-syncs explicitly.
type Session struct {
	Email  string `json:"email"`
	Role   string `json:"role"`
	UserID string `json:"userId"`
	Name   string `json:"name"`
}
