package middlewares

type ctxKey string

const (
	CtxRequestID ctxKey = "request_id"
	CtxSession   ctxKey = "session"
	CtxUserID    ctxKey = "userID"
	CtxRole      ctxKey = "role"
	CtxEmail     ctxKey = "email"
)
