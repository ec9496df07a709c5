package handler

type ContextKey string

var (
	RoleCtxKey ContextKey = "role"
	SubCtxKey  ContextKey = "sub"
	JobCtx     ContextKey = "job"
	PunchCtx   ContextKey = "punch"
)
