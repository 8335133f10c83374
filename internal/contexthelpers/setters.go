package contexthelpers

import (
	"context"
	"net/http"
)

// WithUserID scopes ctx to a user. Repositories read the user from the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDContextKey, userID)
}

func SetUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(WithUserID(r.Context(), userID))
}

func SetTraceID(r *http.Request, traceID string) *http.Request {
	ctx := context.WithValue(r.Context(), TraceIDContextKey, traceID)
	return r.WithContext(ctx)
}
