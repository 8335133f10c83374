package contexthelpers

import (
	"context"
)

// UserID returns the id of the user the request acts on or "" when none is set.
func UserID(ctx context.Context) string {
	userID, ok := ctx.Value(UserIDContextKey).(string)
	if !ok {
		return ""
	}

	return userID
}

func TraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDContextKey).(string)
	if !ok {
		return ""
	}

	return traceID
}
