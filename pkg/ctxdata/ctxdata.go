package ctxdata

import (
	"context"
)

type traceIDKey struct{}
type userIDKey struct{}

var (
	traceIDKeyInstance = traceIDKey{}
	userIDKeyInstance  = userIDKey{}
)

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKeyInstance, traceID)
}

func GetTraceID(ctx context.Context) (string, bool) {
	traceID, ok := ctx.Value(traceIDKeyInstance).(string)
	return traceID, ok && traceID != ""
}

// WithUserID stores the id of the student the request acts for.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKeyInstance, userID)
}

func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKeyInstance).(string)
	return userID, ok && userID != ""
}
