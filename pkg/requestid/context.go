package requestid

import "context"

type contextKey struct{}

// ContextKey returns the key under which the request ID is stored in context.
// Exposed for logger context extractors.
func ContextKey() any {
	return contextKey{}
}

func WithContext(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKey{}, requestID)
}

func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	requestID, ok := ctx.Value(contextKey{}).(string)
	if !ok {
		return ""
	}
	return requestID
}
