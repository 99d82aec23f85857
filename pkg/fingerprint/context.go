package fingerprint

import "context"

type contextKey struct{}

func WithContext(ctx context.Context, fp string) context.Context {
	return context.WithValue(ctx, contextKey{}, fp)
}

func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	fp, ok := ctx.Value(contextKey{}).(string)
	if !ok {
		return ""
	}
	return fp
}
