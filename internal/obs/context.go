package obs

import "context"

type routePatternKey struct{}

// WithRoutePattern stores the matched router pattern on the context.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, routePatternKey{}, pattern)
}

// RoutePatternFromContext extracts the route pattern from context if present.
func RoutePatternFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(routePatternKey{}).(string)
	return v
}

type requestFieldsKey struct{}

// requestFields collects values set by inner handlers for the request log line.
type requestFields struct {
	shop string
}

func withRequestFields(ctx context.Context) (context.Context, *requestFields) {
	fields := &requestFields{}
	return context.WithValue(ctx, requestFieldsKey{}, fields), fields
}

// SetLogShop records the calling shop on the enclosing request log line. It is
// a no-op outside RequestLogger.
func SetLogShop(ctx context.Context, shop string) {
	if ctx == nil {
		return
	}
	if fields, ok := ctx.Value(requestFieldsKey{}).(*requestFields); ok {
		fields.shop = shop
	}
}
