package common

import "context"

type ctxKey string

const shopIDKey ctxKey = "caller/shop-id"

// WithShopID stores the verified calling shop on the provided context.
func WithShopID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, shopIDKey, id)
}

// ShopID extracts the calling shop from the context if present.
func ShopID(ctx context.Context) (string, bool) {
	v := ctx.Value(shopIDKey)
	if v == nil {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
