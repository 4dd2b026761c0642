package tokenauth

import "context"

type payloadContextKey struct{}

// WithPayload attaches a validated payload to ctx. The middleware package
// calls it after a successful Validate.
func WithPayload(ctx context.Context, p Payload) context.Context {
	return context.WithValue(ctx, payloadContextKey{}, p)
}

// PayloadFromContext returns the payload stored by WithPayload. The boolean
// is false when the request carried no validated credential.
func PayloadFromContext(ctx context.Context) (Payload, bool) {
	if ctx == nil {
		return nil, false
	}

	p, ok := ctx.Value(payloadContextKey{}).(Payload)
	return p, ok && p != nil
}
