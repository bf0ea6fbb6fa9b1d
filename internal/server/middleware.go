package server

import (
	"context"
	"crypto/subtle"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// agentPaths are the routes agents call with the client secret. Every
// other route is for API consumers and requires the API key.
var agentPaths = map[string]bool{
	"/v1/reports":  true,
	"/v1/commands": true,
}

// AuthMiddleware validates the X-Client-Secret header on agent routes
// and the X-API-Key header everywhere else. An empty secret disables
// the corresponding check. Swagger UI is unaffected because it is
// registered via HandlePrefix, which bypasses the middleware chain.
func AuthMiddleware(apiSecret, clientSecret string) middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req any) (any, error) {
			tr, ok := transport.FromServerContext(ctx)
			if !ok {
				return nil, kerrors.InternalServer("NO_TRANSPORT", "no transport in context")
			}
			ht, ok := tr.(khttp.Transporter)
			if !ok {
				return nil, kerrors.InternalServer("NO_TRANSPORT", "not an HTTP transport")
			}

			if agentPaths[ht.Request().URL.Path] {
				if clientSecret == "" {
					return handler(ctx, req)
				}
				secret := tr.RequestHeader().Get("X-Client-Secret")
				if secret == "" {
					return nil, kerrors.Unauthorized("MISSING_CLIENT_SECRET", "missing X-Client-Secret header")
				}
				if subtle.ConstantTimeCompare([]byte(secret), []byte(clientSecret)) != 1 {
					return nil, kerrors.Unauthorized("INVALID_CLIENT_SECRET", "invalid X-Client-Secret")
				}
				return handler(ctx, req)
			}

			if apiSecret == "" {
				return handler(ctx, req)
			}
			key := tr.RequestHeader().Get("X-API-Key")
			if key == "" {
				return nil, kerrors.Unauthorized("MISSING_API_KEY", "missing X-API-Key header")
			}
			if subtle.ConstantTimeCompare([]byte(key), []byte(apiSecret)) != 1 {
				return nil, kerrors.Unauthorized("INVALID_API_KEY", "invalid X-API-Key")
			}

			return handler(ctx, req)
		}
	}
}
