package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/modelado-pao/internal/domain/auth"
)

// HeaderAPIKey carries the caller's API key.
const HeaderAPIKey = "api_key"

// apiKey extracts the key from the api_key header or an
// "Authorization: Bearer" header.
func apiKey(r *http.Request) string {
	if k := strings.TrimSpace(r.Header.Get(HeaderAPIKey)); k != "" {
		return k
	}
	authz := r.Header.Get("Authorization")
	if len(authz) > 7 && strings.EqualFold(authz[:7], "bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	return ""
}

// RequireAdmin authenticates the request's API key and rejects callers
// without the admin capability.
func RequireAdmin(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			p, err := a.Authenticate(ctx, apiKey(r))
			if err != nil {
				fail(ctx, w, err)
				return
			}
			ctx = auth.WithPrincipal(ctx, p)
			if !auth.HasAdminCapability(ctx) {
				zctx.From(ctx).Info("Admin access denied", zap.String("key_id", p.KeyID))
				fail(ctx, w, auth.ErrForbidden)
				return
			}

			lg := zctx.From(ctx).With(zap.String("key_id", p.KeyID))
			next.ServeHTTP(w, r.WithContext(zctx.Base(ctx, lg)))
		})
	}
}
