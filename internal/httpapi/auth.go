package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/gyeh/cms-pricing/internal/apperr"
)

type ctxKey int

const ctxKeyAdmin ctxKey = iota

// requireAPIKey rejects requests whose Authorization: Bearer <key>
// header does not match one of the configured regular or admin keys.
// An empty combined key set disables the check entirely, so local
// development needs no key. A matching admin key is recorded on the
// request context so downstream handlers can gate privileged
// operations with requireAdmin.
func requireAPIKey(keys, adminKeys []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(keys))
	for _, k := range keys {
		if k != "" {
			allowed[k] = true
		}
	}
	admin := make(map[string]bool, len(adminKeys))
	for _, k := range adminKeys {
		if k != "" {
			admin[k] = true
			allowed[k] = true
		}
	}
	return func(next http.Handler) http.Handler {
		if len(allowed) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" || r.URL.Path == "/geography/healthz" || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}
			key := bearerToken(r.Header.Get("Authorization"))
			if key == "" || !allowed[key] {
				writeError(w, apperr.New(apperr.CodeUnauthorized, "missing or invalid API key"))
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyAdmin, admin[key])
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requireAdmin wraps a handler that needs the admin bit: replay and
// snapshot pinning. It must run behind requireAPIKey so the admin flag
// is already on the request context; when no API keys are configured
// at all, every caller is treated as admin since the key check itself
// is disabled.
func requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if isAdmin, ok := r.Context().Value(ctxKeyAdmin).(bool); ok && !isAdmin {
			writeError(w, apperr.New(apperr.CodeForbidden, "missing or non-admin key for privileged operation"))
			return
		}
		next(w, r)
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
