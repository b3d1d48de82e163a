package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/results/internal/config"
)

// WebhookSecretHeader carries the shared secret on storage notifications.
const WebhookSecretHeader = "X-Webhook-Secret"

// WebhookSecret rejects storage notifications without a configured shared secret.
// With RequireSecret false every request passes. With RequireSecret true and no
// secrets configured every POST is rejected. Non-POST requests pass through so
// the handler can answer them with 405.
func WebhookSecret(cfg *config.WebhookConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireSecret || r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			secret := r.Header.Get(WebhookSecretHeader)
			if secret == "" {
				slog.Warn("webhook: missing secret",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				writeJSONError(w, http.StatusUnauthorized, "missing webhook secret")
				return
			}

			if !matchesAny(secret, cfg.Secrets) {
				slog.Warn("webhook: invalid secret",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				writeJSONError(w, http.StatusForbidden, "invalid webhook secret")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// matchesAny compares secret against every candidate in constant time,
// without stopping at the first match.
func matchesAny(secret string, candidates []string) bool {
	valid := 0
	for _, c := range candidates {
		valid |= subtle.ConstantTimeCompare([]byte(secret), []byte(c))
	}
	return valid == 1
}
