package api

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/kiwellness/coach/internal/storage"
)

// APIKeyAuth authenticates requests by the X-API-Key header or the api_key
// query parameter. Accepted requests have their usage counted per key hash
// and endpoint; counting failures never block the request.
func APIKeyAuth(validKeys []string, store *storage.Store, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				key = r.URL.Query().Get("api_key")
			}
			if key == "" || !keyAccepted(key, validKeys) {
				httpError(w, http.StatusUnauthorized, "authentication_error", "invalid or missing API key")
				return
			}

			if store != nil {
				sum := sha256.Sum256([]byte(key))
				if err := store.BumpAPIUsage(hex.EncodeToString(sum[:]), r.URL.Path); err != nil {
					logger.Warn("failed to record API usage", "endpoint", r.URL.Path, "error", err)
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func keyAccepted(key string, validKeys []string) bool {
	accepted := false
	for _, valid := range validKeys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(valid)) == 1 {
			accepted = true
		}
	}
	return accepted
}
