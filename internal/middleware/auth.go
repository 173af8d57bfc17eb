package middleware

import (
	"encoding/json"
	"net/http"
)

// APIKeyHeader carries the shared secret on mutating routes.
const APIKeyHeader = "X-API-KEY"

type Verifier interface {
	Verify(presented string) bool
}

// APIKey rejects requests whose X-API-KEY header is missing or wrong with a
// 403 before they reach the handler.
func APIKey(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(APIKeyHeader)
			if key == "" {
				reject(w, http.StatusForbidden, "forbidden", "missing api key")
				return
			}
			if !v.Verify(key) {
				reject(w, http.StatusForbidden, "forbidden", "invalid api key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func reject(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"status": status, "code": code, "message": msg})
}
