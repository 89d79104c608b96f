package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/outcomefi/marketd/internal/crypto"
)

// maxSignedBodySize bounds how much of an admin request body is read for
// signature verification.
const maxSignedBodySize = 1 << 20

// AdminAuth returns middleware that verifies the HMAC signature headers on
// every request under /api/admin. Other paths pass through untouched. If auth
// is nil the admin surface is open (local development only).
func AdminAuth(auth *crypto.AdminAuth, maxSkew time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil || !strings.HasPrefix(r.URL.Path, "/api/admin") {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxSignedBodySize))
			if err != nil {
				writeUnauthorized(w, "unreadable request body")
				return
			}
			r.Body.Close()
			// The handler still needs the body after verification.
			r.Body = io.NopCloser(bytes.NewReader(body))

			err = auth.Verify(
				r.Method,
				r.URL.Path,
				string(body),
				r.Header.Get(crypto.HeaderKeyID),
				r.Header.Get(crypto.HeaderTimestamp),
				r.Header.Get(crypto.HeaderSignature),
				maxSkew,
			)
			if err != nil {
				writeUnauthorized(w, "invalid request signature")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeUnauthorized sends a 401 response with a JSON error body.
func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
