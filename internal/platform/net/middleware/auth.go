package middleware

import (
	"crypto/subtle"
	"net/http"

	perr "newsdesk/internal/platform/errors"
	pnet "newsdesk/internal/platform/net"
)

// BasicAuthCreds holds the single configured credential pair.
// An empty User disables the check entirely (local, non-public bind)
type BasicAuthCreds struct {
	User string
	Pass string
}

// Enabled reports whether credentials are configured
func (c BasicAuthCreds) Enabled() bool { return c.User != "" }

// BasicAuth enforces HTTP basic auth with constant-time comparison.
// write is the JSON error writer so this package stays transport-shape agnostic
func BasicAuth(
	creds BasicAuthCreds,
	write func(w http.ResponseWriter, status int, body any),
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !creds.Enabled() {
				next.ServeHTTP(w, r)
				return
			}
			user, pass, ok := r.BasicAuth()
			if !ok || !constantTimeEq(user, creds.User) || !constantTimeEq(pass, creds.Pass) {
				w.Header().Set("WWW-Authenticate", `Basic realm="newsdesk"`)
				status, body := pnet.Error(perr.Unauthorizedf("authentication required"), pnet.RequestID(r.Context()))
				write(w, status, body)
				return
			}
			next.ServeHTTP(w, r.WithContext(pnet.WithUser(r.Context(), user)))
		})
	}
}

func constantTimeEq(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
