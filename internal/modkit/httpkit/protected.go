package httpkit

import (
	"newsdesk/internal/platform/net/middleware"
)

// Protected groups routes behind basic auth when credentials are configured.
// With empty creds the group is mounted open, which keeps localhost-only
// deployments friction free
func Protected(r Router, creds middleware.BasicAuthCreds, fn func(Router)) {
	r.Group(func(gr Router) {
		if creds.Enabled() {
			gr.Use(Basic(creds))
		}
		fn(gr)
	})
}
