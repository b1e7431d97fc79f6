// Package http provides http transport for usage stats
package http

import (
	stdhttp "net/http"

	"newsdesk/internal/modkit/httpkit"
	svc "newsdesk/internal/services/usage/service"
)

// Register mounts the usage endpoint on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}
	httpkit.Get(r, "/usage", h.stats)
}

type handlers struct{ svc svc.Service }

func (h *handlers) stats(r *stdhttp.Request) (any, error) {
	return h.svc.Stats(r.Context())
}
