// Package http provides http transport for ingestion
package http

import (
	stdhttp "net/http"

	"newsdesk/internal/modkit/httpkit"
	"newsdesk/internal/services/ingest/domain"
)

// Register mounts the manual fetch trigger on the given router
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}
	httpkit.Post(r, "/fetch", h.fetch)
}

type handlers struct{ svc domain.ServicePort }

func (h *handlers) fetch(r *stdhttp.Request) (any, error) {
	res, err := h.svc.FetchNow(r.Context())
	if err != nil {
		return nil, err
	}
	return res, nil
}
