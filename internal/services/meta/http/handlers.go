// Package http provides the operational status endpoints
package http

import (
	stdctx "context"
	stdhttp "net/http"
	"time"

	"newsdesk/internal/core/version"
	"newsdesk/internal/modkit/httpkit"
	"newsdesk/internal/platform/store"
	extractdom "newsdesk/internal/services/extract/domain"
	ingestdom "newsdesk/internal/services/ingest/domain"
)

// Deps are the handler dependencies
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	DB          store.TxRunner
	Extract     extractdom.ServicePort
	Ingest      ingestdom.ServicePort
}

// Register mounts the status routes
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d}

	httpkit.Get(r, "/status", h.status)
	httpkit.Get(r, "/status/queue", h.queue)
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", h.version)
}

type handlers struct{ deps Deps }

// QuotaInfo reports daily render budget exhaustion
type QuotaInfo struct {
	Exceeded        bool `json:"exceeded"`
	ResetsInSeconds int  `json:"resets_in_seconds"`
}

// StatusResponse is the operational snapshot for the UI header
type StatusResponse struct {
	Service          string                `json:"service"`
	Uptime           int64                 `json:"uptime"`
	Workers          int                   `json:"workers"`
	Queue            extractdom.QueueStats `json:"queue"`
	Quota            *QuotaInfo            `json:"cf_quota"`
	RateLimitedUntil string                `json:"rate_limited_until,omitzero"`
	LastFetch        string                `json:"last_fetch,omitzero"`
}

func (h *handlers) status(r *stdhttp.Request) (any, error) {
	queue, err := h.deps.Extract.QueueStats(r.Context())
	if err != nil {
		return nil, err
	}

	now := time.Now()
	out := StatusResponse{
		Service: h.deps.ServiceName,
		Uptime:  int64(now.Sub(h.deps.StartedAt).Seconds()),
		Workers: h.deps.Extract.Workers(),
		Queue:   queue,
	}

	gates := h.deps.Extract.GateState()
	if gates.QuotaExceededUntil.After(now) {
		out.Quota = &QuotaInfo{
			Exceeded:        true,
			ResetsInSeconds: int(gates.QuotaExceededUntil.Sub(now).Seconds()),
		}
	}
	if gates.RateLimitedUntil.After(now) {
		out.RateLimitedUntil = gates.RateLimitedUntil.UTC().Format(time.RFC3339)
	}
	if last := h.deps.Ingest.LastFetch(); !last.IsZero() {
		out.LastFetch = last.UTC().Format(time.RFC3339)
	}
	return out, nil
}

func (h *handlers) queue(r *stdhttp.Request) (any, error) {
	return h.deps.Extract.Diagnostic(r.Context())
}

// ReadyResponse summarizes readiness
type ReadyResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitzero"`
	Now    string `json:"now"`
}

func (h *handlers) ready(_ *stdhttp.Request) (any, error) {
	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), 2*time.Second)
	defer cancel()

	out := ReadyResponse{Status: "ok", Now: time.Now().UTC().Format(time.RFC3339)}
	if p, ok := h.deps.DB.(store.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			out.Status = "fail"
			out.Error = err.Error()
		}
	}
	return out, nil
}

func (h *handlers) version(_ *stdhttp.Request) (any, error) {
	return version.Info(), nil
}
