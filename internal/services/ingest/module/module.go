// Package module wires ingestion into the API using modkit
package module

import (
	"net/http"

	modkit "newsdesk/internal/modkit"
	"newsdesk/internal/modkit/httpkit"
	str "newsdesk/internal/platform/strings"
	"newsdesk/internal/services/ingest/domain"
	ingesthttp "newsdesk/internal/services/ingest/http"
)

// Module implements the modkit.Module interface
type Module struct {
	deps modkit.Deps
	name string
	mws  []func(http.Handler) http.Handler

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc domain.ServicePort
}

// Ports carries the ingestion service. The service is built in main because
// the scheduler runs outside the HTTP tree; the module only mounts the
// manual trigger
type Ports struct {
	Ingest domain.ServicePort
}

// New constructs an ingest module around an already running service
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("ingest")}, opts...)...)

	injected, ok := b.Ports.(Ports)
	if !ok || injected.Ingest == nil {
		panic("ingest module requires Ports{Ingest}")
	}

	m := &Module{
		deps:      deps,
		name:      b.Name,
		mws:       b.Mw,
		subrouter: b.Subrouter,
		svc:       injected.Ingest,
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		ingesthttp.Register(r, m.svc)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes registers the fetch trigger at the api root
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Group(func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Ports re-exports the running service for cross module lookups
func (m *Module) Ports() any { return Ports{Ingest: m.svc} }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }
