// Package module wires the status endpoints into the API using modkit
package module

import (
	"net/http"
	"time"

	modkit "newsdesk/internal/modkit"
	"newsdesk/internal/modkit/httpkit"
	str "newsdesk/internal/platform/strings"
	extractdom "newsdesk/internal/services/extract/domain"
	ingestdom "newsdesk/internal/services/ingest/domain"
	metahttp "newsdesk/internal/services/meta/http"
)

// Module implements the modkit.Module interface
type Module struct {
	deps modkit.Deps
	name string
	mws  []func(http.Handler) http.Handler

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	startedAt time.Time
}

// Ports declares the injected worker surfaces the status endpoint reads
type Ports struct {
	Extract extractdom.ServicePort
	Ingest  ingestdom.ServicePort
}

// New constructs a meta module with the provided dependencies and options
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("meta")}, opts...)...)

	injected, ok := b.Ports.(Ports)
	if !ok || injected.Extract == nil || injected.Ingest == nil {
		panic("meta module requires Ports{Extract, Ingest}")
	}

	m := &Module{
		deps:      deps,
		name:      b.Name,
		mws:       b.Mw,
		subrouter: b.Subrouter,
		startedAt: time.Now(),
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		metahttp.Register(r, metahttp.Deps{
			ServiceName: "newsdesk",
			StartedAt:   m.startedAt,
			DB:          deps.DB,
			Extract:     injected.Extract,
			Ingest:      injected.Ingest,
		})
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes registers the status routes at the api root
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

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return nil }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }
