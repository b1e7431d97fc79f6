// Package module wires usage tracking into the API using modkit
package module

import (
	"net/http"

	modkit "newsdesk/internal/modkit"
	"newsdesk/internal/modkit/httpkit"
	str "newsdesk/internal/platform/strings"
	"newsdesk/internal/services/usage/domain"
	usagehttp "newsdesk/internal/services/usage/http"
	usagerepo "newsdesk/internal/services/usage/repo"
	usagesvc "newsdesk/internal/services/usage/service"
)

// Module implements the modkit.Module interface
type Module struct {
	deps modkit.Deps
	name string
	mws  []func(http.Handler) http.Handler

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc usagesvc.Service
}

// Ports exposes the usage service for the extraction workers and the janitor
type Ports struct {
	Usage domain.ServicePort
}

// New constructs a usage module with the provided dependencies and options
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("usage")}, opts...)...)

	svc := usagesvc.New(deps.DB, usagerepo.NewSQL())

	m := &Module{
		deps:      deps,
		name:      b.Name,
		mws:       b.Mw,
		subrouter: b.Subrouter,
		svc:       svc,
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		usagehttp.Register(r, m.svc)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes registers the usage route at the api root
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
func (m *Module) Ports() any { return Ports{Usage: m.svc} }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }
