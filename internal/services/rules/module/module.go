// Package module wires curation rules into the API using modkit
package module

import (
	"net/http"

	modkit "newsdesk/internal/modkit"
	"newsdesk/internal/modkit/httpkit"
	str "newsdesk/internal/platform/strings"
	"newsdesk/internal/services/rules/domain"
	ruleshttp "newsdesk/internal/services/rules/http"
	rulesrepo "newsdesk/internal/services/rules/repo"
	rulessvc "newsdesk/internal/services/rules/service"
)

// Module implements the modkit.Module interface
type Module struct {
	deps modkit.Deps
	name string
	mws  []func(http.Handler) http.Handler

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc rulessvc.Service
}

// Ports exposes the rules service for cross module wiring
type Ports struct {
	Rules domain.ServicePort
}

// New constructs a rules module with the provided dependencies and options
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("rules")}, opts...)...)

	svc := rulessvc.New(deps.DB, rulesrepo.NewSQL())

	m := &Module{
		deps:      deps,
		name:      b.Name,
		mws:       b.Mw,
		subrouter: b.Subrouter,
		svc:       svc,
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		ruleshttp.Register(r, m.svc)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes registers the rule routes at the api root.
// The blocked, merit, and demerit groups have distinct prefixes, so the
// module mounts flat like stories
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
func (m *Module) Ports() any { return Ports{Rules: m.svc} }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }
