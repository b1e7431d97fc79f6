// Package module wires stories into the API using modkit
package module

import (
	"net/http"

	modkit "newsdesk/internal/modkit"
	"newsdesk/internal/modkit/httpkit"
	str "newsdesk/internal/platform/strings"
	"newsdesk/internal/services/stories/domain"
	storieshttp "newsdesk/internal/services/stories/http"
	storiesrepo "newsdesk/internal/services/stories/repo"
	storiessvc "newsdesk/internal/services/stories/service"
)

// Module implements the modkit.Module interface
type Module struct {
	deps modkit.Deps
	name string
	mws  []func(http.Handler) http.Handler

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc storiessvc.Service
}

// Ports declares the injected cross module dependencies.
// The batch endpoint forwards blocked-domain adds to the rules module
type Ports struct {
	Blocker domain.DomainBlocker
}

// New constructs a stories module with the provided dependencies and options
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("stories")}, opts...)...)

	var injected Ports
	if p, ok := b.Ports.(Ports); ok {
		injected = p
	}

	svc := storiessvc.New(deps.DB, storiesrepo.NewSQL())

	m := &Module{
		deps:      deps,
		name:      b.Name,
		mws:       b.Mw,
		subrouter: b.Subrouter,
		svc:       svc,
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		storieshttp.Register(r, m.svc, injected.Blocker)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes registers the story routes at the api root.
// The endpoints share no common path prefix, so there is no Route wrapper
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
