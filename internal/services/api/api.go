// Package api composes the application modules into the HTTP surface
package api

import (
	"newsdesk/internal/platform/config"
	"newsdesk/internal/platform/logger"
	phttp "newsdesk/internal/platform/net/http"
	"newsdesk/internal/platform/net/middleware"
	"newsdesk/internal/platform/store"

	"newsdesk/internal/modkit"
	"newsdesk/internal/modkit/httpkit"
	"newsdesk/internal/modkit/module"

	extractdom "newsdesk/internal/services/extract/domain"
	ingestdom "newsdesk/internal/services/ingest/domain"
	ingestmod "newsdesk/internal/services/ingest/module"
	metamod "newsdesk/internal/services/meta/module"
	rulesmod "newsdesk/internal/services/rules/module"
	storiesdom "newsdesk/internal/services/stories/domain"
	storiesmod "newsdesk/internal/services/stories/module"
	usagemod "newsdesk/internal/services/usage/module"
)

// Options are the API options
type Options struct {
	Config config.Conf
	Store  *store.Store
	Logger *logger.Logger

	// Auth guards every route when credentials are set; empty creds leave
	// the API open for localhost-only use
	Auth middleware.BasicAuthCreds

	// Extract and Ingest are the worker services built and run in main;
	// the API only reads their state and triggers fetches
	Extract extractdom.ServicePort
	Ingest  ingestdom.ServicePort

	EnableProfiler bool
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	deps := modkit.Deps{
		Log:   *opt.Logger,
		Cfg:   opt.Config,
		DB:    opt.Store.DB,
		Maint: opt.Store.Maint,
	}

	// rules first; the stories batch endpoint forwards blocked-domain adds
	// to it
	rules := rulesmod.New(deps)
	stories := storiesmod.New(deps, modkit.WithPorts(storiesmod.Ports{
		Blocker: module.MustPortsOf[storiesdom.DomainBlocker](rules),
	}))

	mods := []module.Module{
		stories,
		rules,
		usagemod.New(deps),
		ingestmod.New(deps, modkit.WithPorts(ingestmod.Ports{Ingest: opt.Ingest})),
		metamod.New(deps, modkit.WithPorts(metamod.Ports{
			Extract: opt.Extract,
			Ingest:  opt.Ingest,
		})),
	}

	// the UI expects stable unversioned paths under /api
	httpkit.MountUnder(r, "/api", httpkit.CommonStack(), func(api httpkit.Router) {
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		httpkit.Protected(api, opt.Auth, func(gr httpkit.Router) {
			for _, m := range mods {
				module.Register(m.Name(), m.Ports())
				m.MountRoutes(gr)
			}
		})
	})
}
