// Package http provides http transport for curation rules
package http

import (
	"context"
	stdhttp "net/http"

	"newsdesk/internal/modkit/httpkit"
	perr "newsdesk/internal/platform/errors"
	svc "newsdesk/internal/services/rules/service"
)

type ack struct {
	OK bool `json:"ok"`
}

// Register mounts the rule endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}

	httpkit.Get(r, "/blocked/domains", h.blockedDomains)
	httpkit.Post(r, "/blocked/domains", h.keyed("domain", h.svc.AddBlockedDomain))
	httpkit.Delete(r, "/blocked/domains", h.keyed("domain", h.svc.RemoveBlockedDomain))

	httpkit.Get(r, "/blocked/words", h.blockedWords)
	httpkit.Post(r, "/blocked/words", h.keyed("word", h.svc.AddBlockedWord))
	httpkit.Delete(r, "/blocked/words", h.keyed("word", h.svc.RemoveBlockedWord))

	httpkit.Get(r, "/merit/words", h.meritWords)
	httpkit.Post(r, "/merit/words", h.weighted("word", h.svc.SetMeritWord))
	httpkit.Delete(r, "/merit/words", h.keyed("word", h.svc.RemoveMeritWord))

	httpkit.Get(r, "/demerit/words", h.demeritWords)
	httpkit.Post(r, "/demerit/words", h.weighted("word", h.svc.SetDemeritWord))
	httpkit.Delete(r, "/demerit/words", h.keyed("word", h.svc.RemoveDemeritWord))

	httpkit.Get(r, "/merit/domains", h.meritDomains)
	httpkit.Post(r, "/merit/domains", h.weighted("domain", h.svc.SetMeritDomain))
	httpkit.Delete(r, "/merit/domains", h.keyed("domain", h.svc.RemoveMeritDomain))

	httpkit.Get(r, "/demerit/domains", h.demeritDomains)
	httpkit.Post(r, "/demerit/domains", h.weighted("domain", h.svc.SetDemeritDomain))
	httpkit.Delete(r, "/demerit/domains", h.keyed("domain", h.svc.RemoveDemeritDomain))
}

type handlers struct{ svc svc.Service }

func (h *handlers) blockedDomains(r *stdhttp.Request) (any, error) {
	return h.svc.BlockedDomains(r.Context())
}

func (h *handlers) blockedWords(r *stdhttp.Request) (any, error) {
	return h.svc.BlockedWords(r.Context())
}

func (h *handlers) meritWords(r *stdhttp.Request) (any, error) {
	return h.svc.MeritWords(r.Context())
}

func (h *handlers) demeritWords(r *stdhttp.Request) (any, error) {
	return h.svc.DemeritWords(r.Context())
}

func (h *handlers) meritDomains(r *stdhttp.Request) (any, error) {
	return h.svc.MeritDomains(r.Context())
}

func (h *handlers) demeritDomains(r *stdhttp.Request) (any, error) {
	return h.svc.DemeritDomains(r.Context())
}

// keyed adapts a single-key mutation to a handler reading the key from the
// named query parameter
func (h *handlers) keyed(param string, fn func(context.Context, string) error) func(*stdhttp.Request) (any, error) {
	return func(r *stdhttp.Request) (any, error) {
		key, err := requireQuery(r, param)
		if err != nil {
			return nil, err
		}
		if err := fn(r.Context(), key); err != nil {
			return nil, err
		}
		return ack{OK: true}, nil
	}
}

// weighted adapts a weighted mutation; weight defaults to 1
func (h *handlers) weighted(param string, fn func(context.Context, string, int) error) func(*stdhttp.Request) (any, error) {
	return func(r *stdhttp.Request) (any, error) {
		key, err := requireQuery(r, param)
		if err != nil {
			return nil, err
		}
		if err := fn(r.Context(), key, httpkit.QueryInt(r, "weight", 1)); err != nil {
			return nil, err
		}
		return ack{OK: true}, nil
	}
}

func requireQuery(r *stdhttp.Request, name string) (string, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return "", perr.Newf(perr.ErrorCodeInvalidArgument, "missing %s parameter", name)
	}
	return v, nil
}
