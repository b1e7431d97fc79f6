// Package http provides http transport for stories
package http

import (
	"context"
	stdhttp "net/http"
	"net/url"
	"strconv"
	"strings"

	"newsdesk/internal/modkit/httpkit"
	perr "newsdesk/internal/platform/errors"
	"newsdesk/internal/services/stories/domain"
	svc "newsdesk/internal/services/stories/service"
)

// Register mounts story endpoints on the given router
func Register(r httpkit.Router, s svc.Service, blocker domain.DomainBlocker) {
	h := &handlers{svc: s, blocker: blocker}

	httpkit.Get(r, "/stories", h.list)
	httpkit.Get(r, "/stories/updates", h.updates)
	httpkit.Get(r, "/story/{id}", h.get)
	httpkit.Get(r, "/story/{id}/content", h.content)
	httpkit.Post(r, "/story/{id}/opened", h.opened)

	httpkit.Get(r, "/readlater", h.readLater)
	httpkit.Post(r, "/readlater/{id}", h.addReadLater)
	httpkit.Delete(r, "/readlater/{id}", h.removeReadLater)

	httpkit.Post(r, "/dismiss/{id}", h.dismiss)
	httpkit.Delete(r, "/dismiss/{id}", h.undismiss)
	httpkit.Delete(r, "/dismiss", h.clearDismissed)

	httpkit.Get(r, "/stats", h.stats)
	httpkit.PostJSON[domain.BatchInput](r, "/batch", h.batch)
}

type handlers struct {
	svc     svc.Service
	blocker domain.DomainBlocker
}

func listInput(r *stdhttp.Request) domain.ListInput {
	q := r.URL.Query()
	return domain.ListInput{
		DismissedOnly:    httpkit.QueryBool(r, "dismissed_only"),
		IncludeBlocked:   httpkit.QueryBool(r, "include_blocked"),
		IncludeReadLater: httpkit.QueryBool(r, "include_read_later"),
		ReadLaterOnly:    httpkit.QueryBool(r, "read_later_only"),
		Limit:            httpkit.QueryInt(r, "limit", 50),
		Cursor:           q.Get("cursor"),
		Sort:             q.Get("sort"),
	}
}

func (h *handlers) list(r *stdhttp.Request) (any, error) {
	return h.svc.List(r.Context(), listInput(r))
}

func (h *handlers) readLater(r *stdhttp.Request) (any, error) {
	in := listInput(r)
	in.ReadLaterOnly = true
	return h.svc.List(r.Context(), in)
}

func (h *handlers) updates(r *stdhttp.Request) (any, error) {
	return h.svc.Updates(r.Context())
}

func (h *handlers) get(r *stdhttp.Request) (any, error) {
	id, err := httpkit.ParamInt64(r, "id")
	if err != nil {
		return nil, err
	}
	return h.svc.Get(r.Context(), id)
}

func (h *handlers) content(r *stdhttp.Request) (any, error) {
	id, err := httpkit.ParamInt64(r, "id")
	if err != nil {
		return nil, err
	}
	return h.svc.GetContent(r.Context(), id)
}

func (h *handlers) opened(r *stdhttp.Request) (any, error) {
	return h.ack(r, h.svc.MarkOpened)
}

func (h *handlers) addReadLater(r *stdhttp.Request) (any, error) {
	return h.ack(r, h.svc.AddReadLater)
}

func (h *handlers) removeReadLater(r *stdhttp.Request) (any, error) {
	return h.ack(r, h.svc.RemoveReadLater)
}

func (h *handlers) dismiss(r *stdhttp.Request) (any, error) {
	return h.ack(r, h.svc.Dismiss)
}

func (h *handlers) undismiss(r *stdhttp.Request) (any, error) {
	return h.ack(r, h.svc.Undismiss)
}

func (h *handlers) clearDismissed(r *stdhttp.Request) (any, error) {
	if err := h.svc.ClearDismissed(r.Context()); err != nil {
		return nil, err
	}
	return domain.Ack{OK: true}, nil
}

func (h *handlers) stats(r *stdhttp.Request) (any, error) {
	return h.svc.Stats(r.Context())
}

// ack runs an id-keyed mutation and returns the standard acknowledgement
func (h *handlers) ack(r *stdhttp.Request, fn func(ctx context.Context, id int64) error) (any, error) {
	id, err := httpkit.ParamInt64(r, "id")
	if err != nil {
		return nil, err
	}
	if err := fn(r.Context(), id); err != nil {
		return nil, err
	}
	return domain.Ack{OK: true}, nil
}

// batch applies several curation mutations in one call, routed by the same
// paths the single endpoints use so the UI can replay its queue verbatim
func (h *handlers) batch(r *stdhttp.Request, in domain.BatchInput) (any, error) {
	ctx := r.Context()
	for _, req := range in.Requests {
		method := strings.ToUpper(req.Method)
		switch {
		case strings.HasPrefix(req.Path, "/api/dismiss/"):
			id, err := tailID(req.Path)
			if err != nil {
				return nil, err
			}
			if method == stdhttp.MethodPost {
				err = h.svc.Dismiss(ctx, id)
			} else if method == stdhttp.MethodDelete {
				err = h.svc.Undismiss(ctx, id)
			}
			if err != nil {
				return nil, err
			}
		case strings.HasPrefix(req.Path, "/api/readlater/"):
			id, err := tailID(req.Path)
			if err != nil {
				return nil, err
			}
			if method == stdhttp.MethodPost {
				err = h.svc.AddReadLater(ctx, id)
			} else if method == stdhttp.MethodDelete {
				err = h.svc.RemoveReadLater(ctx, id)
			}
			if err != nil {
				return nil, err
			}
		case strings.HasPrefix(req.Path, "/api/blocked/domains") && method == stdhttp.MethodPost:
			if d := queryValue(req.Path, "domain"); d != "" && h.blocker != nil {
				if err := h.blocker.AddBlockedDomain(ctx, d); err != nil {
					return nil, err
				}
			}
		}
	}
	return domain.BatchResult{OK: true, Processed: len(in.Requests)}, nil
}

func tailID(path string) (int64, error) {
	raw := path[strings.LastIndex(path, "/")+1:]
	raw = strings.SplitN(raw, "?", 2)[0]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, perr.Newf(perr.ErrorCodeInvalidArgument, "invalid story id %q", raw)
	}
	return id, nil
}

func queryValue(path, key string) string {
	u, err := url.Parse(path)
	if err != nil {
		return ""
	}
	return u.Query().Get(key)
}
