package http

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	perr "newsdesk/internal/platform/errors"
	"newsdesk/internal/services/ingest/domain"
)

type fakeSvc struct {
	res domain.FetchResult
	err error
}

func (f *fakeSvc) Run(context.Context) error { return nil }
func (f *fakeSvc) FetchNow(context.Context) (domain.FetchResult, error) {
	return f.res, f.err
}
func (f *fakeSvc) LastFetch() time.Time { return time.Time{} }

func TestFetch_FailureSurfacesAsError(t *testing.T) {
	h := &handlers{svc: &fakeSvc{err: perr.New(perr.ErrorCodeUnknown, "manual fetch failed")}}

	out, err := h.fetch(httptest.NewRequest("POST", "/api/fetch", nil))
	if err == nil {
		t.Fatalf("ingest failure must surface as an error, got body %+v", out)
	}
	if got := perr.HTTPStatus(err); got != 500 {
		t.Fatalf("status = %d, want 500", got)
	}
}

func TestFetch_OverlapRefusalIsABody(t *testing.T) {
	h := &handlers{svc: &fakeSvc{res: domain.FetchResult{Error: "already fetching"}}}

	out, err := h.fetch(httptest.NewRequest("POST", "/api/fetch", nil))
	if err != nil {
		t.Fatalf("refusal must not be an error: %v", err)
	}
	res, ok := out.(domain.FetchResult)
	if !ok || res.OK || res.Error != "already fetching" {
		t.Fatalf("result = %+v", out)
	}
}
