package httpkit

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	perr "newsdesk/internal/platform/errors"
)

// Param returns a named path parameter from the route pattern
func Param(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// ParamInt64 parses a named path parameter as int64
func ParamInt64(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, perr.Newf(perr.ErrorCodeInvalidArgument, "invalid %s %q", name, raw)
	}
	return v, nil
}

// QueryInt parses an integer query parameter with a default
func QueryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// QueryBool parses a boolean query parameter, absent means false
func QueryBool(r *http.Request, name string) bool {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false
	}
	v, _ := strconv.ParseBool(raw)
	return v
}
