package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"newsdesk/internal/platform/net"
	"newsdesk/internal/platform/net/middleware"
)

func writeStub(w http.ResponseWriter, status int, body any) {
	w.WriteHeader(status)
}

func TestBasicAuth_DisabledPassesThrough(t *testing.T) {
	var nextCalled bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		w.WriteHeader(200)
	})

	mw := middleware.BasicAuth(middleware.BasicAuthCreds{}, writeStub)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	mw(next).ServeHTTP(rr, req)

	if !nextCalled {
		t.Fatal("expected next to be called when no credentials are configured")
	}
	if rr.Code != 200 {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
}

func TestBasicAuth_MissingHeaderRejected(t *testing.T) {
	mw := middleware.BasicAuth(middleware.BasicAuthCreds{User: "u", Pass: "p"}, writeStub)

	var nextCalled bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	mw(next).ServeHTTP(rr, req)

	if nextCalled {
		t.Fatal("did not expect next to be called without credentials")
	}
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}
	if rr.Header().Get("WWW-Authenticate") == "" {
		t.Fatal("expected WWW-Authenticate challenge header")
	}
}

func TestBasicAuth_WrongPasswordRejected(t *testing.T) {
	mw := middleware.BasicAuth(middleware.BasicAuthCreds{User: "u", Pass: "p"}, writeStub)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next must not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("u", "nope")
	rr := httptest.NewRecorder()
	mw(next).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}
}

func TestBasicAuth_ValidCredsSetUserOnContext(t *testing.T) {
	mw := middleware.BasicAuth(middleware.BasicAuthCreds{User: "u1", Pass: "s3cret"}, writeStub)

	var seenUser string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUser = net.UserID(r.Context())
		w.WriteHeader(200)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("u1", "s3cret")
	rr := httptest.NewRecorder()
	mw(next).ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	if seenUser != "u1" {
		t.Fatalf("expected user u1 got %q", seenUser)
	}
}
