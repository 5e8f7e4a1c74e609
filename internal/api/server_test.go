package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dgnsrekt/tabtracker/internal/controller"
	"github.com/dgnsrekt/tabtracker/internal/relay"
	"github.com/dgnsrekt/tabtracker/internal/tabstate"
)

func newTestServer() (http.Handler, *tabstate.Cache) {
	cache := tabstate.New(nil, nil)
	svc := controller.NewService(cache)
	return NewServer(svc, relay.NewBroker()), cache
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer()

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health status = %d; want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("GET /health body = %s; want ok status", rec.Body.String())
	}
}

func TestGetTabNotFound(t *testing.T) {
	srv, _ := newTestServer()

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tabs/99", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("GET /api/v1/tabs/99 status = %d; want 404", rec.Code)
	}
}

func TestSetAndGetState(t *testing.T) {
	srv, _ := newTestServer()

	body := strings.NewReader(`{"path":["a","b"],"value":1}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/tabs/4/state", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT state status = %d, body = %s; want 200", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tabs/4/state?path=a.b", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET state status = %d; want 200", rec.Code)
	}
	var out struct {
		Exists bool `json:"exists"`
		Value  any  `json:"value"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal state response: %v", err)
	}
	if !out.Exists || out.Value != float64(1) {
		t.Fatalf("GET state = %+v; want exists with value 1", out)
	}
}

func TestSetStateRequiresPath(t *testing.T) {
	srv, _ := newTestServer()

	body := strings.NewReader(`{"path":[],"value":1}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/tabs/4/state", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("PUT state with empty path status = %d; want 400", rec.Code)
	}
}

func TestStyleIDsUntrackedTab(t *testing.T) {
	srv, _ := newTestServer()

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tabs/7/styles", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("GET styles status = %d; want 200", rec.Code)
	}
	var out struct {
		Tracked bool `json:"tracked"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal styles response: %v", err)
	}
	if out.Tracked {
		t.Fatalf("styles tracked = true for unknown tab; want false")
	}
}

func TestRemoveTab(t *testing.T) {
	srv, cache := newTestServer()
	cache.Set(3, "http://a", tabstate.KeyURL)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/tabs/3", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE tab status = %d; want 200", rec.Code)
	}

	if _, ok := cache.Get(3); ok {
		t.Fatalf("tab 3 still tracked after DELETE")
	}
}
