package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/dgnsrekt/tabtracker/internal/controller"
	"github.com/dgnsrekt/tabtracker/internal/relay"
	"github.com/dgnsrekt/tabtracker/internal/tabstate"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Service is the tab-state surface exposed over HTTP.
type Service interface {
	ListTabs(ctx context.Context) ([]controller.TabSummary, error)
	GetTab(ctx context.Context, tabID int64) (tabstate.Record, error)
	GetState(ctx context.Context, tabID int64, path []string) (controller.StateValue, error)
	SetState(ctx context.Context, tabID int64, path []string, value any) error
	DeleteState(ctx context.Context, tabID int64, path []string) error
	StyleIDs(ctx context.Context, tabID int64) (controller.StyleReport, error)
	RemoveTab(ctx context.Context, tabID int64) error
}

// NewServer builds the HTTP handler: REST API plus the SSE and WebSocket
// event streams fed by broker.
func NewServer(svc Service, broker *relay.Broker) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig("Tab Tracker API", "1.0.0")
	cfg.DocsPath = ""
	api := humachi.New(router, cfg)

	router.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(docsHTML)); err != nil {
			slog.Debug("docs response write failed", "error", err)
		}
	})

	registerTabHandlers(api, svc)

	router.Get("/api/v1/events", relay.SSEHandler(broker))
	router.Get("/api/v1/events/ws", relay.WSHandler(broker))

	return router
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var coded *tabstate.CodedError
	if errors.As(err, &coded) {
		switch coded.Code {
		case tabstate.CodeValidation:
			return huma.Error400BadRequest(coded.Message)
		case tabstate.CodeTabNotFound:
			return huma.Error404NotFound(coded.Message)
		default:
			return huma.Error500InternalServerError(fmt.Sprintf("%s: %s", coded.Code, coded.Message))
		}
	}
	return huma.Error500InternalServerError(err.Error())
}
