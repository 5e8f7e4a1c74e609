package relay

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// SSEHandler returns an http.HandlerFunc that streams URL-change events as
// SSE. Clients may filter on a single tab via ?tab_id=N.
func SSEHandler(broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming not supported", http.StatusInternalServerError)
			return
		}

		filterID, hasFilter := parseTabFilter(r)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		flusher.Flush()

		id, ch := broker.Subscribe()
		defer broker.Unsubscribe(id)

		for {
			select {
			case <-r.Context().Done():
				return
			case evt, ok := <-ch:
				if !ok {
					return
				}
				if hasFilter && evt.TabID != filterID {
					continue
				}
				data, err := json.Marshal(evt)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "event: url-change\ndata: %s\n\n", data)
				flusher.Flush()
			}
		}
	}
}

// WSHandler returns an http.HandlerFunc that upgrades to a WebSocket and
// pushes URL-change events as JSON text frames. Same ?tab_id=N filter as the
// SSE endpoint.
func WSHandler(broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filterID, hasFilter := parseTabFilter(r)

		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			slog.Debug("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
			return
		}
		defer conn.Close()

		id, ch := broker.Subscribe()
		defer broker.Unsubscribe(id)

		// Drain client frames so we notice the peer going away; unsubscribing
		// closes ch and ends the write loop below.
		go func() {
			for {
				if _, _, err := wsutil.ReadClientData(conn); err != nil {
					broker.Unsubscribe(id)
					return
				}
			}
		}()

		for evt := range ch {
			if hasFilter && evt.TabID != filterID {
				continue
			}
			data, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			if err := wsutil.WriteServerText(conn, data); err != nil {
				return
			}
		}
	}
}

func parseTabFilter(r *http.Request) (int64, bool) {
	q := r.URL.Query().Get("tab_id")
	if q == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(q, 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}
