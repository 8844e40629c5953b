// Package api exposes a running harness over HTTP: a JSON snapshot for
// plain requests and a websocket stream of snapshots for upgrades.
package api

import (
	"net/http"
	"sync/atomic"

	"termharness/internal/logging"
	"termharness/internal/terminal"

	"github.com/gorilla/websocket"
)

// ScreenSource is the live screen being served. *harness.Harness
// implements it.
type ScreenSource interface {
	Screen() terminal.Snapshot
	Subscribe() (<-chan terminal.Snapshot, func())
	Exited() <-chan struct{}
}

type ScreenHandler struct {
	Source         ScreenSource
	AuthToken      string
	AllowedOrigins []string
	Logger         *logging.Logger
}

const (
	payloadScreen = "screen"
	payloadExit   = "exit"
)

type screenPayload struct {
	Type   string   `json:"type"`
	Seq    uint64   `json:"seq"`
	Rows   []string `json:"rows"`
	Exited bool     `json:"exited"`
}

func (h *ScreenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Source == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "no screen attached")
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !validateToken(r, h.AuthToken) {
		if websocket.IsWebSocketUpgrade(r) {
			writeWSError(w, r, h.Logger, wsError{Status: http.StatusUnauthorized, Message: "unauthorized"})
			return
		}
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var seq atomic.Uint64
	build := func(rows terminal.Snapshot) screenPayload {
		payload := screenPayload{
			Type:   payloadScreen,
			Seq:    seq.Add(1),
			Rows:   rows.Clone(),
			Exited: h.exited(),
		}
		if payload.Exited {
			payload.Type = payloadExit
		}
		return payload
	}

	if !websocket.IsWebSocketUpgrade(r) {
		writeJSON(w, http.StatusOK, build(h.Source.Screen()))
		return
	}

	updates, cancel := h.Source.Subscribe()
	defer cancel()
	serveWSStream(w, r, wsStreamConfig[terminal.Snapshot]{
		AllowedOrigins: h.AllowedOrigins,
		Output:         updates,
		Logger:         h.Logger,
		PreWrite: func(conn *websocket.Conn) error {
			return conn.WriteJSON(build(h.Source.Screen()))
		},
		BuildPayload: func(rows terminal.Snapshot) (any, bool) {
			return build(rows), true
		},
	})
}

func (h *ScreenHandler) exited() bool {
	select {
	case <-h.Source.Exited():
		return true
	default:
		return false
	}
}

// NewMux serves the handler at /screen and a liveness probe at /healthz.
func NewMux(handler *ScreenHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/screen", handler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}
