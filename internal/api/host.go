package api

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/MikeSquared-Agency/ValueCharts/internal/relay"
	"github.com/MikeSquared-Agency/ValueCharts/internal/store"
)

// HostHandler upgrades /host/{chart} requests to websocket sessions on the
// relay hub.
type HostHandler struct {
	store    store.Store
	hub      *relay.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHostHandler accepts any origin when allowedOrigins is empty.
func NewHostHandler(s store.Store, hub *relay.Hub, allowedOrigins []string, logger *slog.Logger) *HostHandler {
	return &HostHandler{
		store: s,
		hub:   hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowedOrigins) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
		logger: logger,
	}
}

// Serve authenticates against the stored chart before upgrading, so a bad
// chart id or password gets a plain HTTP error.
func (h *HostHandler) Serve(w http.ResponseWriter, r *http.Request) {
	chartID := chi.URLParam(r, "chart")
	c, err := h.store.GetChart(r.Context(), chartID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if c == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "chart not found"})
		return
	}
	if !authorized(c, r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid password"})
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "chart_id", chartID, "error", err)
		return
	}

	session, err := h.hub.Register(r.Context(), chartID, r.URL.Query().Get("username"), conn)
	if err != nil {
		h.logger.Warn("relay registration failed", "chart_id", chartID, "error", err)
		_ = conn.WriteJSON(map[string]string{"type": string(relay.MessageError), "chartId": chartID, "error": err.Error()})
		conn.Close()
		return
	}
	h.hub.Serve(r.Context(), session)
}
