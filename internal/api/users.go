package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/ValueCharts/internal/model"
	"github.com/MikeSquared-Agency/ValueCharts/internal/relay"
	"github.com/MikeSquared-Agency/ValueCharts/internal/store"
)

type UsersHandler struct {
	store   store.Store
	hub     *relay.Hub
	editors *editorRegistry
	logger  *slog.Logger
}

func NewUsersHandler(s store.Store, hub *relay.Hub, editors *editorRegistry, logger *slog.Logger) *UsersHandler {
	return &UsersHandler{store: s, hub: hub, editors: editors, logger: logger}
}

// acceptingChanges writes 403 when the chart host has closed the chart.
func acceptingChanges(hub *relay.Hub, w http.ResponseWriter, chartID string) bool {
	if hub.ChangesAccepted(chartID) {
		return true
	}
	writeJSON(w, http.StatusForbidden, map[string]string{"error": "chart is not accepting changes"})
	return false
}

func decodeUserBody(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	data, err := readBody(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return nil, false
	}
	u, err := model.UnmarshalUser(data)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return nil, false
	}
	return u, true
}

// prepareUser seeds missing preferences and checks the user against the
// chart's primitive objectives.
func prepareUser(c *model.Chart, u *model.User) error {
	if err := validUsername(u.Username); err != nil {
		return err
	}
	if _, err := model.InitializePreferences(c, u); err != nil {
		return err
	}
	return u.ValidatePreferences(c.PrimitiveObjectives())
}

func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := loadChart(h.store, w, r)
	if !ok {
		return
	}
	u, err := c.User(chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Add joins a new user to the chart.
func (h *UsersHandler) Add(w http.ResponseWriter, r *http.Request) {
	c, ok := loadChart(h.store, w, r)
	if !ok {
		return
	}
	if !acceptingChanges(h.hub, w, c.ID) {
		return
	}
	u, ok := decodeUserBody(w, r)
	if !ok {
		return
	}
	if _, err := c.User(u.Username); err == nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": fmt.Sprintf("user %q already exists", u.Username)})
		return
	}
	if err := prepareUser(c, u); err != nil {
		writeError(w, err)
		return
	}

	if !persistUser(h.store, w, r, "add", c.ID, u) {
		return
	}
	h.hub.UserAdded(c.ID, u)
	h.logger.Info("user added", "chart_id", c.ID, "username", u.Username)
	writeJSON(w, http.StatusCreated, u)
}

// Update replaces an existing user's preferences.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	c, ok := loadChart(h.store, w, r)
	if !ok {
		return
	}
	if !acceptingChanges(h.hub, w, c.ID) {
		return
	}
	username := chi.URLParam(r, "username")
	if _, err := c.User(username); err != nil {
		writeError(w, err)
		return
	}
	u, ok := decodeUserBody(w, r)
	if !ok {
		return
	}
	if u.Username == "" {
		u.Username = username
	}
	if u.Username != username {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username does not match path"})
		return
	}
	if err := prepareUser(c, u); err != nil {
		writeError(w, err)
		return
	}

	if !persistUser(h.store, w, r, "update", c.ID, u) {
		return
	}
	h.editors.forget(c.ID, username)
	h.hub.UserChanged(c.ID, u)
	writeJSON(w, http.StatusOK, u)
}

func (h *UsersHandler) Remove(w http.ResponseWriter, r *http.Request) {
	c, ok := loadChart(h.store, w, r)
	if !ok {
		return
	}
	if !acceptingChanges(h.hub, w, c.ID) {
		return
	}
	username := chi.URLParam(r, "username")

	updated, err := h.store.DeleteUser(r.Context(), c.ID, username)
	if err != nil {
		userWritesTotal.WithLabelValues("remove", "error").Inc()
		writeError(w, err)
		return
	}
	if updated == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "chart not found"})
		return
	}
	userWritesTotal.WithLabelValues("remove", "ok").Inc()
	h.editors.forget(c.ID, username)
	h.hub.UserRemoved(c.ID, username)
	h.logger.Info("user removed", "chart_id", c.ID, "username", username)
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed", "username": username})
}

// persistUser stores u and reports whether it succeeded, writing the error
// response otherwise.
func persistUser(s store.Store, w http.ResponseWriter, r *http.Request, op, chartID string, u *model.User) bool {
	updated, err := s.UpsertUser(r.Context(), chartID, u)
	if err == nil && updated == nil {
		err = store.ErrNoChart
	}
	if err != nil {
		userWritesTotal.WithLabelValues(op, "error").Inc()
		writeError(w, err)
		return false
	}
	userWritesTotal.WithLabelValues(op, "ok").Inc()
	return true
}
