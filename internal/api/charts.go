package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/ValueCharts/internal/model"
	"github.com/MikeSquared-Agency/ValueCharts/internal/relay"
	"github.com/MikeSquared-Agency/ValueCharts/internal/store"
)

type ChartsHandler struct {
	store   store.Store
	hub     *relay.Hub
	editors *editorRegistry
	logger  *slog.Logger
}

func NewChartsHandler(s store.Store, hub *relay.Hub, editors *editorRegistry, logger *slog.Logger) *ChartsHandler {
	return &ChartsHandler{store: s, hub: hub, editors: editors, logger: logger}
}

// loadChart fetches the chart named by the {id} URL parameter and checks the
// password query parameter. It writes the error response itself.
func loadChart(s store.Store, w http.ResponseWriter, r *http.Request) (*model.Chart, bool) {
	c, err := s.GetChart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return nil, false
	}
	if c == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "chart not found"})
		return nil, false
	}
	if !authorized(c, r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid password"})
		return nil, false
	}
	return c, true
}

func decodeChartBody(w http.ResponseWriter, r *http.Request) (*model.Chart, bool) {
	data, err := readBody(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return nil, false
	}
	c, err := model.UnmarshalChart(data)
	if errors.Is(err, model.ErrValidation) {
		writeError(w, err)
		return nil, false
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return nil, false
	}
	return c, true
}

func (h *ChartsHandler) Create(w http.ResponseWriter, r *http.Request) {
	c, ok := decodeChartBody(w, r)
	if !ok {
		return
	}
	if err := validChartName(c.Name); err != nil {
		writeError(w, err)
		return
	}
	if err := c.Validate(); err != nil {
		writeError(w, err)
		return
	}
	for _, u := range c.Users {
		if err := u.ValidatePreferences(c.PrimitiveObjectives()); err != nil {
			writeError(w, err)
			return
		}
	}

	available, err := h.store.NameAvailable(r.Context(), c.Name)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !available {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "chart name already in use"})
		return
	}

	if err := h.store.CreateChart(r.Context(), c); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	h.logger.Info("chart created", "chart_id", c.ID, "name", c.Name, "kind", c.Kind)

	w.Header().Set("Location", "/api/v1/charts/"+c.ID)
	writeJSON(w, http.StatusCreated, redact(c))
}

func (h *ChartsHandler) List(w http.ResponseWriter, r *http.Request) {
	charts, err := h.store.ListCharts(r.Context(), r.URL.Query().Get("creator"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if charts == nil {
		charts = []*store.ChartSummary{}
	}
	writeJSON(w, http.StatusOK, charts)
}

func (h *ChartsHandler) NameAvailable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	available, err := h.store.NameAvailable(r.Context(), name)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"name": name, "available": available})
}

func (h *ChartsHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := loadChart(h.store, w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, redact(c))
}

// Update replaces the whole chart document, users included.
func (h *ChartsHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := loadChart(h.store, w, r)
	if !ok {
		return
	}
	c, ok := decodeChartBody(w, r)
	if !ok {
		return
	}
	c.ID = existing.ID
	if c.Password == "" {
		c.Password = existing.Password
	}
	if err := validChartName(c.Name); err != nil {
		writeError(w, err)
		return
	}
	if err := c.Validate(); err != nil {
		writeError(w, err)
		return
	}
	if c.Name != existing.Name {
		available, err := h.store.NameAvailable(r.Context(), c.Name)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if !available {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "chart name already in use"})
			return
		}
	}

	if err := h.store.UpdateChart(r.Context(), c); err != nil {
		writeError(w, err)
		return
	}
	h.editors.evict(c.ID)
	h.hub.StructureChanged(c.ID, c.Name)
	writeJSON(w, http.StatusOK, redact(c))
}

func (h *ChartsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteChart(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	h.editors.evict(id)
	h.hub.ChartDeleted(id)
	h.logger.Info("chart deleted", "chart_id", id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "chart_id": id})
}

func (h *ChartsHandler) GetStructure(w http.ResponseWriter, r *http.Request) {
	c, ok := loadChart(h.store, w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, redact(c.Structure()))
}

// PutStructure replaces the objectives and alternatives, keeping the users.
// Users missing preferences for new objectives are given defaults.
func (h *ChartsHandler) PutStructure(w http.ResponseWriter, r *http.Request) {
	c, ok := loadChart(h.store, w, r)
	if !ok {
		return
	}
	incoming, ok := decodeChartBody(w, r)
	if !ok {
		return
	}
	if incoming.Name == "" {
		incoming.Name = c.Name
	}
	if incoming.Name != c.Name {
		available, err := h.store.NameAvailable(r.Context(), incoming.Name)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if !available {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "chart name already in use"})
			return
		}
	}

	c.SetStructure(incoming)
	if err := c.Validate(); err != nil {
		writeError(w, err)
		return
	}
	for _, u := range c.Users {
		if _, err := model.InitializePreferences(c, u); err != nil {
			writeError(w, err)
			return
		}
	}

	if err := h.store.UpdateChart(r.Context(), c); err != nil {
		writeError(w, err)
		return
	}
	h.editors.evict(c.ID)
	h.hub.StructureChanged(c.ID, c.Name)
	writeJSON(w, http.StatusOK, redact(c.Structure()))
}

type statusRequest struct {
	ChangesAccepted *bool `json:"changes_accepted" validate:"required"`
}

// SetStatus opens or closes the chart to user preference changes.
func (h *ChartsHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req statusRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	c, err := h.store.GetChart(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if c == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "chart not found"})
		return
	}
	h.hub.SetStatus(id, *req.ChangesAccepted)
	writeJSON(w, http.StatusOK, map[string]interface{}{"chart_id": id, "changes_accepted": *req.ChangesAccepted})
}
