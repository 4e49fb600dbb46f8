package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/ValueCharts/internal/model"
	"github.com/MikeSquared-Agency/ValueCharts/internal/relay"
	"github.com/MikeSquared-Agency/ValueCharts/internal/scoring"
	"github.com/MikeSquared-Agency/ValueCharts/internal/store"
)

type ScoresHandler struct {
	store  store.Store
	hub    *relay.Hub
	scorer *scoring.Scorer
}

func NewScoresHandler(s store.Store, hub *relay.Hub, scorer *scoring.Scorer) *ScoresHandler {
	return &ScoresHandler{store: s, hub: hub, scorer: scorer}
}

// current returns the live mirror of the chart when a session is open on it,
// falling back to the stored document.
func (h *ScoresHandler) current(w http.ResponseWriter, r *http.Request) (*model.Chart, bool) {
	if c, ok := h.hub.Snapshot(chi.URLParam(r, "id")); ok {
		if !authorized(c, r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid password"})
			return nil, false
		}
		return c, true
	}
	return loadChart(h.store, w, r)
}

// Scores computes every user's scores, rankings, per-alternative summaries and
// the Pareto frontier. Repeated user query parameters restrict the users.
func (h *ScoresHandler) Scores(w http.ResponseWriter, r *http.Request) {
	c, ok := h.current(w, r)
	if !ok {
		return
	}
	result, err := h.scorer.ScoreChart(c, r.URL.Query()["user"]...)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Breakdown explains one alternative's score for one user objective by
// objective.
func (h *ScoresHandler) Breakdown(w http.ResponseWriter, r *http.Request) {
	c, ok := h.current(w, r)
	if !ok {
		return
	}
	alt, err := c.Alternative(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	username := r.URL.Query().Get("user")
	if username == "" {
		username = c.Creator
	}
	u, err := c.User(username)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := scoring.Breakdown(alt, u, c.PrimitiveObjectives())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
