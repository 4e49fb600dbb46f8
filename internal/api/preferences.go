package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/ValueCharts/internal/history"
	"github.com/MikeSquared-Agency/ValueCharts/internal/model"
	"github.com/MikeSquared-Agency/ValueCharts/internal/relay"
	"github.com/MikeSquared-Agency/ValueCharts/internal/store"
)

// PreferencesHandler edits one user's weights and score functions through an
// undoable edit session and persists each result.
type PreferencesHandler struct {
	store   store.Store
	hub     *relay.Hub
	editors *editorRegistry
	logger  *slog.Logger
}

func NewPreferencesHandler(s store.Store, hub *relay.Hub, editors *editorRegistry, logger *slog.Logger) *PreferencesHandler {
	return &PreferencesHandler{store: s, hub: hub, editors: editors, logger: logger}
}

type weightsRequest struct {
	Weights   map[string]float64 `json:"weights" validate:"required,min=1,dive,keys,required,endkeys,gte=0"`
	Normalize bool               `json:"normalize"`
}

type elementScoreRequest struct {
	Element model.Value `json:"element"`
	Score   *float64    `json:"score" validate:"required"`
}

// EditResult is returned by every preference edit, undo and redo.
type EditResult struct {
	Kind     history.Kind `json:"kind,omitempty"`
	User     *model.User  `json:"user"`
	Undoable bool         `json:"undoable"`
	Redoable bool         `json:"redoable"`
}

// edit runs fn inside username's edit session, then stores and announces the
// user. fn returns the kind of edit it performed.
func (h *PreferencesHandler) edit(w http.ResponseWriter, r *http.Request, op string, fn func(e *history.Editor, username string) (history.Kind, error)) {
	c, ok := loadChart(h.store, w, r)
	if !ok {
		return
	}
	if !acceptingChanges(h.hub, w, c.ID) {
		return
	}
	username := chi.URLParam(r, "username")
	session, err := h.editors.open(c, username)
	if err != nil {
		writeError(w, err)
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	kind, err := fn(session.editor, username)
	if err != nil {
		writeError(w, err)
		return
	}
	u, err := session.editor.Chart().User(username)
	if err != nil {
		writeError(w, err)
		return
	}
	u = u.Clone()
	if !persistUser(h.store, w, r, op, c.ID, u) {
		h.editors.forget(c.ID, username)
		return
	}
	h.hub.UserChanged(c.ID, u)
	h.logger.Debug("preferences edited", "chart_id", c.ID, "username", username, "operation", op, "kind", kind)

	writeJSON(w, http.StatusOK, EditResult{
		Kind:     kind,
		User:     u,
		Undoable: session.editor.Undoable(),
		Redoable: session.editor.Redoable(),
	})
}

// SetWeights sets the listed weights and optionally normalizes the map.
func (h *PreferencesHandler) SetWeights(w http.ResponseWriter, r *http.Request) {
	var req weightsRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	h.edit(w, r, "weights", func(e *history.Editor, username string) (history.Kind, error) {
		prims := primitiveIDs(e.Chart())
		return history.KindWeights, e.EditWeights(username, func(wm *model.WeightMap) error {
			for id, weight := range req.Weights {
				if !prims[id] {
					return fmt.Errorf("objective %q: %w", id, model.ErrNotFound)
				}
				if err := wm.SetWeight(id, weight); err != nil {
					return err
				}
			}
			if req.Normalize {
				return wm.Normalize()
			}
			return nil
		})
	})
}

// SetElementScore scores one element of the user's score function for the
// {objective} URL parameter.
func (h *PreferencesHandler) SetElementScore(w http.ResponseWriter, r *http.Request) {
	var req elementScoreRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	objectiveID := chi.URLParam(r, "objective")
	h.edit(w, r, "score_function", func(e *history.Editor, username string) (history.Kind, error) {
		return history.KindScoreFunction, e.EditScoreFunction(username, objectiveID, func(sf model.ScoreFunction) error {
			return sf.SetElementScore(req.Element, *req.Score)
		})
	})
}

func (h *PreferencesHandler) Undo(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, "undo", func(e *history.Editor, _ string) (history.Kind, error) {
		return e.Undo()
	})
}

func (h *PreferencesHandler) Redo(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, "redo", func(e *history.Editor, _ string) (history.Kind, error) {
		return e.Redo()
	})
}

func primitiveIDs(c *model.Chart) map[string]bool {
	ids := make(map[string]bool)
	for _, o := range c.PrimitiveObjectives() {
		ids[o.ID] = true
	}
	return ids
}
