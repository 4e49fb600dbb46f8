package history

import (
	"errors"
	"fmt"

	"github.com/MikeSquared-Agency/ValueCharts/internal/model"
)

// Kind names the entity an edit touched.
type Kind string

const (
	KindStructure     Kind = "structure"
	KindAlternatives  Kind = "alternatives"
	KindScoreFunction Kind = "score_function"
	KindWeights       Kind = "weights"
)

// ErrNothingToUndo and ErrNothingToRedo are returned when the respective
// stack is empty.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// preferenceSnapshot holds one user's score function for one objective
// together with the user's weights, which a score function edit may reset.
type preferenceSnapshot struct {
	username    string
	objectiveID string
	function    model.ScoreFunction
	weights     *model.WeightMap
}

func (p preferenceSnapshot) clone() preferenceSnapshot {
	c := p
	if p.function != nil {
		c.function = p.function.Clone()
	}
	if p.weights != nil {
		c.weights = p.weights.Clone()
	}
	return c
}

// weightSnapshot holds one user's weight map.
type weightSnapshot struct {
	username string
	weights  *model.WeightMap
}

func (w weightSnapshot) clone() weightSnapshot {
	return weightSnapshot{username: w.username, weights: w.weights.Clone()}
}

// Editor applies edits to a chart and records them for undo and redo. The
// whole structure (objective tree, alternatives and users) is snapshotted for
// structural edits because renames and removals cascade into preferences.
//
// Undo and Redo always act on the most recent edit of any kind. Any new edit
// clears every pending redo. An Editor is not safe for concurrent use.
type Editor struct {
	chart *model.Chart

	structure     *Stack[*model.Chart]
	alternatives  *Stack[[]*model.Alternative]
	scoreFunction *Stack[preferenceSnapshot]
	weights       *Stack[weightSnapshot]

	undoLog []Kind
	redoLog []Kind
}

// NewEditor wraps c. depth bounds each entity's undo stack.
func NewEditor(c *model.Chart, depth int) *Editor {
	return &Editor{
		chart:         c,
		structure:     NewStack(depth, (*model.Chart).Clone),
		alternatives:  NewStack(depth, model.CloneAlternatives),
		scoreFunction: NewStack(depth, preferenceSnapshot.clone),
		weights:       NewStack(depth, weightSnapshot.clone),
	}
}

// Chart returns the chart being edited.
func (e *Editor) Chart() *model.Chart { return e.chart }

// EditStructure runs fn against the chart. When fn fails the chart is rolled
// back and nothing is recorded.
func (e *Editor) EditStructure(fn func(c *model.Chart) error) error {
	before := e.chart.Clone()
	if err := fn(e.chart); err != nil {
		*e.chart = *before
		return err
	}
	e.record(KindStructure, e.structure.Push(before, e.chart))
	return nil
}

// EditAlternatives runs fn against the chart, recording only the alternative
// list. fn must not touch anything else.
func (e *Editor) EditAlternatives(fn func(c *model.Chart) error) error {
	before := model.CloneAlternatives(e.chart.Alternatives)
	if err := fn(e.chart); err != nil {
		e.chart.Alternatives = before
		return err
	}
	e.record(KindAlternatives, e.alternatives.Push(before, e.chart.Alternatives))
	return nil
}

// EditScoreFunction runs fn against username's score function for
// objectiveID. When the function's best or worst element moves, the user's
// weights are reset to equal weights as part of the same edit.
func (e *Editor) EditScoreFunction(username, objectiveID string, fn func(sf model.ScoreFunction) error) error {
	u, err := e.chart.User(username)
	if err != nil {
		return err
	}
	sf, ok := u.ScoreFunction(objectiveID)
	if !ok {
		return fmt.Errorf("user %q has no score function for %q: %w", username, objectiveID, model.ErrNotFound)
	}

	before := preferenceSnapshot{username: username, objectiveID: objectiveID, function: sf.Clone(), weights: u.WeightMap.Clone()}
	extremes := model.CaptureExtremes(u)
	if err := fn(sf); err != nil {
		u.SetScoreFunction(objectiveID, before.function)
		return err
	}
	model.ResetWeightsIfExtremesChanged(e.chart, u, extremes)

	after := preferenceSnapshot{username: username, objectiveID: objectiveID, function: sf, weights: u.WeightMap}
	e.record(KindScoreFunction, e.scoreFunction.Push(before, after))
	return nil
}

// EditWeights runs fn against username's weight map.
func (e *Editor) EditWeights(username string, fn func(w *model.WeightMap) error) error {
	u, err := e.chart.User(username)
	if err != nil {
		return err
	}
	before := weightSnapshot{username: username, weights: u.WeightMap.Clone()}
	if err := fn(u.WeightMap); err != nil {
		u.WeightMap = before.weights
		return err
	}
	e.record(KindWeights, e.weights.Push(before, weightSnapshot{username: username, weights: u.WeightMap}))
	return nil
}

func (e *Editor) record(kind Kind, dropped bool) {
	e.undoLog = append(e.undoLog, kind)
	if dropped {
		for i, k := range e.undoLog {
			if k == kind {
				e.undoLog = append(e.undoLog[:i], e.undoLog[i+1:]...)
				break
			}
		}
	}
	e.redoLog = nil
	e.structure.ClearRedo()
	e.alternatives.ClearRedo()
	e.scoreFunction.ClearRedo()
	e.weights.ClearRedo()
}

// Undoable reports whether there is an edit to undo.
func (e *Editor) Undoable() bool { return len(e.undoLog) > 0 }

// Redoable reports whether there is an undone edit to re-apply.
func (e *Editor) Redoable() bool { return len(e.redoLog) > 0 }

// Undo restores the state before the most recent edit and returns its kind.
func (e *Editor) Undo() (Kind, error) {
	if len(e.undoLog) == 0 {
		return "", ErrNothingToUndo
	}
	kind := e.undoLog[len(e.undoLog)-1]
	e.undoLog = e.undoLog[:len(e.undoLog)-1]
	e.redoLog = append(e.redoLog, kind)
	return kind, e.apply(kind, true)
}

// Redo re-applies the most recently undone edit and returns its kind.
func (e *Editor) Redo() (Kind, error) {
	if len(e.redoLog) == 0 {
		return "", ErrNothingToRedo
	}
	kind := e.redoLog[len(e.redoLog)-1]
	e.redoLog = e.redoLog[:len(e.redoLog)-1]
	e.undoLog = append(e.undoLog, kind)
	return kind, e.apply(kind, false)
}

func (e *Editor) apply(kind Kind, undo bool) error {
	switch kind {
	case KindStructure:
		snap, ok := pop(e.structure, undo)
		if ok {
			*e.chart = *snap
		}
	case KindAlternatives:
		snap, ok := pop(e.alternatives, undo)
		if ok {
			e.chart.Alternatives = snap
		}
	case KindScoreFunction:
		snap, ok := pop(e.scoreFunction, undo)
		if !ok {
			break
		}
		u, err := e.chart.User(snap.username)
		if err != nil {
			return err
		}
		u.SetScoreFunction(snap.objectiveID, snap.function)
		u.WeightMap = snap.weights
	case KindWeights:
		snap, ok := pop(e.weights, undo)
		if !ok {
			break
		}
		u, err := e.chart.User(snap.username)
		if err != nil {
			return err
		}
		u.WeightMap = snap.weights
	default:
		return fmt.Errorf("unknown edit kind %q", kind)
	}
	return nil
}

func pop[T any](s *Stack[T], undo bool) (T, bool) {
	if undo {
		return s.Undo()
	}
	return s.Redo()
}
