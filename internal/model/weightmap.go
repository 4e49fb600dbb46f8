package model

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// WeightMap holds one user's importance weights keyed by primitive objective id.
type WeightMap struct {
	weights map[string]float64
}

// NewWeightMap returns an empty weight map.
func NewWeightMap() *WeightMap {
	return &WeightMap{weights: make(map[string]float64)}
}

// NewEqualWeightMap gives every primitive objective the same weight, summing to 1.
func NewEqualWeightMap(primitives []*Objective) *WeightMap {
	w := NewWeightMap()
	for _, o := range primitives {
		w.weights[o.ID] = 1 / float64(len(primitives))
	}
	return w
}

// SetWeight stores a non-negative weight for objectiveID.
func (w *WeightMap) SetWeight(objectiveID string, weight float64) error {
	if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return fmt.Errorf("weight %v for %q: %w", weight, objectiveID, ErrInvalidWeight)
	}
	w.weights[objectiveID] = weight
	return nil
}

// Weight returns the weight of objectiveID and whether one is set.
func (w *WeightMap) Weight(objectiveID string) (float64, bool) {
	v, ok := w.weights[objectiveID]
	return v, ok
}

// RemoveWeight deletes the entry for objectiveID.
func (w *WeightMap) RemoveWeight(objectiveID string) {
	delete(w.weights, objectiveID)
}

// RenameObjective moves a weight to a new objective id.
func (w *WeightMap) RenameObjective(oldID, newID string) {
	if v, ok := w.weights[oldID]; ok {
		delete(w.weights, oldID)
		w.weights[newID] = v
	}
}

// Len returns the number of entries.
func (w *WeightMap) Len() int { return len(w.weights) }

// IDs returns the objective ids with a weight, sorted.
func (w *WeightMap) IDs() []string {
	ids := make([]string, 0, len(w.weights))
	for id := range w.weights {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Sum returns the total of all weights.
func (w *WeightMap) Sum() float64 {
	var total float64
	for _, id := range w.IDs() {
		total += w.weights[id]
	}
	return total
}

// WeightTotal sums the weights of the given objectives. Ids without a weight
// contribute nothing.
func (w *WeightMap) WeightTotal(objectiveIDs []string) float64 {
	var total float64
	for _, id := range objectiveIDs {
		total += w.weights[id]
	}
	return total
}

// Normalize scales all weights to sum to 1. An empty map is left unchanged.
func (w *WeightMap) Normalize() error {
	if len(w.weights) == 0 {
		return nil
	}
	total := w.Sum()
	if total == 0 {
		return fmt.Errorf("all %d weights are zero: %w", len(w.weights), ErrDegenerateWeights)
	}
	for id, v := range w.weights {
		w.weights[id] = v / total
	}
	return nil
}

// Scale multiplies every weight by k without renormalizing.
func (w *WeightMap) Scale(k float64) error {
	if k < 0 || math.IsNaN(k) || math.IsInf(k, 0) {
		return fmt.Errorf("scale factor %v: %w", k, ErrInvalidWeight)
	}
	for id, v := range w.weights {
		w.weights[id] = v * k
	}
	return nil
}

// Clone returns an independent copy.
func (w *WeightMap) Clone() *WeightMap {
	c := NewWeightMap()
	for id, v := range w.weights {
		c.weights[id] = v
	}
	return c
}

// MarshalJSON encodes the map as {objectiveId: weight}.
func (w *WeightMap) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.weights)
}

// UnmarshalJSON decodes {objectiveId: weight}, rejecting invalid weights.
func (w *WeightMap) UnmarshalJSON(data []byte) error {
	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	w.weights = make(map[string]float64, len(raw))
	for id, v := range raw {
		if err := w.SetWeight(id, v); err != nil {
			return err
		}
	}
	return nil
}
