package model

import (
	"encoding/json"
	"fmt"
	"math"
)

// ScoreFunctionKind identifies the ScoreFunction variant.
type ScoreFunctionKind string

const (
	ScoreFunctionDiscrete   ScoreFunctionKind = "discrete"
	ScoreFunctionContinuous ScoreFunctionKind = "continuous"
)

// ScoreFunction is one user's utility curve over a primitive objective's domain.
type ScoreFunction interface {
	Kind() ScoreFunctionKind

	// Score returns the utility of v.
	Score(v Value) (float64, error)

	// SetElementScore inserts or overwrites the score of v and keeps the
	// best and worst elements current.
	SetElementScore(v Value, score float64) error

	// RemoveElement deletes the score of v. Missing elements are ignored.
	RemoveElement(v Value)

	// BestElement returns the element with the highest score. ok is false
	// when no element has a score.
	BestElement() (v Value, ok bool)

	// WorstElement returns the element with the lowest score.
	WorstElement() (v Value, ok bool)

	// Rescale maps scores affinely so the best element scores 1 and the
	// worst 0. It reports whether any score changed.
	Rescale() (bool, error)

	// Elements lists the values that have a score, in insertion order.
	Elements() []Value

	Clone() ScoreFunction
}

// elementScores is the state shared by both ScoreFunction variants: the
// scored elements in insertion order plus the incrementally tracked extremes.
type elementScores struct {
	order  []Value
	scores map[Value]float64

	best, worst       Value
	hasBest, hasWorst bool
}

func newElementScores() elementScores {
	return elementScores{scores: make(map[Value]float64)}
}

func (e *elementScores) lookup(v Value) (float64, bool) {
	s, ok := e.scores[v]
	return s, ok
}

// set stores the score and applies the extreme-tracking rule: an extreme is
// rescanned only when its own element moves away from it, anything else is
// compared against the current extremes in O(1).
func (e *elementScores) set(v Value, score float64) error {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return fmt.Errorf("score %v for %q is not finite: %w", score, v, ErrValidation)
	}
	old, exists := e.scores[v]
	if !exists {
		e.order = append(e.order, v)
	}
	e.scores[v] = score

	switch {
	case e.hasBest && v == e.best:
		if score < old {
			e.rescanBest()
		}
	case !e.hasBest || score > e.scores[e.best]:
		e.best, e.hasBest = v, true
	}
	switch {
	case e.hasWorst && v == e.worst:
		if score > old {
			e.rescanWorst()
		}
	case !e.hasWorst || score < e.scores[e.worst]:
		e.worst, e.hasWorst = v, true
	}
	return nil
}

func (e *elementScores) remove(v Value) {
	if _, exists := e.scores[v]; !exists {
		return
	}
	delete(e.scores, v)
	for i, o := range e.order {
		if o == v {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	if e.hasBest && v == e.best {
		e.rescanBest()
	}
	if e.hasWorst && v == e.worst {
		e.rescanWorst()
	}
}

func (e *elementScores) rescanBest() {
	e.hasBest = false
	for _, v := range e.order {
		if !e.hasBest || e.scores[v] > e.scores[e.best] {
			e.best, e.hasBest = v, true
		}
	}
}

func (e *elementScores) rescanWorst() {
	e.hasWorst = false
	for _, v := range e.order {
		if !e.hasWorst || e.scores[v] < e.scores[e.worst] {
			e.worst, e.hasWorst = v, true
		}
	}
}

// rescale rewrites every score in place. An affine map with positive slope
// keeps the same elements at the extremes, so best and worst need no rescan.
func (e *elementScores) rescale() (bool, error) {
	if !e.hasBest || !e.hasWorst {
		return false, ErrEmptyFunction
	}
	bestScore, worstScore := e.scores[e.best], e.scores[e.worst]
	if bestScore == 1 && worstScore == 0 {
		return false, nil
	}
	span := bestScore - worstScore
	if span == 0 {
		return false, fmt.Errorf("all elements score %v: %w", bestScore, ErrDegenerateRange)
	}
	for _, v := range e.order {
		e.scores[v] = (e.scores[v] - worstScore) / span
	}
	return true, nil
}

func (e *elementScores) elements() []Value {
	out := make([]Value, len(e.order))
	copy(out, e.order)
	return out
}

func (e *elementScores) clone() elementScores {
	c := *e
	c.order = e.elements()
	c.scores = make(map[Value]float64, len(e.scores))
	for k, v := range e.scores {
		c.scores[k] = v
	}
	return c
}

// scoreFunctionDoc is the serialized form shared by both variants.
type scoreFunctionDoc struct {
	Type            ScoreFunctionKind `json:"type"`
	ElementScoreMap []elementScore    `json:"elementScoreMap"`
	BestElement     *Value            `json:"bestElement,omitempty"`
	WorstElement    *Value            `json:"worstElement,omitempty"`
	MinDomainValue  *float64          `json:"minDomainValue,omitempty"`
	MaxDomainValue  *float64          `json:"maxDomainValue,omitempty"`
}

// elementScore encodes as a [value, score] pair.
type elementScore struct {
	Element Value
	Score   float64
}

func (p elementScore) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{p.Element, p.Score})
}

func (p *elementScore) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("element score pair has %d entries: %w", len(pair), ErrValidation)
	}
	if err := json.Unmarshal(pair[0], &p.Element); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &p.Score)
}

func (e *elementScores) toDoc(kind ScoreFunctionKind) scoreFunctionDoc {
	doc := scoreFunctionDoc{Type: kind, ElementScoreMap: make([]elementScore, 0, len(e.order))}
	for _, v := range e.order {
		doc.ElementScoreMap = append(doc.ElementScoreMap, elementScore{Element: v, Score: e.scores[v]})
	}
	if e.hasBest {
		b := e.best
		doc.BestElement = &b
	}
	if e.hasWorst {
		w := e.worst
		doc.WorstElement = &w
	}
	return doc
}

// restoreExtremes adopts the stored extremes when they are consistent with the
// scores; ties make more than one element a valid extreme.
func (e *elementScores) restoreExtremes(doc scoreFunctionDoc) {
	if doc.BestElement != nil && e.hasBest {
		if s, ok := e.scores[*doc.BestElement]; ok && s == e.scores[e.best] {
			e.best = *doc.BestElement
		}
	}
	if doc.WorstElement != nil && e.hasWorst {
		if s, ok := e.scores[*doc.WorstElement]; ok && s == e.scores[e.worst] {
			e.worst = *doc.WorstElement
		}
	}
}

// MarshalScoreFunction encodes any ScoreFunction variant.
func MarshalScoreFunction(sf ScoreFunction) ([]byte, error) {
	return json.Marshal(sf)
}

// UnmarshalScoreFunction decodes a tagged score function document.
func UnmarshalScoreFunction(data []byte) (ScoreFunction, error) {
	var head struct {
		Type ScoreFunctionKind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	switch head.Type {
	case ScoreFunctionDiscrete:
		sf := NewDiscreteScoreFunction()
		if err := json.Unmarshal(data, sf); err != nil {
			return nil, err
		}
		return sf, nil
	case ScoreFunctionContinuous:
		sf := &ContinuousScoreFunction{}
		if err := json.Unmarshal(data, sf); err != nil {
			return nil, err
		}
		return sf, nil
	}
	return nil, fmt.Errorf("unknown score function type %q: %w", head.Type, ErrValidation)
}
