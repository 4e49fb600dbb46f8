package model

import (
	"encoding/json"
	"fmt"
	"math"
)

// ContinuousScoreFunction is a piecewise-linear utility curve over [Min, Max]
// defined by control points.
//
// Score fails with ErrOutOfRange outside [Min, Max]. Inside the range but
// beyond the outermost control points it clamps to the nearest control point's
// score, so a function seeded at both domain ends never clamps.
type ContinuousScoreFunction struct {
	elementScores
	Min, Max float64
}

var _ ScoreFunction = (*ContinuousScoreFunction)(nil)

// NewContinuousScoreFunction returns an empty function over [min, max].
func NewContinuousScoreFunction(min, max float64) *ContinuousScoreFunction {
	return &ContinuousScoreFunction{elementScores: newElementScores(), Min: min, Max: max}
}

func (f *ContinuousScoreFunction) Kind() ScoreFunctionKind { return ScoreFunctionContinuous }

func (f *ContinuousScoreFunction) numeric(v Value) (float64, error) {
	x, ok := v.Float()
	if !ok {
		return 0, fmt.Errorf("continuous outcome %q is not numeric: %w", v, ErrValidation)
	}
	if math.IsNaN(x) || x < f.Min || x > f.Max {
		return 0, fmt.Errorf("%v outside [%v, %v]: %w", x, f.Min, f.Max, ErrOutOfRange)
	}
	return x, nil
}

// Score returns the stored score for a control point and interpolates
// linearly between the two bracketing control points otherwise.
func (f *ContinuousScoreFunction) Score(v Value) (float64, error) {
	x, err := f.numeric(v)
	if err != nil {
		return 0, err
	}
	if s, ok := f.lookup(Number(x)); ok {
		return s, nil
	}
	if len(f.order) == 0 {
		return 0, fmt.Errorf("no control points: %w", ErrEmptyFunction)
	}

	var lo, hi float64
	hasLo, hasHi := false, false
	for _, p := range f.order {
		px, _ := p.Float()
		if px < x && (!hasLo || px > lo) {
			lo, hasLo = px, true
		}
		if px > x && (!hasHi || px < hi) {
			hi, hasHi = px, true
		}
	}
	switch {
	case !hasLo:
		return f.scores[Number(hi)], nil
	case !hasHi:
		return f.scores[Number(lo)], nil
	}
	loScore, hiScore := f.scores[Number(lo)], f.scores[Number(hi)]
	return loScore + (x-lo)*(hiScore-loScore)/(hi-lo), nil
}

func (f *ContinuousScoreFunction) SetElementScore(v Value, score float64) error {
	x, err := f.numeric(v)
	if err != nil {
		return err
	}
	return f.set(Number(x), score)
}

func (f *ContinuousScoreFunction) RemoveElement(v Value) { f.remove(v) }

func (f *ContinuousScoreFunction) BestElement() (Value, bool)  { return f.best, f.hasBest }
func (f *ContinuousScoreFunction) WorstElement() (Value, bool) { return f.worst, f.hasWorst }

func (f *ContinuousScoreFunction) Rescale() (bool, error) { return f.rescale() }

func (f *ContinuousScoreFunction) Elements() []Value { return f.elements() }

func (f *ContinuousScoreFunction) Clone() ScoreFunction {
	return &ContinuousScoreFunction{elementScores: f.clone(), Min: f.Min, Max: f.Max}
}

func (f *ContinuousScoreFunction) MarshalJSON() ([]byte, error) {
	doc := f.toDoc(ScoreFunctionContinuous)
	lo, hi := f.Min, f.Max
	doc.MinDomainValue, doc.MaxDomainValue = &lo, &hi
	return json.Marshal(doc)
}

func (f *ContinuousScoreFunction) UnmarshalJSON(data []byte) error {
	var doc scoreFunctionDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc.Type != ScoreFunctionContinuous {
		return fmt.Errorf("expected continuous score function, got %q: %w", doc.Type, ErrValidation)
	}
	if doc.MinDomainValue == nil || doc.MaxDomainValue == nil {
		return fmt.Errorf("continuous score function requires minDomainValue and maxDomainValue: %w", ErrValidation)
	}
	if !(*doc.MinDomainValue < *doc.MaxDomainValue) {
		return fmt.Errorf("continuous score function range [%v, %v] is empty: %w", *doc.MinDomainValue, *doc.MaxDomainValue, ErrValidation)
	}
	*f = ContinuousScoreFunction{elementScores: newElementScores(), Min: *doc.MinDomainValue, Max: *doc.MaxDomainValue}
	for _, p := range doc.ElementScoreMap {
		if err := f.SetElementScore(p.Element, p.Score); err != nil {
			return err
		}
	}
	f.restoreExtremes(doc)
	return nil
}
