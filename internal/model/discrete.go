package model

import (
	"encoding/json"
	"fmt"
)

// DiscreteScoreFunction maps exact domain elements to scores. It serves
// categorical and interval domains.
type DiscreteScoreFunction struct {
	elementScores
}

var _ ScoreFunction = (*DiscreteScoreFunction)(nil)

// NewDiscreteScoreFunction returns an empty discrete score function.
func NewDiscreteScoreFunction() *DiscreteScoreFunction {
	return &DiscreteScoreFunction{elementScores: newElementScores()}
}

func (f *DiscreteScoreFunction) Kind() ScoreFunctionKind { return ScoreFunctionDiscrete }

// Score requires an exact element match.
func (f *DiscreteScoreFunction) Score(v Value) (float64, error) {
	s, ok := f.lookup(v)
	if !ok {
		return 0, fmt.Errorf("no score for %q: %w", v, ErrUndefinedValue)
	}
	return s, nil
}

func (f *DiscreteScoreFunction) SetElementScore(v Value, score float64) error {
	return f.set(v, score)
}

func (f *DiscreteScoreFunction) RemoveElement(v Value) { f.remove(v) }

func (f *DiscreteScoreFunction) BestElement() (Value, bool)  { return f.best, f.hasBest }
func (f *DiscreteScoreFunction) WorstElement() (Value, bool) { return f.worst, f.hasWorst }

func (f *DiscreteScoreFunction) Rescale() (bool, error) { return f.rescale() }

func (f *DiscreteScoreFunction) Elements() []Value { return f.elements() }

func (f *DiscreteScoreFunction) Clone() ScoreFunction {
	return &DiscreteScoreFunction{elementScores: f.clone()}
}

func (f *DiscreteScoreFunction) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.toDoc(ScoreFunctionDiscrete))
}

func (f *DiscreteScoreFunction) UnmarshalJSON(data []byte) error {
	var doc scoreFunctionDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc.Type != ScoreFunctionDiscrete {
		return fmt.Errorf("expected discrete score function, got %q: %w", doc.Type, ErrValidation)
	}
	f.elementScores = newElementScores()
	for _, p := range doc.ElementScoreMap {
		if err := f.set(p.Element, p.Score); err != nil {
			return err
		}
	}
	f.restoreExtremes(doc)
	return nil
}
