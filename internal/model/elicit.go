package model

import "fmt"

// continuousSeedPoints is the number of evenly spaced control points a new
// continuous score function starts with, both domain ends included.
const continuousSeedPoints = 4

// NewDefaultScoreFunction seeds a linear, increasing score function for the
// domain. Discrete elements score i/(n-1) in declaration order; continuous
// domains get evenly spaced control points on the line from (min, 0) to (max, 1).
func NewDefaultScoreFunction(d *Domain) (ScoreFunction, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if d.Kind == DomainContinuous {
		sf := NewContinuousScoreFunction(d.Min, d.Max)
		step := (d.Max - d.Min) / float64(continuousSeedPoints-1)
		for i := 0; i < continuousSeedPoints; i++ {
			x := d.Min + float64(i)*step
			if i == continuousSeedPoints-1 {
				x = d.Max
			}
			if err := sf.SetElementScore(Number(x), (x-d.Min)/(d.Max-d.Min)); err != nil {
				return nil, err
			}
		}
		return sf, nil
	}

	sf := NewDiscreteScoreFunction()
	elems := d.Elements()
	for i, v := range elems {
		score := 1.0
		if len(elems) > 1 {
			score = float64(i) / float64(len(elems)-1)
		}
		if err := sf.SetElementScore(v, score); err != nil {
			return nil, err
		}
	}
	return sf, nil
}

// InitializePreferences gives u a default score function for every primitive
// objective it lacks one for, and resets its weights to equal weights when any
// primitive is missing a weight. It reports whether anything changed.
func InitializePreferences(c *Chart, u *User) (bool, error) {
	prims := c.PrimitiveObjectives()
	changed := false
	for _, o := range prims {
		if _, ok := u.ScoreFunction(o.ID); ok {
			continue
		}
		if o.Domain == nil {
			return changed, fmt.Errorf("objective %q has no domain: %w", o.ID, ErrValidation)
		}
		sf, err := NewDefaultScoreFunction(o.Domain)
		if err != nil {
			return changed, fmt.Errorf("objective %q: %w", o.ID, err)
		}
		u.SetScoreFunction(o.ID, sf)
		changed = true
	}

	complete := u.WeightMap != nil
	for _, o := range prims {
		if !complete {
			break
		}
		_, complete = u.WeightMap.Weight(o.ID)
	}
	if !complete {
		u.WeightMap = NewEqualWeightMap(prims)
		changed = true
	}
	return changed, nil
}

// Extremes records the best and worst element of each of a user's score
// functions at one point in time.
type Extremes map[string][2]Value

// CaptureExtremes snapshots the current extremes of u's score functions.
func CaptureExtremes(u *User) Extremes {
	out := make(Extremes, len(u.ScoreFunctionMap))
	for id, sf := range u.ScoreFunctionMap {
		best, _ := sf.BestElement()
		worst, _ := sf.WorstElement()
		out[id] = [2]Value{best, worst}
	}
	return out
}

// ResetWeightsIfExtremesChanged replaces u's weights with equal weights when
// any score function's best or worst element moved since before was captured.
func ResetWeightsIfExtremesChanged(c *Chart, u *User, before Extremes) bool {
	after := CaptureExtremes(u)
	changed := len(after) != len(before)
	for id, ext := range after {
		if prev, ok := before[id]; !ok || prev != ext {
			changed = true
		}
	}
	if changed {
		u.WeightMap = NewEqualWeightMap(c.PrimitiveObjectives())
	}
	return changed
}
