package scoring

import (
	"fmt"

	"github.com/MikeSquared-Agency/ValueCharts/internal/model"
)

// FactorResult captures one primitive objective's contribution to an
// alternative's total score.
type FactorResult struct {
	ObjectiveID string      `json:"objective_id"`
	Value       model.Value `json:"value"`
	Score       float64     `json:"score"`
	Weight      float64     `json:"weight"`
	Weighted    float64     `json:"weighted"`
}

// AlternativeResult is the full breakdown of one alternative for one user.
type AlternativeResult struct {
	Alternative string         `json:"alternative"`
	TotalScore  float64        `json:"total_score"`
	Factors     []FactorResult `json:"factors"`
}

// Factor computes weight × score for a single primitive objective.
func Factor(alt *model.Alternative, user *model.User, obj *model.Objective) (FactorResult, error) {
	r := FactorResult{ObjectiveID: obj.ID}

	if user.WeightMap == nil {
		return r, fmt.Errorf("user %q has no weight map: %w", user.Username, model.ErrValidation)
	}
	weight, ok := user.WeightMap.Weight(obj.ID)
	if !ok {
		return r, fmt.Errorf("user %q has no weight for %q: %w", user.Username, obj.ID, model.ErrValidation)
	}
	value, err := alt.Value(obj.ID)
	if err != nil {
		return r, err
	}
	sf, ok := user.ScoreFunction(obj.ID)
	if !ok {
		return r, fmt.Errorf("user %q has no score function for %q: %w", user.Username, obj.ID, model.ErrValidation)
	}
	score, err := sf.Score(value)
	if err != nil {
		return r, fmt.Errorf("score %q for %q: %w", value, obj.ID, err)
	}

	r.Value = value
	r.Score = score
	r.Weight = weight
	r.Weighted = weight * score
	return r, nil
}

// Breakdown computes every factor of alt for user, in primitive order.
func Breakdown(alt *model.Alternative, user *model.User, primitives []*model.Objective) (*AlternativeResult, error) {
	result := &AlternativeResult{
		Alternative: alt.Name,
		Factors:     make([]FactorResult, 0, len(primitives)),
	}
	for _, obj := range primitives {
		f, err := Factor(alt, user, obj)
		if err != nil {
			return nil, err
		}
		result.Factors = append(result.Factors, f)
		result.TotalScore += f.Weighted
	}
	return result, nil
}

// ComputeAlternativeScore is the weighted additive utility of alt for user:
//
//	total = Σ weight(obj) * score(obj, value(alt, obj))
//
// A missing alternative value fails with ErrNotFound; a missing weight or
// score function fails with ErrValidation. The result is bounded to [0, 1]
// only when the weights are normalized and the score functions rescaled.
func ComputeAlternativeScore(alt *model.Alternative, user *model.User, primitives []*model.Objective) (float64, error) {
	r, err := Breakdown(alt, user, primitives)
	if err != nil {
		return 0, err
	}
	return r.TotalScore, nil
}
