package scoring

import (
	"math"

	"github.com/MikeSquared-Agency/ValueCharts/internal/model"
)

// weightTolerance is how far a normalized weight map may drift from 1.0.
const weightTolerance = 0.001

// ObjectiveWeight returns obj's weight for user: the weight itself for a
// primitive, the sum of its descendant primitive weights for an abstract
// objective.
func ObjectiveWeight(user *model.User, obj *model.Objective) float64 {
	if user.WeightMap == nil {
		return 0
	}
	prims := obj.Primitives()
	ids := make([]string, len(prims))
	for i, p := range prims {
		ids[i] = p.ID
	}
	return user.WeightMap.WeightTotal(ids)
}

// ValidateWeights checks that the weights cover every primitive and sum to
// 1.0 (±0.001).
func ValidateWeights(w *model.WeightMap, primitives []*model.Objective) error {
	verr := model.NewValidationError("weights")
	if w == nil {
		verr.Addf("no weight map")
		return verr
	}
	ids := make([]string, 0, len(primitives))
	for _, o := range primitives {
		if _, ok := w.Weight(o.ID); !ok {
			verr.Addf("no weight for objective %q", o.ID)
		}
		ids = append(ids, o.ID)
	}
	if sum := w.WeightTotal(ids); math.Abs(sum-1.0) > weightTolerance {
		verr.Addf("weights sum to %.4f, must sum to 1.0", sum)
	}
	return verr.OrNil()
}
