package scoring

import "github.com/MikeSquared-Agency/ValueCharts/internal/model"

// ParetoCandidate is an alternative scored once per user. Scores[i] belongs to
// the i-th user in chart order.
type ParetoCandidate struct {
	Alternative string    `json:"alternative"`
	Scores      []float64 `json:"scores"`
}

// ComputeFrontier returns the Pareto-optimal candidates in input order.
// A candidate is dominated if another candidate is >= for every user and
// strictly better for at least one. O(n^2) dominance check.
func ComputeFrontier(candidates []ParetoCandidate) []ParetoCandidate {
	if len(candidates) <= 1 {
		return candidates
	}

	var frontier []ParetoCandidate
	for i := range candidates {
		dominated := false
		for j := range candidates {
			if i == j {
				continue
			}
			if dominates(candidates[j], candidates[i]) {
				dominated = true
				break
			}
		}
		if !dominated {
			frontier = append(frontier, candidates[i])
		}
	}
	return frontier
}

// dominates returns true if a dominates b. Candidates of different lengths
// are incomparable.
func dominates(a, b ParetoCandidate) bool {
	if len(a.Scores) != len(b.Scores) {
		return false
	}
	strictly := false
	for i := range a.Scores {
		if a.Scores[i] < b.Scores[i] {
			return false
		}
		if a.Scores[i] > b.Scores[i] {
			strictly = true
		}
	}
	return strictly
}

// ParetoFrontier returns the names of the chart's alternatives that no other
// alternative beats for every user.
func ParetoFrontier(c *model.Chart) ([]string, error) {
	candidates := make([]ParetoCandidate, 0, len(c.Alternatives))
	for _, alt := range c.Alternatives {
		scores, err := ComputeChartScores(c, alt)
		if err != nil {
			return nil, err
		}
		cand := ParetoCandidate{Alternative: alt.Name, Scores: make([]float64, len(scores))}
		for i, us := range scores {
			cand.Scores[i] = us.Score
		}
		candidates = append(candidates, cand)
	}

	frontier := ComputeFrontier(candidates)
	names := make([]string, len(frontier))
	for i, cand := range frontier {
		names[i] = cand.Alternative
	}
	return names, nil
}
