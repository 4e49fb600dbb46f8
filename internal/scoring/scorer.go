package scoring

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/MikeSquared-Agency/ValueCharts/internal/model"
)

// UserScore is one user's total score for an alternative.
type UserScore struct {
	Username string  `json:"username"`
	Score    float64 `json:"score"`
}

// RankedAlternative is one row of a user's ranking.
type RankedAlternative struct {
	Rank        int     `json:"rank"`
	Alternative string  `json:"alternative"`
	Score       float64 `json:"score"`
}

// UserResult holds everything computed for one user of a chart.
type UserResult struct {
	Username     string              `json:"username"`
	Alternatives []AlternativeResult `json:"alternatives"`
	Ranking      []RankedAlternative `json:"ranking"`
}

// ChartResult is the scoring output for a whole chart.
type ChartResult struct {
	ChartID   string             `json:"chart_id"`
	Users     []UserResult       `json:"users"`
	Summaries map[string]Summary `json:"summaries"`
	Frontier  []string           `json:"pareto_frontier"`
}

// ComputeChartScores returns one score per user of c for alt, in user order.
// Scores are never averaged here; see Summarize.
func ComputeChartScores(c *model.Chart, alt *model.Alternative) ([]UserScore, error) {
	prims := c.PrimitiveObjectives()
	out := make([]UserScore, 0, len(c.Users))
	for _, u := range c.Users {
		s, err := ComputeAlternativeScore(alt, u, prims)
		if err != nil {
			return nil, fmt.Errorf("user %q, alternative %q: %w", u.Username, alt.Name, err)
		}
		out = append(out, UserScore{Username: u.Username, Score: s})
	}
	return out, nil
}

// Rank orders the chart's alternatives by the given user's score, highest
// first. Ties keep chart order.
func Rank(c *model.Chart, username string) ([]RankedAlternative, error) {
	u, err := c.User(username)
	if err != nil {
		return nil, err
	}
	prims := c.PrimitiveObjectives()
	out := make([]RankedAlternative, 0, len(c.Alternatives))
	for _, alt := range c.Alternatives {
		s, err := ComputeAlternativeScore(alt, u, prims)
		if err != nil {
			return nil, err
		}
		out = append(out, RankedAlternative{Alternative: alt.Name, Score: s})
	}
	rankByScore(out)
	return out, nil
}

func rankByScore(rows []RankedAlternative) {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Score > rows[j].Score })
	for i := range rows {
		rows[i].Rank = i + 1
	}
}

// Scorer computes chart-wide results. It holds no chart state and is safe for
// concurrent use.
type Scorer struct {
	logger *slog.Logger
}

// NewScorer creates a Scorer.
func NewScorer(logger *slog.Logger) *Scorer {
	return &Scorer{logger: logger}
}

// ScoreChart computes breakdowns and rankings for the selected users (every
// user when usernames is empty), a per-alternative summary across those users
// and the Pareto frontier.
func (s *Scorer) ScoreChart(c *model.Chart, usernames ...string) (*ChartResult, error) {
	users := c.Users
	if len(usernames) > 0 {
		users = make([]*model.User, 0, len(usernames))
		for _, name := range usernames {
			u, err := c.User(name)
			if err != nil {
				return nil, err
			}
			users = append(users, u)
		}
	}

	prims := c.PrimitiveObjectives()
	result := &ChartResult{
		ChartID:   c.ID,
		Users:     make([]UserResult, 0, len(users)),
		Summaries: make(map[string]Summary, len(c.Alternatives)),
	}
	perAlt := make(map[string][]UserScore, len(c.Alternatives))

	for _, u := range users {
		ur := UserResult{
			Username:     u.Username,
			Alternatives: make([]AlternativeResult, 0, len(c.Alternatives)),
			Ranking:      make([]RankedAlternative, 0, len(c.Alternatives)),
		}
		for _, alt := range c.Alternatives {
			br, err := Breakdown(alt, u, prims)
			if err != nil {
				return nil, fmt.Errorf("user %q, alternative %q: %w", u.Username, alt.Name, err)
			}
			ur.Alternatives = append(ur.Alternatives, *br)
			ur.Ranking = append(ur.Ranking, RankedAlternative{Alternative: alt.Name, Score: br.TotalScore})
			perAlt[alt.Name] = append(perAlt[alt.Name], UserScore{Username: u.Username, Score: br.TotalScore})
		}
		rankByScore(ur.Ranking)
		result.Users = append(result.Users, ur)
	}

	candidates := make([]ParetoCandidate, 0, len(c.Alternatives))
	for _, alt := range c.Alternatives {
		scores := perAlt[alt.Name]
		result.Summaries[alt.Name] = Summarize(scores)
		cand := ParetoCandidate{Alternative: alt.Name, Scores: make([]float64, len(scores))}
		for i, us := range scores {
			cand.Scores[i] = us.Score
		}
		candidates = append(candidates, cand)
	}
	for _, cand := range ComputeFrontier(candidates) {
		result.Frontier = append(result.Frontier, cand.Alternative)
	}

	s.logger.Debug("chart scored",
		"chart_id", c.ID,
		"users", len(result.Users),
		"alternatives", len(c.Alternatives),
		"frontier", len(result.Frontier),
	)
	return result, nil
}
