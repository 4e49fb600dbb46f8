package scoring

// Summary describes the spread of users' scores for one alternative.
type Summary struct {
	Count    int     `json:"count"`
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

// Summarize computes mean, population variance and range of scores. An empty
// input yields the zero Summary.
func Summarize(scores []UserScore) Summary {
	if len(scores) == 0 {
		return Summary{}
	}
	s := Summary{Count: len(scores), Min: scores[0].Score, Max: scores[0].Score}
	var total float64
	for _, us := range scores {
		total += us.Score
		s.Min = min(s.Min, us.Score)
		s.Max = max(s.Max, us.Score)
	}
	s.Mean = total / float64(len(scores))
	for _, us := range scores {
		d := us.Score - s.Mean
		s.Variance += d * d
	}
	s.Variance /= float64(len(scores))
	return s
}
