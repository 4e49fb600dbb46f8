package scoring

import (
	"testing"

	"github.com/MikeSquared-Agency/ValueCharts/internal/testutil"
)

func TestComputeFrontier(t *testing.T) {
	candidates := []ParetoCandidate{
		{Alternative: "a", Scores: []float64{0.9, 0.1}},
		{Alternative: "b", Scores: []float64{0.5, 0.5}},
		{Alternative: "c", Scores: []float64{0.4, 0.5}},
		{Alternative: "d", Scores: []float64{0.1, 0.9}},
		{Alternative: "e", Scores: []float64{0.5, 0.5}},
	}
	frontier := ComputeFrontier(candidates)

	got := make([]string, len(frontier))
	for i, c := range frontier {
		got[i] = c.Alternative
	}
	want := []string{"a", "b", "d", "e"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
			break
		}
	}
}

func TestComputeFrontierSmallInputs(t *testing.T) {
	if got := ComputeFrontier(nil); len(got) != 0 {
		t.Errorf("expected empty frontier, got %v", got)
	}
	one := []ParetoCandidate{{Alternative: "only", Scores: []float64{0}}}
	if got := ComputeFrontier(one); len(got) != 1 {
		t.Errorf("expected single candidate, got %v", got)
	}
}

func TestParetoFrontierSingleUser(t *testing.T) {
	c := testutil.HotelChart()
	if err := c.RemoveUser("lisa"); err != nil {
		t.Fatal(err)
	}
	frontier, err := ParetoFrontier(c)
	if err != nil {
		t.Fatal(err)
	}
	if len(frontier) != 1 || frontier[0] != "Sheraton" {
		t.Errorf("expected [Sheraton], got %v", frontier)
	}
}
