package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newHotelChart builds:
//
//	location (abstract)
//	  area       categorical
//	  skytrain   continuous [1, 9] minutes
//	room (abstract)
//	  size       interval
//	  internet   categorical
//	rate         continuous [100, 300]
func newHotelChart(t *testing.T) *Chart {
	t.Helper()
	c := NewChart("Hotels", "Where to stay", "aaron", ChartGroup)
	c.RootObjectives = []*Objective{
		NewAbstractObjective("location", "",
			NewPrimitiveObjective("area", "", NewCategoricalDomain(false, "nightlife", "beach", "airport")),
			NewPrimitiveObjective("skytrain", "", NewContinuousDomain(1, 9)),
		),
		NewAbstractObjective("room", "",
			NewPrimitiveObjective("size", "", NewIntervalDomain(200, 250, 300)),
			NewPrimitiveObjective("internet", "", NewCategoricalDomain(true, "none", "low", "high")),
		),
		NewPrimitiveObjective("rate", "", NewContinuousDomain(100, 300)),
	}

	for _, name := range []string{"Sheraton", "Marriott"} {
		a := NewAlternative(name, "")
		a.SetValue("area", Text("beach"))
		a.SetValue("skytrain", Number(3))
		a.SetValue("size", Number(250))
		a.SetValue("internet", Text("high"))
		a.SetValue("rate", Number(150))
		require.NoError(t, c.AddAlternative(a))
	}

	u := NewUser("aaron")
	_, err := InitializePreferences(c, u)
	require.NoError(t, err)
	require.NoError(t, c.UpsertUser(u))
	return c
}

func objectiveIDs(objs []*Objective) []string {
	ids := make([]string, len(objs))
	for i, o := range objs {
		ids[i] = o.ID
	}
	return ids
}

func TestPrimitiveObjectivesOrder(t *testing.T) {
	c := newHotelChart(t)
	assert.Equal(t, []string{"area", "skytrain", "size", "internet", "rate"}, objectiveIDs(c.PrimitiveObjectives()))

	room, err := c.FindObjective("room")
	require.NoError(t, err)
	assert.Equal(t, []string{"size", "internet"}, objectiveIDs(room.Primitives()))
}

func TestReorderChildren(t *testing.T) {
	c := newHotelChart(t)

	require.NoError(t, c.ReorderChildren("room", []string{"internet", "size"}))
	assert.Equal(t, []string{"area", "skytrain", "internet", "size", "rate"}, objectiveIDs(c.PrimitiveObjectives()))

	require.NoError(t, c.ReorderChildren("", []string{"rate", "room", "location"}))
	assert.Equal(t, []string{"rate", "internet", "size", "area", "skytrain"}, objectiveIDs(c.PrimitiveObjectives()))

	err := c.ReorderChildren("nowhere", []string{"a"})
	assert.True(t, errors.Is(err, ErrNotFound))

	err = c.ReorderChildren("room", []string{"internet", "area"})
	assert.True(t, errors.Is(err, ErrNotFound))

	err = c.ReorderChildren("room", []string{"internet"})
	assert.True(t, errors.Is(err, ErrValidation))

	err = c.ReorderChildren("rate", nil)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestRenameObjective(t *testing.T) {
	c := newHotelChart(t)

	require.NoError(t, c.RenameObjective("rate", "Nightly rate", ""))
	o, err := c.FindObjective("rate")
	require.NoError(t, err)
	assert.Equal(t, "Nightly rate", o.Name)

	require.NoError(t, c.RenameObjective("rate", "", "price"))
	_, err = c.FindObjective("rate")
	assert.True(t, errors.Is(err, ErrNotFound))

	u, err := c.User("aaron")
	require.NoError(t, err)
	_, ok := u.ScoreFunction("price")
	assert.True(t, ok)
	_, ok = u.WeightMap.Weight("price")
	assert.True(t, ok)
	for _, a := range c.Alternatives {
		v, err := a.Value("price")
		require.NoError(t, err)
		assert.Equal(t, Number(150), v)
	}
	assert.NoError(t, c.ValidateComplete())

	err = c.RenameObjective("price", "", "area")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestRenameObjectiveRejectsTakenName(t *testing.T) {
	c := newHotelChart(t)

	err := c.RenameObjective("size", "rate", "")
	assert.True(t, errors.Is(err, ErrValidation))
	o, err := c.FindObjective("size")
	require.NoError(t, err)
	assert.Equal(t, "size", o.Name)

	// A failed id change leaves the name untouched too.
	err = c.RenameObjective("size", "Room size", "internet")
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "size", o.Name)

	require.NoError(t, c.RenameObjective("size", "size", ""))
	assert.NoError(t, c.Validate())
}

func TestRemoveObjective(t *testing.T) {
	c := newHotelChart(t)
	require.NoError(t, c.RemoveObjective("room"))

	assert.Equal(t, []string{"area", "skytrain", "rate"}, objectiveIDs(c.PrimitiveObjectives()))
	u, _ := c.User("aaron")
	_, ok := u.ScoreFunction("size")
	assert.False(t, ok)
	_, ok = u.WeightMap.Weight("internet")
	assert.False(t, ok)
	_, err := c.Alternatives[0].Value("size")
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.True(t, errors.Is(c.RemoveObjective("room"), ErrNotFound))
}

func TestAddObjective(t *testing.T) {
	c := newHotelChart(t)
	pool := NewPrimitiveObjective("pool", "", NewCategoricalDomain(false, "yes", "no"))
	require.NoError(t, c.AddObjective("room", pool))
	assert.Equal(t, []string{"area", "skytrain", "size", "internet", "pool", "rate"}, objectiveIDs(c.PrimitiveObjectives()))

	err := c.AddObjective("rate", NewPrimitiveObjective("x", "", NewContinuousDomain(0, 1)))
	assert.True(t, errors.Is(err, ErrValidation))

	err = c.AddObjective("", NewPrimitiveObjective("pool", "", NewContinuousDomain(0, 1)))
	assert.True(t, errors.Is(err, ErrValidation))

	// The new primitive has no preferences or values yet.
	assert.True(t, errors.Is(c.ValidateComplete(), ErrValidation))
}

func TestAddObjectiveChecksWholeSubtree(t *testing.T) {
	tests := []struct {
		name string
		obj  *Objective
	}{
		{"nested id in use", NewAbstractObjective("extra", "", NewPrimitiveObjective("size", "", NewContinuousDomain(0, 1)))},
		{"name in use under new id", &Objective{Type: ObjectivePrimitive, ID: "rate2", Name: "rate", Domain: NewContinuousDomain(0, 1)}},
		{"repeated inside subtree", NewAbstractObjective("extra", "",
			NewPrimitiveObjective("pool", "", NewContinuousDomain(0, 1)),
			NewPrimitiveObjective("pool", "", NewContinuousDomain(0, 1)),
		)},
		{"null child", NewAbstractObjective("extra", "", nil)},
		{"null objective", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newHotelChart(t)
			err := c.AddObjective("", tt.obj)
			assert.True(t, errors.Is(err, ErrValidation), "got %v", err)
			assert.Len(t, c.RootObjectives, 3)
			assert.NoError(t, c.Validate())
		})
	}

	c := newHotelChart(t)
	require.NoError(t, c.AddObjective("", NewAbstractObjective("extra", "",
		&Objective{Type: ObjectivePrimitive, Name: "pool", Domain: NewCategoricalDomain(false, "yes", "no")},
	)))
	o, err := c.FindObjective("pool")
	require.NoError(t, err)
	assert.Equal(t, "pool", o.ID)
	assert.NoError(t, c.Validate())
}

func TestValidateDuplicates(t *testing.T) {
	c := newHotelChart(t)
	c.RootObjectives = append(c.RootObjectives, NewPrimitiveObjective("area", "", NewContinuousDomain(0, 1)))
	err := c.Validate()
	require.Error(t, err)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Errors, `duplicate objective id "area"`)
	assert.Contains(t, verr.Errors, `duplicate objective name "area"`)
}

func TestValidateCompleteRejectsOutOfDomainValue(t *testing.T) {
	c := newHotelChart(t)
	require.NoError(t, c.ValidateComplete())

	c.Alternatives[0].SetValue("rate", Number(500))
	assert.True(t, errors.Is(c.ValidateComplete(), ErrValidation))
}

func TestUsers(t *testing.T) {
	c := newHotelChart(t)
	require.NoError(t, c.UpsertUser(NewUser("lisa")))
	require.Len(t, c.Users, 2)

	replacement := NewUser("aaron")
	require.NoError(t, c.UpsertUser(replacement))
	u, err := c.User("aaron")
	require.NoError(t, err)
	assert.Same(t, replacement, u)
	assert.Len(t, c.Users, 2)

	require.NoError(t, c.RemoveUser("lisa"))
	assert.True(t, errors.Is(c.RemoveUser("lisa"), ErrNotFound))

	individual := NewChart("Solo", "", "aaron", ChartIndividual)
	require.NoError(t, individual.UpsertUser(NewUser("aaron")))
	assert.True(t, errors.Is(individual.UpsertUser(NewUser("lisa")), ErrValidation))
}

func TestAlternatives(t *testing.T) {
	c := newHotelChart(t)
	assert.True(t, errors.Is(c.AddAlternative(NewAlternative("Sheraton", "")), ErrValidation))
	require.NoError(t, c.RemoveAlternative("Sheraton"))
	_, err := c.Alternative("Sheraton")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStructure(t *testing.T) {
	c := newHotelChart(t)
	s := c.Structure()
	assert.Nil(t, s.Users)

	s.Name = "Hotels 2"
	s.Alternatives = s.Alternatives[:1]
	c.SetStructure(s)
	assert.Equal(t, "Hotels 2", c.Name)
	assert.Len(t, c.Alternatives, 1)
	assert.Len(t, c.Users, 1)
}

func TestChartRoundTrip(t *testing.T) {
	c := newHotelChart(t)
	c.ID = "abc123"
	u, _ := c.User("aaron")
	require.NoError(t, u.WeightMap.SetWeight("rate", 3))
	sf, _ := u.ScoreFunction("skytrain")
	require.NoError(t, sf.SetElementScore(Number(2), 0.9))

	data, err := MarshalChart(c)
	require.NoError(t, err)

	decoded, err := UnmarshalChart(data)
	require.NoError(t, err)
	assert.Equal(t, c, decoded)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "abc123", doc["_id"])
	assert.Equal(t, "Group", doc["kind"])
	roots := doc["rootObjectives"].([]any)
	assert.Equal(t, "abstract", roots[0].(map[string]any)["objectiveType"])
}

func TestChartCloneIsIndependent(t *testing.T) {
	c := newHotelChart(t)
	clone := c.Clone()

	require.NoError(t, c.RenameObjective("rate", "", "price"))
	c.Alternatives[0].SetValue("area", Text("airport"))
	u, _ := c.User("aaron")
	require.NoError(t, u.WeightMap.SetWeight("area", 9))

	_, err := clone.FindObjective("rate")
	assert.NoError(t, err)
	v, _ := clone.Alternatives[0].Value("area")
	assert.Equal(t, Text("beach"), v)
	cu, _ := clone.User("aaron")
	w, _ := cu.WeightMap.Weight("area")
	assert.InDelta(t, 0.2, w, 1e-12)
}

func TestUnmarshalChartRejectsNullEntries(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"null user", `{"name":"c","kind":"Group","users":[null]}`},
		{"null root objective", `{"name":"c","kind":"Group","rootObjectives":[null]}`},
		{"null child", `{"name":"c","kind":"Group","rootObjectives":[{"objectiveType":"abstract","id":"a","name":"a","children":[null]}]}`},
		{"null alternative", `{"name":"c","kind":"Group","alternatives":[null]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := UnmarshalChart([]byte(tt.doc))
			assert.Nil(t, c)
			assert.True(t, errors.Is(err, ErrValidation), "got %v", err)
		})
	}
}

func TestValidateReportsNullEntries(t *testing.T) {
	c := newHotelChart(t)
	c.RootObjectives[0].Children = append(c.RootObjectives[0].Children, nil)
	c.Alternatives = append(c.Alternatives, nil)
	c.Users = append(c.Users, nil)

	err := c.Validate()
	require.Error(t, err)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Errors, "objective list has a null entry")
	assert.Contains(t, verr.Errors, "alternative list has a null entry")
	assert.Contains(t, verr.Errors, "user list has a null entry")
	assert.Len(t, c.PrimitiveObjectives(), 5)
}

func TestValidatePreferencesChecksContinuousRange(t *testing.T) {
	c := newHotelChart(t)
	u, err := c.User("aaron")
	require.NoError(t, err)
	require.NoError(t, u.ValidatePreferences(c.PrimitiveObjectives()))

	narrow := NewContinuousScoreFunction(100, 200)
	require.NoError(t, narrow.SetElementScore(Number(100), 0))
	require.NoError(t, narrow.SetElementScore(Number(200), 1))
	u.SetScoreFunction("rate", narrow)
	assert.True(t, errors.Is(u.ValidatePreferences(c.PrimitiveObjectives()), ErrValidation))

	wide := NewContinuousScoreFunction(0, 500)
	require.NoError(t, wide.SetElementScore(Number(0), 0))
	require.NoError(t, wide.SetElementScore(Number(500), 1))
	u.SetScoreFunction("rate", wide)
	assert.NoError(t, u.ValidatePreferences(c.PrimitiveObjectives()))
}
