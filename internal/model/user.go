package model

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ScoreFunctionMap holds a user's score functions keyed by primitive objective id.
type ScoreFunctionMap map[string]ScoreFunction

// Clone deep-copies every score function.
func (m ScoreFunctionMap) Clone() ScoreFunctionMap {
	if m == nil {
		return nil
	}
	out := make(ScoreFunctionMap, len(m))
	for id, sf := range m {
		out[id] = sf.Clone()
	}
	return out
}

// UnmarshalJSON decodes each entry by its type tag.
func (m *ScoreFunctionMap) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(ScoreFunctionMap, len(raw))
	for id, doc := range raw {
		sf, err := UnmarshalScoreFunction(doc)
		if err != nil {
			return fmt.Errorf("score function for %q: %w", id, err)
		}
		out[id] = sf
	}
	*m = out
	return nil
}

// User owns one score function and one weight per primitive objective.
type User struct {
	Username         string           `json:"username"`
	ScoreFunctionMap ScoreFunctionMap `json:"scoreFunctionMap"`
	WeightMap        *WeightMap       `json:"weightMap"`
}

// NewUser returns a user with empty preferences.
func NewUser(username string) *User {
	return &User{
		Username:         username,
		ScoreFunctionMap: make(ScoreFunctionMap),
		WeightMap:        NewWeightMap(),
	}
}

// ScoreFunction returns the user's score function for objectiveID.
func (u *User) ScoreFunction(objectiveID string) (ScoreFunction, bool) {
	sf, ok := u.ScoreFunctionMap[objectiveID]
	return sf, ok
}

// SetScoreFunction replaces the user's score function for objectiveID.
func (u *User) SetScoreFunction(objectiveID string, sf ScoreFunction) {
	if u.ScoreFunctionMap == nil {
		u.ScoreFunctionMap = make(ScoreFunctionMap)
	}
	u.ScoreFunctionMap[objectiveID] = sf
}

// Clone returns a deep copy.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := &User{Username: u.Username, ScoreFunctionMap: u.ScoreFunctionMap.Clone()}
	if u.WeightMap != nil {
		c.WeightMap = u.WeightMap.Clone()
	}
	return c
}

// ValidatePreferences checks that the user has a score function and a weight
// for every primitive objective, and that each score function matches the
// objective's domain.
func (u *User) ValidatePreferences(primitives []*Objective) error {
	verr := NewValidationError("user " + u.Username)
	for _, o := range primitives {
		sf, ok := u.ScoreFunctionMap[o.ID]
		if !ok {
			verr.Addf("no score function for objective %q", o.ID)
		} else if o.Domain != nil {
			want := ScoreFunctionDiscrete
			if o.Domain.Kind == DomainContinuous {
				want = ScoreFunctionContinuous
			}
			if sf.Kind() != want {
				verr.Addf("objective %q needs a %s score function, has %s", o.ID, want, sf.Kind())
			} else if cf, ok := sf.(*ContinuousScoreFunction); ok && (cf.Min > o.Domain.Min || cf.Max < o.Domain.Max) {
				verr.Addf("objective %q score function covers [%v, %v], domain is [%v, %v]", o.ID, cf.Min, cf.Max, o.Domain.Min, o.Domain.Max)
			}
		}
		if u.WeightMap == nil {
			continue
		}
		if _, ok := u.WeightMap.Weight(o.ID); !ok {
			verr.Addf("no weight for objective %q", o.ID)
		}
	}
	if u.WeightMap == nil {
		verr.Addf("no weight map")
	}
	return verr.OrNil()
}

func (u *User) renameObjective(oldID, newID string) {
	if sf, ok := u.ScoreFunctionMap[oldID]; ok {
		delete(u.ScoreFunctionMap, oldID)
		u.ScoreFunctionMap[newID] = sf
	}
	if u.WeightMap != nil {
		u.WeightMap.RenameObjective(oldID, newID)
	}
}

func (u *User) dropObjective(id string) {
	delete(u.ScoreFunctionMap, id)
	if u.WeightMap != nil {
		u.WeightMap.RemoveWeight(id)
	}
}

// Alternative is one candidate choice with an outcome per primitive objective.
type Alternative struct {
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	ObjectiveValues map[string]Value `json:"objectiveValues"`
}

// NewAlternative returns an alternative with no outcomes.
func NewAlternative(name, description string) *Alternative {
	return &Alternative{Name: name, Description: description, ObjectiveValues: make(map[string]Value)}
}

// SetValue assigns the outcome for objectiveID.
func (a *Alternative) SetValue(objectiveID string, v Value) {
	if a.ObjectiveValues == nil {
		a.ObjectiveValues = make(map[string]Value)
	}
	a.ObjectiveValues[objectiveID] = v
}

// Value returns the outcome for objectiveID.
func (a *Alternative) Value(objectiveID string) (Value, error) {
	v, ok := a.ObjectiveValues[objectiveID]
	if !ok {
		return Value{}, fmt.Errorf("alternative %q has no value for %q: %w", a.Name, objectiveID, ErrNotFound)
	}
	return v, nil
}

// Clone returns a deep copy.
func (a *Alternative) Clone() *Alternative {
	if a == nil {
		return nil
	}
	c := &Alternative{Name: a.Name, Description: a.Description, ObjectiveValues: make(map[string]Value, len(a.ObjectiveValues))}
	for id, v := range a.ObjectiveValues {
		c.ObjectiveValues[id] = v
	}
	return c
}

// CloneAlternatives deep-copies a list of alternatives.
func CloneAlternatives(alts []*Alternative) []*Alternative {
	if alts == nil {
		return nil
	}
	out := make([]*Alternative, len(alts))
	for i, a := range alts {
		out[i] = a.Clone()
	}
	return out
}

// validateValues checks that the alternative has a legal outcome for every primitive.
func (a *Alternative) validateValues(primitives []*Objective, verr *ValidationError) {
	for _, o := range primitives {
		v, ok := a.ObjectiveValues[o.ID]
		if !ok {
			verr.Addf("alternative %q has no value for %q", a.Name, o.ID)
			continue
		}
		if o.Domain != nil && !o.Domain.Contains(v) {
			verr.Addf("alternative %q value %q is not in the domain of %q", a.Name, v, o.ID)
		}
	}
	extra := make([]string, 0)
	known := make(map[string]bool, len(primitives))
	for _, o := range primitives {
		known[o.ID] = true
	}
	for id := range a.ObjectiveValues {
		if !known[id] {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	for _, id := range extra {
		verr.Addf("alternative %q has a value for unknown objective %q", a.Name, id)
	}
}
