package model

import (
	"fmt"
	"slices"
)

// ChartKind distinguishes single-user charts from group charts.
type ChartKind string

const (
	ChartIndividual ChartKind = "Individual"
	ChartGroup      ChartKind = "Group"
)

// Chart is one decision problem: the objective tree, the alternatives and the
// users whose preferences are aggregated over them.
type Chart struct {
	ID             string         `json:"_id,omitempty"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Creator        string         `json:"creator,omitempty"`
	Password       string         `json:"password,omitempty"`
	Kind           ChartKind      `json:"kind"`
	RootObjectives []*Objective   `json:"rootObjectives"`
	Alternatives   []*Alternative `json:"alternatives"`
	Users          []*User        `json:"users"`
}

// NewChart returns an empty chart.
func NewChart(name, description, creator string, kind ChartKind) *Chart {
	return &Chart{
		Name:           name,
		Description:    description,
		Creator:        creator,
		Kind:           kind,
		RootObjectives: []*Objective{},
		Alternatives:   []*Alternative{},
		Users:          []*User{},
	}
}

// PrimitiveObjectives flattens the objective tree depth-first, left to right.
// The order drives weight, score and aggregation column order.
func (c *Chart) PrimitiveObjectives() []*Objective {
	return flattenPrimitives(c.RootObjectives)
}

// FindObjective returns the objective with the given id.
func (c *Chart) FindObjective(id string) (*Objective, error) {
	o, _ := findObjective(c.RootObjectives, id)
	if o == nil {
		return nil, notFound("objective", id)
	}
	return o, nil
}

// ReorderChildren rearranges the children of parentID to match order. An empty
// parentID reorders the root objectives.
func (c *Chart) ReorderChildren(parentID string, order []string) error {
	children := &c.RootObjectives
	if parentID != "" {
		parent, err := c.FindObjective(parentID)
		if err != nil {
			return err
		}
		if parent.IsPrimitive() {
			return fmt.Errorf("objective %q is primitive and has no children: %w", parentID, ErrValidation)
		}
		children = &parent.Children
	}

	byID := make(map[string]*Objective, len(*children))
	for _, o := range *children {
		byID[o.ID] = o
	}
	reordered := make([]*Objective, 0, len(order))
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		o, ok := byID[id]
		if !ok {
			return fmt.Errorf("objective %q is not a child of %q: %w", id, parentID, ErrNotFound)
		}
		if seen[id] {
			return fmt.Errorf("objective %q listed twice: %w", id, ErrValidation)
		}
		seen[id] = true
		reordered = append(reordered, o)
	}
	if len(reordered) != len(*children) {
		return fmt.Errorf("new order names %d of %d children: %w", len(reordered), len(*children), ErrValidation)
	}
	*children = reordered
	return nil
}

// AddObjective appends obj under parentID, or to the roots when parentID is empty.
func (c *Chart) AddObjective(parentID string, obj *Objective) error {
	if err := checkNewObjectives(c.RootObjectives, obj); err != nil {
		return err
	}
	if parentID == "" {
		c.RootObjectives = append(c.RootObjectives, obj)
		return nil
	}
	parent, err := c.FindObjective(parentID)
	if err != nil {
		return err
	}
	if parent.IsPrimitive() {
		return fmt.Errorf("cannot add a child to primitive objective %q: %w", parentID, ErrValidation)
	}
	parent.Children = append(parent.Children, obj)
	return nil
}

// RemoveObjective deletes the subtree rooted at id along with every weight,
// score function and alternative value that referenced its primitives.
func (c *Chart) RemoveObjective(id string) error {
	o, parent := findObjective(c.RootObjectives, id)
	if o == nil {
		return notFound("objective", id)
	}
	drop := func(list []*Objective) []*Objective {
		return slices.DeleteFunc(list, func(x *Objective) bool { return x.ID == id })
	}
	if parent == nil {
		c.RootObjectives = drop(c.RootObjectives)
	} else {
		parent.Children = drop(parent.Children)
	}
	for _, p := range o.Primitives() {
		for _, u := range c.Users {
			u.dropObjective(p.ID)
		}
		for _, a := range c.Alternatives {
			delete(a.ObjectiveValues, p.ID)
		}
	}
	return nil
}

// RenameObjective changes an objective's name. The id only changes when newID
// is non-empty; references held by users and alternatives follow it.
func (c *Chart) RenameObjective(id, name, newID string) error {
	o, err := c.FindObjective(id)
	if err != nil {
		return err
	}
	if name != "" && nameInUse(c.RootObjectives, name, o) {
		return fmt.Errorf("objective name %q already in use: %w", name, ErrValidation)
	}
	changeID := newID != "" && newID != id
	if changeID {
		if existing, _ := findObjective(c.RootObjectives, newID); existing != nil {
			return fmt.Errorf("objective id %q already in use: %w", newID, ErrValidation)
		}
	}
	if name != "" {
		o.Name = name
	}
	if !changeID {
		return nil
	}
	o.ID = newID
	for _, u := range c.Users {
		u.renameObjective(id, newID)
	}
	for _, a := range c.Alternatives {
		if v, ok := a.ObjectiveValues[id]; ok {
			delete(a.ObjectiveValues, id)
			a.ObjectiveValues[newID] = v
		}
	}
	return nil
}

// SetObjectiveColor recolors an objective.
func (c *Chart) SetObjectiveColor(id, color string) error {
	o, err := c.FindObjective(id)
	if err != nil {
		return err
	}
	o.Color = color
	return nil
}

// User returns the user with the given username.
func (c *Chart) User(username string) (*User, error) {
	for _, u := range c.Users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, notFound("user", username)
}

// UpsertUser replaces the user with the same username or appends a new one.
// The whole user is swapped in one step.
func (c *Chart) UpsertUser(u *User) error {
	if u == nil || u.Username == "" {
		return fmt.Errorf("user requires a username: %w", ErrValidation)
	}
	for i, existing := range c.Users {
		if existing.Username == u.Username {
			c.Users[i] = u
			return nil
		}
	}
	if c.Kind == ChartIndividual && len(c.Users) >= 1 {
		return fmt.Errorf("individual chart already has user %q: %w", c.Users[0].Username, ErrValidation)
	}
	c.Users = append(c.Users, u)
	return nil
}

// RemoveUser deletes the user with the given username.
func (c *Chart) RemoveUser(username string) error {
	n := len(c.Users)
	c.Users = slices.DeleteFunc(c.Users, func(u *User) bool { return u.Username == username })
	if len(c.Users) == n {
		return notFound("user", username)
	}
	return nil
}

// Alternative returns the alternative with the given name.
func (c *Chart) Alternative(name string) (*Alternative, error) {
	for _, a := range c.Alternatives {
		if a.Name == name {
			return a, nil
		}
	}
	return nil, notFound("alternative", name)
}

// AddAlternative appends an alternative with a unique name.
func (c *Chart) AddAlternative(a *Alternative) error {
	if _, err := c.Alternative(a.Name); err == nil {
		return fmt.Errorf("alternative %q already exists: %w", a.Name, ErrValidation)
	}
	c.Alternatives = append(c.Alternatives, a)
	return nil
}

// RemoveAlternative deletes the alternative with the given name.
func (c *Chart) RemoveAlternative(name string) error {
	n := len(c.Alternatives)
	c.Alternatives = slices.DeleteFunc(c.Alternatives, func(a *Alternative) bool { return a.Name == name })
	if len(c.Alternatives) == n {
		return notFound("alternative", name)
	}
	return nil
}

// Validate checks the structural invariants: objective tree, alternative names
// and user count for the chart kind. Preferences are not required.
func (c *Chart) Validate() error {
	verr := NewValidationError("chart " + c.Name)
	if c.Name == "" {
		verr.Addf("chart has no name")
	}
	switch c.Kind {
	case ChartIndividual:
		if len(c.Users) > 1 {
			verr.Addf("individual chart has %d users", len(c.Users))
		}
	case ChartGroup:
	default:
		verr.Addf("unknown chart kind %q", c.Kind)
	}
	validateObjectives(c.RootObjectives, verr)

	names := make(map[string]bool, len(c.Alternatives))
	for _, a := range c.Alternatives {
		if a == nil {
			verr.Addf("alternative list has a null entry")
			continue
		}
		if a.Name == "" {
			verr.Addf("alternative has no name")
		}
		if names[a.Name] {
			verr.Addf("duplicate alternative %q", a.Name)
		}
		names[a.Name] = true
	}
	usernames := make(map[string]bool, len(c.Users))
	for _, u := range c.Users {
		if u == nil {
			verr.Addf("user list has a null entry")
			continue
		}
		if usernames[u.Username] {
			verr.Addf("duplicate user %q", u.Username)
		}
		usernames[u.Username] = true
	}
	return verr.OrNil()
}

// ValidateComplete checks everything Validate does, plus that every
// alternative has a legal value and every user a full preference set.
func (c *Chart) ValidateComplete() error {
	if err := c.Validate(); err != nil {
		return err
	}
	verr := NewValidationError("chart " + c.Name)
	if len(c.Users) == 0 {
		verr.Addf("chart has no users")
	}
	prims := c.PrimitiveObjectives()
	for _, a := range c.Alternatives {
		a.validateValues(prims, verr)
	}
	for _, u := range c.Users {
		if err := u.ValidatePreferences(prims); err != nil {
			verr.Addf("%v", err)
		}
	}
	return verr.OrNil()
}

// Structure returns a deep copy of the chart without its users.
func (c *Chart) Structure() *Chart {
	s := c.Clone()
	s.Users = nil
	return s
}

// SetStructure replaces name, description, objectives and alternatives with
// those of s, keeping the current users.
func (c *Chart) SetStructure(s *Chart) {
	c.Name = s.Name
	c.Description = s.Description
	c.RootObjectives = CloneObjectives(s.RootObjectives)
	c.Alternatives = CloneAlternatives(s.Alternatives)
}

// Clone returns a deep copy of the chart.
func (c *Chart) Clone() *Chart {
	out := *c
	out.RootObjectives = CloneObjectives(c.RootObjectives)
	out.Alternatives = CloneAlternatives(c.Alternatives)
	if c.Users != nil {
		out.Users = make([]*User, len(c.Users))
		for i, u := range c.Users {
			out.Users[i] = u.Clone()
		}
	}
	return &out
}
