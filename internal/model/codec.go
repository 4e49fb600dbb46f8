package model

import (
	"encoding/json"
	"fmt"
)

// UnmarshalChart decodes a chart document and normalizes absent lists to
// empty ones. Null entries in any list are rejected.
func UnmarshalChart(data []byte) (*Chart, error) {
	var c Chart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode chart: %w", err)
	}
	if err := checkNullEntries(&c); err != nil {
		return nil, err
	}
	if c.RootObjectives == nil {
		c.RootObjectives = []*Objective{}
	}
	if c.Alternatives == nil {
		c.Alternatives = []*Alternative{}
	}
	if c.Users == nil {
		c.Users = []*User{}
	}
	for _, u := range c.Users {
		if u.ScoreFunctionMap == nil {
			u.ScoreFunctionMap = make(ScoreFunctionMap)
		}
		if u.WeightMap == nil {
			u.WeightMap = NewWeightMap()
		}
	}
	return &c, nil
}

func checkNullEntries(c *Chart) error {
	verr := NewValidationError("chart " + c.Name)
	var walk func(objs []*Objective)
	walk = func(objs []*Objective) {
		for _, o := range objs {
			if o == nil {
				verr.Addf("objective list has a null entry")
				continue
			}
			walk(o.Children)
		}
	}
	walk(c.RootObjectives)
	for _, a := range c.Alternatives {
		if a == nil {
			verr.Addf("alternative list has a null entry")
		}
	}
	for _, u := range c.Users {
		if u == nil {
			verr.Addf("user list has a null entry")
		}
	}
	return verr.OrNil()
}

// MarshalChart encodes a chart document.
func MarshalChart(c *Chart) ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	return data, nil
}

// UnmarshalUser decodes a single user document.
func UnmarshalUser(data []byte) (*User, error) {
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	if u.ScoreFunctionMap == nil {
		u.ScoreFunctionMap = make(ScoreFunctionMap)
	}
	if u.WeightMap == nil {
		u.WeightMap = NewWeightMap()
	}
	return &u, nil
}

// MarshalUser encodes a single user document.
func MarshalUser(u *User) ([]byte, error) {
	data, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("encode user: %w", err)
	}
	return data, nil
}
