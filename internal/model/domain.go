package model

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
)

// DomainKind identifies the variant of a Domain.
type DomainKind string

const (
	DomainCategorical DomainKind = "categorical"
	DomainInterval    DomainKind = "interval"
	DomainContinuous  DomainKind = "continuous"
)

// Domain is the set of legal outcomes for a primitive objective.
//
// Only the fields of the active Kind are meaningful: Categorical uses Labels
// and Ordered, Interval uses Points, Continuous uses Min and Max.
type Domain struct {
	Kind    DomainKind
	Labels  []string
	Ordered bool
	Points  []float64
	Min     float64
	Max     float64
}

// NewCategoricalDomain returns a categorical domain over the given labels.
func NewCategoricalDomain(ordered bool, labels ...string) *Domain {
	return &Domain{Kind: DomainCategorical, Ordered: ordered, Labels: slices.Clone(labels)}
}

// NewIntervalDomain returns an ordered discrete numeric domain.
func NewIntervalDomain(points ...float64) *Domain {
	return &Domain{Kind: DomainInterval, Points: slices.Clone(points)}
}

// NewIntervalDomainRange derives the interval elements min, min+step, ... up to max.
func NewIntervalDomainRange(min, max, step float64) (*Domain, error) {
	if step <= 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		return nil, fmt.Errorf("interval step %v must be positive: %w", step, ErrValidation)
	}
	if !(min < max) {
		return nil, fmt.Errorf("interval range [%v, %v] is empty: %w", min, max, ErrValidation)
	}
	d := &Domain{Kind: DomainInterval}
	// Step by index so accumulated rounding never skips or duplicates max.
	for i := 0; ; i++ {
		p := min + float64(i)*step
		if p > max+step*1e-9 {
			break
		}
		d.Points = append(d.Points, math.Min(p, max))
	}
	return d, nil
}

// NewContinuousDomain returns the closed range [min, max].
func NewContinuousDomain(min, max float64) *Domain {
	return &Domain{Kind: DomainContinuous, Min: min, Max: max}
}

// IsDiscrete reports whether the domain has a finite element list.
func (d *Domain) IsDiscrete() bool {
	return d.Kind == DomainCategorical || d.Kind == DomainInterval
}

// Elements lists the outcomes of a discrete domain in declaration order.
// Continuous domains return nil.
func (d *Domain) Elements() []Value {
	switch d.Kind {
	case DomainCategorical:
		out := make([]Value, len(d.Labels))
		for i, l := range d.Labels {
			out[i] = Text(l)
		}
		return out
	case DomainInterval:
		out := make([]Value, len(d.Points))
		for i, p := range d.Points {
			out[i] = Number(p)
		}
		return out
	}
	return nil
}

// Contains reports whether v is a legal outcome of the domain.
func (d *Domain) Contains(v Value) bool {
	switch d.Kind {
	case DomainCategorical:
		return !v.IsNumeric() && slices.Contains(d.Labels, v.String())
	case DomainInterval:
		f, ok := v.Float()
		return ok && slices.Contains(d.Points, f)
	case DomainContinuous:
		f, ok := v.Float()
		return ok && f >= d.Min && f <= d.Max
	}
	return false
}

// AddElement appends an outcome to a discrete domain.
func (d *Domain) AddElement(v Value) error {
	if d.Contains(v) {
		return fmt.Errorf("domain already contains %q: %w", v, ErrValidation)
	}
	switch d.Kind {
	case DomainCategorical:
		if v.IsNumeric() {
			return fmt.Errorf("categorical element %v must be a label: %w", v, ErrValidation)
		}
		d.Labels = append(d.Labels, v.String())
	case DomainInterval:
		f, ok := v.Float()
		if !ok {
			return fmt.Errorf("interval element %q must be numeric: %w", v, ErrValidation)
		}
		d.Points = append(d.Points, f)
		slices.Sort(d.Points)
	default:
		return fmt.Errorf("cannot add elements to a %s domain: %w", d.Kind, ErrValidation)
	}
	return nil
}

// RemoveElement deletes an outcome from a discrete domain. Missing elements are ignored.
func (d *Domain) RemoveElement(v Value) {
	switch d.Kind {
	case DomainCategorical:
		d.Labels = slices.DeleteFunc(d.Labels, func(l string) bool { return !v.IsNumeric() && l == v.String() })
	case DomainInterval:
		f, ok := v.Float()
		if ok {
			d.Points = slices.DeleteFunc(d.Points, func(p float64) bool { return p == f })
		}
	}
}

// Validate checks the domain invariants.
func (d *Domain) Validate() error {
	verr := NewValidationError("domain")
	switch d.Kind {
	case DomainCategorical:
		if len(d.Labels) == 0 {
			verr.Addf("categorical domain has no elements")
		}
		seen := make(map[string]bool, len(d.Labels))
		for _, l := range d.Labels {
			if seen[l] {
				verr.Addf("duplicate element %q", l)
			}
			seen[l] = true
		}
	case DomainInterval:
		if len(d.Points) == 0 {
			verr.Addf("interval domain has no elements")
		}
		seen := make(map[float64]bool, len(d.Points))
		for _, p := range d.Points {
			if math.IsNaN(p) || math.IsInf(p, 0) {
				verr.Addf("element %v is not finite", p)
			}
			if seen[p] {
				verr.Addf("duplicate element %v", p)
			}
			seen[p] = true
		}
	case DomainContinuous:
		if math.IsNaN(d.Min) || math.IsNaN(d.Max) || !(d.Min < d.Max) {
			verr.Addf("continuous range requires min < max, got [%v, %v]", d.Min, d.Max)
		}
	default:
		verr.Addf("unknown domain type %q", d.Kind)
	}
	return verr.OrNil()
}

// Clone returns an independent copy.
func (d *Domain) Clone() *Domain {
	if d == nil {
		return nil
	}
	c := *d
	c.Labels = slices.Clone(d.Labels)
	c.Points = slices.Clone(d.Points)
	return &c
}

type domainDoc struct {
	Type     DomainKind      `json:"type"`
	Elements json.RawMessage `json:"elements,omitempty"`
	Ordered  *bool           `json:"ordered,omitempty"`
	Min      *float64        `json:"min,omitempty"`
	Max      *float64        `json:"max,omitempty"`
}

// MarshalJSON encodes {type, elements?, ordered?, min?, max?}.
func (d *Domain) MarshalJSON() ([]byte, error) {
	doc := domainDoc{Type: d.Kind}
	var err error
	switch d.Kind {
	case DomainCategorical:
		ordered := d.Ordered
		doc.Ordered = &ordered
		labels := d.Labels
		if labels == nil {
			labels = []string{}
		}
		doc.Elements, err = json.Marshal(labels)
	case DomainInterval:
		points := d.Points
		if points == nil {
			points = []float64{}
		}
		doc.Elements, err = json.Marshal(points)
	case DomainContinuous:
		lo, hi := d.Min, d.Max
		doc.Min, doc.Max = &lo, &hi
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// UnmarshalJSON decodes the tagged domain document.
func (d *Domain) UnmarshalJSON(data []byte) error {
	var doc domainDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*d = Domain{Kind: doc.Type}
	switch doc.Type {
	case DomainCategorical:
		if doc.Ordered != nil {
			d.Ordered = *doc.Ordered
		}
		if len(doc.Elements) > 0 {
			if err := json.Unmarshal(doc.Elements, &d.Labels); err != nil {
				return fmt.Errorf("categorical elements: %w", err)
			}
		}
	case DomainInterval:
		if len(doc.Elements) > 0 {
			if err := json.Unmarshal(doc.Elements, &d.Points); err != nil {
				return fmt.Errorf("interval elements: %w", err)
			}
		}
	case DomainContinuous:
		if doc.Min == nil || doc.Max == nil {
			return fmt.Errorf("continuous domain requires min and max: %w", ErrValidation)
		}
		d.Min, d.Max = *doc.Min, *doc.Max
	default:
		return fmt.Errorf("unknown domain type %q: %w", doc.Type, ErrValidation)
	}
	return nil
}
