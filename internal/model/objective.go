package model

import "fmt"

// ObjectiveType tags an Objective as a grouping node or a scored leaf.
type ObjectiveType string

const (
	ObjectiveAbstract  ObjectiveType = "abstract"
	ObjectivePrimitive ObjectiveType = "primitive"
)

// Objective is a node of the objective tree. Primitive objectives carry a
// Domain; abstract objectives carry Children. ID is the stable join key used
// by score function maps, weight maps and alternatives.
type Objective struct {
	Type        ObjectiveType `json:"objectiveType"`
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Color       string        `json:"color"`
	Domain      *Domain       `json:"domain,omitempty"`
	Children    []*Objective  `json:"children,omitempty"`
}

// NewPrimitiveObjective creates a leaf objective. The id defaults to the name.
func NewPrimitiveObjective(name, description string, domain *Domain) *Objective {
	return &Objective{Type: ObjectivePrimitive, ID: name, Name: name, Description: description, Domain: domain}
}

// NewAbstractObjective creates a grouping objective. The id defaults to the name.
func NewAbstractObjective(name, description string, children ...*Objective) *Objective {
	return &Objective{Type: ObjectiveAbstract, ID: name, Name: name, Description: description, Children: children}
}

// IsPrimitive reports whether o is a leaf.
func (o *Objective) IsPrimitive() bool { return o.Type == ObjectivePrimitive }

// Primitives returns the leaves under o (o itself if primitive), depth-first
// and left to right.
func (o *Objective) Primitives() []*Objective {
	return flattenPrimitives([]*Objective{o})
}

// Clone returns a deep copy of the subtree rooted at o.
func (o *Objective) Clone() *Objective {
	if o == nil {
		return nil
	}
	c := *o
	c.Domain = o.Domain.Clone()
	c.Children = CloneObjectives(o.Children)
	return &c
}

// CloneObjectives deep-copies a list of subtrees.
func CloneObjectives(objs []*Objective) []*Objective {
	if objs == nil {
		return nil
	}
	out := make([]*Objective, len(objs))
	for i, o := range objs {
		out[i] = o.Clone()
	}
	return out
}

func flattenPrimitives(roots []*Objective) []*Objective {
	var out []*Objective
	var walk func(objs []*Objective)
	walk = func(objs []*Objective) {
		for _, o := range objs {
			if o == nil {
				continue
			}
			if o.IsPrimitive() {
				out = append(out, o)
				continue
			}
			walk(o.Children)
		}
	}
	walk(roots)
	return out
}

// findObjective locates id in the forest. parent is nil for root objectives.
func findObjective(roots []*Objective, id string) (node *Objective, parent *Objective) {
	var walk func(objs []*Objective, p *Objective) bool
	walk = func(objs []*Objective, p *Objective) bool {
		for _, o := range objs {
			if o == nil {
				continue
			}
			if o.ID == id {
				node, parent = o, p
				return true
			}
			if walk(o.Children, o) {
				return true
			}
		}
		return false
	}
	walk(roots, nil)
	return node, parent
}

func validateObjectives(roots []*Objective, verr *ValidationError) {
	if len(roots) == 0 {
		verr.Addf("chart has no objectives")
		return
	}
	ids := make(map[string]bool)
	names := make(map[string]bool)
	var walk func(objs []*Objective)
	walk = func(objs []*Objective) {
		for _, o := range objs {
			if o == nil {
				verr.Addf("objective list has a null entry")
				continue
			}
			if o.ID == "" {
				verr.Addf("objective %q has no id", o.Name)
			}
			if o.Name == "" {
				verr.Addf("objective %q has no name", o.ID)
			}
			if ids[o.ID] {
				verr.Addf("duplicate objective id %q", o.ID)
			}
			if names[o.Name] {
				verr.Addf("duplicate objective name %q", o.Name)
			}
			ids[o.ID], names[o.Name] = true, true

			switch o.Type {
			case ObjectivePrimitive:
				if len(o.Children) > 0 {
					verr.Addf("primitive objective %q has children", o.ID)
				}
				if o.Domain == nil {
					verr.Addf("primitive objective %q has no domain", o.ID)
				} else if err := o.Domain.Validate(); err != nil {
					verr.Addf("objective %q: %v", o.ID, err)
				}
			case ObjectiveAbstract:
				if o.Domain != nil {
					verr.Addf("abstract objective %q has a domain", o.ID)
				}
				if len(o.Children) == 0 {
					verr.Addf("abstract objective %q has no children", o.ID)
				}
				walk(o.Children)
			default:
				verr.Addf("objective %q has unknown type %q", o.ID, o.Type)
			}
		}
	}
	walk(roots)
}

// checkNewObjectives reports ids and names in the subtree rooted at obj that
// clash with the tree or repeat within the subtree. Empty ids default to the
// name.
func checkNewObjectives(roots []*Objective, obj *Objective) error {
	if obj == nil {
		return fmt.Errorf("objective is null: %w", ErrValidation)
	}
	ids := make(map[string]bool)
	names := make(map[string]bool)
	var collect func(objs []*Objective)
	collect = func(objs []*Objective) {
		for _, o := range objs {
			if o == nil {
				continue
			}
			ids[o.ID], names[o.Name] = true, true
			collect(o.Children)
		}
	}
	collect(roots)

	verr := NewValidationError("objective " + obj.Name)
	var walk func(o *Objective)
	walk = func(o *Objective) {
		if o == nil {
			verr.Addf("objective list has a null entry")
			return
		}
		if o.ID == "" {
			o.ID = o.Name
		}
		if ids[o.ID] {
			verr.Addf("objective id %q already in use", o.ID)
		}
		if names[o.Name] {
			verr.Addf("objective name %q already in use", o.Name)
		}
		ids[o.ID], names[o.Name] = true, true
		for _, child := range o.Children {
			walk(child)
		}
	}
	walk(obj)
	return verr.OrNil()
}

// nameInUse reports whether an objective other than self is called name.
func nameInUse(roots []*Objective, name string, self *Objective) bool {
	for _, o := range roots {
		if o == nil {
			continue
		}
		if o != self && o.Name == name {
			return true
		}
		if nameInUse(o.Children, name, self) {
			return true
		}
	}
	return false
}
