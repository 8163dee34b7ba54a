package curator

import (
	"fmt"
	"strings"
)

// Dependency is a field of an entity holding another entity type.
type Dependency struct {
	Field  string
	Entity *EntityType
}

// EntityRelations lists the direct sub-entity fields of an entity type.
type EntityRelations struct {
	Entity       *EntityType
	Dependencies []Dependency
}

// OrderedRelations lists entity types so that every type comes after the types
// it depends on.
type OrderedRelations []EntityRelations

// Entities returns the entity types in order.
func (o OrderedRelations) Entities() []*EntityType {
	types := make([]*EntityType, len(o))
	for i, r := range o {
		types[i] = r.Entity
	}
	return types
}

// Names indexes the entity types by name.
func (o OrderedRelations) Names() map[string]*EntityType {
	names := make(map[string]*EntityType, len(o))
	for _, r := range o {
		names[r.Entity.Name] = r.Entity
	}
	return names
}

// ResolveRelations walks the entity types reachable from main, breadth first,
// and orders them by dependency, leaves first. Entity types ready at the same
// time keep their discovery order. A cycle in sub-entity composition is a
// declaration defect and returns an error matching ErrIncorrectPackingStructure.
func ResolveRelations(main *EntityType) (OrderedRelations, error) {
	var discovered []EntityRelations
	seen := map[*EntityType]bool{main: true}
	queue := []*EntityType{main}
	for len(queue) > 0 {
		typ := queue[0]
		queue = queue[1:]
		r := EntityRelations{Entity: typ}
		for _, f := range typ.Fields {
			if !f.Kind.IsEntity() {
				continue
			}
			if f.Entity == nil {
				return nil, structureError("%s.%s has no entity type", typ.Name, f.Name)
			}
			r.Dependencies = append(r.Dependencies, Dependency{Field: f.Name, Entity: f.Entity})
			if !seen[f.Entity] {
				seen[f.Entity] = true
				queue = append(queue, f.Entity)
			}
		}
		discovered = append(discovered, r)
	}

	ordered := make(OrderedRelations, 0, len(discovered))
	done := make(map[*EntityType]bool, len(discovered))
	for len(ordered) < len(discovered) {
		var ready []EntityRelations
		for _, r := range discovered {
			if done[r.Entity] || !dependenciesDone(r, done) {
				continue
			}
			ready = append(ready, r)
		}
		if len(ready) == 0 {
			var stuck []string
			for _, r := range discovered {
				if !done[r.Entity] {
					stuck = append(stuck, r.Entity.Name)
				}
			}
			return nil, structureError("cyclic sub-entities among %s", strings.Join(stuck, ", "))
		}
		for _, r := range ready {
			done[r.Entity] = true
		}
		ordered = append(ordered, ready...)
	}
	return ordered, nil
}

func dependenciesDone(r EntityRelations, done map[*EntityType]bool) bool {
	for _, d := range r.Dependencies {
		if !done[d.Entity] {
			return false
		}
	}
	return true
}

// Hierarchy is the tree of entity types reachable from a main entity.
type Hierarchy struct {
	Field    string // field of the parent holding this entity, empty for the root
	Entity   *EntityType
	Children []*Hierarchy
}

// NewHierarchy builds the hierarchy rooted at main. Each entity type is
// expanded once.
func NewHierarchy(main *EntityType) *Hierarchy {
	root := &Hierarchy{Entity: main}
	seen := map[*EntityType]bool{main: true}
	queue := []*Hierarchy{root}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, f := range node.Entity.Fields {
			if !f.Kind.IsEntity() || f.Entity == nil {
				continue
			}
			child := &Hierarchy{Field: f.Name, Entity: f.Entity}
			node.Children = append(node.Children, child)
			if !seen[f.Entity] {
				seen[f.Entity] = true
				queue = append(queue, child)
			}
		}
	}
	return root
}

// String renders the hierarchy as an indented tree.
func (h *Hierarchy) String() string {
	var b strings.Builder
	var walk func(n *Hierarchy, depth int)
	walk = func(n *Hierarchy, depth int) {
		b.WriteString(strings.Repeat("  ", depth))
		if n.Field != "" {
			fmt.Fprintf(&b, "%s: ", n.Field)
		}
		b.WriteString(n.Entity.Name)
		b.WriteByte('\n')
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	walk(h, 0)
	return b.String()
}
