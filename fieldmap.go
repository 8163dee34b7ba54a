package curator

import (
	"fmt"
	"strings"
)

// Endpoint identifies one raw data source of a data block.
type Endpoint string

// Tag is a provider specific raw column name.
type Tag string

// Source tells how an entity field is read from an endpoint table. It is
// either a Tag or a Preprocessed mapping.
type Source interface {
	sourceTags() []Tag
}

func (t Tag) sourceTags() []Tag { return []Tag{t} }

// Preprocessed derives a field from one or more raw columns through a chain of
// preprocessors. The first preprocessor receives every tagged column, the
// following ones the previous output.
type Preprocessed struct {
	Tags          []Tag
	Preprocessors []Preprocessor
}

func (p Preprocessed) sourceTags() []Tag { return p.Tags }

// Preprocess is a shorthand for a Preprocessed source.
func Preprocess(tags []Tag, preprocessors ...Preprocessor) Preprocessed {
	return Preprocessed{Tags: tags, Preprocessors: preprocessors}
}

// FieldMapping maps one entity field to its source.
type FieldMapping struct {
	Field  FieldRef
	Source Source
}

// EndpointFields lists the field mappings of one endpoint.
type EndpointFields struct {
	Endpoint Endpoint
	Fields   []FieldMapping
}

// FieldMap declares, for every endpoint of a data block, how raw columns
// become entity fields. Endpoints are consolidated in declaration order.
type FieldMap struct {
	Endpoints []EndpointFields
}

// Order returns the endpoints in declaration order.
func (fm *FieldMap) Order() []Endpoint {
	order := make([]Endpoint, len(fm.Endpoints))
	for i, ef := range fm.Endpoints {
		order[i] = ef.Endpoint
	}
	return order
}

// Source returns the source of a field for an endpoint.
func (fm *FieldMap) Source(e Endpoint, field FieldRef) (Source, bool) {
	for _, ef := range fm.Endpoints {
		if ef.Endpoint != e {
			continue
		}
		for _, m := range ef.Fields {
			if m.Field == field {
				return m.Source, true
			}
		}
	}
	return nil, false
}

// preprocessStep is one Preprocessed field of an endpoint.
type preprocessStep struct {
	field  FieldRef
	inputs []string // Entity.field$tag column names
	chain  []Preprocessor
}

// remapPlan holds the lookup structures derived from a FieldMap.
type remapPlan struct {
	targets    map[Endpoint]map[Tag][]string
	preprocess map[Endpoint][]preprocessStep
}

// plan derives the tag to column names tables, and the preprocessing steps.
func (fm *FieldMap) plan() (*remapPlan, error) {
	p := &remapPlan{
		targets:    make(map[Endpoint]map[Tag][]string),
		preprocess: make(map[Endpoint][]preprocessStep),
	}
	for _, ef := range fm.Endpoints {
		targets := make(map[Tag][]string)
		p.targets[ef.Endpoint] = targets
		for _, m := range ef.Fields {
			if m.Field.Entity == nil {
				return nil, mappingError("endpoint %s maps a field without entity", ef.Endpoint)
			}
			switch src := m.Source.(type) {
			case Tag:
				targets[src] = append(targets[src], m.Field.String())
			case Preprocessed:
				if len(src.Tags) == 0 {
					return nil, mappingError("endpoint %s: %s has no input tag", ef.Endpoint, m.Field)
				}
				step := preprocessStep{field: m.Field, chain: src.Preprocessors}
				for _, tag := range src.Tags {
					name := m.Field.Tagged(tag)
					targets[tag] = append(targets[tag], name)
					step.inputs = append(step.inputs, name)
				}
				p.preprocess[ef.Endpoint] = append(p.preprocess[ef.Endpoint], step)
			default:
				return nil, mappingError("endpoint %s: %s has an unsupported mapping %T", ef.Endpoint, m.Field, m.Source)
			}
		}
	}
	return p, nil
}

// RemapTable returns, per endpoint, the column names every raw tag is
// copied to.
func (fm *FieldMap) RemapTable() (map[Endpoint]map[Tag][]string, error) {
	p, err := fm.plan()
	if err != nil {
		return nil, err
	}
	return p.targets, nil
}

// DiscrepancyRenames returns the column renames turning a discrepancy table
// into operator facing names: "ENDPOINT$Entity.field" becomes "endpoint.tag",
// tags joined with "+" for preprocessed fields, and key columns become bare
// field names.
func (fm *FieldMap) DiscrepancyRenames(names []string) map[string]string {
	renames := make(map[string]string, len(names))
	for _, name := range names {
		endpoint, qualified, prefixed := strings.Cut(name, "$")
		if !prefixed {
			if _, field, ok := splitQualifiedName(name); ok {
				renames[name] = field
			}
			continue
		}
		src, ok := fm.sourceByName(Endpoint(endpoint), qualified)
		if !ok {
			continue
		}
		tags := src.sourceTags()
		parts := make([]string, len(tags))
		for i, tag := range tags {
			parts[i] = string(tag)
		}
		renames[name] = fmt.Sprintf("%s.%s", endpoint, strings.Join(parts, "+"))
	}
	return renames
}

// sourceByName finds a source from a qualified field name.
func (fm *FieldMap) sourceByName(e Endpoint, qualified string) (Source, bool) {
	for _, ef := range fm.Endpoints {
		if ef.Endpoint != e {
			continue
		}
		for _, m := range ef.Fields {
			if m.Field.Entity != nil && m.Field.String() == qualified && m.Source != nil {
				return m.Source, true
			}
		}
	}
	return nil, false
}

// EndpointTable is the table of one endpoint.
type EndpointTable struct {
	Endpoint Endpoint
	Table    *Table
}

// EndpointTables is an ordered set of endpoint tables. Its order is the
// endpoint iteration order used when coalescing duplicated columns.
type EndpointTables []EndpointTable

// Get returns the table of an endpoint.
func (ts EndpointTables) Get(e Endpoint) (*Table, bool) {
	for _, et := range ts {
		if et.Endpoint == e {
			return et.Table, true
		}
	}
	return nil, false
}

// Empty reports whether every table has no row.
func (ts EndpointTables) Empty() bool {
	for _, et := range ts {
		if et.Table.Len() > 0 {
			return false
		}
	}
	return true
}

// Endpoints returns the endpoints in order.
func (ts EndpointTables) Endpoints() []Endpoint {
	es := make([]Endpoint, len(ts))
	for i, et := range ts {
		es[i] = et.Endpoint
	}
	return es
}
