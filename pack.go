package curator

import (
	"slices"
)

// PackRows builds entity instances from entity tables and indexes the
// instances of the clock entity by their clock value.
//
// Entity types are packed in relations order so that sub-entities exist
// before the entities embedding them. For each row:
//   - fields absent from the entity table are null;
//   - a row where every field, except dependencies and the clock field, is
//     null is empty and packs to nil;
//   - other cells are converted to their declared type, dependencies take the
//     sub-entity packed from the same row.
//
// Row failures are collected per entity type and returned together as a
// *RowErrors. Packing stops after the clock entity, which maps each clock
// value, as an ISO date, to its instance or nil.
//
// A missing entity table, or no clock row at all, is a structural error
// matching ErrIncorrectPackingStructure.
func PackRows(clock FieldRef, relations OrderedRelations, tables EntityTables, conv *Conversions) (*RowMap, error) {
	if !slices.Contains(relations.Entities(), clock.Entity) {
		return nil, structureError("clock entity %s is not part of the relations", clock.Entity)
	}
	clockTable, ok := tables[clock.Entity]
	if !ok {
		return nil, structureError("no table for clock entity %s", clock.Entity)
	}
	clockColumn, ok := clockTable.Column(clock.Name)
	if !ok {
		return nil, structureError("no clock column %s", clock)
	}
	clockField := clock.Field()

	packed := make(map[*EntityType][]*Entity, len(relations))
	master := NewRowMap()
	for _, r := range relations {
		t, ok := tables[r.Entity]
		if !ok {
			return nil, structureError("no table for entity %s", r.Entity)
		}
		isClock := r.Entity == clock.Entity
		dependencies := make(map[string]*EntityType, len(r.Dependencies))
		for _, d := range r.Dependencies {
			dependencies[d.Field] = d.Entity
		}
		var present, nonKey []Field
		for _, f := range r.Entity.Fields {
			if _, ok := dependencies[f.Name]; ok || !t.Has(f.Name) {
				continue
			}
			present = append(present, f)
			if !(isClock && f.Name == clock.Name) {
				nonKey = append(nonKey, f)
			}
		}

		instances := make([]*Entity, t.Len())
		failures := &RowErrors{Entity: r.Entity.Name}
		fail := func(row int, err error) {
			var label string
			if row < clockColumn.Len() {
				label = formatCell(clockColumn.At(row))
			}
			failures.Errors = append(failures.Errors, &EntityPackingError{Entity: r.Entity.Name, Clock: label, Index: row, Err: err})
		}
	rows:
		for row := range t.Len() {
			if emptyRow(t, nonKey, row) {
				if isClock {
					key, err := clockKey(conv, clockField, clockColumn.At(row))
					if err != nil {
						fail(row, err)
						continue
					}
					master.Set(key, nil)
				}
				continue
			}

			values := make(map[string]any, len(r.Entity.Fields))
			for _, f := range present {
				c, _ := t.Column(f.Name)
				v, err := conv.Convert(c.At(row), f)
				if err != nil {
					fail(row, err)
					continue rows
				}
				if v != nil {
					values[f.Name] = v
				}
			}
			for _, f := range r.Entity.Fields {
				sub, ok := dependencies[f.Name]
				if !ok {
					continue
				}
				if v := dependencyValue(f, packed[sub], row); v != nil {
					values[f.Name] = v
				}
			}

			e, err := r.Entity.New(values)
			if err != nil {
				fail(row, err)
				continue
			}
			instances[row] = e
			if isClock {
				key, err := clockKey(conv, clockField, values[clock.Name])
				if err != nil {
					fail(row, err)
					continue
				}
				master.Set(key, e)
			}
		}
		if len(failures.Errors) > 0 {
			return nil, failures
		}
		packed[r.Entity] = instances
		if isClock {
			break
		}
	}
	if master.Len() == 0 {
		return nil, structureError("no row for clock sync field %s", clock)
	}
	return master, nil
}

// emptyRow reports whether every given field is null at row.
func emptyRow(t *Table, fields []Field, row int) bool {
	for _, f := range fields {
		if c, _ := t.Column(f.Name); !c.IsNull(row) {
			return false
		}
	}
	return true
}

// dependencyValue returns the value of a sub-entity field for a row, nil when
// the sub-entity is absent.
func dependencyValue(f Field, instances []*Entity, row int) any {
	var sub *Entity
	if row < len(instances) {
		sub = instances[row]
	}
	switch f.Kind {
	case KindEntity, KindOptionalEntity:
		if sub != nil {
			return sub
		}
	case KindEntityList:
		if sub == nil {
			return []*Entity{}
		}
		return []*Entity{sub}
	case KindOptionalEntityList:
		if sub != nil {
			return []*Entity{sub}
		}
	}
	return nil
}

// clockKey converts a clock cell and returns it as a map key.
func clockKey(conv *Conversions, f Field, v any) (string, error) {
	converted, err := conv.Convert(v, f)
	if err != nil {
		return "", err
	}
	if converted == nil {
		return "", structureError("null clock sync value")
	}
	return formatCell(converted), nil
}
