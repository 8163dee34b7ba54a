package curator

// EntityTables holds one table per entity type, columns named after the bare
// field names.
type EntityTables map[*EntityType]*Table

// SplitEntityTables slices a consolidated table into one table per entity
// type, using the "Entity.field" column names. Every column must name a
// declared field of a known entity type.
func SplitEntityTables(t *Table, entities map[string]*EntityType) (EntityTables, error) {
	type group struct {
		names   []string
		columns []Column
	}
	groups := make(map[*EntityType]*group)
	for i, name := range t.names {
		entityName, field, ok := splitQualifiedName(name)
		if !ok {
			return nil, mappingError("column %q is not an Entity.field name", name)
		}
		typ, ok := entities[entityName]
		if !ok {
			return nil, mappingError("column %q: unknown entity %s", name, entityName)
		}
		if typ == nil {
			return nil, mappingError("column %q: %s is not an entity type", name, entityName)
		}
		if _, ok := typ.Field(field); !ok {
			return nil, mappingError("column %q: %s has no field %s", name, entityName, field)
		}
		g, ok := groups[typ]
		if !ok {
			g = &group{}
			groups[typ] = g
		}
		g.names = append(g.names, field)
		g.columns = append(g.columns, t.columns[i])
	}

	tables := make(EntityTables, len(groups))
	for typ, g := range groups {
		et, err := NewTable(g.names, g.columns)
		if err != nil {
			return nil, err
		}
		tables[typ] = et
	}
	return tables, nil
}
