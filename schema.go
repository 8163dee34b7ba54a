package curator

import (
	"fmt"
	"strings"
)

// ScalarType names the declared type of a scalar field. It selects the
// converter used when packing raw cells.
type ScalarType string

const (
	TypeDate     ScalarType = "date"
	TypeDecimal  ScalarType = "decimal"
	TypeInt      ScalarType = "int"
	TypeFloat    ScalarType = "float"
	TypeString   ScalarType = "string"
	TypeBool     ScalarType = "bool"
	TypeCurrency ScalarType = "currency" // ISO 4217 code
)

// FieldKind describes how a field wraps its scalar or entity type.
type FieldKind int

const (
	KindScalar FieldKind = iota
	KindOptionalScalar
	KindEntity
	KindOptionalEntity
	KindEntityList
	KindOptionalEntityList
	KindEntityMap
	KindOptionalEntityMap
)

func (k FieldKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindOptionalScalar:
		return "optional scalar"
	case KindEntity:
		return "entity"
	case KindOptionalEntity:
		return "optional entity"
	case KindEntityList:
		return "entity list"
	case KindOptionalEntityList:
		return "optional entity list"
	case KindEntityMap:
		return "entity map"
	case KindOptionalEntityMap:
		return "optional entity map"
	default:
		return fmt.Sprintf("FieldKind(%d)", int(k))
	}
}

// Optional reports whether the field accepts a null value.
func (k FieldKind) Optional() bool {
	switch k {
	case KindOptionalScalar, KindOptionalEntity, KindOptionalEntityList, KindOptionalEntityMap:
		return true
	}
	return false
}

// IsEntity reports whether the field holds sub-entities.
func (k FieldKind) IsEntity() bool { return k != KindScalar && k != KindOptionalScalar }

// Field declares one field of an entity type.
type Field struct {
	Name   string
	Kind   FieldKind
	Scalar ScalarType  // for scalar kinds
	Entity *EntityType // for entity kinds
}

// Type describes the declared type, e.g. "optional decimal" or "list of Row".
func (f Field) Type() string {
	switch f.Kind {
	case KindScalar:
		return string(f.Scalar)
	case KindOptionalScalar:
		return "optional " + string(f.Scalar)
	case KindEntity:
		return f.Entity.Name
	case KindOptionalEntity:
		return "optional " + f.Entity.Name
	case KindEntityList:
		return "list of " + f.Entity.Name
	case KindOptionalEntityList:
		return "optional list of " + f.Entity.Name
	case KindEntityMap:
		return "map of " + f.Entity.Name
	case KindOptionalEntityMap:
		return "optional map of " + f.Entity.Name
	}
	return f.Kind.String()
}

// Scalar declares a required scalar field.
func Scalar(name string, typ ScalarType) Field {
	return Field{Name: name, Kind: KindScalar, Scalar: typ}
}

// Optional declares a nullable scalar field.
func Optional(name string, typ ScalarType) Field {
	return Field{Name: name, Kind: KindOptionalScalar, Scalar: typ}
}

// Sub declares a field holding a sub-entity of the given kind.
func Sub(name string, kind FieldKind, typ *EntityType) Field {
	if !kind.IsEntity() {
		panic(fmt.Sprintf("field %s: %v is not an entity kind", name, kind))
	}
	return Field{Name: name, Kind: kind, Entity: typ}
}

// EntityType is a named record type with a fixed set of fields. Entity types
// are declared once, usually as package variables, and compared by identity.
type EntityType struct {
	Name   string
	Fields []Field
	// Validate optionally checks a fully typed instance.
	Validate func(*Entity) error

	index map[string]int
}

// NewEntityType declares an entity type. It panics on duplicate field names.
func NewEntityType(name string, fields ...Field) *EntityType {
	t := &EntityType{Name: name, Fields: fields, index: make(map[string]int, len(fields))}
	for i, f := range fields {
		if _, exists := t.index[f.Name]; exists {
			panic(fmt.Sprintf("entity %s: duplicate field %s", name, f.Name))
		}
		t.index[f.Name] = i
	}
	return t
}

func (t *EntityType) String() string { return t.Name }

// Field returns the declared field.
func (t *EntityType) Field(name string) (Field, bool) {
	i, ok := t.index[name]
	if !ok {
		return Field{}, false
	}
	return t.Fields[i], true
}

// Ref returns a reference to a declared field. It panics if the field does
// not exist, references are built at declaration time.
func (t *EntityType) Ref(name string) FieldRef {
	if _, ok := t.index[name]; !ok {
		panic(fmt.Sprintf("entity %s has no field %s", t.Name, name))
	}
	return FieldRef{Entity: t, Name: name}
}

// FieldRef identifies a field of an entity type. It is comparable and used as
// a map key: two references are equal when they name the same field of the
// same entity type.
type FieldRef struct {
	Entity *EntityType
	Name   string
}

// Field returns the declared field.
func (r FieldRef) Field() Field {
	f, _ := r.Entity.Field(r.Name)
	return f
}

// String returns the qualified name "Entity.field".
func (r FieldRef) String() string { return r.Entity.Name + "." + r.Name }

// Tagged returns the qualified name of a preprocessing input, "Entity.field$tag".
func (r FieldRef) Tagged(tag Tag) string { return r.String() + "$" + string(tag) }

// splitQualifiedName splits "Entity.field" on its first dot.
func splitQualifiedName(name string) (entity, field string, ok bool) {
	entity, field, ok = strings.Cut(name, ".")
	if !ok || entity == "" || field == "" {
		return "", "", false
	}
	return entity, field, true
}

// qualifiedNames returns the qualified names of refs.
func qualifiedNames(refs []FieldRef) []string {
	names := make([]string, len(refs))
	for i, r := range refs {
		names[i] = r.String()
	}
	return names
}
