package curator

import (
	"errors"
	"fmt"
	"log"
	"maps"
)

// DataBlock declares one category of curated data: its main entity, the
// clock sync field indexing its rows and the fields identifying a row across
// endpoints.
type DataBlock struct {
	Name  string
	Main  *EntityType
	Clock FieldRef
	// Keys are the primary key fields used to merge endpoints. Clock alone
	// when empty.
	Keys []FieldRef

	relations OrderedRelations
	entities  map[string]*EntityType
}

// NewDataBlock declares a data block and resolves its entity relations.
func NewDataBlock(name string, main *EntityType, clock FieldRef, keys ...FieldRef) (*DataBlock, error) {
	relations, err := ResolveRelations(main)
	if err != nil {
		return nil, fmt.Errorf("data block %s: %w", name, err)
	}
	if len(keys) == 0 {
		keys = []FieldRef{clock}
	}
	b := &DataBlock{
		Name:      name,
		Main:      main,
		Clock:     clock,
		Keys:      keys,
		relations: relations,
		entities:  relations.Names(),
	}
	for _, ref := range append([]FieldRef{clock}, keys...) {
		if _, ok := b.entities[ref.Entity.Name]; !ok {
			return nil, fmt.Errorf("data block %s: %w", name, structureError("%s is not reachable from %s", ref, main))
		}
	}
	return b, nil
}

// MustDataBlock is like NewDataBlock but panics on error. Data blocks are
// declared as package variables.
func MustDataBlock(name string, main *EntityType, clock FieldRef, keys ...FieldRef) *DataBlock {
	b, err := NewDataBlock(name, main, clock, keys...)
	if err != nil {
		panic(err)
	}
	return b
}

// Relations returns the entity types of the block in dependency order.
func (b *DataBlock) Relations() OrderedRelations { return b.relations }

// Entities indexes the entity types of the block by name.
func (b *DataBlock) Entities() map[string]*EntityType { return maps.Clone(b.entities) }

// Pack splits a consolidated table and packs its rows.
func (b *DataBlock) Pack(t *Table, conv *Conversions) (*RowMap, error) {
	tables, err := SplitEntityTables(t, b.entities)
	if err != nil {
		return nil, err
	}
	return PackRows(b.Clock, b.relations, tables, conv)
}

// Toolkit runs the curation pipeline. It caches the lookup tables derived
// from field maps and is safe for concurrent use.
type Toolkit struct {
	Conversions *Conversions
	// Report receives discrepancy reports before conflicting rows are
	// cleared. Reports are logged when nil.
	Report func(block *DataBlock, report string)

	plans memo[*remapPlan]
}

// NewToolkit returns a toolkit using the default conversions.
func NewToolkit() *Toolkit {
	return &Toolkit{Conversions: DefaultConversions()}
}

func (tk *Toolkit) plan(b *DataBlock, fm *FieldMap) (*remapPlan, error) {
	return tk.plans.get(fmt.Sprintf("%s/%p", b.Name, fm), fm.plan)
}

// ProcessEndpointTables remaps and preprocesses raw endpoint tables. It
// returns an error matching ErrNoData when every table is empty.
func (tk *Toolkit) ProcessEndpointTables(b *DataBlock, fm *FieldMap, tables EndpointTables) (EndpointTables, error) {
	if b == nil || fm == nil {
		return nil, fmt.Errorf("%w: a data block and a field map are required", ErrArgument)
	}
	if tables.Empty() {
		return nil, fmt.Errorf("%w: every %s endpoint table is empty", ErrNoData, b.Name)
	}
	p, err := tk.plan(b, fm)
	if err != nil {
		return nil, err
	}
	remapped, err := p.remap(tables)
	if err != nil {
		return nil, err
	}
	return p.run(remapped)
}

// CurateOptions tunes Curate.
type CurateOptions struct {
	// Descending tells that endpoints mostly list rows from the latest to the
	// oldest.
	Descending bool
	// NoRetry returns discrepancies instead of clearing the conflicting rows.
	NoRetry bool
}

// Curate runs the whole pipeline on raw endpoint tables: remap, preprocess,
// consolidate and pack. The returned rows are in ascending key order.
//
// When endpoints disagree, the discrepancy report is sent to Report, the
// conflicting rows are cleared, except for the clock field, and consolidation
// is retried once.
func (tk *Toolkit) Curate(b *DataBlock, fm *FieldMap, raw EndpointTables, opts CurateOptions) (*RowMap, error) {
	tables, err := tk.ProcessEndpointTables(b, fm, raw)
	if err != nil {
		return nil, err
	}
	consolidated, err := Consolidate(tables, b.Keys, opts.Descending)
	var discrepancy *DiscrepancyError
	if errors.As(err, &discrepancy) && !opts.NoRetry {
		report, ferr := FormatEndpointDiscrepancies(fm, discrepancy)
		if ferr != nil {
			return nil, ferr
		}
		tk.report(b, report)
		tables, err = ClearDiscrepantRows(discrepancy.Table, tables, discrepancy.KeyNames, []string{b.Clock.String()})
		if err != nil {
			return nil, err
		}
		consolidated, err = Consolidate(tables, b.Keys, opts.Descending)
	}
	if err != nil {
		return nil, err
	}
	if opts.Descending {
		consolidated = consolidated.Reverse()
	}
	return b.Pack(consolidated, tk.Conversions)
}

func (tk *Toolkit) report(b *DataBlock, report string) {
	if tk.Report != nil {
		tk.Report(b, report)
		return
	}
	log.Printf("%s: endpoints disagree, clearing conflicting rows:\n%s", b.Name, report)
}
