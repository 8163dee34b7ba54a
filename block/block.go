// Package block declares the data blocks curated by dcs: daily market data,
// fundamentals, dividends and splits.
//
// A data block is a tree of entity types rooted at a main entity, which holds
// the identifier of the instrument and a map of rows indexed by the clock sync
// field. Providers map their endpoints to the fields of these entity types, the
// curator package consolidates and packs them, and Assemble wraps the packed
// rows into the main entity.
package block

import (
	"errors"
	"fmt"
	"log"
	"maps"
	"slices"

	"github.com/etnz/curator"
)

// Block is a data block with the assembly of its main entity.
type Block struct {
	*curator.DataBlock
	// values returns the fields of the main entity.
	values func(id string, rows *curator.RowMap) (map[string]any, error)
}

var all = map[string]*Block{}

func register(b *curator.DataBlock, values func(id string, rows *curator.RowMap) (map[string]any, error)) *Block {
	if _, exists := all[b.Name]; exists {
		panic(fmt.Sprintf("block %s declared twice", b.Name))
	}
	blk := &Block{DataBlock: b, values: values}
	all[b.Name] = blk
	return blk
}

// ByName returns the declared block.
func ByName(name string) (*Block, bool) {
	b, ok := all[name]
	return b, ok
}

// Names returns the names of the declared blocks, sorted.
func Names() []string {
	return slices.Sorted(maps.Keys(all))
}

// Curate runs the curation pipeline for one instrument and assembles its
// main entity. Packing failures are reported as a
// *curator.EntityProcessingError.
//
// When every endpoint table is empty, the main entity has no rows. Market
// data spans its first and last trading days and has no such default: it
// returns an error matching curator.ErrNoData.
func (b *Block) Curate(tk *curator.Toolkit, id string, fm *curator.FieldMap, raw curator.EndpointTables, opts curator.CurateOptions) (*curator.Entity, error) {
	rows, err := tk.Curate(b.DataBlock, fm, raw, opts)
	if errors.Is(err, curator.ErrNoData) {
		return b.empty(id, err)
	}
	if errors.Is(err, curator.ErrEntityPacking) {
		return nil, &curator.EntityProcessingError{Block: b.Name, Identifier: id, Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("%s for %s: %w", b.Name, id, err)
	}
	return b.Assemble(id, rows)
}

// empty returns the main entity of an instrument without data.
func (b *Block) empty(id string, cause error) (*curator.Entity, error) {
	v, err := b.values(id, curator.NewRowMap())
	if err != nil {
		return nil, fmt.Errorf("%s for %s: %w", b.Name, id, cause)
	}
	e, err := b.Main.New(v)
	if err != nil {
		return nil, &curator.EntityProcessingError{Block: b.Name, Identifier: id, Err: err}
	}
	log.Printf("%s: no %s data", id, b.Name)
	return e, nil
}

// Assemble builds the main entity of an instrument from its packed rows.
// Rows without any entity are an error matching curator.ErrDataBlockEmpty.
func (b *Block) Assemble(id string, rows *curator.RowMap) (*curator.Entity, error) {
	if rows.Present() == 0 {
		err := fmt.Errorf("%w: no row could be processed", curator.ErrDataBlockEmpty)
		return nil, &curator.EntityProcessingError{Block: b.Name, Identifier: id, Err: err}
	}
	v, err := b.values(id, rows)
	if err != nil {
		return nil, &curator.EntityProcessingError{Block: b.Name, Identifier: id, Err: err}
	}
	e, err := b.Main.New(v)
	if err != nil {
		return nil, &curator.EntityProcessingError{Block: b.Name, Identifier: id, Err: err}
	}
	return e, nil
}

// rowsValues returns the values of a main entity made of an identifier and
// its rows.
func rowsValues(id string, rows *curator.RowMap) (map[string]any, error) {
	return map[string]any{"main_identifier": id, "rows": rows}, nil
}

func withValidation(t *curator.EntityType, fn func(*curator.Entity) error) *curator.EntityType {
	t.Validate = fn
	return t
}

// decimals declares optional decimal fields.
func decimals(names ...string) []curator.Field {
	fields := make([]curator.Field, len(names))
	for i, name := range names {
		fields[i] = curator.Optional(name, curator.TypeDecimal)
	}
	return fields
}
