// Package curator consolidates financial time series reported by several
// endpoints of a data provider into strongly typed, clock indexed entities.
//
// The pipeline, run by Toolkit.Curate, is:
//   - Remapping: raw provider columns are renamed to "Entity.field" columns
//     according to a FieldMap, or to "Entity.field$tag" when the field is
//     derived by Preprocessors.
//   - Preprocessing: derived fields are computed and replace their inputs.
//   - Consolidation: endpoint tables are aligned on a primary key order merged
//     from every endpoint, checked for discrepancies and coalesced into a
//     single wide table. Discrepancies can be reported and cleared before a
//     retry.
//   - Packing: the wide table is split per entity type and every row is
//     converted into immutable Entity instances, sub-entities first, indexed
//     by the clock sync field.
//
// Entity types are declared once with NewEntityType and grouped into a
// DataBlock. Package block declares the market, fundamental, dividend and
// split data blocks.
package curator
