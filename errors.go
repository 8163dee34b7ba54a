package curator

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Every error produced by this package matches ErrCurator
// with errors.Is, and one of the more specific sentinels below.
var (
	ErrCurator = errors.New("data curator error")

	// ErrUnhandled marks declaration or internal-consistency defects. They are
	// not caused by bad input data and callers should not recover from them.
	ErrUnhandled = fmt.Errorf("%w: unhandled", ErrCurator)

	ErrIncorrectMappingType      = fmt.Errorf("%w: incorrect mapping type", ErrCurator)
	ErrIncorrectPackingStructure = fmt.Errorf("%w: incorrect packing structure", ErrUnhandled)
	ErrOrder                     = fmt.Errorf("%w: endpoints disagree on common data order", ErrCurator)
	ErrDiscrepancy               = fmt.Errorf("%w: discrepancies between endpoints", ErrCurator)
	ErrParsing                   = fmt.Errorf("%w: parsing error", ErrCurator)
	ErrArgument                  = fmt.Errorf("%w: invalid argument", ErrCurator)
	ErrNoData                    = fmt.Errorf("%w: no data", ErrCurator)
	ErrToolkitRuntime            = fmt.Errorf("%w: toolkit runtime error", ErrCurator)
	ErrPreprocessing             = fmt.Errorf("%w: preprocessing error", ErrCurator)
	ErrEntityPacking             = fmt.Errorf("%w: entity packing error", ErrCurator)
	ErrConversionNotImplemented  = fmt.Errorf("%w: type conversion not implemented", ErrCurator)
	ErrConversionRuntime         = fmt.Errorf("%w: type conversion failed", ErrCurator)
	ErrEntityValue               = fmt.Errorf("%w: invalid entity value", ErrCurator)
	ErrEntityType                = fmt.Errorf("%w: invalid entity type", ErrCurator)
	ErrDataBlockEmpty            = fmt.Errorf("%w: data block is empty", ErrCurator)
	ErrEntityProcessing          = fmt.Errorf("%w: entity processing error", ErrCurator)
)

// ConversionError reports a scalar that could not be converted to its declared type.
type ConversionError struct {
	Type  ScalarType
	Value any
	Err   error
}

func (e *ConversionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("cannot convert %#v to %s: not implemented", e.Value, e.Type)
	}
	return fmt.Sprintf("cannot convert %#v to %s: %v", e.Value, e.Type, e.Err)
}

func (e *ConversionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConversionNotImplemented}
	}
	return []error{ErrConversionRuntime, e.Err}
}

// PreprocessingError reports a failing preprocessor chain for a field.
type PreprocessingError struct {
	Field string
	Err   error
}

func (e *PreprocessingError) Error() string {
	return fmt.Sprintf("preprocessing %s: %v", e.Field, e.Err)
}

func (e *PreprocessingError) Unwrap() []error { return []error{ErrPreprocessing, e.Err} }

// EntityPackingError reports a row of an entity table that could not be packed.
type EntityPackingError struct {
	Entity string
	Clock  string // clock sync value of the row
	Index  int    // row index in the consolidated table
	Err    error
}

func (e *EntityPackingError) Error() string {
	return fmt.Sprintf("packing %s row %d (%s): %v", e.Entity, e.Index, e.Clock, e.Err)
}

func (e *EntityPackingError) Unwrap() []error { return []error{ErrEntityPacking, e.Err} }

// RowErrors groups every row level error of one entity type.
type RowErrors struct {
	Entity string
	Errors []*EntityPackingError
}

func (e *RowErrors) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %s row(s) could not be packed", len(e.Errors), e.Entity)
	for _, err := range e.Errors {
		b.WriteString("\n\t")
		b.WriteString(err.Error())
	}
	return b.String()
}

func (e *RowErrors) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		errs[i] = err
	}
	return errs
}

// EntityProcessingError wraps a failure to assemble the main entity of a data block.
type EntityProcessingError struct {
	Block      string
	Identifier string
	Err        error
}

func (e *EntityProcessingError) Error() string {
	return fmt.Sprintf("processing %s for %s: %v", e.Block, e.Identifier, e.Err)
}

func (e *EntityProcessingError) Unwrap() []error { return []error{ErrEntityProcessing, e.Err} }

// mappingError returns an error matching ErrIncorrectMappingType.
func mappingError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIncorrectMappingType, fmt.Sprintf(format, args...))
}

// runtimeError returns an error matching ErrToolkitRuntime.
func runtimeError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrToolkitRuntime, fmt.Sprintf(format, args...))
}

// structureError returns an error matching ErrIncorrectPackingStructure.
func structureError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIncorrectPackingStructure, fmt.Sprintf(format, args...))
}
