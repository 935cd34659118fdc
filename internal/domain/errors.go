package domain

import "errors"

// Fatal pipeline error classes. All abort the whole run; no partial
// catalogue or result is ever persisted.
var (
	// ErrInvalidCatalogue marks missing or non-finite catalogue input.
	ErrInvalidCatalogue = errors.New("invalid catalogue input")
	// ErrRedshiftOrdering marks a halo or parameter set that violates
	// 0 <= z_obs < z_lens < z_source ordering.
	ErrRedshiftOrdering = errors.New("redshift ordering violation")
	// ErrNumericDegeneracy marks a distance ratio whose denominator is
	// zero or negative, i.e. a degenerate cosmology/redshift setup.
	ErrNumericDegeneracy = errors.New("degenerate distance configuration")
)
