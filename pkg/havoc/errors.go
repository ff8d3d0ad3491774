package havoc

import "errors"

// Sentinel errors returned by configuration helpers.
//
// [Mutator.Mutate] itself never fails; these only surface from
// [NewWithOptions] and [ParseStrategy].
var (
	// ErrInvalidInput indicates invalid [Options].
	ErrInvalidInput = errors.New("havoc: invalid input")

	// ErrUnknownStrategy indicates a strategy name or value outside the catalog.
	ErrUnknownStrategy = errors.New("havoc: unknown strategy")
)
