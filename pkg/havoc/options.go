package havoc

import "fmt"

// Options configures a [Mutator] built with [NewWithOptions].
type Options struct {
	// Seed for the PRNG. Zero is a valid seed, not "use the default".
	Seed uint64

	// Iterations is the number of rounds per Mutate call.
	Iterations uint64

	// MaxLen caps the buffer length reachable by growing strategies.
	// Zero means [DefaultMaxLen]. Must not be negative.
	MaxLen int

	// Strategies restricts the catalog. Empty means every strategy.
	// Each entry must be valid and appear at most once.
	Strategies []Strategy
}

// DefaultOptions returns the options [New] uses.
func DefaultOptions() Options {
	return Options{
		Seed:       DefaultSeed,
		Iterations: DefaultIterations,
		MaxLen:     DefaultMaxLen,
	}
}

// NewWithOptions returns a Mutator owning input and configured by opts.
//
// Returns an error wrapping [ErrInvalidInput] if opts is invalid.
func NewWithOptions(input []byte, opts Options) (*Mutator, error) {
	if opts.MaxLen < 0 {
		return nil, fmt.Errorf("%w: max length must not be negative (got %d)", ErrInvalidInput, opts.MaxLen)
	}

	err := validateStrategies(opts.Strategies)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	m := New().
		WithInput(input).
		WithSeed(opts.Seed).
		WithNumIters(opts.Iterations).
		WithMaxLen(opts.MaxLen)

	if len(opts.Strategies) > 0 {
		m.WithStrategies(opts.Strategies...)
	}

	return m, nil
}
