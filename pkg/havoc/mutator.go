package havoc

import (
	"fmt"
	"slices"
)

// Defaults installed by [New].
const (
	DefaultIterations uint64 = 100
	DefaultSeed       uint64 = 2394923094234

	// DefaultMaxLen caps growth so one input can't force huge allocations.
	DefaultMaxLen = 1 << 20 // 1 MiB
)

// Stats counts what the last [Mutator.Mutate] call did.
type Stats struct {
	// Rounds is the number of rounds executed. Zero for an empty buffer.
	Rounds uint64
	// Applied counts applications per strategy, indexed by [Strategy].
	// Fallback rounds are counted under [BitFlip].
	Applied [StrategyCount]uint64
	// Fallbacks counts rounds where the drawn strategy's precondition failed.
	Fallbacks uint64
}

// Mutator applies havoc-style mutations to an owned buffer.
//
// Configure with the With* methods, then call [Mutator.Mutate]. The zero
// value is not ready for use; call [New] or [NewWithOptions].
type Mutator struct {
	buf    []byte
	seed   uint64
	iters  uint64
	maxLen int

	enabled []Strategy
	sel     selector
	dirty   bool

	rng     Rand
	scratch []byte
	stats   Stats
}

// New returns a Mutator with an empty buffer and the default seed,
// iteration count, max length and strategy set.
func New() *Mutator {
	return &Mutator{
		seed:    DefaultSeed,
		iters:   DefaultIterations,
		maxLen:  DefaultMaxLen,
		sel:     newSelector(nil),
		scratch: make([]byte, 0, maxBlockLen),
	}
}

// WithInput installs buf as the buffer to mutate. The Mutator takes ownership:
// the caller must not touch buf while the Mutator uses it, and must clone it
// first if the original is still needed.
func (m *Mutator) WithInput(buf []byte) *Mutator {
	m.buf = buf

	return m
}

// WithSeed sets the PRNG seed. Every value is valid.
func (m *Mutator) WithSeed(seed uint64) *Mutator {
	m.seed = seed

	return m
}

// WithNumIters sets the number of rounds per [Mutator.Mutate]. Zero makes
// Mutate the identity.
func (m *Mutator) WithNumIters(n uint64) *Mutator {
	m.iters = n

	return m
}

// WithMaxLen caps the length growing strategies may reach. n <= 0 restores
// [DefaultMaxLen]. An installed buffer longer than the cap is not truncated.
func (m *Mutator) WithMaxLen(n int) *Mutator {
	if n <= 0 {
		n = DefaultMaxLen
	}

	m.maxLen = n

	return m
}

// WithStrategies restricts selection to the given strategies. Calling it with
// no arguments restores the full catalog.
//
// Panics if a strategy is outside the catalog or listed twice; use
// [NewWithOptions] to get an error instead.
func (m *Mutator) WithStrategies(strategies ...Strategy) *Mutator {
	err := validateStrategies(strategies)
	if err != nil {
		panic(err)
	}

	m.enabled = slices.Clone(strategies)
	m.dirty = true

	return m
}

// Mutate runs the configured number of rounds on the buffer in place and
// returns it. The returned slice may have a different backing array than the
// one passed to [Mutator.WithInput].
//
// The generator is re-seeded from the configured seed on every call.
func (m *Mutator) Mutate() []byte {
	m.stats = Stats{}

	if len(m.buf) == 0 || m.iters == 0 {
		return m.buf
	}

	if m.dirty {
		m.sel = newSelector(m.enabled)
		m.dirty = false
	}

	m.rng.Reset(m.seed)

	for range m.iters {
		s := m.sel.pick(&m.rng)
		if !s.applicable(len(m.buf), m.maxLen) {
			s = BitFlip
			m.stats.Fallbacks++
		}

		m.apply(s)
		m.stats.Applied[s]++
	}

	m.stats.Rounds = m.iters

	return m.buf
}

// Bytes returns the current buffer.
func (m *Mutator) Bytes() []byte {
	return m.buf
}

// Stats returns the counters of the last [Mutator.Mutate] call.
func (m *Mutator) Stats() Stats {
	return m.stats
}

// Mutate mutates buf in place with a default-configured [Mutator] and
// returns the result.
func Mutate(buf []byte, seed, iters uint64) []byte {
	return New().WithInput(buf).WithSeed(seed).WithNumIters(iters).Mutate()
}

func validateStrategies(strategies []Strategy) error {
	var seen [numStrategies]bool

	for _, s := range strategies {
		if !s.Valid() {
			return fmt.Errorf("%w: %d", ErrUnknownStrategy, uint8(s))
		}

		if seen[s] {
			return fmt.Errorf("%w: strategy %s listed twice", ErrInvalidInput, s)
		}

		seen[s] = true
	}

	return nil
}
