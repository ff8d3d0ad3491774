package havoc

import (
	"fmt"
	"strings"
)

// Strategy identifies one mutation rule in the closed catalog.
type Strategy uint8

const (
	// BitFlip inverts a single bit.
	BitFlip Strategy = iota
	// ByteFlip XORs or adds a random non-zero byte, so the byte always changes.
	ByteFlip
	// Arithmetic adds or subtracts a small delta on a 1, 2, 4 or 8 byte
	// window in either byte order, wrapping on overflow.
	Arithmetic
	// Interesting overwrites a window with a boundary value for its width.
	Interesting
	// BlockInsert inserts a run of random bytes.
	BlockInsert
	// BlockDuplicate copies a run of existing bytes to another position.
	BlockDuplicate
	// BlockDelete removes a run of bytes. The buffer never becomes empty.
	BlockDelete

	numStrategies
)

// StrategyCount is the number of strategies in the catalog.
const StrategyCount = int(numStrategies)

// Selection weights. Read-only; a Mutator builds its cumulative table from
// this for the strategies it has enabled. Deletion outweighs the two growing
// strategies so long campaigns keep buffers small.
var strategyWeights = [numStrategies]int{
	BitFlip:        20,
	ByteFlip:       15,
	Arithmetic:     15,
	Interesting:    10,
	BlockInsert:    10,
	BlockDuplicate: 10,
	BlockDelete:    20,
}

var strategyNames = [numStrategies]string{
	BitFlip:        "bitflip",
	ByteFlip:       "byteflip",
	Arithmetic:     "arith",
	Interesting:    "interesting",
	BlockInsert:    "insert",
	BlockDuplicate: "duplicate",
	BlockDelete:    "delete",
}

// Strategies returns the full catalog in selection-table order.
func Strategies() []Strategy {
	all := make([]Strategy, 0, numStrategies)
	for s := range numStrategies {
		all = append(all, s)
	}

	return all
}

// LengthPreserving returns the strategies that never change the buffer length.
func LengthPreserving() []Strategy {
	return []Strategy{BitFlip, ByteFlip, Arithmetic, Interesting}
}

// String returns the short name used by the CLI and config files.
func (s Strategy) String() string {
	if !s.Valid() {
		return fmt.Sprintf("strategy(%d)", uint8(s))
	}

	return strategyNames[s]
}

// Valid reports whether s is part of the catalog.
func (s Strategy) Valid() bool {
	return s < numStrategies
}

// Weight returns the static selection weight of s, or 0 if s is not valid.
func (s Strategy) Weight() int {
	if !s.Valid() {
		return 0
	}

	return strategyWeights[s]
}

// Structural reports whether s may change the buffer length.
func (s Strategy) Structural() bool {
	switch s {
	case BlockInsert, BlockDuplicate, BlockDelete:
		return true
	default:
		return false
	}
}

// ParseStrategy resolves a strategy by name (case-insensitive).
func ParseStrategy(name string) (Strategy, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for s := range numStrategies {
		if strategyNames[s] == want {
			return s, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// applicable reports whether s can run on a buffer of length n without
// exceeding maxLen.
func (s Strategy) applicable(n, maxLen int) bool {
	switch s {
	case BitFlip, ByteFlip, Arithmetic, Interesting:
		return n >= 1
	case BlockInsert:
		return n >= 1 && n < maxLen
	case BlockDuplicate:
		return n >= 2 && n < maxLen
	case BlockDelete:
		return n >= 2
	default:
		return false
	}
}

// selector is a cumulative weight table over an enabled subset.
type selector struct {
	strategies []Strategy
	cumulative []int
	total      int
}

func newSelector(enabled []Strategy) selector {
	if len(enabled) == 0 {
		enabled = Strategies()
	}

	sel := selector{
		strategies: enabled,
		cumulative: make([]int, len(enabled)),
	}

	for i, s := range enabled {
		sel.total += strategyWeights[s]
		sel.cumulative[i] = sel.total
	}

	return sel
}

func (sel *selector) pick(r *Rand) Strategy {
	x := r.IntN(sel.total)
	for i, c := range sel.cumulative {
		if x < c {
			return sel.strategies[i]
		}
	}

	return sel.strategies[len(sel.strategies)-1]
}
