package testutil

import (
	"encoding/binary"

	"github.com/calvinalkan/havoc/pkg/havoc"
)

// Fuzz input layout consumed by [DecodeMutateCase]:
//
//	[0:8]   seed (little-endian)
//	[8:10]  iterations (little-endian, reduced mod maxFuzzIters)
//	[10]    max length selector (0 = default, else 1..255)
//	[11]    strategy mask (bit i enables strategy i, 0 = all)
//	[12:]   input buffer
const (
	mutateCaseHeaderLen = 12
	maxFuzzIters        = 4096
)

// MutateCase is one engine invocation derived from fuzz bytes.
type MutateCase struct {
	Input   []byte
	Options havoc.Options
}

// DecodeMutateCase derives a [MutateCase] from fuzz input. Every byte string
// decodes to a valid case.
func DecodeMutateCase(data []byte) MutateCase {
	stream := NewByteStream(data)

	seed := stream.NextUint64()
	iters := uint64(stream.NextByte()) | uint64(stream.NextByte())<<8
	maxLen := int(stream.NextByte())
	mask := stream.NextByte()

	var strategies []havoc.Strategy

	for _, s := range havoc.Strategies() {
		if mask&(1<<s) != 0 {
			strategies = append(strategies, s)
		}
	}

	input := append([]byte(nil), stream.Rest()...)

	return MutateCase{
		Input: input,
		Options: havoc.Options{
			Seed:       seed,
			Iterations: iters % maxFuzzIters,
			MaxLen:     maxLen,
			Strategies: strategies,
		},
	}
}

// EncodeMutateCase is the inverse of [DecodeMutateCase] for building seeds.
// MaxLen values above 255 are clamped to the default.
func EncodeMutateCase(c MutateCase) []byte {
	out := make([]byte, mutateCaseHeaderLen, mutateCaseHeaderLen+len(c.Input))

	binary.LittleEndian.PutUint64(out[0:8], c.Options.Seed)
	binary.LittleEndian.PutUint16(out[8:10], uint16(c.Options.Iterations%maxFuzzIters))

	if c.Options.MaxLen > 0 && c.Options.MaxLen <= 0xFF {
		out[10] = byte(c.Options.MaxLen)
	}

	for _, s := range c.Options.Strategies {
		out[11] |= 1 << s
	}

	return append(out, c.Input...)
}

// Seed bundles a human-readable name with seed bytes.
type Seed struct {
	Name string
	Data []byte
}

// CuratedSeeds returns fuzz seeds covering the edge cases the engine must
// survive: empty input, single bytes, tight length caps and structural-only
// catalogs.
func CuratedSeeds() []Seed {
	all := havoc.Strategies()
	structural := []havoc.Strategy{havoc.BlockInsert, havoc.BlockDuplicate, havoc.BlockDelete}

	return []Seed{
		{Name: "empty", Data: EncodeMutateCase(MutateCase{Options: havoc.Options{Seed: 1, Iterations: 100}})},
		{Name: "zero_iterations", Data: EncodeMutateCase(MutateCase{Input: []byte("abc"), Options: havoc.Options{Seed: 2}})},
		{Name: "single_byte_structural", Data: EncodeMutateCase(MutateCase{
			Input:   []byte{0x41},
			Options: havoc.Options{Seed: 3, Iterations: 500, Strategies: structural},
		})},
		{Name: "tight_max_len", Data: EncodeMutateCase(MutateCase{
			Input:   []byte{1, 2, 3, 4},
			Options: havoc.Options{Seed: 4, Iterations: 1000, MaxLen: 5, Strategies: all},
		})},
		{Name: "zeros", Data: EncodeMutateCase(MutateCase{
			Input:   make([]byte, 6),
			Options: havoc.Options{Seed: havoc.DefaultSeed, Iterations: 1},
		})},
		{Name: "wide_windows", Data: EncodeMutateCase(MutateCase{
			Input:   make([]byte, 9),
			Options: havoc.Options{Seed: 5, Iterations: 2000, Strategies: havoc.LengthPreserving()},
		})},
	}
}
