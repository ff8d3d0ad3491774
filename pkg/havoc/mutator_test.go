package havoc_test

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/havoc/pkg/havoc"
)

var httpRequestLine = []byte("GET /index.html HTTP/1.1\r\nHost: example.com\r\n\r\n")

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}

func Test_New_Returns_Defaults_When_Not_Configured(t *testing.T) {
	t.Parallel()

	m := havoc.New()

	assert.Empty(t, m.Bytes(), "default buffer should be empty")
	assert.Equal(t, uint64(100), havoc.DefaultIterations)
	assert.Equal(t, uint64(2394923094234), havoc.DefaultSeed)

	out := m.Mutate()
	assert.Empty(t, out, "mutating the default instance must stay a no-op")
	assert.Equal(t, havoc.Stats{}, m.Stats())
}

func Test_Mutate_Returns_Input_Unchanged_When_Iterations_Zero(t *testing.T) {
	t.Parallel()

	inputs := [][]byte{
		{0},
		{0, 0, 0, 0, 0, 0},
		clone(httpRequestLine),
		bytes.Repeat([]byte{0xAB}, 4096),
	}

	for _, input := range inputs {
		for _, seed := range []uint64{0, 1, havoc.DefaultSeed, ^uint64(0)} {
			want := clone(input)
			got := havoc.Mutate(clone(input), seed, 0)

			require.Equal(t, want, got, "seed=%d len=%d", seed, len(input))
		}
	}
}

func Test_Mutate_Returns_Empty_When_Buffer_Empty(t *testing.T) {
	t.Parallel()

	for _, input := range [][]byte{nil, {}} {
		for _, iters := range []uint64{0, 1, 100, 10_000} {
			m := havoc.New().WithInput(input).WithNumIters(iters)

			out := m.Mutate()
			require.Empty(t, out, "iters=%d", iters)
			require.Equal(t, uint64(0), m.Stats().Rounds, "no rounds run on an empty buffer")
		}
	}
}

func Test_Mutate_Returns_Identical_Output_When_Run_Twice_With_Same_Seed(t *testing.T) {
	t.Parallel()

	for seed := range uint64(50) {
		first := havoc.Mutate(clone(httpRequestLine), seed, 64)
		second := havoc.Mutate(clone(httpRequestLine), seed, 64)

		diff := cmp.Diff(first, second)
		require.Empty(t, diff, "seed=%d produced different outputs", seed)
	}
}

func Test_Mutate_Returns_Different_Output_When_Seed_Differs(t *testing.T) {
	t.Parallel()

	outputs := make(map[string]uint64)

	for seed := range uint64(32) {
		out := havoc.Mutate(clone(httpRequestLine), seed, 8)
		key := string(out)

		prev, dup := outputs[key]
		require.False(t, dup, "seeds %d and %d produced the same output", prev, seed)

		outputs[key] = seed
	}
}

func Test_Mutate_Returns_Golden_Output_When_Full_Catalog_Enabled(t *testing.T) {
	t.Parallel()

	m := havoc.New().WithInput(clone(httpRequestLine)).WithSeed(11).WithNumIters(20)
	out := m.Mutate()

	assert.Equal(t, "4745562073296f7334cc08f5ec09e1401f7596467735ff6c350cda8aa5976e1d280d", hex.EncodeToString(out))

	stats := m.Stats()
	assert.Equal(t, uint64(20), stats.Rounds)
	assert.Equal(t, [havoc.StrategyCount]uint64{6, 3, 3, 1, 2, 1, 4}, stats.Applied)
	assert.Equal(t, uint64(0), stats.Fallbacks)
}

func Test_Mutate_Returns_Golden_Output_When_Length_Preserving_Only(t *testing.T) {
	t.Parallel()

	m := havoc.New().
		WithInput(clone(httpRequestLine)).
		WithSeed(7).
		WithNumIters(20).
		WithStrategies(havoc.LengthPreserving()...)
	out := m.Mutate()

	want := "4745542027696e87650080fefe0000000080000000000000dfd5486f73743a216578619e7f120000000000d90a1d0a"
	assert.Equal(t, want, hex.EncodeToString(out))
	assert.Equal(t, [havoc.StrategyCount]uint64{6, 4, 6, 4, 0, 0, 0}, m.Stats().Applied)
}

func Test_Mutate_Preserves_Length_When_Only_Length_Preserving_Strategies(t *testing.T) {
	t.Parallel()

	for _, size := range []int{1, 2, 3, 7, 8, 9, 64, 1000} {
		for _, iters := range []uint64{1, 10, 500} {
			input := bytes.Repeat([]byte{0x5A}, size)

			out := havoc.New().
				WithInput(input).
				WithSeed(uint64(size)*31 + iters).
				WithNumIters(iters).
				WithStrategies(havoc.LengthPreserving()...).
				Mutate()

			require.Len(t, out, size, "size=%d iters=%d", size, iters)
		}
	}
}

func Test_Mutate_Changes_Exactly_One_Byte_When_Single_Byte_Strategies_Run_Once(t *testing.T) {
	t.Parallel()

	input := []byte{0, 0, 0, 0, 0, 0}

	out := havoc.New().
		WithInput(clone(input)).
		WithSeed(2394923094234).
		WithNumIters(1).
		WithStrategies(havoc.BitFlip, havoc.ByteFlip).
		Mutate()

	assert.Equal(t, []byte{0, 0, 0, 0, 16, 0}, out)

	changed := 0
	for i := range input {
		if input[i] != out[i] {
			changed++
		}
	}

	assert.Equal(t, 1, changed)

	// Each single-byte strategy on its own also touches exactly one byte.
	for seed := range uint64(200) {
		for _, s := range []havoc.Strategy{havoc.BitFlip, havoc.ByteFlip} {
			got := havoc.New().WithInput(clone(input)).WithSeed(seed).WithNumIters(1).WithStrategies(s).Mutate()

			diffs := 0
			for i := range input {
				if got[i] != input[i] {
					diffs++
				}
			}

			require.Equal(t, 1, diffs, "strategy=%s seed=%d out=%v", s, seed, got)
		}
	}
}

func Test_Mutate_Completes_When_Running_One_Million_Iterations(t *testing.T) {
	t.Parallel()

	if testing.Short() {
		t.Skip("long-running")
	}

	m := havoc.New().WithInput([]byte{0, 0, 0, 0, 0, 0}).WithSeed(2394923094234).WithNumIters(1_000_000)
	out := m.Mutate()

	require.NotEmpty(t, out, "deletion never empties a buffer")
	require.LessOrEqual(t, len(out), havoc.DefaultMaxLen)

	stats := m.Stats()
	require.Equal(t, uint64(1_000_000), stats.Rounds)

	var total uint64
	for _, n := range stats.Applied {
		total += n
	}

	require.Equal(t, stats.Rounds, total, "every round applies exactly one strategy")
}

func Test_Mutate_Returns_Same_Buffer_When_Two_Mutators_Share_Config(t *testing.T) {
	t.Parallel()

	a := havoc.New().WithInput(clone(httpRequestLine)).WithSeed(77).WithNumIters(5000)
	b := havoc.New().WithInput(clone(httpRequestLine)).WithSeed(77).WithNumIters(5000)

	outA := a.Mutate()
	outB := b.Mutate()

	require.Empty(t, cmp.Diff(outA, outB))
	require.Equal(t, a.Stats(), b.Stats())
}

func Test_Mutate_Reseeds_When_Called_Again_On_Same_Mutator(t *testing.T) {
	t.Parallel()

	m := havoc.New().WithInput([]byte{0, 0, 0, 0, 0, 0}).WithSeed(5).WithNumIters(3)

	first := clone(m.Mutate())
	second := clone(m.Mutate())

	// The second call replays the same edit sequence on the mutated buffer.
	replayed := havoc.Mutate(clone(first), 5, 3)

	assert.Equal(t, replayed, second)
	assert.NotEqual(t, first, second)
}

func Test_Mutate_Never_Exceeds_MaxLen_When_Growth_Strategies_Enabled(t *testing.T) {
	t.Parallel()

	for _, maxLen := range []int{1, 2, 8, 33, 100} {
		for seed := range uint64(20) {
			m := havoc.New().
				WithInput([]byte{1}).
				WithSeed(seed).
				WithNumIters(300).
				WithMaxLen(maxLen).
				WithStrategies(havoc.BlockInsert, havoc.BlockDuplicate)

			out := m.Mutate()
			require.LessOrEqual(t, len(out), maxLen, "maxLen=%d seed=%d", maxLen, seed)
		}
	}
}

func Test_Mutate_Does_Not_Truncate_When_Input_Exceeds_MaxLen(t *testing.T) {
	t.Parallel()

	input := bytes.Repeat([]byte{7}, 64)

	m := havoc.New().
		WithInput(input).
		WithSeed(9).
		WithNumIters(50).
		WithMaxLen(16).
		WithStrategies(havoc.BlockInsert, havoc.BlockDuplicate)

	out := m.Mutate()

	require.Len(t, out, 64)
	require.Equal(t, uint64(50), m.Stats().Fallbacks, "every growing round should fall back")
}

func Test_Mutate_Falls_Back_To_BitFlip_When_Buffer_Has_One_Byte(t *testing.T) {
	t.Parallel()

	m := havoc.New().
		WithInput([]byte{0x41}).
		WithSeed(99).
		WithNumIters(100).
		WithMaxLen(1).
		WithStrategies(havoc.BlockInsert, havoc.BlockDuplicate, havoc.BlockDelete)

	out := m.Mutate()

	require.Len(t, out, 1)

	stats := m.Stats()
	assert.Equal(t, uint64(100), stats.Fallbacks)
	assert.Equal(t, uint64(100), stats.Applied[havoc.BitFlip])
	assert.Equal(t, uint64(0), stats.Applied[havoc.BlockDelete])
}

func Test_Mutate_Keeps_At_Least_One_Byte_When_Only_Deleting(t *testing.T) {
	t.Parallel()

	for seed := range uint64(50) {
		out := havoc.New().
			WithInput(bytes.Repeat([]byte{3}, 200)).
			WithSeed(seed).
			WithNumIters(100).
			WithStrategies(havoc.BlockDelete).
			Mutate()

		require.NotEmpty(t, out, "seed=%d", seed)
	}
}

func Test_WithStrategies_Panics_When_Strategy_Unknown(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		havoc.New().WithStrategies(havoc.Strategy(200))
	})

	assert.Panics(t, func() {
		havoc.New().WithStrategies(havoc.BitFlip, havoc.BitFlip)
	})
}

func Test_WithStrategies_Restores_Full_Catalog_When_Called_Without_Arguments(t *testing.T) {
	t.Parallel()

	restricted := havoc.New().WithInput(clone(httpRequestLine)).WithSeed(11).WithNumIters(20).
		WithStrategies(havoc.BitFlip).
		WithStrategies()

	out := restricted.Mutate()
	want := havoc.Mutate(clone(httpRequestLine), 11, 20)

	assert.Equal(t, want, out)
}

func Test_WithMaxLen_Restores_Default_When_Not_Positive(t *testing.T) {
	t.Parallel()

	a := havoc.New().WithInput(clone(httpRequestLine)).WithSeed(4).WithNumIters(200).WithMaxLen(-1).Mutate()
	b := havoc.New().WithInput(clone(httpRequestLine)).WithSeed(4).WithNumIters(200).WithMaxLen(havoc.DefaultMaxLen).Mutate()

	assert.Equal(t, b, a)
}
