package cli_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/havoc/internal/cli"
	"github.com/calvinalkan/havoc/pkg/havoc"
)

func script(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func Test_Repl_Saves_Mutated_Buffer_When_Scripted(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("seed.bin", []byte(requestLine))

	stdout, stderr, code := c.RunWithInput(script(
		"load seed.bin",
		"seed 11",
		"iters 20",
		"mutate 2",
		"save out.bin",
		"quit",
	), "repl")
	require.Equal(t, 0, code, "stderr: %s", stderr)

	cli.AssertContains(t, stdout, "loaded 47 bytes from seed.bin")
	cli.AssertContains(t, stdout, "round 1 seed=")
	cli.AssertContains(t, stdout, "round 2 seed=")

	want := expectMutant(t, []byte(requestLine), havoc.Options{Seed: havoc.DeriveSeed(11, 0), Iterations: 20})
	want = expectMutant(t, want, havoc.Options{Seed: havoc.DeriveSeed(11, 1), Iterations: 20})

	assert.Equal(t, want, c.ReadFile("out.bin"))
}

func Test_Repl_Restores_Buffer_When_Undo_And_Reset(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	stdout, stderr, code := c.RunWithInput(script(
		"set 0x000000000000",
		"mutate",
		"save one.bin",
		"mutate",
		"undo",
		"save undone.bin",
		"reset",
		"save reset.bin",
	), "repl", "-s", "2394923094234", "-n", "1")
	require.Equal(t, 0, code, "stderr: %s", stderr)

	cli.AssertContains(t, stdout, "buffer set (6 bytes)")
	cli.AssertContains(t, stdout, "undone (round 1, ")

	assert.Equal(t, c.ReadFile("one.bin"), c.ReadFile("undone.bin"))
	assert.Equal(t, make([]byte, 6), c.ReadFile("reset.bin"))
}

func Test_Repl_Restores_Round_When_Undo_Follows_Seed_Change(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	stdout, stderr, code := c.RunWithInput(script(
		"set abcdef",
		"mutate",
		"seed 5",
		"undo",
		"mutate",
		"save out.bin",
	), "repl")
	require.Equal(t, 0, code, "stderr: %s", stderr)

	cli.AssertContains(t, stdout, "undone (round 0, 6 bytes)")
	cli.AssertNotContains(t, stdout, "18446744073709551615")
	cli.AssertContains(t, stdout, fmt.Sprintf("round 1 seed=%#x ", havoc.DeriveSeed(5, 0)))

	want := expectMutant(t, []byte("abcdef"), havoc.Options{Seed: havoc.DeriveSeed(5, 0), Iterations: havoc.DefaultIterations})
	assert.Equal(t, want, c.ReadFile("out.bin"))
}

func Test_Repl_Prints_Positional_Diff_When_Buffer_Changed(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	stdout, stderr, code := c.RunWithInput(script(
		"set AAAA",
		"strategy bitflip",
		"iters 1",
		"mutate",
		"diff",
		"show",
	), "repl")
	require.Equal(t, 0, code, "stderr: %s", stderr)

	cli.AssertContains(t, stdout, "strategies=bitflip")
	cli.AssertContains(t, stdout, "1 changed, len 4 -> 4")
	cli.AssertNotContains(t, stdout, "\x1b[")
	cli.AssertContains(t, stdout, "00000000  ")
}

func Test_Repl_Aborts_Script_When_Command_Fails(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name string
		line string
		want string
	}{
		{name: "Unknown", line: "teleport", want: "unknown command"},
		{name: "UndoEmpty", line: "undo", want: "nothing to undo"},
		{name: "BadSeed", line: "seed -3", want: "cannot be negative"},
		{name: "BadStrategy", line: "strategy nope", want: "unknown strategy"},
		{name: "BadHex", line: "set 0xzz", want: "invalid byte"},
		{name: "LoadMissing", line: "load missing.bin", want: "load:"},
		{name: "SaveNoArg", line: "save", want: "argument required"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := cli.NewCLI(t)
			stdout, stderr, code := c.RunWithInput(script(tt.line, "set never"), "repl")

			assert.Equal(t, 1, code)
			cli.AssertContains(t, stderr, tt.want)
			cli.AssertNotContains(t, stdout, "buffer set")
		})
	}
}

func Test_Repl_Loads_File_Argument_When_Given(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("seed.bin", []byte("xyz"))

	stdout, stderr, code := c.RunWithInput(script("strategy all", "seed", "iters"), "repl", "seed.bin")
	require.Equal(t, 0, code, "stderr: %s", stderr)

	cli.AssertContains(t, stdout, "loaded 3 bytes from seed.bin")
	cli.AssertContains(t, stdout, "strategies=all")
	cli.AssertContains(t, stdout, "seed=2394923094234")
	cli.AssertContains(t, stdout, "iters=100")
}
