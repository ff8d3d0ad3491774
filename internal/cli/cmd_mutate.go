package cli

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/havoc/internal/config"
	"github.com/calvinalkan/havoc/internal/fs"
	"github.com/calvinalkan/havoc/pkg/havoc"
)

const outputPerm = 0o644

// MutateCmd returns the mutate command.
func MutateCmd(cfg *config.Config, fsys fs.FS) *Command {
	flags := flag.NewFlagSet("mutate", flag.ContinueOnError)
	engine := addEngineFlags(flags, cfg, "n")
	output := flags.StringP("output", "o", "", "Write the mutant to `file` instead of stdout")
	hexOut := flags.Bool("hex", false, "Print a hex dump instead of raw bytes")
	stats := flags.Bool("stats", false, "Print per-strategy counts to stderr")

	return &Command{
		Flags: flags,
		Usage: "mutate [flags] [file|-]",
		Short: "Mutate one input and print the result",
		Long: `Mutate one input buffer and write the mutant.

The input is read from file, or from stdin when file is "-" or omitted.
The same input, seed, iterations, strategies and max length always produce
the same output. Stdout gets a hex dump when it is a terminal.

Examples:
  havoc mutate -s 42 -n 10 seed.bin > out.bin
  printf 'GET / HTTP/1.1' | havoc mutate --hex --strategy bitflip,arith
  havoc mutate -o mutant.bin --stats seed.bin`,
		Exec: func(_ context.Context, o *IO, args []string) error {
			opts, err := engine.options()
			if err != nil {
				return err
			}

			return execMutate(o, cfg, fsys, args, opts, mutateOutput{
				path:  *output,
				hex:   *hexOut,
				stats: *stats,
			})
		},
	}
}

type mutateOutput struct {
	path  string
	hex   bool
	stats bool
}

func execMutate(o *IO, cfg *config.Config, fsys fs.FS, args []string, opts havoc.Options, out mutateOutput) error {
	if len(args) > 1 {
		return fmt.Errorf("%w: %v", errTooManyArgs, args[1:])
	}

	input, err := readInput(o, cfg, fsys, args)
	if err != nil {
		return err
	}

	m, err := havoc.NewWithOptions(input, opts)
	if err != nil {
		return err
	}

	mutant := m.Mutate()

	if out.path != "" {
		path := resolvePath(cfg, out.path)
		if err := fsys.WriteFileAtomic(path, mutant, outputPerm); err != nil {
			return fmt.Errorf("writing %s: %w", out.path, err)
		}
	} else if out.hex || o.OutIsTerminal() {
		o.Printf("%s", hex.Dump(mutant))
	} else if _, err := o.Write(mutant); err != nil {
		return fmt.Errorf("writing stdout: %w", err)
	}

	if out.stats {
		printStats(o, m.Stats(), len(input), len(mutant))
	}

	return nil
}

// readInput reads args[0], or stdin when it is "-" or absent.
func readInput(o *IO, cfg *config.Config, fsys fs.FS, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		if o.In() == nil {
			return nil, errInputRequired
		}

		data, err := io.ReadAll(o.In())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}

		return data, nil
	}

	data, err := fsys.ReadFile(resolvePath(cfg, args[0]))
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	return data, nil
}

func resolvePath(cfg *config.Config, path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(cfg.EffectiveCwd, path)
}

func printStats(o *IO, stats havoc.Stats, inLen, outLen int) {
	o.ErrPrintf("rounds=%d fallbacks=%d len=%d->%d\n", stats.Rounds, stats.Fallbacks, inLen, outLen)

	for _, s := range havoc.Strategies() {
		o.ErrPrintf("  %-12s %d\n", s, stats.Applied[s])
	}
}
