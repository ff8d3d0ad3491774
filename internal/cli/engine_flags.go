package cli

import (
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/havoc/internal/config"
	"github.com/calvinalkan/havoc/pkg/havoc"
)

var (
	errInputRequired = errors.New("input file is required")
	errTooManyArgs   = errors.New("too many arguments")
)

// engineFlags are the mutation parameters shared by mutate, gen and repl.
// Defaults come from the resolved config, so flags only need to be read.
type engineFlags struct {
	seed       *uint64
	iters      *uint64
	maxLen     *int
	strategies *[]string
}

// addEngineFlags registers --seed, --iters, --max-len and --strategy on fs.
// itersShort is the shorthand for --iters ("" for none).
func addEngineFlags(fs *flag.FlagSet, cfg *config.Config, itersShort string) *engineFlags {
	var names []string
	for _, s := range cfg.Strategies {
		names = append(names, s.String())
	}

	return &engineFlags{
		seed:       fs.Uint64P("seed", "s", cfg.Seed, "PRNG seed (decimal or 0x hex)"),
		iters:      fs.Uint64P("iters", itersShort, cfg.Iterations, "Mutation rounds per output"),
		maxLen:     fs.Int("max-len", cfg.MaxLen, "Upper bound for growing strategies (0 = default)"),
		strategies: fs.StringSlice("strategy", names, "Restrict strategies (repeatable or comma list; default all)"),
	}
}

func (e *engineFlags) options() (havoc.Options, error) {
	if *e.maxLen < 0 {
		return havoc.Options{}, fmt.Errorf("--max-len: %w: %d", config.ErrNegativeValue, *e.maxLen)
	}

	strategies, err := config.ParseStrategies(*e.strategies)
	if err != nil {
		return havoc.Options{}, fmt.Errorf("--strategy: %w", err)
	}

	return havoc.Options{
		Seed:       *e.seed,
		Iterations: *e.iters,
		MaxLen:     *e.maxLen,
		Strategies: strategies,
	}, nil
}
