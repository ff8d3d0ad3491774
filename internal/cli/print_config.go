package cli

import (
	"context"
	"strconv"

	"github.com/calvinalkan/havoc/internal/config"

	flag "github.com/spf13/pflag"
)

// PrintConfigCmd returns the print-config command.
func PrintConfigCmd(cfg *config.Config) *Command {
	return &Command{
		Flags: flag.NewFlagSet("print-config", flag.ContinueOnError),
		Usage: "print-config",
		Short: "Show resolved configuration",
		Long:  "Display the effective configuration and which files it was loaded from.",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			return execPrintConfig(io, cfg)
		},
	}
}

func execPrintConfig(io *IO, cfg *config.Config) error {
	io.Println("effective_cwd=" + cfg.EffectiveCwd)
	io.Println("seed=" + strconv.FormatUint(cfg.Seed, 10))
	io.Println("iterations=" + strconv.FormatUint(cfg.Iterations, 10))
	io.Println("max_len=" + strconv.Itoa(cfg.MaxLen))
	io.Println("strategies=" + config.StrategyNames(cfg.Strategies))

	workers := strconv.Itoa(cfg.Workers)
	if cfg.Workers == 0 {
		workers += " (one per CPU)"
	}

	io.Println("workers=" + workers)

	if cfg.History != "" {
		io.Println("history=" + cfg.History)
	}

	io.Println("")
	io.Println("# sources")

	if cfg.Sources.Global == "" && cfg.Sources.Project == "" {
		io.Println("(defaults only)")
	} else {
		if cfg.Sources.Global != "" {
			io.Println("global_config=" + cfg.Sources.Global)
		}

		if cfg.Sources.Project != "" {
			io.Println("project_config=" + cfg.Sources.Project)
		}
	}

	return nil
}
