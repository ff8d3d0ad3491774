package cli

import (
	"context"
	"fmt"
	"slices"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/havoc/internal/config"
	"github.com/calvinalkan/havoc/pkg/havoc"
)

// StrategiesCmd returns the strategies command.
func StrategiesCmd(cfg *config.Config) *Command {
	return &Command{
		Flags: flag.NewFlagSet("strategies", flag.ContinueOnError),
		Usage: "strategies",
		Short: "List the mutation strategy catalog",
		Long: `List every mutation strategy with its selection weight.

SHARE is the probability of drawing the strategy per round given the
configured strategy set; disabled strategies show "-".`,
		Exec: func(_ context.Context, o *IO, _ []string) error {
			execStrategies(o, cfg.Strategies)

			return nil
		},
	}
}

func execStrategies(o *IO, enabled []havoc.Strategy) {
	if len(enabled) == 0 {
		enabled = havoc.Strategies()
	}

	total := 0
	for _, s := range enabled {
		total += s.Weight()
	}

	o.Printf("%-12s %6s %6s  %s\n", "NAME", "WEIGHT", "SHARE", "GROWS/SHRINKS")

	for _, s := range havoc.Strategies() {
		share := "-"
		if slices.Contains(enabled, s) {
			share = formatShare(s.Weight(), total)
		}

		structural := "no"
		if s.Structural() {
			structural = "yes"
		}

		o.Printf("%-12s %6d %6s  %s\n", s, s.Weight(), share, structural)
	}
}

func formatShare(weight, total int) string {
	if total == 0 {
		return "-"
	}

	return fmt.Sprintf("%.1f%%", float64(weight)*100/float64(total))
}
