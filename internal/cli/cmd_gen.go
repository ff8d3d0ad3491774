package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"fortio.org/safecast"
	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/calvinalkan/havoc/internal/config"
	"github.com/calvinalkan/havoc/internal/fs"
	"github.com/calvinalkan/havoc/pkg/havoc"
)

const (
	manifestFileName = "manifest.json"
	lockFileName     = ".havoc.lock"
	outDirPerm       = 0o755
	defaultGenCount  = 100
)

var (
	errOutDirRequired = errors.New("--out-dir is required")
	errOutDirBusy     = errors.New("output directory is in use by another gen")
	errInvalidCount   = errors.New("--count must be at least 1")
	errInterrupted    = errors.New("interrupted")
)

// GenCmd returns the gen command.
func GenCmd(cfg *config.Config, fsys fs.FS) *Command {
	flags := flag.NewFlagSet("gen", flag.ContinueOnError)
	engine := addEngineFlags(flags, cfg, "")
	outDir := flags.StringP("out-dir", "o", "", "Directory for mutants (required)")
	count := flags.IntP("count", "n", defaultGenCount, "Number of mutants to generate")
	workers := flags.IntP("workers", "j", cfg.Workers, "Parallel workers (0 = one per CPU)")
	manifest := flags.Bool("manifest", false, "Also write manifest.json mapping files to seeds")

	return &Command{
		Flags: flags,
		Usage: "gen [flags] <file>",
		Short: "Generate a batch of mutants in parallel",
		Long: `Generate --count mutants of one input into --out-dir.

Mutant i is produced with seed DeriveSeed(--seed, i) and written atomically
as <name>-NNNNNN.bin, where <name> is the input file name without extension.
Re-running with the same flags reproduces the same files. Only one gen may
write into a directory at a time.

Examples:
  havoc gen -o corpus/ -n 1000 seed.bin
  havoc gen -o corpus/ -n 50 --iters 8 --strategy insert,delete --manifest seed.bin`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			opts, err := engine.options()
			if err != nil {
				return err
			}

			if *workers < 0 {
				return fmt.Errorf("--workers: %w: %d", config.ErrNegativeValue, *workers)
			}

			return execGen(ctx, o, cfg, fsys, args, genParams{
				opts:     opts,
				outDir:   *outDir,
				count:    *count,
				workers:  *workers,
				manifest: *manifest,
			})
		},
	}
}

type genParams struct {
	opts     havoc.Options
	outDir   string
	count    int
	workers  int
	manifest bool
}

type genManifest struct {
	Input      string          `json:"input"`
	Seed       uint64          `json:"seed"`
	Iterations uint64          `json:"iterations"`
	MaxLen     int             `json:"max_len"`
	Strategies string          `json:"strategies"`
	Mutants    []manifestEntry `json:"mutants"`
}

type manifestEntry struct {
	File string `json:"file"`
	Seed uint64 `json:"seed"`
	Size int    `json:"size"`
}

func execGen(ctx context.Context, o *IO, cfg *config.Config, fsys fs.FS, args []string, p genParams) (err error) {
	switch {
	case len(args) == 0:
		return errInputRequired
	case len(args) > 1:
		return fmt.Errorf("%w: %v", errTooManyArgs, args[1:])
	case p.outDir == "":
		return errOutDirRequired
	case p.count < 1:
		return fmt.Errorf("%w: %d", errInvalidCount, p.count)
	}

	// Validate once so workers cannot fail on options.
	if _, err = havoc.NewWithOptions(nil, p.opts); err != nil {
		return err
	}

	input, err := readInput(o, cfg, fsys, args)
	if err != nil {
		return err
	}

	if p.opts.MaxLen > 0 && len(input) >= p.opts.MaxLen {
		o.Warn(fmt.Sprintf("input is %d bytes, max-len is %d", len(input), p.opts.MaxLen),
			"growing strategies will fall back to bitflip")
	}

	dir := resolvePath(cfg, p.outDir)
	if err := fsys.MkdirAll(dir, outDirPerm); err != nil {
		return fmt.Errorf("creating %s: %w", p.outDir, err)
	}

	lock, err := fsys.TryLock(filepath.Join(dir, lockFileName))
	if err != nil {
		if errors.Is(err, fs.ErrWouldBlock) {
			return fmt.Errorf("%w: %s", errOutDirBusy, p.outDir)
		}

		return err
	}
	defer func() {
		if closeErr := lock.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("releasing lock: %w", closeErr))
		}
	}()

	workers := p.workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	name := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
	if args[0] == "-" || name == "" {
		name = "mutant"
	}

	results := make([]manifestEntry, p.count)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(workers, p.count))

	for i := range p.count {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			index, err := safecast.Conv[uint64](i)
			if err != nil {
				return err
			}

			opts := p.opts
			opts.Seed = havoc.DeriveSeed(p.opts.Seed, index)

			m, err := havoc.NewWithOptions(append([]byte(nil), input...), opts)
			if err != nil {
				return err
			}

			mutant := m.Mutate()
			file := fmt.Sprintf("%s-%06d.bin", name, i)

			if err := fsys.WriteFileAtomic(filepath.Join(dir, file), mutant, outputPerm); err != nil {
				return fmt.Errorf("writing %s: %w", file, err)
			}

			results[i] = manifestEntry{File: file, Seed: opts.Seed, Size: len(mutant)}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("gen %w: %w", errInterrupted, err)
		}

		return err
	}

	if ctx.Err() != nil {
		return fmt.Errorf("gen %w: %w", errInterrupted, ctx.Err())
	}

	if p.manifest {
		data, err := json.MarshalIndent(genManifest{
			Input:      args[0],
			Seed:       p.opts.Seed,
			Iterations: p.opts.Iterations,
			MaxLen:     p.opts.MaxLen,
			Strategies: config.StrategyNames(p.opts.Strategies),
			Mutants:    results,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding manifest: %w", err)
		}

		data = append(data, '\n')

		if err := fsys.WriteFileAtomic(filepath.Join(dir, manifestFileName), data, outputPerm); err != nil {
			return fmt.Errorf("writing manifest: %w", err)
		}
	}

	o.Printf("generated %d mutants in %s\n", p.count, p.outDir)

	return nil
}
