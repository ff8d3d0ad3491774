// Package config loads the layered havoc CLI configuration.
//
// Precedence (highest wins):
//  1. Command-line flags (applied by the caller)
//  2. Explicit config file (-c/--config) or project file (.havoc.json)
//  3. Global user config ($XDG_CONFIG_HOME/havoc/config.json)
//  4. Defaults
//
// Config files are JSONC: comments and trailing commas are allowed.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"fortio.org/safecast"
	"github.com/tailscale/hujson"

	"github.com/calvinalkan/havoc/internal/fs"
	"github.com/calvinalkan/havoc/pkg/havoc"
)

// FileName is the project config file looked up in the working directory.
const FileName = ".havoc.json"

// Config holds the resolved configuration.
type Config struct {
	Seed       uint64
	Iterations uint64
	MaxLen     int
	// Strategies restricts the catalog; nil means every strategy.
	Strategies []havoc.Strategy
	// Workers bounds gen parallelism; 0 means one per CPU.
	Workers int
	// History is the REPL history file; empty disables history.
	History string

	// EffectiveCwd is the absolute working directory (-C or os.Getwd).
	EffectiveCwd string

	Sources Sources
}

// Sources tracks which config files were loaded.
type Sources struct {
	Global  string
	Project string
}

// Options returns the engine options described by c.
func (c Config) Options() havoc.Options {
	return havoc.Options{
		Seed:       c.Seed,
		Iterations: c.Iterations,
		MaxLen:     c.MaxLen,
		Strategies: c.Strategies,
	}
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Seed:       havoc.DefaultSeed,
		Iterations: havoc.DefaultIterations,
		MaxLen:     havoc.DefaultMaxLen,
	}
}

// LoadInput holds the inputs for [Load].
type LoadInput struct {
	WorkDirOverride string            // -C/--cwd; os.Getwd() when empty
	ConfigPath      string            // -c/--config
	Env             map[string]string // environment variables
	FS              fs.FS             // file access; [fs.NewReal] when nil
}

// Load resolves defaults, the global file and the project or explicit file.
func Load(input LoadInput) (Config, error) {
	fsys := input.FS
	if fsys == nil {
		fsys = fs.NewReal()
	}

	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("%w: %w", ErrWorkDir, err)
		}
	} else if !filepath.IsAbs(workDir) {
		abs, err := filepath.Abs(workDir)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %w", ErrWorkDir, err)
		}

		workDir = abs
	}

	if input.WorkDirOverride != "" {
		info, err := fsys.Stat(workDir)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %w", ErrWorkDir, err)
		}

		if !info.IsDir() {
			return Config{}, fmt.Errorf("%w: %s is not a directory", ErrWorkDir, input.WorkDirOverride)
		}
	}

	cfg := Default()
	cfg.History = defaultHistoryPath(input.Env)

	if path := globalConfigPath(input.Env); path != "" {
		file, loaded, err := loadFile(fsys, path, false)
		if err != nil {
			return Config{}, err
		}

		if loaded {
			cfg.Sources.Global = path
			cfg = merge(cfg, file, filepath.Dir(path))
		}
	}

	path := input.ConfigPath
	mustExist := path != ""

	if path == "" {
		path = FileName
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(workDir, path)
	}

	if mustExist {
		exists, err := fsys.Exists(path)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s: %w", ErrConfigFileRead, input.ConfigPath, err)
		}

		if !exists {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigFileNotFound, input.ConfigPath)
		}
	}

	file, loaded, err := loadFile(fsys, path, mustExist)
	if err != nil {
		return Config{}, err
	}

	if loaded {
		cfg.Sources.Project = path
		cfg = merge(cfg, file, workDir)
	}

	cfg.EffectiveCwd = workDir

	return cfg, nil
}

// globalConfigPath returns $XDG_CONFIG_HOME/havoc/config.json, falling back
// to ~/.config/havoc/config.json. Empty if neither variable is set.
func globalConfigPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "havoc", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "havoc", "config.json")
	}

	return ""
}

func defaultHistoryPath(env map[string]string) string {
	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".havoc_history")
	}

	return ""
}

// fileConfig mirrors the on-disk format. Pointers distinguish "absent" from
// zero values; numbers stay as [json.Number] so negatives and fractions can
// be reported instead of silently wrapping.
type fileConfig struct {
	Seed       *json.Number `json:"seed"`
	Iterations *json.Number `json:"iterations"`
	MaxLen     *json.Number `json:"max_len"`
	Workers    *json.Number `json:"workers"`
	Strategies *[]string    `json:"strategies"`
	History    *string      `json:"history"`

	strategies []havoc.Strategy
}

func loadFile(fsys fs.FS, path string, mustExist bool) (fileConfig, bool, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !mustExist {
			return fileConfig{}, false, nil
		}

		return fileConfig{}, false, fmt.Errorf("%w: %s", ErrConfigFileRead, path)
	}

	file, err := parse(data)
	if err != nil {
		return fileConfig{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	return file, true, nil
}

func parse(data []byte) (fileConfig, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fileConfig{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()

	var file fileConfig

	if err := dec.Decode(&file); err != nil {
		return fileConfig{}, fmt.Errorf("invalid JSON: %w", err)
	}

	if err := file.validate(); err != nil {
		return fileConfig{}, err
	}

	return file, nil
}

func (f *fileConfig) validate() error {
	if f.Seed != nil {
		if _, err := ParseUint("seed", f.Seed.String()); err != nil {
			return err
		}
	}

	if f.Iterations != nil {
		if _, err := ParseUint("iterations", f.Iterations.String()); err != nil {
			return err
		}
	}

	if f.MaxLen != nil {
		if _, err := ParseInt("max_len", f.MaxLen.String()); err != nil {
			return err
		}
	}

	if f.Workers != nil {
		if _, err := ParseInt("workers", f.Workers.String()); err != nil {
			return err
		}
	}

	if f.Strategies != nil {
		list, err := ParseStrategies(*f.Strategies)
		if err != nil {
			return fmt.Errorf("strategies: %w", err)
		}

		f.strategies = list
	}

	return nil
}

// merge overlays the fields present in file onto base. Relative history
// paths resolve against dir. Values were checked by validate.
func merge(base Config, file fileConfig, dir string) Config {
	if file.Seed != nil {
		base.Seed, _ = ParseUint("seed", file.Seed.String())
	}

	if file.Iterations != nil {
		base.Iterations, _ = ParseUint("iterations", file.Iterations.String())
	}

	if file.MaxLen != nil {
		base.MaxLen, _ = ParseInt("max_len", file.MaxLen.String())
	}

	if file.Workers != nil {
		base.Workers, _ = ParseInt("workers", file.Workers.String())
	}

	if file.Strategies != nil {
		base.Strategies = file.strategies
	}

	if file.History != nil {
		base.History = *file.History
		if base.History != "" && !filepath.IsAbs(base.History) {
			base.History = filepath.Join(dir, base.History)
		}
	}

	return base
}

// ParseUint parses a non-negative 64-bit integer written in decimal or with
// a 0x prefix in hex. Leading zeros are decimal: "010" is ten.
func ParseUint(field, s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("%s: %w: %s", field, ErrNegativeValue, s)
	}

	digits, base := s, 10
	if rest, ok := strings.CutPrefix(strings.ToLower(s), "0x"); ok {
		digits, base = rest, 16
	}

	v, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %s", field, ErrNotInteger, s)
	}

	return v, nil
}

// ParseInt parses a non-negative decimal integer that fits in an int.
func ParseInt(field, s string) (int, error) {
	s = strings.TrimSpace(s)

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %s", field, ErrNotInteger, s)
	}

	if v < 0 {
		return 0, fmt.Errorf("%s: %w: %d", field, ErrNegativeValue, v)
	}

	n, err := safecast.Conv[int](v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}

	return n, nil
}

// ParseStrategies resolves strategy names. Each value may itself be a
// comma-separated list. An empty result means the full catalog and is
// returned as nil.
func ParseStrategies(values []string) ([]havoc.Strategy, error) {
	var out []havoc.Strategy

	seen := make(map[havoc.Strategy]bool)

	for _, value := range values {
		for name := range strings.SplitSeq(value, ",") {
			if strings.TrimSpace(name) == "" {
				continue
			}

			s, err := havoc.ParseStrategy(name)
			if err != nil {
				return nil, err
			}

			if seen[s] {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateStrategy, s)
			}

			seen[s] = true
			out = append(out, s)
		}
	}

	return out, nil
}

// StrategyNames renders a strategy list for display; nil renders as "all".
func StrategyNames(list []havoc.Strategy) string {
	if len(list) == 0 {
		return "all"
	}

	names := make([]string, len(list))
	for i, s := range list {
		names[i] = s.String()
	}

	return strings.Join(names, ",")
}
