package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/havoc/internal/config"
	"github.com/calvinalkan/havoc/internal/fs"
	"github.com/calvinalkan/havoc/pkg/havoc"
)

const (
	replPrompt      = "havoc> "
	historyPerm     = 0o600
	maxDiffLines    = 32
	replLineBufSize = 1 << 20
)

var (
	errUnknownReplCommand = errors.New("unknown command (type 'help' for commands)")
	errNothingToUndo      = errors.New("nothing to undo")
	errArgRequired        = errors.New("argument required")
)

var replCommands = []string{
	"load", "set", "seed", "iters", "strategy", "mutate", "undo",
	"show", "diff", "save", "reset", "help", "quit", "exit",
}

// ReplCmd returns the repl command.
func ReplCmd(cfg *config.Config, fsys fs.FS) *Command {
	flags := flag.NewFlagSet("repl", flag.ContinueOnError)
	engine := addEngineFlags(flags, cfg, "n")
	noColor := flags.Bool("no-color", false, "Disable colored diff output")

	return &Command{
		Flags: flags,
		Usage: "repl [flags] [file]",
		Short: "Interactive mutation session",
		Long: `Start an interactive session over one buffer.

Each 'mutate' runs one engine call with seed DeriveSeed(seed, round), so
repeated calls keep exploring while 'undo' and 'reset' step back. When
stdin is not a terminal, commands are read line by line and the first
failing command aborts the session.

Commands:
  load <file>            Load a file as the original buffer
  set <text|0xHEX>       Replace the buffer with text or hex bytes
  seed [n]               Show or set the base seed
  iters [n]              Show or set rounds per mutate
  strategy [names|all]   Show or restrict strategies
  mutate [count]         Apply count engine calls (default 1)
  undo                   Revert the last mutate
  show                   Hex dump of the current buffer
  diff                   Positional diff against the original
  save <file>            Write the current buffer atomically
  reset                  Restore the original buffer
  help                   Show this help
  quit / exit / q        Leave the session`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			opts, err := engine.options()
			if err != nil {
				return err
			}

			if len(args) > 1 {
				return fmt.Errorf("%w: %v", errTooManyArgs, args[1:])
			}

			s := newReplSession(o, cfg, fsys, opts, !*noColor && o.OutIsTerminal())

			if len(args) == 1 {
				if err := s.load(args[0]); err != nil {
					return err
				}
			}

			if o.InIsTerminal() && o.OutIsTerminal() {
				return s.runInteractive(ctx)
			}

			return s.runScript(ctx, o.In())
		},
	}
}

// replSession holds the state of one REPL. exec is the testable core; the
// run loops only feed it lines.
type replSession struct {
	o    *IO
	cfg  *config.Config
	fsys fs.FS

	opts     havoc.Options
	original []byte
	current  []byte
	undo     []replSnapshot
	round    uint64

	removed *color.Color
	added   *color.Color
	changed *color.Color
}

// replSnapshot is the state before a mutate round. Undo restores both fields
// so the round counter survives seed changes in between.
type replSnapshot struct {
	data  []byte
	round uint64
}

func newReplSession(o *IO, cfg *config.Config, fsys fs.FS, opts havoc.Options, useColor bool) *replSession {
	s := &replSession{
		o:       o,
		cfg:     cfg,
		fsys:    fsys,
		opts:    opts,
		removed: color.New(color.FgRed),
		added:   color.New(color.FgGreen),
		changed: color.New(color.FgYellow, color.Bold),
	}

	for _, c := range []*color.Color{s.removed, s.added, s.changed} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return s
}

func (s *replSession) runScript(ctx context.Context, in io.Reader) error {
	if in == nil {
		return errInputRequired
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 4096), replLineBufSize)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("repl %w: %w", errInterrupted, err)
		}

		done, err := s.exec(scanner.Text())
		if err != nil {
			return err
		}

		if done {
			return nil
		}
	}

	return scanner.Err()
}

func (s *replSession) runInteractive(ctx context.Context) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(completeReplCommand)

	s.readHistory(line)
	defer s.writeHistory(line)

	s.o.Println("havoc repl - type 'help' for commands")

	for ctx.Err() == nil {
		input, err := line.Prompt(replPrompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				s.o.Println()

				return nil
			}

			return fmt.Errorf("reading input: %w", err)
		}

		if strings.TrimSpace(input) == "" {
			continue
		}

		line.AppendHistory(input)

		done, err := s.exec(input)
		if err != nil {
			s.o.ErrPrintln("error:", err)

			continue
		}

		if done {
			return nil
		}
	}

	return nil
}

func (s *replSession) readHistory(line *liner.State) {
	if s.cfg.History == "" {
		return
	}

	data, err := s.fsys.ReadFile(s.cfg.History)
	if err != nil {
		return
	}

	_, _ = line.ReadHistory(bytes.NewReader(data))
}

func (s *replSession) writeHistory(line *liner.State) {
	if s.cfg.History == "" {
		return
	}

	var buf bytes.Buffer
	if _, err := line.WriteHistory(&buf); err != nil {
		return
	}

	if err := s.fsys.WriteFileAtomic(s.cfg.History, buf.Bytes(), historyPerm); err != nil {
		s.o.Warn("could not save history", err.Error())
	}
}

func completeReplCommand(line string) []string {
	var out []string

	lower := strings.ToLower(line)
	for _, c := range replCommands {
		if strings.HasPrefix(c, lower) {
			out = append(out, c)
		}
	}

	return out
}

// exec runs one command line. done is true when the session should end.
func (s *replSession) exec(line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return false, nil
	}

	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	switch strings.ToLower(cmd) {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		s.o.Println(strings.Join(replCommands, " "))
	case "load":
		if rest == "" {
			return false, fmt.Errorf("load: %w", errArgRequired)
		}

		return false, s.load(rest)
	case "set":
		return false, s.set(rest)
	case "seed":
		return false, s.setSeed(args)
	case "iters":
		return false, s.setIters(args)
	case "strategy", "strategies":
		return false, s.setStrategies(args)
	case "mutate", "m":
		return false, s.mutate(args)
	case "undo":
		return false, s.undoLast()
	case "show":
		s.show()
	case "diff":
		s.diff()
	case "save":
		if rest == "" {
			return false, fmt.Errorf("save: %w", errArgRequired)
		}

		if err := s.fsys.WriteFileAtomic(resolvePath(s.cfg, rest), s.current, outputPerm); err != nil {
			return false, fmt.Errorf("save: %w", err)
		}

		s.o.Printf("saved %d bytes to %s\n", len(s.current), rest)
	case "reset":
		s.reset()
		s.o.Printf("reset to original (%d bytes)\n", len(s.current))
	default:
		return false, fmt.Errorf("%w: %s", errUnknownReplCommand, cmd)
	}

	return false, nil
}

func (s *replSession) load(path string) error {
	data, err := s.fsys.ReadFile(resolvePath(s.cfg, path))
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}

	s.original = data
	s.reset()
	s.o.Printf("loaded %d bytes from %s\n", len(data), path)

	return nil
}

func (s *replSession) set(arg string) error {
	data := []byte(arg)

	if hexStr, ok := strings.CutPrefix(arg, "0x"); ok {
		decoded, err := hex.DecodeString(strings.ReplaceAll(hexStr, " ", ""))
		if err != nil {
			return fmt.Errorf("set: %w", err)
		}

		data = decoded
	}

	s.original = data
	s.reset()
	s.o.Printf("buffer set (%d bytes)\n", len(data))

	return nil
}

func (s *replSession) setSeed(args []string) error {
	if len(args) == 0 {
		s.o.Printf("seed=%d\n", s.opts.Seed)

		return nil
	}

	v, err := config.ParseUint("seed", args[0])
	if err != nil {
		return err
	}

	s.opts.Seed = v
	s.round = 0
	s.o.Printf("seed=%d\n", v)

	return nil
}

func (s *replSession) setIters(args []string) error {
	if len(args) == 0 {
		s.o.Printf("iters=%d\n", s.opts.Iterations)

		return nil
	}

	v, err := config.ParseUint("iters", args[0])
	if err != nil {
		return err
	}

	s.opts.Iterations = v
	s.o.Printf("iters=%d\n", v)

	return nil
}

func (s *replSession) setStrategies(args []string) error {
	switch {
	case len(args) == 0:
	case len(args) == 1 && strings.EqualFold(args[0], "all"):
		s.opts.Strategies = nil
	default:
		list, err := config.ParseStrategies(args)
		if err != nil {
			return err
		}

		s.opts.Strategies = list
	}

	s.o.Println("strategies=" + config.StrategyNames(s.opts.Strategies))

	return nil
}

func (s *replSession) mutate(args []string) error {
	count := uint64(1)

	if len(args) > 0 {
		v, err := config.ParseUint("count", args[0])
		if err != nil {
			return err
		}

		count = v
	}

	for range count {
		before := len(s.current)
		s.undo = append(s.undo, replSnapshot{data: append([]byte(nil), s.current...), round: s.round})

		opts := s.opts
		opts.Seed = havoc.DeriveSeed(s.opts.Seed, s.round)

		m, err := havoc.NewWithOptions(s.current, opts)
		if err != nil {
			s.undo = s.undo[:len(s.undo)-1]

			return err
		}

		s.current = m.Mutate()
		s.round++

		st := m.Stats()
		s.o.Printf("round %d seed=%#x len %d->%d fallbacks=%d\n",
			s.round, opts.Seed, before, len(s.current), st.Fallbacks)
	}

	return nil
}

func (s *replSession) undoLast() error {
	if len(s.undo) == 0 {
		return errNothingToUndo
	}

	last := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.current = last.data
	s.round = last.round
	s.o.Printf("undone (round %d, %d bytes)\n", s.round, len(s.current))

	return nil
}

func (s *replSession) reset() {
	s.current = append([]byte(nil), s.original...)
	s.undo = nil
	s.round = 0
}

func (s *replSession) show() {
	if len(s.current) == 0 {
		s.o.Println("(empty)")

		return
	}

	s.o.Printf("%s", hex.Dump(s.current))
}

// diff prints a byte-by-byte comparison at equal offsets, then the length
// change. Insertions shift later bytes, so it reports positions, not edits.
func (s *replSession) diff() {
	a, b := s.original, s.current
	shared := min(len(a), len(b))
	lines := 0
	changedTotal := 0

	for i := range shared {
		if a[i] == b[i] {
			continue
		}

		changedTotal++

		if lines < maxDiffLines {
			s.o.Printf("%#06x  %s -> %s\n", i,
				s.removed.Sprintf("%02x", a[i]), s.added.Sprintf("%02x", b[i]))
			lines++
		}
	}

	if changedTotal > lines {
		s.o.Printf("... %d more changed bytes\n", changedTotal-lines)
	}

	switch {
	case len(b) > len(a):
		s.o.Println(s.added.Sprintf("+%d bytes", len(b)-len(a)))
	case len(b) < len(a):
		s.o.Println(s.removed.Sprintf("-%d bytes", len(a)-len(b)))
	}

	s.o.Println(s.changed.Sprintf("%d changed, len %d -> %d", changedTotal, len(a), len(b)))
}
