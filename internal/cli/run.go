// Package cli implements the havoc command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/havoc/internal/config"
	"github.com/calvinalkan/havoc/internal/fs"
)

var (
	errNoCommand      = errors.New("no command provided")
	errUnknownCommand = errors.New("unknown command")
)

// Run is the main entry point. Returns exit code.
//
// sigCh may be nil. When a signal arrives the command context is cancelled;
// long-running commands stop between units of work.
func Run(in io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	return run(in, out, errOut, args, env, sigCh, fs.NewReal())
}

func run(in io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal, fsys fs.FS) int {
	o := NewIO(in, out, errOut)

	globals := flag.NewFlagSet("havoc", flag.ContinueOnError)
	globals.SetInterspersed(false)
	globals.SetOutput(&strings.Builder{})

	workDir := globals.StringP("cwd", "C", "", "Run as if started in `dir`")
	configPath := globals.StringP("config", "c", "", "Use specified config `file`")
	help := globals.BoolP("help", "h", false, "Show help")

	if len(args) < 2 {
		printUsage(o.Println, globals, commandList(nil, nil))

		return 0
	}

	if err := globals.Parse(args[1:]); err != nil {
		o.ErrPrintln("error:", err)
		o.ErrPrintln()
		printUsage(o.ErrPrintln, globals, commandList(nil, nil))

		return 1
	}

	if *help {
		printUsage(o.Println, globals, commandList(nil, nil))

		return 0
	}

	rest := globals.Args()
	if len(rest) == 0 {
		o.ErrPrintln("error:", errNoCommand)
		o.ErrPrintln()
		printUsage(o.ErrPrintln, globals, commandList(nil, nil))

		return 1
	}

	cfg, err := config.Load(config.LoadInput{
		WorkDirOverride: *workDir,
		ConfigPath:      *configPath,
		Env:             env,
		FS:              fsys,
	})
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sigCh != nil {
		go func() {
			select {
			case <-sigCh:
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	var cmd *Command

	for _, c := range commandList(&cfg, fsys) {
		if c.Name() == rest[0] {
			cmd = c

			break
		}
	}

	if cmd == nil {
		o.ErrPrintln("error:", fmt.Errorf("%w: %s", errUnknownCommand, rest[0]))
		o.ErrPrintln()
		printUsage(o.ErrPrintln, globals, commandList(nil, nil))

		return 1
	}

	code := cmd.Run(ctx, o, rest[1:])
	o.Finish()

	return code
}

// commandList builds every command. A nil cfg builds help-only instances.
func commandList(cfg *config.Config, fsys fs.FS) []*Command {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}

	if fsys == nil {
		fsys = fs.NewReal()
	}

	return []*Command{
		MutateCmd(cfg, fsys),
		GenCmd(cfg, fsys),
		StrategiesCmd(cfg),
		ReplCmd(cfg, fsys),
		PrintConfigCmd(cfg),
	}
}

func printUsage(printLine func(a ...any), globals *flag.FlagSet, commands []*Command) {
	printLine("havoc - seed-deterministic byte mutation engine")
	printLine()
	printLine("Usage: havoc [global flags] <command> [args]")
	printLine()
	printLine("Global flags:")

	var buf strings.Builder
	globals.SetOutput(&buf)
	globals.PrintDefaults()
	globals.SetOutput(&strings.Builder{})
	printLine(strings.TrimRight(buf.String(), "\n"))

	printLine()
	printLine("Commands:")

	for _, c := range commands {
		printLine(c.HelpLine())
	}

	printLine()
	printLine("Run 'havoc <command> --help' for command flags.")
}
