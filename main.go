// pyscope writes a position-tagged structure report for Python source files.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/phobologic/pyscope/internal/config"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	root := newRootCmd(stdin, stdout, stderr)
	// cobra reads os.Args when given nil.
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	return root.Execute()
}

// globalFlags are persistent flags shared by every command.
type globalFlags struct {
	configFile string
	logLevel   string
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	g := &globalFlags{}

	root := newScopeCmd(g, stdin, stdout, stderr)
	root.Use = "pyscope [file]"
	root.Short = "Index the structure of a Python file"
	root.Long = `pyscope parses a Python file once and writes a flat report of its
functions, classes, imports and statements. Each record carries its line span
and a coarse position label (beginning, body or end) relative to the file length.

Without a subcommand pyscope runs "scope". Missing input or output paths are
prompted for interactively.

Examples:
  pyscope app.py --output app.json          # JSON report
  pyscope app.py -o app.toon --format toon  # compact TOON table
  pyscope src/ -o reports/ --exclude '**/migrations/**'
  pyscope index app.py --csv                # functions grouped by "# Chapter:" comments
  pyscope init --write-config               # write .pyscope.yaml with defaults`
	root.Version = version
	root.SilenceUsage = true
	root.SilenceErrors = true
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&g.configFile, "config", "", "config file (default: ./"+config.FileName+" or ~/"+config.FileName+")")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newScopeCmd(g, stdin, stdout, stderr),
		newIndexCmd(g, stdout, stderr),
		newInitCmd(stdout, stderr),
	)
	return root
}

// loadConfig resolves configuration for cmd, with its flags taking priority.
func loadConfig(g *globalFlags, cmd *cobra.Command) (*config.Config, error) {
	loader := &config.Loader{ConfigFile: g.configFile, Dir: ".", Flags: cmd.Flags()}
	return loader.Load()
}

func newLogger(level string, stderr io.Writer) (*slog.Logger, error) {
	lvl, err := config.ParseLogLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: lvl})), nil
}

// styles renders summary lines; colour is dropped for non-terminals and
// when NO_COLOR is set.
type styles struct {
	ok   lipgloss.Style
	warn lipgloss.Style
	path lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	if os.Getenv("NO_COLOR") != "" {
		r.SetColorProfile(termenv.Ascii)
	}
	return styles{
		ok:   r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		warn: r.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		path: r.NewStyle().Foreground(lipgloss.Color("6")),
	}
}
