package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/pyscope/internal/config"
	"github.com/phobologic/pyscope/internal/discover"
	"github.com/phobologic/pyscope/internal/model"
	"github.com/phobologic/pyscope/internal/prompt"
	"github.com/phobologic/pyscope/internal/report"
)

const (
	inputQuestion  = "Enter the path to the Python file to preprocess: "
	outputQuestion = "Enter the path to save the preprocessed report: "
)

type scopeFlags struct {
	file   string
	output string
}

func newScopeCmd(g *globalFlags, stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	f := &scopeFlags{}
	cmd := &cobra.Command{
		Use:   "scope [file]",
		Short: "Write the structure report for a Python file or directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				if f.file != "" && f.file != args[0] {
					return fmt.Errorf("input given twice: %q and --file %q", args[0], f.file)
				}
				f.file = args[0]
			}
			return runScope(g, f, cmd, stdin, stdout, stderr)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.file, "file", "f", "", "Python file (or directory) to index")
	flags.StringVarP(&f.output, "output", "o", "", "report path (a directory when indexing a directory)")
	flags.String("format", "json", "report format: json, yaml, csv or toon")
	flags.Float64("body-threshold", 0.3, "fraction of the file where the body starts")
	flags.Float64("end-threshold", 0.7, "fraction of the file where the end starts")
	flags.Bool("top-level", false, "report module-level declarations only")
	flags.Bool("subsections", false, `append "# Chapter:" style subsections to the report`)
	flags.StringSlice("exclude", nil, "glob patterns to skip in directory mode (repeatable)")
	flags.Bool("skip-tests", false, "skip test modules in directory mode")
	return cmd
}

func runScope(g *globalFlags, f *scopeFlags, cmd *cobra.Command, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(g, cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel, stderr)
	if err != nil {
		return err
	}

	if err := askMissing(f, stdin, stdout); err != nil {
		return err
	}

	info, err := os.Stat(f.file)
	if err != nil {
		return &report.FileError{Op: "read", Path: f.file, Err: err}
	}

	opts := cfg.ReportOptions()
	st := newStyles(stdout)

	if info.IsDir() {
		return scopeDir(f.file, f.output, cfg, opts, logger, st, stdout)
	}

	logger.Debug("generating report", "input", f.file, "output", f.output, "format", opts.Format)
	rep, err := report.Generate(f.file, f.output, opts)
	if err != nil {
		return err
	}
	logger.Debug("report written", "records", len(rep.Records), "lines", rep.TotalLines)

	_, _ = fmt.Fprintf(stdout, "%s %s %s\n",
		st.ok.Render("Preprocessed code saved to"),
		st.path.Render(f.output),
		summarize(rep.Counts()))
	return nil
}

// askMissing prompts for input and output paths not given on the command line.
func askMissing(f *scopeFlags, stdin io.Reader, stdout io.Writer) error {
	if f.file != "" && f.output != "" {
		return nil
	}

	p := prompt.New(stdin, stdout)
	defer p.Close()

	var err error
	if f.file == "" {
		if f.file, err = prompt.Required(p, inputQuestion); err != nil {
			return fmt.Errorf("reading input path: %w", err)
		}
	}
	if f.output == "" {
		if f.output, err = prompt.Required(p, outputQuestion); err != nil {
			return fmt.Errorf("reading output path: %w", err)
		}
	}
	return nil
}

// scopeDir writes one report per discovered file under outDir, mirroring
// the source layout. Reports keep the source extension (mod.py.json,
// mod.pyi.json). Files that fail are logged and counted.
func scopeDir(root, outDir string, cfg *config.Config, opts report.Options, logger *slog.Logger, st styles, stdout io.Writer) error {
	files, err := discover.Files(root, discover.Options{Exclude: cfg.Exclude, SkipTests: cfg.SkipTests})
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no Python files found under %s", root)
	}

	failed := 0
	for _, fe := range files {
		in := filepath.Join(root, filepath.FromSlash(fe.Path))
		out := filepath.Join(outDir, filepath.FromSlash(fe.Path)+opts.Format.Extension())

		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return &report.FileError{Op: "write", Path: filepath.Dir(out), Err: err}
		}

		rep, err := report.Generate(in, out, opts)
		if err != nil {
			logger.Warn("skipping file", "path", fe.Path, "error", err)
			failed++
			continue
		}
		logger.Debug("report written", "path", fe.Path, "output", out, "records", len(rep.Records))
	}

	_, _ = fmt.Fprintf(stdout, "%s %s\n",
		st.ok.Render(fmt.Sprintf("Indexed %d of %d files into", len(files)-failed, len(files))),
		st.path.Render(outDir))
	if failed > 0 {
		_, _ = fmt.Fprintln(stdout, st.warn.Render(fmt.Sprintf("%d files failed", failed)))
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

// summarize renders per-kind record counts, e.g. "(2 functions, 1 import)".
func summarize(counts map[model.Kind]int) string {
	order := []model.Kind{model.Function, model.Class, model.Import, model.Statement, model.Subsection}
	var parts []string
	for _, k := range order {
		n := counts[k]
		if n == 0 {
			continue
		}
		label := string(k)
		if n != 1 {
			label += "s"
		}
		parts = append(parts, fmt.Sprintf("%d %s", n, label))
	}
	if len(parts) == 0 {
		return "(no records)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
