package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/pyscope/internal/parse"
	"github.com/phobologic/pyscope/internal/report"
	"github.com/phobologic/pyscope/internal/section"
)

type indexFlags struct {
	json   bool
	csv    bool
	outDir string
}

func newIndexCmd(g *globalFlags, stdout, stderr io.Writer) *cobra.Command {
	f := &indexFlags{}
	cmd := &cobra.Command{
		Use:   "index <file>",
		Short: "List functions grouped by subsection comments and export the index",
		Long: `index lists the functions of a Python file grouped under subsection
comments such as "# Chapter: Parsing" or "# Section 2". Each subsection runs
until the line before the next one.

The index is written to <name>_index.json and <name>_index.csv next to the
file (or under --out-dir). Pass --json or --csv to write only one of them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(g, f, cmd, args[0], stdout, stderr)
		},
	}
	cmd.Flags().BoolVar(&f.json, "json", false, "write the JSON index")
	cmd.Flags().BoolVar(&f.csv, "csv", false, "write the CSV index")
	cmd.Flags().StringVar(&f.outDir, "out-dir", "", "directory for index files (default: next to the input)")
	return cmd
}

func runIndex(g *globalFlags, f *indexFlags, cmd *cobra.Command, path string, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(g, cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel, stderr)
	if err != nil {
		return err
	}

	source, err := report.ReadSource(path)
	if err != nil {
		return err
	}
	s, err := parse.Extract(source, parse.Options{})
	if err != nil {
		var pe *parse.ParseError
		if errors.As(err, &pe) {
			pe.File = path
		}
		return err
	}

	groups := section.GroupFunctions(s.Functions, section.Extract(source))
	st := newStyles(stdout)
	if len(groups) == 0 {
		_, _ = fmt.Fprintln(stdout, st.warn.Render("No subsections found in "+path))
		return nil
	}
	printGroups(stdout, groups)

	formats := indexFormats(f)
	dir := f.outDir
	if dir == "" {
		dir = filepath.Dir(path)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	for _, format := range formats {
		data, err := report.EncodeIndex(groups, format)
		if err != nil {
			return err
		}
		out := filepath.Join(dir, base+"_index"+format.Extension())
		if err := report.WriteFileAtomic(out, data); err != nil {
			return err
		}
		logger.Debug("index written", "format", format, "path", out, "subsections", len(groups))
		_, _ = fmt.Fprintf(stdout, "%s %s\n", st.ok.Render("Index saved to"), st.path.Render(out))
	}
	return nil
}

func printGroups(w io.Writer, groups []section.Group) {
	for _, grp := range groups {
		_, _ = fmt.Fprintf(w, "Subsection: %s\n", grp.Subsection)
		for _, fn := range grp.Functions {
			end := "?"
			if fn.EndLine != nil {
				end = strconv.Itoa(*fn.EndLine)
			}
			_, _ = fmt.Fprintf(w, "  %s %s (Line %d - %s)\n", report.FunctionLabel(fn), fn.Name, fn.StartLine, end)
		}
	}
}

// indexFormats returns the formats to export; both when no flag picks one.
func indexFormats(f *indexFlags) []report.Format {
	var formats []report.Format
	if f.json {
		formats = append(formats, report.JSON)
	}
	if f.csv {
		formats = append(formats, report.CSV)
	}
	if len(formats) == 0 {
		formats = []report.Format{report.JSON, report.CSV}
	}
	return formats
}
