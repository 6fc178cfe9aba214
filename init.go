package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/pyscope/internal/config"
	"github.com/phobologic/pyscope/internal/report"
)

const (
	sentinelStart = "<!-- pyscope:start -->"
	sentinelEnd   = "<!-- pyscope:end -->"
)

type initFlags struct {
	dryRun      bool
	writeConfig bool
	force       bool
}

func newInitCmd(stdout, stderr io.Writer) *cobra.Command {
	f := &initFlags{}
	cmd := &cobra.Command{
		Use:   "init [path-to-CLAUDE.md]",
		Short: "Write a pyscope usage section to CLAUDE.md, or a default config file",
		Long: `Write a pyscope usage section to a CLAUDE.md file. The section is wrapped in
sentinel comments so later runs replace it in place without touching the
surrounding content. The file is created if it does not exist.

With --write-config, write ` + config.FileName + ` holding the default settings
instead. An existing config file is only replaced with --force.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.writeConfig {
				return runInitConfig(f, args, stdout, stderr)
			}
			return runInitSection(f, args, stdout, stderr)
		},
	}
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "print what would be written without modifying the file")
	cmd.Flags().BoolVar(&f.writeConfig, "write-config", false, "write "+config.FileName+" with the default settings")
	cmd.Flags().BoolVar(&f.force, "force", false, "overwrite an existing config file")
	return cmd
}

func runInitSection(f *initFlags, args []string, stdout, stderr io.Writer) error {
	section := generateSection()

	if f.dryRun && len(args) == 0 {
		_, _ = fmt.Fprintln(stdout, section)
		return nil
	}

	path := "CLAUDE.md"
	if len(args) > 0 {
		path = args[0]
	}

	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &report.FileError{Op: "read", Path: path, Err: err}
	}
	updated := applySection(string(existing), section)

	if f.dryRun {
		_, _ = fmt.Fprint(stdout, updated)
		return nil
	}

	if err := report.WriteFileAtomic(path, []byte(updated)); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stderr, "wrote pyscope section to %s\n", path)
	return nil
}

func runInitConfig(f *initFlags, args []string, stdout, stderr io.Writer) error {
	data, err := defaultConfigYAML()
	if err != nil {
		return err
	}
	if f.dryRun {
		_, _ = stdout.Write(data)
		return nil
	}

	path := config.FileName
	if len(args) > 0 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil && !f.force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := report.WriteFileAtomic(path, data); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stderr, "wrote default configuration to %s\n", path)
	return nil
}

// defaultConfigYAML renders the built-in defaults as a commented config file.
func defaultConfigYAML() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# pyscope configuration. Flags and PYSCOPE_* environment variables override these values.\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(config.Default()); err != nil {
		return nil, fmt.Errorf("encoding default config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding default config: %w", err)
	}
	return buf.Bytes(), nil
}

// generateSection returns the sentinel-wrapped pyscope usage block.
func generateSection() string {
	body := `## pyscope: Python File Outline

Run ` + "`pyscope`" + ` via the Bash tool before reading a long Python file. It writes
every function, class, import and statement with its line span and a coarse
position (beginning, body or end), so you can jump straight to the lines you need.

**Availability:** Check with ` + "`pyscope --version`" + ` first; skip gracefully if
not found.

**Run it:**
` + "```" + `bash
pyscope app.py -o /tmp/app.json                 # JSON report
pyscope app.py -o /tmp/app.toon --format toon   # compact table
pyscope app.py -o /tmp/app.json --top-level     # module-level names only
pyscope index app.py --json                     # functions grouped by "# Chapter:" comments
` + "```" + `

**All flags:** ` + "`pyscope --help`" + `

**How to use the output:**

1. **Read by line range.** Use ` + "`start_line`" + ` and ` + "`end_line`" + ` to read only the
   function or class you need instead of the whole file.

2. **Follow ` + "`dependencies`" + ` before searching.** A function lists the plain-name
   calls it makes; look those names up in the same report first.

3. **Fall back to Grep for attribute calls** (` + "`obj.method()`" + `), which are not
   listed as dependencies.`

	return sentinelStart + "\n" + body + "\n" + sentinelEnd
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if content == "" {
		return section + "\n"
	}
	return content + "\n" + section + "\n"
}
