package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/pyscope/internal/model"
	"github.com/phobologic/pyscope/internal/parse"
)

func writeTestFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func createSampleProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTestFile(t, dir, "models.py", `class User:
    def __init__(self, name: str) -> None:
        self.name = name
`)
	writeTestFile(t, dir, "app/main.py", `from models import User

def greet(user: User) -> str:
    return format_name(user.name)
`)
	writeTestFile(t, dir, "tests/test_models.py", `def test_user():
    assert User("a").name == "a"
`)
	return dir
}

const sampleSource = `import os

def main():
    run(os.getcwd())
`

type wireRecord struct {
	Type         string   `json:"type"`
	Name         string   `json:"name"`
	StartLine    int      `json:"start_line"`
	EndLine      *int     `json:"end_line"`
	Dependencies []string `json:"dependencies"`
	Position     string   `json:"position"`
}

func readReport(t *testing.T, path string) []wireRecord {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var records []wireRecord
	require.NoError(t, json.Unmarshal(data, &records))
	return records
}

func TestRunSingleFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	in := writeTestFile(t, dir, "sample.py", sampleSource)
	out := filepath.Join(dir, "sample.json")

	var stdout, stderr bytes.Buffer
	err := run([]string{in, "--output", out}, strings.NewReader(""), &stdout, &stderr)
	require.NoError(t, err, "stderr: %s", stderr.String())

	records := readReport(t, out)
	require.Len(t, records, 3)
	assert.Equal(t, "function", records[0].Type)
	assert.Equal(t, "main", records[0].Name)
	assert.Equal(t, []string{"run"}, records[0].Dependencies)
	assert.Equal(t, "import", records[1].Type)
	assert.Equal(t, "import os", records[1].Name)
	assert.Equal(t, "beginning", records[1].Position)
	assert.Equal(t, "statement", records[2].Type)

	assert.Contains(t, stdout.String(), "Preprocessed code saved to")
	assert.Contains(t, stdout.String(), "(1 function, 1 import, 1 statement)")
}

func TestRunScopeSubcommand(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	in := writeTestFile(t, dir, "sample.py", sampleSource)
	out := filepath.Join(dir, "sample.toon")

	var stdout, stderr bytes.Buffer
	err := run([]string{"scope", "--file", in, "-o", out, "--format", "toon"}, strings.NewReader(""), &stdout, &stderr)
	require.NoError(t, err, "stderr: %s", stderr.String())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "records[3]")
	assert.Contains(t, string(data), "main")
}

func TestRunPromptsForPaths(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	in := writeTestFile(t, dir, "sample.py", sampleSource)
	out := filepath.Join(dir, "out.json")

	// The blank answer is asked again.
	stdin := strings.NewReader(in + "\n\n" + out + "\n")
	var stdout, stderr bytes.Buffer
	err := run(nil, stdin, &stdout, &stderr)
	require.NoError(t, err, "stderr: %s", stderr.String())

	assert.Contains(t, stdout.String(), inputQuestion)
	assert.Equal(t, 2, strings.Count(stdout.String(), outputQuestion))
	assert.FileExists(t, out)
}

func TestRunPromptEndOfInput(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	err := run(nil, strings.NewReader(""), &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading input path")
}

func TestRunParseErrorWritesNothing(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	in := writeTestFile(t, dir, "broken.py", "def broken(:\n    pass\n")
	out := filepath.Join(dir, "broken.json")

	var stdout, stderr bytes.Buffer
	err := run([]string{in, "-o", out}, strings.NewReader(""), &stdout, &stderr)
	require.Error(t, err)

	var pe *parse.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, in, pe.File)
	assert.NoFileExists(t, out)
}

func TestRunMissingInput(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	var stdout, stderr bytes.Buffer
	err := run([]string{filepath.Join(dir, "nope.py"), "-o", filepath.Join(dir, "out.json")}, strings.NewReader(""), &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.py")
}

func TestRunInvalidFlags(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	in := writeTestFile(t, dir, "sample.py", sampleSource)
	out := filepath.Join(dir, "out.json")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"format", []string{"--format", "xml"}, "invalid format"},
		{"thresholds", []string{"--body-threshold", "0.8", "--end-threshold", "0.5"}, "exceeds"},
		{"log level", []string{"--log-level", "loud"}, "unknown log level"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var stdout, stderr bytes.Buffer
			args := append([]string{in, "-o", out}, tt.args...)
			err := run(args, strings.NewReader(""), &stdout, &stderr)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.NoFileExists(t, out)
		})
	}
}

func TestRunTopLevelAndThresholds(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	in := writeTestFile(t, dir, "sample.py", `def outer():
    def inner():
        pass
    return inner
`)
	out := filepath.Join(dir, "out.json")

	var stdout, stderr bytes.Buffer
	err := run([]string{in, "-o", out, "--top-level", "--body-threshold", "0", "--end-threshold", "0"}, strings.NewReader(""), &stdout, &stderr)
	require.NoError(t, err, "stderr: %s", stderr.String())

	records := readReport(t, out)
	require.Len(t, records, 1)
	assert.Equal(t, "outer", records[0].Name)
	assert.Equal(t, "end", records[0].Position)
}

func TestRunConfigFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	in := writeTestFile(t, dir, "sample.py", sampleSource)
	cfg := writeTestFile(t, dir, "custom.yaml", "format: csv\n")
	out := filepath.Join(dir, "out.csv")

	var stdout, stderr bytes.Buffer
	err := run([]string{"--config", cfg, in, "-o", out}, strings.NewReader(""), &stdout, &stderr)
	require.NoError(t, err, "stderr: %s", stderr.String())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "type,name,start_line,end_line,position,detail\n"))
}

func TestRunSubsections(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	in := writeTestFile(t, dir, "book.py", `# Chapter: Setup
def setup():
    pass
`)
	out := filepath.Join(dir, "out.json")

	var stdout, stderr bytes.Buffer
	err := run([]string{in, "-o", out, "--subsections"}, strings.NewReader(""), &stdout, &stderr)
	require.NoError(t, err, "stderr: %s", stderr.String())

	records := readReport(t, out)
	require.Len(t, records, 2)
	assert.Equal(t, string(model.Subsection), records[1].Type)
	assert.Equal(t, "Setup", records[1].Name)
}

func TestRunDirectory(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)
	outDir := filepath.Join(t.TempDir(), "reports")

	var stdout, stderr bytes.Buffer
	err := run([]string{dir, "-o", outDir, "--skip-tests"}, strings.NewReader(""), &stdout, &stderr)
	require.NoError(t, err, "stderr: %s", stderr.String())

	assert.FileExists(t, filepath.Join(outDir, "models.py.json"))
	assert.FileExists(t, filepath.Join(outDir, "app", "main.py.json"))
	assert.NoFileExists(t, filepath.Join(outDir, "tests", "test_models.py.json"))
	assert.Contains(t, stdout.String(), "Indexed 2 of 2 files")

	records := readReport(t, filepath.Join(outDir, "app", "main.py.json"))
	require.NotEmpty(t, records)
	assert.Equal(t, "greet", records[0].Name)
	assert.Equal(t, []string{"format_name"}, records[0].Dependencies)
}

func TestRunDirectoryReportsFailures(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)
	writeTestFile(t, dir, "broken.py", "def broken(:\n")
	outDir := t.TempDir()

	var stdout, stderr bytes.Buffer
	err := run([]string{dir, "-o", outDir, "--exclude", "tests/**"}, strings.NewReader(""), &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 files failed")
	assert.Contains(t, stderr.String(), "broken.py")
	assert.FileExists(t, filepath.Join(outDir, "models.py.json"))
	assert.NoFileExists(t, filepath.Join(outDir, "broken.py.json"))
	assert.Contains(t, stdout.String(), "1 files failed")
	assert.NotContains(t, stdout.String(), "--log-level")
}

func TestRunDirectoryKeepsStubReportsApart(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "mod.py", "def run():\n    pass\n")
	writeTestFile(t, dir, "mod.pyi", "def run() -> None: ...\nclass Stub: ...\n")
	outDir := t.TempDir()

	var stdout, stderr bytes.Buffer
	err := run([]string{dir, "-o", outDir}, strings.NewReader(""), &stdout, &stderr)
	require.NoError(t, err, "stderr: %s", stderr.String())
	assert.Contains(t, stdout.String(), "Indexed 2 of 2 files")

	impl := readReport(t, filepath.Join(outDir, "mod.py.json"))
	stub := readReport(t, filepath.Join(outDir, "mod.pyi.json"))
	assert.Equal(t, []string{"run"}, reportNames(impl))
	assert.Contains(t, reportNames(stub), "Stub")
}

func reportNames(records []wireRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}

func TestRootHelpExamplesUseInitFlags(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"--help"}, strings.NewReader(""), &stdout, &stderr))
	assert.Contains(t, stdout.String(), "pyscope init --write-config")
	assert.NotContains(t, stdout.String(), "init --config")
}

func TestRunVersion(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"--version"}, strings.NewReader(""), &stdout, &stderr))
	assert.Contains(t, stdout.String(), "pyscope")
	assert.Contains(t, stdout.String(), version)
}

func TestRunIndex(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	in := writeTestFile(t, dir, "book.py", `# Chapter: Basics
def hello():
    pass

async def fetch():
    pass

# Section: Advanced
def deep():
    pass
`)

	var stdout, stderr bytes.Buffer
	err := run([]string{"index", in}, strings.NewReader(""), &stdout, &stderr)
	require.NoError(t, err, "stderr: %s", stderr.String())

	out := stdout.String()
	assert.Contains(t, out, "Subsection: Basics\n  def hello (Line 2 - 3)\n  async def fetch (Line 5 - 6)\n")
	assert.Contains(t, out, "Subsection: Advanced\n  def deep (Line 9 - 10)\n")

	data, err := os.ReadFile(filepath.Join(dir, "book_index.json"))
	require.NoError(t, err)
	var groups []struct {
		Subsection string `json:"subsection"`
		Functions  []struct {
			Type string `json:"type"`
			Name string `json:"name"`
		} `json:"functions"`
	}
	require.NoError(t, json.Unmarshal(data, &groups))
	require.Len(t, groups, 2)
	assert.Equal(t, "Basics", groups[0].Subsection)
	require.Len(t, groups[0].Functions, 2)
	assert.Equal(t, "async def", groups[0].Functions[1].Type)

	csvData, err := os.ReadFile(filepath.Join(dir, "book_index.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(csvData), "Subsection,Type,Name,Start Line,End Line\n"))
	assert.Contains(t, string(csvData), "Advanced,def,deep,9,10\n")
}

func TestRunIndexSingleFormat(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	in := writeTestFile(t, dir, "book.py", "# Ch: One\ndef a():\n    pass\n")
	outDir := t.TempDir()

	var stdout, stderr bytes.Buffer
	err := run([]string{"index", in, "--csv", "--out-dir", outDir}, strings.NewReader(""), &stdout, &stderr)
	require.NoError(t, err, "stderr: %s", stderr.String())

	assert.FileExists(t, filepath.Join(outDir, "book_index.csv"))
	assert.NoFileExists(t, filepath.Join(outDir, "book_index.json"))
	assert.NoFileExists(t, filepath.Join(dir, "book_index.csv"))
}

func TestRunIndexNoSubsections(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	in := writeTestFile(t, dir, "plain.py", "def a():\n    pass\n")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"index", in}, strings.NewReader(""), &stdout, &stderr))
	assert.Contains(t, stdout.String(), "No subsections found in")
	assert.NoFileExists(t, filepath.Join(dir, "plain_index.json"))
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "(no records)", summarize(nil))
	assert.Equal(t, "(2 functions, 1 class)", summarize(map[model.Kind]int{
		model.Function: 2,
		model.Class:    1,
	}))
}

func TestNewLogger(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	var buf bytes.Buffer
	logger, err := newLogger("debug", &buf)
	require.NoError(t, err)
	assert.True(t, logger.Enabled(ctx, slog.LevelDebug))

	logger, err = newLogger("error", &buf)
	require.NoError(t, err)
	assert.False(t, logger.Enabled(ctx, slog.LevelWarn))

	_, err = newLogger("verbose", &buf)
	assert.Error(t, err)
}
