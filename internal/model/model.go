// Package model defines core data structures for pyscope.
package model

// Kind indicates the syntactic kind of a declaration record.
type Kind string

const (
	Function   Kind = "function"
	Class      Kind = "class"
	Import     Kind = "import"
	Statement  Kind = "statement"
	Subsection Kind = "subsection"
)

// Position is a coarse label for where a record starts within its file.
type Position string

const (
	Beginning Position = "beginning"
	Body      Position = "body"
	End       Position = "end"
)

// Record is one reported construct with its line span. Lines are 1-based.
// EndLine is nil when the construct carries no end line (imports,
// statements, the last subsection).
type Record struct {
	Kind      Kind
	Name      string
	StartLine int
	EndLine   *int

	// Async is set for functions declared with "async def".
	Async bool

	// Methods lists method names defined directly in a class body.
	Methods []string

	// Dependencies lists simple-name calls made inside a function body.
	Dependencies []string

	Position Position
}

// Structure is the bucketed output of a single extraction pass.
type Structure struct {
	Functions  []Record
	Classes    []Record
	Imports    []Record
	Statements []Record

	// TotalLines is the line count of the parsed text.
	TotalLines int
}

// Records returns the four buckets concatenated in report order.
func (s *Structure) Records() []Record {
	out := make([]Record, 0, len(s.Functions)+len(s.Classes)+len(s.Imports)+len(s.Statements))
	out = append(out, s.Functions...)
	out = append(out, s.Classes...)
	out = append(out, s.Imports...)
	out = append(out, s.Statements...)
	return out
}

// Line returns a pointer to n, for populating Record.EndLine.
func Line(n int) *int {
	return &n
}
