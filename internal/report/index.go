package report

import (
	"fmt"
	"strconv"

	"github.com/phobologic/pyscope/internal/model"
	"github.com/phobologic/pyscope/internal/section"
)

type indexFunction struct {
	Type      string `json:"type"`
	Name      string `json:"name"`
	StartLine int    `json:"start_line"`
	EndLine   *int   `json:"end_line"`
}

type indexGroup struct {
	Subsection string          `json:"subsection"`
	Functions  []indexFunction `json:"functions"`
}

// FunctionLabel is the keyword a function was declared with.
func FunctionLabel(r model.Record) string {
	if r.Async {
		return "async def"
	}
	return "def"
}

// EncodeIndex serializes subsection groups as JSON or CSV.
func EncodeIndex(groups []section.Group, format Format) ([]byte, error) {
	switch format {
	case JSON:
		out := make([]indexGroup, 0, len(groups))
		for _, g := range groups {
			ig := indexGroup{Subsection: g.Subsection, Functions: []indexFunction{}}
			for _, fn := range g.Functions {
				ig.Functions = append(ig.Functions, indexFunction{
					Type:      FunctionLabel(fn),
					Name:      fn.Name,
					StartLine: fn.StartLine,
					EndLine:   fn.EndLine,
				})
			}
			out = append(out, ig)
		}
		return encodeJSON(out)
	case CSV:
		var rows [][]string
		for _, g := range groups {
			for _, fn := range g.Functions {
				end := ""
				if fn.EndLine != nil {
					end = strconv.Itoa(*fn.EndLine)
				}
				rows = append(rows, []string{g.Subsection, FunctionLabel(fn), fn.Name, strconv.Itoa(fn.StartLine), end})
			}
		}
		return encodeCSV([]string{"Subsection", "Type", "Name", "Start Line", "End Line"}, rows)
	default:
		return nil, fmt.Errorf("index export supports json and csv, not %q", format)
	}
}
