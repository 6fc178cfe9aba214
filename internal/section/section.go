// Package section finds comment-marked subsections in a source file and
// groups function records under them.
package section

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"

	"github.com/phobologic/pyscope/internal/model"
)

// markerRe matches comments such as "# Chapter: Parsing" or "# Section 2".
var markerRe = regexp.MustCompile(`^#\s*(Ch|Chapt|Chapter|Section|Subsection)[:\s]+(.+)`)

// Extract returns one subsection record per marker comment. Each subsection
// ends on the line before the next one starts; the last has no end line.
func Extract(source []byte) []model.Record {
	var subsections []model.Record

	sc := bufio.NewScanner(bytes.NewReader(source))
	sc.Buffer(make([]byte, 0, 64*1024), len(source)+1)
	lineno := 0
	for sc.Scan() {
		lineno++
		m := markerRe.FindStringSubmatch(strings.TrimSpace(sc.Text()))
		if m == nil {
			continue
		}
		subsections = append(subsections, model.Record{
			Kind:      model.Subsection,
			Name:      m[2],
			StartLine: lineno,
		})
	}

	for i := 0; i+1 < len(subsections); i++ {
		subsections[i].EndLine = model.Line(subsections[i+1].StartLine - 1)
	}
	return subsections
}

// Group is one subsection with the functions that start inside it.
type Group struct {
	Subsection string
	Functions  []model.Record
}

// Contains reports whether line falls within the subsection's span.
func Contains(sub model.Record, line int) bool {
	if line < sub.StartLine {
		return false
	}
	return sub.EndLine == nil || line <= *sub.EndLine
}

// GroupFunctions assigns functions to every subsection whose range holds
// their start line. Functions before the first marker are not grouped.
func GroupFunctions(functions, subsections []model.Record) []Group {
	groups := make([]Group, 0, len(subsections))
	for _, sub := range subsections {
		g := Group{Subsection: sub.Name, Functions: []model.Record{}}
		for _, fn := range functions {
			if Contains(sub, fn.StartLine) {
				g.Functions = append(g.Functions, fn)
			}
		}
		groups = append(groups, g)
	}
	return groups
}
