// Package toon implements TOON (Token-Oriented Object Notation) encoding
// for flat documents: scalar fields followed by uniform tables.
package toon

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Field is a top-level "key: value" line.
type Field struct {
	Key   string
	Value string
}

// Table is a named list of rows sharing one column header.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// Document is the unit Encode serializes: fields first, then tables.
type Document struct {
	Fields []Field
	Tables []Table
}

// Encode converts a Document into TOON text without a trailing newline.
func Encode(doc Document) string {
	var parts []string
	for _, f := range doc.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Key, encodeValue(f.Value)))
	}
	for _, t := range doc.Tables {
		parts = append(parts, formatTabular(t.Name, t.Columns, t.Rows))
	}
	return strings.Join(parts, "\n")
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
