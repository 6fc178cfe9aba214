package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/phobologic/pyscope/internal/model"
	"github.com/phobologic/pyscope/internal/toon"
)

// Format names an output encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	CSV  Format = "csv"
	TOON Format = "toon"
)

// Formats lists every supported format.
var Formats = []Format{JSON, YAML, CSV, TOON}

// ParseFormat parses a format name (case-insensitive).
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case JSON:
		return JSON, nil
	case YAML, "yml":
		return YAML, nil
	case CSV:
		return CSV, nil
	case TOON:
		return TOON, nil
	default:
		return "", fmt.Errorf("invalid format: %q (expected json, yaml, csv, or toon)", s)
	}
}

// Extension returns the file extension, with dot, used for the format.
func (f Format) Extension() string {
	return "." + string(f)
}

// Columns is the header shared by the tabular formats.
var Columns = []string{"type", "name", "start_line", "end_line", "position", "detail"}

// wireRecord fixes the serialized field set: end_line for functions and
// classes, dependencies for functions and methods for classes are always
// present when they apply, even if empty.
type wireRecord struct {
	Type         model.Kind     `json:"type" yaml:"type"`
	Name         string         `json:"name" yaml:"name"`
	StartLine    int            `json:"start_line" yaml:"start_line"`
	EndLine      *int           `json:"end_line,omitempty" yaml:"end_line,omitempty"`
	Async        bool           `json:"async,omitempty" yaml:"async,omitempty"`
	Methods      *[]string      `json:"methods,omitempty" yaml:"methods,omitempty"`
	Dependencies *[]string      `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Position     model.Position `json:"position,omitempty" yaml:"position,omitempty"`
}

func toWire(r model.Record) wireRecord {
	w := wireRecord{
		Type:      r.Kind,
		Name:      r.Name,
		StartLine: r.StartLine,
		EndLine:   r.EndLine,
		Async:     r.Async,
		Position:  r.Position,
	}
	switch r.Kind {
	case model.Function:
		deps := nonNil(r.Dependencies)
		w.Dependencies = &deps
	case model.Class:
		methods := nonNil(r.Methods)
		w.Methods = &methods
	}
	return w
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func wireRecords(records []model.Record) []wireRecord {
	out := make([]wireRecord, 0, len(records))
	for _, r := range records {
		out = append(out, toWire(r))
	}
	return out
}

// Encode serializes the report's records in the given format.
func Encode(rep *Report, format Format) ([]byte, error) {
	switch format {
	case JSON, "":
		return encodeJSON(wireRecords(rep.Records))
	case YAML:
		return encodeYAML(wireRecords(rep.Records))
	case CSV:
		return encodeCSV(Columns, Rows(rep.Records))
	case TOON:
		return encodeTOON(rep), nil
	default:
		return nil, fmt.Errorf("invalid format: %q", format)
	}
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding json: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("encoding csv: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("encoding csv: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeTOON(rep *Report) []byte {
	doc := toon.Document{
		Fields: []toon.Field{
			{Key: "file", Value: rep.Path},
			{Key: "lines", Value: strconv.Itoa(rep.TotalLines)},
		},
		Tables: []toon.Table{{
			Name:    "records",
			Columns: Columns,
			Rows:    Rows(rep.Records),
		}},
	}
	return []byte(toon.Encode(doc) + "\n")
}

// Rows flattens records into Columns order. Detail holds dependencies for
// functions and methods for classes, space separated.
func Rows(records []model.Record) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		end := ""
		if r.EndLine != nil {
			end = strconv.Itoa(*r.EndLine)
		}
		var detail []string
		switch r.Kind {
		case model.Function:
			detail = r.Dependencies
		case model.Class:
			detail = r.Methods
		}
		kind := string(r.Kind)
		if r.Async {
			kind = "async " + kind
		}
		rows = append(rows, []string{
			kind,
			r.Name,
			strconv.Itoa(r.StartLine),
			end,
			string(r.Position),
			strings.Join(detail, " "),
		})
	}
	return rows
}
