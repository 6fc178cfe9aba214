// Package report turns one Python source file into a position-tagged list
// of declaration records and writes it out in a chosen format.
package report

import (
	"errors"

	"github.com/phobologic/pyscope/internal/model"
	"github.com/phobologic/pyscope/internal/parse"
	"github.com/phobologic/pyscope/internal/position"
	"github.com/phobologic/pyscope/internal/section"
)

// Options configures a report run.
type Options struct {
	Parse       parse.Options
	Thresholds  position.Thresholds
	Subsections bool
	Format      Format
}

// DefaultOptions returns JSON output with the default thresholds.
func DefaultOptions() Options {
	return Options{
		Thresholds: position.DefaultThresholds(),
		Format:     JSON,
	}
}

// Report is the result of one extraction. Records are ordered functions,
// classes, imports, statements, then subsections when enabled.
type Report struct {
	Path       string
	TotalLines int
	Records    []model.Record
}

// Counts returns the number of records per kind.
func (r *Report) Counts() map[model.Kind]int {
	counts := make(map[model.Kind]int)
	for _, rec := range r.Records {
		counts[rec.Kind]++
	}
	return counts
}

// Build extracts and position-tags records from source. It does no I/O.
func Build(source []byte, opts Options) (*Report, error) {
	s, err := parse.Extract(source, opts.Parse)
	if err != nil {
		return nil, err
	}

	records := s.Records()
	if opts.Subsections {
		records = append(records, section.Extract(source)...)
	}

	return &Report{
		TotalLines: s.TotalLines,
		Records:    opts.Thresholds.Tag(records, s.TotalLines),
	}, nil
}

// Generate reads inputPath, builds its report and writes it atomically to
// outputPath. Nothing is written when reading or parsing fails.
func Generate(inputPath, outputPath string, opts Options) (*Report, error) {
	source, err := ReadSource(inputPath)
	if err != nil {
		return nil, err
	}

	rep, err := Build(source, opts)
	if err != nil {
		var pe *parse.ParseError
		if errors.As(err, &pe) {
			pe.File = inputPath
		}
		return nil, err
	}
	rep.Path = inputPath

	data, err := Encode(rep, opts.Format)
	if err != nil {
		return nil, err
	}
	if err := WriteFileAtomic(outputPath, data); err != nil {
		return nil, err
	}
	return rep, nil
}
