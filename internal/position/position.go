// Package position labels records by where they start within a file.
package position

import (
	"fmt"

	"github.com/phobologic/pyscope/internal/model"
)

// Thresholds are fractions of the file length. A record starting before
// Body*L is at the beginning, before End*L in the body, otherwise at the end.
type Thresholds struct {
	Body float64 `mapstructure:"body" yaml:"body"`
	End  float64 `mapstructure:"end" yaml:"end"`
}

// DefaultThresholds returns the 30% / 70% split.
func DefaultThresholds() Thresholds {
	return Thresholds{Body: 0.3, End: 0.7}
}

// Validate checks that 0 <= Body <= End <= 1.
func (t Thresholds) Validate() error {
	if t.Body < 0 || t.Body > 1 {
		return fmt.Errorf("body threshold %v outside [0, 1]", t.Body)
	}
	if t.End < 0 || t.End > 1 {
		return fmt.Errorf("end threshold %v outside [0, 1]", t.End)
	}
	if t.Body > t.End {
		return fmt.Errorf("body threshold %v exceeds end threshold %v", t.Body, t.End)
	}
	return nil
}

// Of returns the position of a record starting at startLine in a file of
// totalLines lines.
func (t Thresholds) Of(startLine, totalLines int) model.Position {
	start := float64(startLine)
	total := float64(totalLines)
	switch {
	case start < total*t.Body:
		return model.Beginning
	case start < total*t.End:
		return model.Body
	default:
		return model.End
	}
}

// Tag returns a copy of records with Position set on every record.
func (t Thresholds) Tag(records []model.Record, totalLines int) []model.Record {
	out := make([]model.Record, len(records))
	for i, r := range records {
		r.Position = t.Of(r.StartLine, totalLines)
		out[i] = r
	}
	return out
}
