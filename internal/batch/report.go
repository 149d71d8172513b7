package batch

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/KromDaniel/redoscan/internal/analyzer"
)

// Report is the outcome of one batch run.
type Report struct {
	RunID     string        `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Syntax    string        `json:"syntax"`
	Prune     bool          `json:"prune"`
	Results   []*Outcome    `json:"results"`
	Summary   Summary       `json:"summary"`
}

// Summary counts the outcomes of a report.
type Summary struct {
	Total      int `json:"total"`
	Safe       int `json:"safe"`
	Vulnerable int `json:"vulnerable"`
	Failed     int `json:"failed"`
	Timeouts   int `json:"timeouts"`
	Cached     int `json:"cached"`
}

func newReport(cfg analyzer.Config, n int) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Syntax:    cfg.Syntax,
		Prune:     cfg.Prune,
		Results:   make([]*Outcome, n),
	}
}

func (r *Report) finish() {
	r.Duration = time.Since(r.StartedAt)
	s := Summary{Total: len(r.Results)}
	for _, o := range r.Results {
		switch {
		case o.Failed():
			s.Failed++
			if o.ErrorClass == analyzer.ClassTimeout {
				s.Timeouts++
			}
		case o.Vulnerable():
			s.Vulnerable++
		default:
			s.Safe++
		}
		if o.Cached {
			s.Cached++
		}
	}
	r.Summary = s
}

// HasFindings reports whether any pattern was vulnerable or failed.
func (r *Report) HasFindings() bool {
	return r.Summary.Vulnerable > 0 || r.Summary.Failed > 0
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteText writes one line per pattern followed by the summary.
func (r *Report) WriteText(w io.Writer) error {
	for _, o := range r.Results {
		var err error
		switch {
		case o.Failed():
			_, err = fmt.Fprintf(w, "%-10s %s\n           %s: %s\n", "error", o.Pattern, o.ErrorClass, o.Error)
		case o.Vulnerable():
			_, err = fmt.Fprintf(w, "%-10s %s\n           %s\n", o.Verdict, o.Pattern, o.Witness)
		default:
			_, err = fmt.Fprintf(w, "%-10s %s\n", o.Verdict, o.Pattern)
		}
		if err != nil {
			return err
		}
	}
	s := r.Summary
	_, err := fmt.Fprintf(w, "\n%d patterns: %d safe, %d vulnerable, %d failed (%d timeouts)\n",
		s.Total, s.Safe, s.Vulnerable, s.Failed, s.Timeouts)
	return err
}
