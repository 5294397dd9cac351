package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/baystatedata/covidetl/internal/etl"
)

// StepStatus is the outcome of one pipeline step.
type StepStatus string

// Step outcomes reported in the run summary.
const (
	StepSucceeded StepStatus = "succeeded"
	StepSkipped   StepStatus = "skipped"
	StepFailed    StepStatus = "failed"
)

// StepResult records how one named step of the run went.
type StepResult struct {
	Name   string     `json:"name"`
	Status StepStatus `json:"status"`
	Detail string     `json:"detail,omitempty"`
}

// RunSummary is the end-of-run report, published to Pub/Sub and logged.
type RunSummary struct {
	RunID     string              `json:"run_id"`
	StartedAt time.Time           `json:"started_at"`
	Duration  time.Duration       `json:"duration"`
	Steps     []StepResult        `json:"steps"`
	Uploads   []etl.UploadOutcome `json:"uploads"`
	CSVPaths  []string            `json:"csv_paths"`
}

func (s *RunSummary) addStep(name string, status StepStatus, detail string) {
	s.Steps = append(s.Steps, StepResult{Name: name, Status: status, Detail: detail})
}

// Failed reports whether any step failed or any upload ended unsuccessfully.
func (s *RunSummary) Failed() bool {
	for _, step := range s.Steps {
		if step.Status == StepFailed {
			return true
		}
	}
	for _, u := range s.Uploads {
		if u.Status != etl.UploadSucceeded {
			return true
		}
	}
	return false
}

// String renders a human-readable report for logs and operators.
func (s *RunSummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s started %s took %s\n",
		s.RunID, s.StartedAt.Format(time.RFC3339), s.Duration.Round(time.Millisecond))
	for _, step := range s.Steps {
		fmt.Fprintf(&b, "  step %-18s %s", step.Name, step.Status)
		if step.Detail != "" {
			fmt.Fprintf(&b, " (%s)", step.Detail)
		}
		b.WriteByte('\n')
	}
	for _, u := range s.Uploads {
		fmt.Fprintf(&b, "  upload %-28s %s after %d attempt(s)", u.Relation, u.Status, u.Attempts)
		if u.Err != "" {
			fmt.Fprintf(&b, ": %s", u.Err)
		}
		b.WriteByte('\n')
	}
	for _, p := range s.CSVPaths {
		fmt.Fprintf(&b, "  csv %s\n", p)
	}
	return b.String()
}
