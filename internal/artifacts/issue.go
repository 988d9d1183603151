package artifacts

import (
	"encoding/json"
	"fmt"
)

// Severity classifies how serious a validation Issue is. Only fatal
// conditions are handled outside this package — everything here
// accumulates into an issue list and is reported, never rolled back.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// MarshalJSON renders a Severity as its name ("warning"/"error") rather
// than its underlying int, so validation_report.json reads naturally
// without a side table.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Issue is one structured validation finding raised by the Validator.
type Issue struct {
	Severity Severity `json:"severity"`
	Category string   `json:"category"` // "completeness", "row_invariant", "covariance_invariant", "specific_risk_invariant"
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s: %s", i.Severity, i.Category, i.Message)
}

// IssueList accumulates Issues from a validation pass.
type IssueList []Issue

// HasErrors reports whether any accumulated issue is SeverityError.
func (l IssueList) HasErrors() bool {
	for _, i := range l {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Status summarizes a publish as "clean", "with warnings", or "aborted".
// Aborted is never returned here — it is reserved for the fatal path that
// this package never reaches, since a fatal condition prevents a publish
// from starting at all.
func (l IssueList) Status() string {
	if len(l) == 0 {
		return "clean"
	}
	return "with warnings"
}

// ValidationReport is the persisted outcome of one C8 validation pass,
// grounded on original_source/step5_validate.py's own validation-report
// step: the distilled spec requires validation to run but leaves whether
// it is persisted open, so a run's findings are written to
// validation_report.json rather than only surfaced through the returned
// Report.
type ValidationReport struct {
	RunMode string    `json:"run_mode"` // "full_build" or "incremental_append"
	Status  string    `json:"status"`
	Issues  IssueList `json:"issues"`
}
