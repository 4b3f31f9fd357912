package harness

import (
	"github.com/roach88/seasign/internal/ast"
	"github.com/roach88/seasign/internal/store"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	Pass bool `json:"pass"`

	// Listing is the rendered signed tree. Empty when signing failed.
	Listing string `json:"listing,omitempty"`

	// Run is the stored sign run. Zero when signing failed.
	Run store.Run `json:"-"`

	// Records are the signatures read back from the store.
	Records []store.Record `json:"-"`

	// Diagnostic is the error the run stopped at, if any.
	Diagnostic *DiagnosticResult `json:"diagnostic,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// DiagnosticResult is the located error a failing run produced.
type DiagnosticResult struct {
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Location ast.Location `json:"location"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Records: []store.Record{},
		Errors:  []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
