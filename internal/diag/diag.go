// Package diag defines the located-error contract shared by the front-end
// phases and its rendering.
package diag

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/seasign/internal/ast"
)

// Diagnostic is a user-facing error tied to a source location.
type Diagnostic interface {
	error
	// Code is a stable identifier such as "E201".
	Code() string
	// Message is the one-line description, without location.
	Message() string
	// Help is optional contextual guidance; empty when there is none.
	Help() string
	Location() ast.Location
}

// As extracts a Diagnostic from err.
func As(err error) (Diagnostic, bool) {
	var d Diagnostic
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

// Format renders a diagnostic as
//
//	file:line:col: error[E201]: message
//
//	Help: ...
func Format(d Diagnostic) string {
	var sb strings.Builder
	if loc := d.Location(); loc.File != "" || loc.IsValid() {
		sb.WriteString(loc.String())
		sb.WriteString(": ")
	}
	fmt.Fprintf(&sb, "error[%s]: %s", d.Code(), d.Message())
	if help := d.Help(); help != "" {
		sb.WriteString("\n\n")
		sb.WriteString(help)
	}
	return sb.String()
}

// Write renders d to w followed by a newline.
func Write(w io.Writer, d Diagnostic) error {
	_, err := fmt.Fprintln(w, Format(d))
	return err
}
