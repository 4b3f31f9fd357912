package loader

import (
	"errors"
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/seasign/internal/ast"
)

// Load error codes (E001-E099).
const (
	ErrCodeGeneric         = "E001" // Generic/unknown error
	ErrCodeScanError       = "E002" // Directory scan error
	ErrCodeNoFiles         = "E003" // No manifest files found
	ErrCodeLoadFailed      = "E004" // CUE load or YAML parse failed
	ErrCodeNotFound        = "E005" // Path not found
	ErrCodeBuildFailed     = "E006" // CUE build or decode failed
	ErrCodeInvalidManifest = "E008" // Manifest shape is wrong
	ErrCodeInvalidSyntax   = "E009" // Annotation does not parse
	ErrCodeUnknownBuiltin  = "E010" // Export names no known builtin
	ErrCodeDuplicateName   = "E011" // Name defined twice in one module
	ErrCodeDuplicateModule = "E012" // Module declared in two files
)

// LoadError is a located failure to turn manifests into a namespace tree.
// It implements diag.Diagnostic.
type LoadError struct {
	Kind   string
	Detail string
	Loc    ast.Location
}

func (e *LoadError) Code() string           { return e.Kind }
func (e *LoadError) Message() string        { return e.Detail }
func (e *LoadError) Location() ast.Location { return e.Loc }

func (e *LoadError) Help() string {
	switch e.Kind {
	case ErrCodeNoFiles:
		return "Help: a namespace directory holds *.cue, *.yaml or *.yml manifests with a top-level `modules` field."
	case ErrCodeInvalidSyntax:
		return "Help: annotations are written as Python expressions, e.g. `Pubkey`, `List[u8]` or `state.Acc`."
	default:
		return ""
	}
}

func (e *LoadError) Error() string {
	if e.Loc.File != "" || e.Loc.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Loc, e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// IsCode reports whether err is a LoadError with the given code.
func IsCode(err error, code string) bool {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Kind == code
	}
	return false
}

func errorf(code string, loc ast.Location, format string, args ...any) *LoadError {
	return &LoadError{Kind: code, Detail: fmt.Sprintf(format, args...), Loc: loc}
}

// posLocation converts a CUE position.
func posLocation(pos token.Pos) ast.Location {
	if !pos.IsValid() {
		return ast.Location{}
	}
	return ast.Location{File: pos.Filename(), Line: pos.Line(), Col: pos.Column()}
}

// cueErrorPos returns the first position attached to a CUE error.
func cueErrorPos(err error) token.Pos {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return token.NoPos
	}
	if positions := cueerrors.Positions(errs[0]); len(positions) > 0 {
		return positions[0]
	}
	return token.NoPos
}
