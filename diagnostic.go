package hls

import (
	"fmt"
	"sort"
)

type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	}
	return "?"
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", s.String())), nil
}

func (s *Severity) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case `"error"`:
		*s = SeverityError
	case `"warning"`:
		*s = SeverityWarning
	default:
		return fmt.Errorf("bad severity: %s", string(b))
	}
	return nil
}

// Code is a stable machine-readable diagnostic identifier. Codes never
// change once published; tooling keys off them.
type Code string

const (
	CodeLexError          Code = "LexError"
	CodeParseError        Code = "ParseError"
	CodeUnknownType       Code = "UnknownType"
	CodeUnknownField      Code = "UnknownField"
	CodeUnknownEdgeType   Code = "UnknownEdgeType"
	CodeDuplicateSchema   Code = "DuplicateSchema"
	CodeTypeMismatch      Code = "TypeMismatch"
	CodeUnknownIdentifier Code = "UnknownIdentifier"
	CodeUnusedParameter   Code = "UnusedParameter"
)

type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     Code     `json:"code"`
	Message  string   `json:"message"`
	Span     Span     `json:"span"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s [%s]", d.Span, d.Severity, d.Message, d.Code)
}

func errorDiag(span Span, code Code, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Severity: SeverityError,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
	}
}

func warningDiag(span Span, code Code, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
	}
}

// SortDiagnostics orders diagnostics by file, then position, then code.
// The sort is stable so repeated analysis of identical input produces an
// identical list.
func SortDiagnostics(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Span.Filename != b.Span.Filename {
			return a.Span.Filename < b.Span.Filename
		}
		if a.Span.Start.Offset != b.Span.Start.Offset {
			return a.Span.Start.Offset < b.Span.Start.Offset
		}
		return a.Code < b.Code
	})
}

// HasErrors reports whether any diagnostic in the list is an error.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
