package entity

// DiagnosticKind names a non-fatal data-quality event
type DiagnosticKind string

const (
	DiagnosticMalformedTimestamp DiagnosticKind = "malformed_timestamp"
	DiagnosticUnresolvedLeg      DiagnosticKind = "unresolved_leg"
	DiagnosticUnkeyableRecord    DiagnosticKind = "unkeyable_record"
)

// Diagnostic describes a data-quality problem that was absorbed rather than
// returned to the caller.
type Diagnostic struct {
	Kind   DiagnosticKind
	Field  string
	Value  string
	Flight string
	Err    error
}
