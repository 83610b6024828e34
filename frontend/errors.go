package frontend

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for backend contract integrity violations. These cover
// the cases where the backend claimed success but broke its output
// contract, as opposed to a *BackendError the backend reported itself.
// Use errors.Is for typed assertions.
var (
	// ErrMetadataIsRoot reports a metadata directory equal to the project root.
	ErrMetadataIsRoot = errors.New("project root and metadata directory are the same")

	// ErrWheelMissing reports a wheel the backend declared but never wrote.
	ErrWheelMissing = errors.New("missing wheel file returned by backend")

	// ErrNoDistInfo reports a built wheel without a .dist-info entry.
	ErrNoDistInfo = errors.New("no .dist-info found inside generated wheel")
)

// Backend exit code defaults per PROTOCOL.md.
const (
	// codeUnknown is recorded when the backend omitted the code field.
	codeUnknown = -2
	// codeMissingResponse is synthesized when the result file never appeared.
	codeMissingResponse = 1
)

// BackendError is a structured failure reported by (or synthesized for)
// the build backend. It carries the full captured diagnostic streams so
// callers can present them verbatim.
type BackendError struct {
	// Code is the exit code of the command. Nil when the backend reported
	// null; codeUnknown (-2) when the backend omitted the field.
	Code *int
	// ExcType is the reported exception type name.
	ExcType string
	// ExcMsg is the reported exception message.
	ExcMsg string
	// Out is the standard output captured while running the command.
	Out string
	// Err is the standard error captured while running the command.
	Err string
}

// newBackendError builds a BackendError from a decoded failure response,
// applying the documented defaults for absent fields.
func newBackendError(result map[string]any, out, err string) *BackendError {
	be := &BackendError{
		ExcType: "missing Exception type",
		ExcMsg:  "missing Exception message",
		Out:     out,
		Err:     err,
	}

	if raw, ok := result["code"]; ok {
		// JSON numbers decode as float64; null stays nil.
		if f, isNum := raw.(float64); isNum {
			code := int(f)
			be.Code = &code
		}
	} else {
		code := codeUnknown
		be.Code = &code
	}
	if s, ok := result["exc_type"].(string); ok {
		be.ExcType = s
	}
	if s, ok := result["exc_msg"].(string); ok {
		be.ExcMsg = s
	}
	return be
}

func (e *BackendError) Error() string {
	var code string
	if e.Code != nil {
		code = fmt.Sprintf(" (code=%d)", *e.Code)
	}
	msg := fmt.Sprintf("packaging backend failed%s, with %s: %s\n%s%s",
		code, e.ExcType, e.ExcMsg, e.Err, e.Out)
	return strings.TrimRight(msg, " \t\r\n")
}
