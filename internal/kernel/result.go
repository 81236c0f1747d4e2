package kernel

// ToolError is the typed error shape carried in ToolResult.Error, matching
// the error-code taxonomy.
type ToolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

func (e *ToolError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Error code constants, the taxonomy seen in ToolResult.error.code.
const (
	ErrPatternNotFound     = "PATTERN_NOT_FOUND"
	ErrAmbiguous           = "AMBIGUOUS"
	ErrDestructiveRejected = "DESTRUCTIVE_REJECTED"
	ErrForbidden           = "FORBIDDEN"
	ErrTimeout             = "TIMEOUT"
	ErrDenied              = "DENIED"
	ErrMissingEndTask      = "MISSING_END_TASK"
	ErrNotFound            = "NOT_FOUND"
	ErrIO                  = "IO"
	ErrUnknown             = "UNKNOWN"
)

// ToolResult is the dual-track result every executor produces: forLlm is
// what the model sees (falls back to Output when unset), forUser is what
// the human sees (suppressed entirely when Silent).
type ToolResult struct {
	OK       bool           `json:"ok"`
	Output   string         `json:"output,omitempty"`
	ForLLM   string         `json:"forLlm,omitempty"`
	ForUser  string         `json:"forUser,omitempty"`
	Silent   bool           `json:"silent,omitempty"`
	Error    *ToolError     `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// LLMText returns the text the model should see.
func (r ToolResult) LLMText() string {
	if r.ForLLM != "" {
		return r.ForLLM
	}
	return r.Output
}

// UserText returns the text the human should see, or "" if Silent.
func (r ToolResult) UserText() string {
	if r.Silent {
		return ""
	}
	if r.ForUser != "" {
		return r.ForUser
	}
	return r.Output
}

// OKResult builds a successful result carrying the same text on both tracks.
func OKResult(output string) ToolResult {
	return ToolResult{OK: true, Output: output}
}

// SilentResult builds a successful result hidden from the user.
func SilentResult(forLLM string) ToolResult {
	return ToolResult{OK: true, ForLLM: forLLM, Silent: true}
}

// ErrResult builds a failed result from a code/message/hint triple.
func ErrResult(code, message, hint string) ToolResult {
	return ToolResult{OK: false, Error: &ToolError{Code: code, Message: message, Hint: hint}}
}

// FromError wraps a generic Go error as an UNKNOWN tool error.
func FromError(err error) ToolResult {
	if te, ok := err.(*ToolError); ok {
		return ToolResult{OK: false, Error: te}
	}
	return ErrResult(ErrUnknown, err.Error(), "")
}
