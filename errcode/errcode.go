package errcode

// Code is a stable HAL status identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
// Operations return nil for success; every non-nil error maps to exactly one
// Code via Of.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK           Code = "ok"
	Busy         Code = "busy"
	Timeout      Code = "timeout"
	InvalidParam Code = "invalid_param"

	// NotSupported marks a capability absent on the current platform.
	// It is distinct from InvalidParam, which signals caller error.
	NotSupported Code = "not_supported"

	Error Code = "error" // hardware/protocol fault, generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}

// Wrap annotates err with an operation name, preserving its Code.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &E{C: Of(err), Op: op, Err: err}
}
