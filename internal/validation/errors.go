package validation

import (
	"strings"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"
)

// Recoverable codec failures. They are matched by code, so
// errors.Is(err, ErrInvalidPitchHeight) works on an Error and on Errors.
var (
	ErrInvalidNoteDuration  = ozzo.NewError("invalid_note_duration", "note length is not a supported duration")
	ErrInvalidPitchHeight   = ozzo.NewError("invalid_pitch_height", "note height does not land on a pitch")
	ErrUnknownMeasureBucket = ozzo.NewError("unknown_measure_bucket", "note starts outside every visible measure")
)

// Property tags name the note property a failure is about.
const (
	TagDuration = "duration"
	TagPitch    = "pitch"
	TagMeasure  = "measure"
)

// Error is one located validation failure.
type Error struct {
	Rule       ozzo.Error
	Message    string
	Tag        string
	Identifier *Identifier
}

// NewError builds an Error for rule. An empty message falls back to the rule's.
func NewError(rule ozzo.Error, tag string, id *Identifier, message string) *Error {
	if message == "" {
		message = rule.Message()
	}
	return &Error{Rule: rule, Message: message, Tag: tag, Identifier: id}
}

func (e *Error) Error() string {
	return e.Identifier.String() + ": " + e.Tag + ": " + e.Message
}

// Code returns the rule code, e.g. "invalid_pitch_height".
func (e *Error) Code() string { return e.Rule.Code() }

// Is matches any ozzo error with the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(ozzo.Error); ok {
		return t.Code() == e.Rule.Code()
	}
	return false
}

// Errors is a non-empty list of failures. A nil or empty Errors is never
// returned as an error by this package.
type Errors []*Error

func (es Errors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (es Errors) Unwrap() []error {
	out := make([]error, len(es))
	for i, e := range es {
		out[i] = e
	}
	return out
}
