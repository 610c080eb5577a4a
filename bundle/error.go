package bundle

import "fmt"

// Error is a bundle generation specific error.
type Error struct {
	Type   ErrorType
	Title  string
	Detail string
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Type, e.Title, e.Detail)
}

type ErrorType int

const (
	// ErrorMalformedInput indicates BPMN XML that is not well-formed or
	// structurally invalid. Not retried, surfaced immediately.
	ErrorMalformedInput ErrorType = iota + 1
	// ErrorElementNotFound indicates a mutation target that does not exist.
	ErrorElementNotFound
	// ErrorTemplatesUnavailable indicates that a form template skeleton could
	// not be loaded. Degrades to the built-in templates, never aborts.
	ErrorTemplatesUnavailable
	// ErrorInvalidTemplateOutput indicates that an instantiated template is no
	// valid JSON object or still contains placeholder tokens.
	ErrorInvalidTemplateOutput
	// ErrorNoDiagram indicates a service without any main process XML.
	ErrorNoDiagram
)

func MapErrorType(s string) ErrorType {
	switch s {
	case "MALFORMED_INPUT":
		return ErrorMalformedInput
	case "ELEMENT_NOT_FOUND":
		return ErrorElementNotFound
	case "TEMPLATES_UNAVAILABLE":
		return ErrorTemplatesUnavailable
	case "INVALID_TEMPLATE_OUTPUT":
		return ErrorInvalidTemplateOutput
	case "NO_DIAGRAM":
		return ErrorNoDiagram
	default:
		return 0
	}
}

func (v ErrorType) MarshalJSON() ([]byte, error) {
	s := v.String()
	if s == "" {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%q", s)), nil
}

func (v ErrorType) String() string {
	switch v {
	case ErrorMalformedInput:
		return "MALFORMED_INPUT"
	case ErrorElementNotFound:
		return "ELEMENT_NOT_FOUND"
	case ErrorTemplatesUnavailable:
		return "TEMPLATES_UNAVAILABLE"
	case ErrorInvalidTemplateOutput:
		return "INVALID_TEMPLATE_OUTPUT"
	case ErrorNoDiagram:
		return "NO_DIAGRAM"
	default:
		return ""
	}
}

func (v *ErrorType) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) > 2 {
		s = s[1 : len(s)-1]
		*v = MapErrorType(s)
	}
	if *v == 0 {
		return fmt.Errorf("invalid error type data %s", s)
	}
	return nil
}
