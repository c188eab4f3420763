// internal/domain/homework/errors.go
package homework

import "fmt"

// ValidationReason tells which structural rule a status payload broke.
type ValidationReason string

const (
	ReasonNotAnObject ValidationReason = "NOT_AN_OBJECT"
	ReasonMissingKey  ValidationReason = "MISSING_KEY"
	ReasonWrongType   ValidationReason = "WRONG_TYPE"
)

// ValidationError is returned by Validate when the payload does not match the API contract.
type ValidationError struct {
	Reason ValidationReason
	Field  string // empty for ReasonNotAnObject
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonNotAnObject:
		return "API response is not a JSON object"
	case ReasonMissingKey:
		return fmt.Sprintf("API response has no key %q", e.Field)
	case ReasonWrongType:
		return fmt.Sprintf("API response field %q has unexpected type", e.Field)
	default:
		return fmt.Sprintf("API response is invalid: %s", e.Reason)
	}
}

// ExtractKind distinguishes incomplete homework records from unrecognized statuses.
type ExtractKind string

const (
	ExtractMissingField   ExtractKind = "MISSING_FIELD"
	ExtractUnknownVerdict ExtractKind = "UNKNOWN_VERDICT"
)

// ExtractError is returned by Extract when the most recent homework record cannot be used.
type ExtractError struct {
	Kind      ExtractKind
	Field     string // set for ExtractMissingField; empty if the record is not an object
	RawStatus string // set for ExtractUnknownVerdict
}

func (e *ExtractError) Error() string {
	switch e.Kind {
	case ExtractMissingField:
		if e.Field == "" {
			return "homework record is not a JSON object"
		}
		return fmt.Sprintf("homework record has no valid %q field", e.Field)
	case ExtractUnknownVerdict:
		return fmt.Sprintf("unexpected homework status %q in API response", e.RawStatus)
	default:
		return fmt.Sprintf("homework record is invalid: %s", e.Kind)
	}
}
