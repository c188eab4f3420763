package app

import (
	"errors"
	"fmt"

	"homework_status_bot/internal/domain/homework"
	"homework_status_bot/internal/infra/practicum"
)

// ErrDelivery marks a notification that could not be handed to the messenger.
var ErrDelivery = fmt.Errorf("notification delivery failed")

// ErrorClass groups cycle failures by how the poll loop reacts to them.
type ErrorClass string

const (
	ClassNone      ErrorClass = ""
	ClassTransient ErrorClass = "transient" // transport, unexpected status, malformed body
	ClassData      ErrorClass = "data"      // invalid payload or unknown verdict
	ClassDelivery  ErrorClass = "delivery"  // messenger failure
	ClassUnknown   ErrorClass = "unknown"
)

// Classify maps a cycle error onto its ErrorClass.
// None of the classes stop the loop; they only differ in how they are reported.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassNone
	}
	var (
		fetchErr      *practicum.FetchError
		validationErr *homework.ValidationError
		extractErr    *homework.ExtractError
	)
	switch {
	case errors.As(err, &fetchErr):
		return ClassTransient
	case errors.As(err, &validationErr), errors.As(err, &extractErr):
		return ClassData
	case errors.Is(err, ErrDelivery):
		return ClassDelivery
	default:
		return ClassUnknown
	}
}
