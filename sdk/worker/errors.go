package worker

import (
	"errors"
	"fmt"
)

var (
	// ErrWorkflowNotRegistered is returned when a workflow type is not
	// registered with the worker
	ErrWorkflowNotRegistered = errors.New("workflow not registered")

	// ErrInvalidFunction is returned when attempting to register an invalid
	// function
	ErrInvalidFunction = errors.New("invalid function: must be a function type")

	// ErrDuplicateRegistration is returned when attempting to register a
	// function that is already registered
	ErrDuplicateRegistration = errors.New("function already registered")

	// ErrWorkerShutdown is returned when the worker is shutting down
	ErrWorkerShutdown = errors.New("worker is shutting down")
)

// RegistrationError represents an error that occurred during function
// registration
type RegistrationError struct {
	FunctionName string
	Cause        error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("failed to register function %s: %v", e.FunctionName, e.Cause)
}

func (e *RegistrationError) Unwrap() error {
	return e.Cause
}

// ActivationError represents an infrastructure failure while processing an
// activation. The coordinator retries these; they are never workflow
// outcomes.
type ActivationError struct {
	RunID string
	Cause error
}

func (e *ActivationError) Error() string {
	return fmt.Sprintf("failed to process activation (run=%s): %v", e.RunID, e.Cause)
}

func (e *ActivationError) Unwrap() error {
	return e.Cause
}
