package badge

import (
	"errors"
	"fmt"
)

const (
	errorMessageBadgeNotFound         = "badge: no badge found"
	errorMessageSynthesisPrecondition = "badge: selection size outside synthesizer bounds"
	errorMessageOperationInFlight     = "badge: another lifecycle operation is in flight"
	errorMessageNoBadgeIdentifier     = "badge: no badge identifier assigned"
)

var (
	// ErrBadgeNotFound indicates a lookup found no badge. Absence is an expected
	// outcome during discovery, not a fault.
	ErrBadgeNotFound = errors.New(errorMessageBadgeNotFound)
	// ErrSynthesisPrecondition indicates the synthesizer was invoked with a
	// selection outside [MinimumSelectionSize, MaximumSelectionSize]. Callers are
	// expected to gate on the selection validator first.
	ErrSynthesisPrecondition = errors.New(errorMessageSynthesisPrecondition)
	// ErrOperationInFlight indicates a lifecycle operation was triggered while a
	// previous one had not finished.
	ErrOperationInFlight = errors.New(errorMessageOperationInFlight)
	// ErrNoBadgeIdentifier indicates an id-addressed operation was requested
	// before a badge was ever created.
	ErrNoBadgeIdentifier = errors.New(errorMessageNoBadgeIdentifier)
)

// ValidationError reports a selection that cannot be generated. It is resolved
// entirely client-side and never reaches the store.
type ValidationError struct {
	Status SelectionStatus
}

func (validationError *ValidationError) Error() string {
	switch validationError.Status.Kind {
	case SelectionEmpty:
		return "badge: selection is empty"
	case SelectionInsufficient:
		return fmt.Sprintf("badge: selection needs %d more outlet(s)", validationError.Status.Needed)
	case SelectionExcess:
		return fmt.Sprintf("badge: selection of %d exceeds the maximum of %d outlets", validationError.Status.Count, MaximumSelectionSize)
	default:
		return "badge: selection invalid"
	}
}

// StoreOperation names the store call a StoreError originated from.
type StoreOperation string

const (
	StoreOperationLoad   StoreOperation = "load"
	StoreOperationSave   StoreOperation = "save"
	StoreOperationDelete StoreOperation = "delete"
)

// StoreError wraps a backend failure on a store call. The surrounding lifecycle
// state is preserved so the caller can retry without losing the selection.
type StoreError struct {
	Operation StoreOperation
	Err       error
}

func (storeError *StoreError) Error() string {
	return fmt.Sprintf("badge store %s: %v", storeError.Operation, storeError.Err)
}

func (storeError *StoreError) Unwrap() error {
	return storeError.Err
}
