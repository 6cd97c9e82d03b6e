package main

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an item is not found in the store.
var ErrNotFound = errors.New("item not found")

// ErrForbidden is returned when the caller does not own the item it tries to mutate.
var ErrForbidden = errors.New("caller is not the item owner")

// ErrInvalidInput is returned when the input payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// ErrStorageIntegrity marks a failure of the durable layer: corrupt bytes, an
// unreachable backend or a counter that cannot advance. Callers never recover
// from it within the current operation.
var ErrStorageIntegrity = errors.New("storage integrity failure")

// ErrCorruptRecord is returned when persisted bytes do not decode to an Item.
var ErrCorruptRecord = errors.New("corrupt item record")

// ItemError reports a recoverable failure of an operation on a single item.
type ItemError struct {
	Op  string
	ID  uint64
	Err error
}

func (e *ItemError) Error() string {
	switch {
	case errors.Is(e.Err, ErrNotFound):
		return fmt.Sprintf("item %d not found", e.ID)
	case errors.Is(e.Err, ErrForbidden):
		return fmt.Sprintf("only the owner can %s item %d", e.Op, e.ID)
	default:
		return fmt.Sprintf("%s item %d: %v", e.Op, e.ID, e.Err)
	}
}

func (e *ItemError) Unwrap() error { return e.Err }

// Code is a machine-readable error code rendered in HTTP error bodies.
type Code string

const (
	CodeNotFound     Code = "NOT_FOUND"
	CodeForbidden    Code = "FORBIDDEN"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeInternal     Code = "INTERNAL"
)

// errorCode classifies err for the transport layer.
func errorCode(err error) Code {
	switch {
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	default:
		return CodeInternal
	}
}

// integrityError wraps a store failure so it always matches ErrStorageIntegrity.
func integrityError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorageIntegrity, err)
}
