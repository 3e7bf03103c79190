package model

import "errors"

var (
	// ErrNotFound is returned when a statement, line, transaction, match or
	// reconciliation does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned for malformed settings or missing
	// required fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAlreadyMatched is returned when a manual match would reuse a bank
	// line or transaction that already holds an active match.
	ErrAlreadyMatched = errors.New("already matched")

	// ErrInconsistentState signals a broken partition (an item matched twice
	// or neither matched nor reported). It indicates a bug.
	ErrInconsistentState = errors.New("inconsistent reconciliation state")
)
