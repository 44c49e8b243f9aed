package services

import "errors"

var (
	// ErrInvalidState means the requested action is not permitted from
	// the record's (or account's) current state.
	ErrInvalidState = errors.New("action not permitted in current state")

	// ErrInvalidArgument covers malformed or missing request fields that
	// survive the upstream validation (unknown reject type, missing
	// bill-reject reason, unparseable date range).
	ErrInvalidArgument = errors.New("invalid argument")
)
