package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and guards return these
// (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: registration or record does not exist in store
// - ErrConflict: concurrent structural change collided
// - ErrAlreadyHeld: singleton role (secretary) already claimed
// - ErrInvalidState: record collection in wrong state for requested operation
// - ErrInsufficientBalance: ledger account cannot cover the requested debit
// - ErrUnavailable: external collaborator temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrAlreadyHeld         = errors.New("already held")
	ErrInvalidState        = errors.New("invalid state")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUnavailable         = errors.New("unavailable")
)
