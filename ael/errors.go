package ael

import "errors"

// Sentinel errors returned by reactor operations. Wrapped with
// fmt.Errorf("...: %w", ...) at call sites so errors.Is still matches.
var (
	// ErrFDOutOfRange is returned when a registration or wait targets an fd
	// at or beyond the loop's configured setsize.
	ErrFDOutOfRange = errors.New("ael: fd exceeds setsize")

	// ErrTimerNotFound is returned by DeleteTimer for an unknown or already
	// deleted id.
	ErrTimerNotFound = errors.New("ael: timer not found")

	// ErrBackendClosed is returned by operations attempted after Close.
	ErrBackendClosed = errors.New("ael: backend closed")
)
