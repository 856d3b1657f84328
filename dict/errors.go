package dict

import "errors"

var (
	// ErrKeyExists is returned by Add when the key is already present.
	ErrKeyExists = errors.New("dict: key already exists")

	// ErrKeyNotFound is returned by Delete/Unlink/Find-adjacent calls that
	// require an existing key.
	ErrKeyNotFound = errors.New("dict: key not found")

	// ErrAlreadyRehashing is returned by Expand/Resize while a rehash is
	// already in progress; only one resize may be in flight at a time.
	ErrAlreadyRehashing = errors.New("dict: resize already in progress")

	// ErrSizeTooSmall is returned by Expand when the requested size would
	// be unable to hold the entries already present.
	ErrSizeTooSmall = errors.New("dict: requested size smaller than used count")

	// ErrSameSize is returned when Expand/Resize computes a target size
	// equal to the current table size; a no-op the caller can ignore.
	ErrSameSize = errors.New("dict: target size unchanged")

	// ErrResizeDisabled is returned by Resize when the dictionary was
	// constructed with ResizeEnabled false.
	ErrResizeDisabled = errors.New("dict: resize disabled by configuration")

	// ErrFingerprintMismatch is returned by an unsafe Iterator's Release
	// when the dictionary was mutated during iteration. Per the package's
	// contract this indicates a programming error in the caller; robust
	// callers should treat it as fatal (see Iterator.MustRelease).
	ErrFingerprintMismatch = errors.New("dict: unsafe iterator fingerprint mismatch")
)
