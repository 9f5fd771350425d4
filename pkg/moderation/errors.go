package moderation

import "errors"

var (
	// ErrTrialConflict is returned when a trial record changed between read and write.
	ErrTrialConflict = errors.New("moderation: trial record was modified concurrently")
	// ErrCaseNotFound is returned by case lookups that match nothing.
	ErrCaseNotFound = errors.New("moderation: case not found")
	// ErrStoreUnavailable is returned when the backing store cannot be reached.
	ErrStoreUnavailable = errors.New("moderation: store unavailable")
	// ErrInvalidAction is returned when recording an unknown action kind.
	ErrInvalidAction = errors.New("moderation: invalid action kind")
)
