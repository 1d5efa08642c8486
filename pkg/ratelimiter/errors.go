package ratelimiter

import "errors"

// Package-level error definitions for rate limiter operations.
var (
	// ErrInvalidCost indicates that the requested cost is not positive.
	ErrInvalidCost = errors.New("invalid cost")

	// ErrInvalidLimits indicates a limit update with a non-positive capacity,
	// a negative refill rate or an unknown algorithm.
	ErrInvalidLimits = errors.New("invalid limits")

	// ErrUnknownKey indicates that no bucket exists for the presented key.
	ErrUnknownKey = errors.New("unknown api key")

	// ErrNotFound indicates that a stored record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrMalformedRecord indicates that a stored record is missing a required
	// field or a field does not parse as its declared type.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrStoreUnavailable indicates that the store backend is unavailable.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrConflict indicates that a compare-and-swap store kept losing races
	// for the same key until the attempt budget ran out.
	ErrConflict = errors.New("bucket update conflict")
)
