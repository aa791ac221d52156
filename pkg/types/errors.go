package types

import "errors"

// Entity errors.
var (
	ErrNotFound   = errors.New("entity not found")
	ErrNilEntity  = errors.New("entity must not be nil")
	ErrInvalidID  = errors.New("invalid entity ID")
	ErrInvalidRef = errors.New("ambiguous entity reference")
)

// Config validation errors.
var (
	ErrBackendEmpty        = errors.New("backend must not be empty")
	ErrBackendUnknown      = errors.New("unknown backend")
	ErrDSNEmpty            = errors.New("postgres backend requires a DSN")
	ErrModeUnknown         = errors.New("unknown persistence mode")
	ErrFlushIntervalNeg    = errors.New("flush interval must not be negative")
	ErrShutdownBudget      = errors.New("shutdown attempts and delay must not be negative")
	ErrImageDriverUnknown  = errors.New("unknown image driver")
	ErrImageBucketRequired = errors.New("s3 image driver requires a bucket")
)
