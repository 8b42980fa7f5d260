package core

import "errors"

// Error taxonomy for ingestion runs.
var (
	// ErrStructural marks an unreadable or malformed dataset: bad header,
	// missing required variables, unsupported layout. Fatal before streaming.
	ErrStructural = errors.New("structural dataset error")

	// ErrUnitMismatch marks a depth/pressure variable whose units cannot be
	// validated against the fixed physical-range rules. Treated as
	// structural at analysis time rather than silently misvalidating.
	ErrUnitMismatch = errors.New("unsupported depth units")

	// ErrSinkWrite marks a transient store failure. Retried with backoff;
	// exhausting the budget demotes the chunk to a partial failure.
	ErrSinkWrite = errors.New("sink write failed")

	// ErrResourceExceeded marks a breached record ceiling. Fatal, to protect
	// the host process.
	ErrResourceExceeded = errors.New("record ceiling exceeded")
)
