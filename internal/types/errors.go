package types

import "errors"

var (
	ErrMalformedDiffFragment = errors.New("malformed diff fragment")
	ErrUnresolvedImport      = errors.New("unresolved import")
	ErrCycleDetected         = errors.New("dependency cycle detected")
	ErrExtractionFailure     = errors.New("symbol extraction failed")
	ErrSourceAccess          = errors.New("source access failed")
	ErrOrderingFailure       = errors.New("ordering failed")
	ErrUnsupportedDialect    = errors.New("unsupported dialect")
	// ErrDiffUnavailable is the only failure surfaced to review callers.
	ErrDiffUnavailable = errors.New("diff unavailable")
)
