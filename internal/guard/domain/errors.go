package domain

import "errors"

// Error taxonomy for the access-control engine. None of these are fatal:
// every one of them degrades to a defined verdict rather than a thrown error.
var (
	// ErrConfigUnavailable signals a failed rule refresh; the previous
	// snapshot remains in effect.
	ErrConfigUnavailable = errors.New("rule configuration unavailable")

	// ErrInvalidLocation signals coordinates outside |lat|<=90, |lon|<=180;
	// prayer pausing is disabled while it holds.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrMalformedURL signals a URL whose host cannot be parsed.
	ErrMalformedURL = errors.New("malformed url")

	// ErrAuditWriteFailed signals a dropped or failed audit append.
	ErrAuditWriteFailed = errors.New("audit write failed")
)
