package services

import "errors"

// Ingestion pipeline error taxonomy. Every error aborts the remaining steps
// of that attempt and is surfaced verbatim to the caller; none are retried.
var (
	ErrInvalidFileType     = errors.New("invalid file type")
	ErrFileTooLarge        = errors.New("file too large")
	ErrMissingCredential   = errors.New("missing credential")
	ErrArchiveFailed       = errors.New("archive failed")
	ErrExtractionFailed    = errors.New("extraction failed")
	ErrExtractionMalformed = errors.New("extraction malformed")
	ErrPersistenceFailed   = errors.New("persistence failed")
)
