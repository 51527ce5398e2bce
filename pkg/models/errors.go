package models

import "errors"

// Error kinds surfaced by a scan. InvalidInput and ScratchIO abort the
// scan with no partial result; extraction and comparison failures are
// localized to the offset that produced them.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrExtraction   = errors.New("fingerprint extraction failed")
	ErrComparison   = errors.New("fingerprint comparison failed")
	ErrScratchIO    = errors.New("scratch directory unavailable")
)
