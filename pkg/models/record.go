package models

import "time"

// ScanRecord is a persisted scan: the input identity plus the tags it
// produced.
type ScanRecord struct {
	ID              string
	Source          string
	DataOffset      int64
	SampleRate      int64
	FingerprintRate int64
	Duration        int64
	TagCount        int64
	Tags            []Tag
	CreatedAt       time.Time
}
