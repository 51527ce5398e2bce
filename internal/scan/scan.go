// Package scan implements the trigger-sound scan: a 100 ms sweep over
// the sample buffer, a 5-probe window group per offset, sign-pattern
// voting over the comparison records, pruning of clustered tags, and
// payload extraction from the region after each surviving trigger.
package scan

import (
	"context"

	"github.com/tunetrace/tunetrace/pkg/models"
)

// Extractor fingerprints a window of PCM samples.
type Extractor interface {
	Extract(ctx context.Context, samples []int16) (*models.Fingerprint, error)
}

// Comparer compares a window fingerprint against the trigger fingerprint.
type Comparer interface {
	Compare(ctx context.Context, a, b *models.Fingerprint) (*models.Comparison, error)
}

// Logger is the logging capability the engine needs.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

const (
	// StrideMs is the sweep stride: 10 probes per second.
	StrideMs = 100

	// DefaultDeltaMs spaces the 5 probes of a window group.
	DefaultDeltaMs = 100

	// DefaultPruneRadiusMs clusters duplicate hits from adjacent groups.
	DefaultPruneRadiusMs = 200

	groupSize = 5

	// Payload geometry, in ms: the payload region starts one trigger
	// length after the tag position and spans five seconds.
	payloadDelayMs = 1000
	payloadSpanMs  = 5000
)

// Config carries everything one scan needs. All fields are per-scan;
// the engine keeps no process-wide state.
type Config struct {
	Samples         []int16
	DataOffset      int64 // ms, absolute stream offset of Samples[0]
	Duration        int64 // seconds
	FingerprintRate int64 // Hz
	Trigger         *models.Fingerprint

	DeltaMs       int64
	PruneRadiusMs int64
	Workers       int // >1 enables parallel window collection

	Debug    bool
	DebugDir string

	Extractor Extractor
	Comparer  Comparer
	Log       Logger
}
