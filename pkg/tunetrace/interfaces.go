package tunetrace

import (
	"context"

	"github.com/tunetrace/tunetrace/pkg/models"
)

// Service locates trigger sounds in PCM audio buffers.
type Service interface {
	Scan(ctx context.Context, req *ScanRequest) (*models.ScanResult, error)
	Close() error
}

// Extractor is the fingerprinting capability: a window of samples in, an
// opaque descriptor out. The default implementation shells out to the
// external fingerprint tool; tests substitute deterministic fakes.
type Extractor interface {
	Extract(ctx context.Context, samples []int16) (*models.Fingerprint, error)
}

// Comparer compares a window fingerprint against the trigger fingerprint.
type Comparer interface {
	Compare(ctx context.Context, a, b *models.Fingerprint) (*models.Comparison, error)
}

// Storage persists scan results. Optional: the engine runs without it.
type Storage interface {
	SaveScan(rec *models.ScanRecord) error
	GetScan(id string) (*models.ScanRecord, error)
	ListScans() ([]models.ScanRecord, error)
	DeleteScan(id string) error
	Close() error
}

// Logger is the logging capability threaded through the engine.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}
