// Package tunetrace locates occurrences of a known trigger sound inside
// a PCM audio buffer and annotates each occurrence with a payload
// fingerprint of the region that follows it.
package tunetrace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/tunetrace/tunetrace/internal/fingerprint"
	"github.com/tunetrace/tunetrace/internal/scan"
	"github.com/tunetrace/tunetrace/pkg/logger"
	"github.com/tunetrace/tunetrace/pkg/models"
)

type triggerService struct {
	config *Config
	log    Logger
}

// NewService builds a Service from functional options.
func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}
	return &triggerService{config: cfg, log: cfg.Logger}, nil
}

// Scan runs one sweep over the request's sample buffer and returns the
// surviving tags. Invalid input and an unusable scratch directory abort
// the scan; per-offset tool failures are skipped (and logged in debug
// mode).
func (s *triggerService) Scan(ctx context.Context, req *ScanRequest) (*models.ScanResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	fileName := deriveFileName(req.SourceURL)
	scanID := uuid.NewString()
	scanDir := filepath.Join(s.config.RootDir, scanID)
	if err := os.MkdirAll(scanDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrScratchIO, err)
	}
	if !s.config.Debug {
		defer os.RemoveAll(scanDir)
	}

	debugDir := ""
	if s.config.Debug {
		debugDir = filepath.Join(scanDir, "debug")
		if err := os.MkdirAll(debugDir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrScratchIO, err)
		}
	}

	s.log.Infof("scan %s: source=%s offset=%dms duration=%ds rate=%dHz fprate=%dHz size=%d",
		scanID, fileName, req.DataOffset, req.Duration, req.SampleRate, req.FingerprintRate, req.Size)

	// The seed only disambiguates scratch file names.
	seed := time.Now().UnixMilli()

	extractor := s.config.Extractor
	comparer := s.config.Comparer
	if extractor == nil || comparer == nil {
		tool := fingerprint.NewTool(s.config.ToolPath, scanDir, seed, s.log)
		if extractor == nil {
			extractor = tool
		}
		if comparer == nil {
			comparer = tool
		}
	}

	driver := scan.New(scan.Config{
		Samples:         req.Samples,
		DataOffset:      req.DataOffset,
		Duration:        req.Duration,
		FingerprintRate: req.FingerprintRate,
		Trigger:         &models.Fingerprint{Data: req.TriggerFingerprint, Size: req.TriggerSize},
		DeltaMs:         s.config.DeltaMs,
		PruneRadiusMs:   s.config.PruneRadiusMs,
		Workers:         s.config.Workers,
		Debug:           s.config.Debug,
		DebugDir:        debugDir,
		Extractor:       extractor,
		Comparer:        comparer,
		Log:             s.log,
	})

	result, err := driver.Run(ctx)
	if err != nil {
		return nil, err
	}
	s.log.Infof("scan %s: %d tags", scanID, result.TagCounts)

	if s.config.Storage != nil {
		rec := &models.ScanRecord{
			ID:              scanID,
			Source:          fileName,
			DataOffset:      req.DataOffset,
			SampleRate:      req.SampleRate,
			FingerprintRate: req.FingerprintRate,
			Duration:        req.Duration,
			Tags:            result.LiveTags,
		}
		if err := s.config.Storage.SaveScan(rec); err != nil {
			s.log.Warnf("scan %s: persisting result: %v", scanID, err)
		}
	}
	return result, nil
}

func (s *triggerService) Close() error {
	if s.config.Storage != nil {
		return s.config.Storage.Close()
	}
	return nil
}
