package tunetrace

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/tunetrace/tunetrace/pkg/logger"
	"github.com/tunetrace/tunetrace/pkg/models"
)

// allPositive mocks never find a trigger; they exist to exercise the
// service-level gates without touching the external tool.
type allPositiveExtractor struct{}

func (allPositiveExtractor) Extract(_ context.Context, samples []int16) (*models.Fingerprint, error) {
	return &models.Fingerprint{Data: []byte{1}, Size: 1}, nil
}

type allPositiveComparer struct{ n float64 }

func (c *allPositiveComparer) Compare(_ context.Context, _, _ *models.Fingerprint) (*models.Comparison, error) {
	// Strictly increasing FrameStartTime defeats the equality
	// constraints as well as producing all-positive signs.
	c.n++
	return &models.Comparison{FrameStartTime: c.n, Similarity: 0.5}, nil
}

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(
		WithRootDir(t.TempDir()),
		WithExtractor(allPositiveExtractor{}),
		WithComparer(&allPositiveComparer{}),
		WithLogger(logger.New(logger.Config{Level: logger.FATAL, Output: io.Discard})),
	)
	if err != nil {
		t.Fatalf("creating service: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

func request(durationSec int64) *ScanRequest {
	const rate = 1000
	samples := make([]int16, durationSec*rate)
	return &ScanRequest{
		SourceURL:          "https://example.com/audio/stream.wav",
		Samples:            samples,
		Size:               int64(len(samples)),
		SampleRate:         rate,
		Duration:           durationSec,
		FingerprintRate:    rate,
		TriggerFingerprint: []byte{1, 2, 3},
		TriggerSize:        3,
	}
}

func TestScanDurationGate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, duration := range []int64{5, 18, 0, 100} {
		if _, err := svc.Scan(ctx, request(duration)); !errors.Is(err, models.ErrInvalidInput) {
			t.Errorf("duration %d: got %v, want ErrInvalidInput", duration, err)
		}
	}
	for _, duration := range []int64{6, 17} {
		result, err := svc.Scan(ctx, request(duration))
		if err != nil {
			t.Errorf("duration %d: unexpected error %v", duration, err)
			continue
		}
		if result.TagCounts != 0 || len(result.LiveTags) != 0 {
			t.Errorf("duration %d: expected empty result, got %+v", duration, result)
		}
	}
}

func TestScanSizeGates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	req := request(10)
	req.Size++
	if _, err := svc.Scan(ctx, req); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("sample size mismatch: got %v, want ErrInvalidInput", err)
	}

	req = request(10)
	req.TriggerSize = 99
	if _, err := svc.Scan(ctx, req); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("fingerprint size mismatch: got %v, want ErrInvalidInput", err)
	}
}

func TestScanRejectsEmptySource(t *testing.T) {
	svc := newTestService(t)

	req := request(10)
	req.SourceURL = ""
	if _, err := svc.Scan(context.Background(), req); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("empty source url: got %v, want ErrInvalidInput", err)
	}
}

func TestScanCleansScratchDir(t *testing.T) {
	root := t.TempDir()
	svc, err := NewService(
		WithRootDir(root),
		WithExtractor(allPositiveExtractor{}),
		WithComparer(&allPositiveComparer{}),
		WithLogger(logger.New(logger.Config{Level: logger.FATAL, Output: io.Discard})),
	)
	if err != nil {
		t.Fatalf("creating service: %v", err)
	}
	defer svc.Close()

	if _, err := svc.Scan(context.Background(), request(6)); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("reading scratch root: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("scratch subdirectory not cleaned up: %v", entries)
	}
}

func TestDeriveFileName(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"", ""},
		{"https://example.com/audio/show.mp3?session=1", "show.mp3"},
		{"stream.wav", "stream.wav"},
	}
	for _, tt := range tests {
		if got := deriveFileName(tt.source); got != tt.want {
			t.Errorf("deriveFileName(%q) = %q, want %q", tt.source, got, tt.want)
		}
	}

	// No usable basename: falls back to the crc32 of the URL.
	if got := deriveFileName("https://example.com/###/"); got == "" || len(got) != 8 {
		t.Errorf("crc32 fallback = %q, want 8 hex chars", got)
	}
}
