package scan

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"hash/fnv"
	"io"
	"math/rand"
	"sync"
	"testing"

	"github.com/tunetrace/tunetrace/internal/audio"
	"github.com/tunetrace/tunetrace/pkg/logger"
	"github.com/tunetrace/tunetrace/pkg/models"
)

// windowDigest gives every distinct window a stable identity the mocks
// can key on, standing in for the external tool's descriptor.
func windowDigest(samples []int16) []byte {
	h := fnv.New64a()
	var b [2]byte
	for _, s := range samples {
		binary.LittleEndian.PutUint16(b[:], uint16(s))
		h.Write(b[:])
	}
	return h.Sum(nil)
}

type mockExtractor struct {
	mu    sync.Mutex
	calls int
	fail  map[string]bool // digest hex -> fail extraction
}

func (m *mockExtractor) Extract(_ context.Context, samples []int16) (*models.Fingerprint, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	d := windowDigest(samples)
	if m.fail[hex.EncodeToString(d)] {
		return nil, models.ErrExtraction
	}
	return &models.Fingerprint{Data: d, Size: int64(len(d))}, nil
}

func (m *mockExtractor) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockComparer maps window digests to configured FrameStartTime values.
// Unconfigured windows get a positive value derived from the digest, so
// accidental equality between them is effectively impossible.
type mockComparer struct {
	frameStart map[string]float64
	similarity map[string]float64
}

func (m *mockComparer) Compare(_ context.Context, a, _ *models.Fingerprint) (*models.Comparison, error) {
	key := hex.EncodeToString(a.Data)
	fst, ok := m.frameStart[key]
	if !ok {
		fst = 1.0 + float64(binary.BigEndian.Uint64(a.Data))/1e21
	}
	sim, ok := m.similarity[key]
	if !ok {
		sim = 0.5
	}
	return &models.Comparison{
		Score:                    sim * 100,
		Similarity:               sim,
		FrameStartTime:           fst,
		MostSimilarFramePosition: 7,
	}, nil
}

type fixture struct {
	samples []int16
	rate    int64
	ext     *mockExtractor
	cmp     *mockComparer
}

func newFixture(t *testing.T, durationSec, rate int64) *fixture {
	t.Helper()
	r := rand.New(rand.NewSource(42))
	samples := make([]int16, durationSec*rate)
	for i := range samples {
		samples[i] = int16(r.Intn(65536) - 32768)
	}
	return &fixture{
		samples: samples,
		rate:    rate,
		ext:     &mockExtractor{fail: map[string]bool{}},
		cmp:     &mockComparer{frameStart: map[string]float64{}, similarity: map[string]float64{}},
	}
}

func (f *fixture) digestAt(t *testing.T, offsetMs int64) string {
	t.Helper()
	window := audio.Window(f.samples, offsetMs, f.rate)
	if window == nil {
		t.Fatalf("window at %dms out of range", offsetMs)
	}
	return hex.EncodeToString(windowDigest(window))
}

// setSigns pins FrameStartTime values for windows at the given offsets.
func (f *fixture) setSigns(t *testing.T, signs map[int64]float64) {
	t.Helper()
	for offset, fst := range signs {
		f.cmp.frameStart[f.digestAt(t, offset)] = fst
	}
}

func (f *fixture) config(dataOffset, durationSec int64) Config {
	return Config{
		Samples:         f.samples,
		DataOffset:      dataOffset,
		Duration:        durationSec,
		FingerprintRate: f.rate,
		Trigger:         &models.Fingerprint{Data: []byte("trigger"), Size: 7},
		Extractor:       f.ext,
		Comparer:        f.cmp,
		Log:             testLogger(),
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: logger.FATAL, Output: io.Discard})
}

func assertInvariants(t *testing.T, result *models.ScanResult, dataOffset, durationSec int64) {
	t.Helper()
	if result.TagCounts != int64(len(result.LiveTags)) {
		t.Errorf("TagCounts = %d, want %d", result.TagCounts, len(result.LiveTags))
	}
	if result.TriggerCounts != int64(len(result.LiveTags)) {
		t.Errorf("TriggerCounts = %d, want %d", result.TriggerCounts, len(result.LiveTags))
	}
	durationLimit := dataOffset + 1000*(durationSec-5)
	maxDuration := 1000 * durationSec
	for i, tag := range result.LiveTags {
		if tag.DataPosition > durationLimit {
			t.Errorf("tag %d at %dms exceeds duration limit %dms", i, tag.DataPosition, durationLimit)
		}
		if tag.DataPosition+payloadDelayMs+payloadSpanMs-dataOffset > maxDuration {
			t.Errorf("tag %d at %dms: payload region exceeds buffer", i, tag.DataPosition)
		}
		if i > 0 && tag.DataPosition <= result.LiveTags[i-1].DataPosition {
			t.Errorf("tag positions not strictly ascending: %dms after %dms",
				tag.DataPosition, result.LiveTags[i-1].DataPosition)
		}
	}
}
