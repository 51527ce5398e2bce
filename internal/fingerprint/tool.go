// Package fingerprint wraps the external fingerprint binary. The tool
// consumes raw little-endian signed 16-bit PCM files and prints JSON on
// stdout: in extract mode a descriptor plus per-frame scores, in compare
// mode the similarity record for two descriptors. The descriptor
// algorithm itself lives entirely in the tool.
package fingerprint

import (
	"context"
	"encoding/base64"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/tunetrace/tunetrace/internal/audio"
	"github.com/tunetrace/tunetrace/pkg/models"
)

// DefaultToolName is looked up on PATH when no explicit tool path is
// configured.
const DefaultToolName = "tunetrace-fp"

// Logger is the logging capability the tool wrapper needs.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

// Tool invokes the external fingerprint binary. One Tool serves a single
// scan: it owns the scan's scratch directory and the RNG that
// disambiguates scratch file names across concurrent probes.
type Tool struct {
	path string
	dir  string
	log  Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewTool returns a Tool writing scratch files under dir. The seed is
// the scan's wall-clock seed; it only feeds scratch file naming.
func NewTool(toolPath, dir string, seed int64, log Logger) *Tool {
	if toolPath == "" {
		toolPath = DefaultToolName
	}
	return &Tool{
		path: toolPath,
		dir:  dir,
		log:  log,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

func (t *Tool) scratchName(stem, ext string) string {
	t.mu.Lock()
	n := t.rng.Uint32()
	t.mu.Unlock()
	return filepath.Join(t.dir, fmt.Sprintf("%s-%08x.%s", stem, n, ext))
}

// Extract fingerprints one window of samples.
func (t *Tool) Extract(ctx context.Context, samples []int16) (*models.Fingerprint, error) {
	path := t.scratchName("probe", "raw")
	if err := audio.WritePCM16File(path, samples); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrScratchIO, err)
	}
	defer os.Remove(path)

	t.log.Debugf("extract: %s (%d samples)", path, len(samples))
	cmd := exec.CommandContext(ctx, t.path, "-i", path, "-n", strconv.Itoa(len(samples)))
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", models.ErrExtraction, err)
	}
	return parseFingerprint(out)
}

// Compare runs the tool in compare mode over two descriptors.
func (t *Tool) Compare(ctx context.Context, a, b *models.Fingerprint) (*models.Comparison, error) {
	pathA := t.scratchName("cmp-a", "fp")
	if err := os.WriteFile(pathA, a.Data, 0o644); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrScratchIO, err)
	}
	defer os.Remove(pathA)

	pathB := t.scratchName("cmp-b", "fp")
	if err := os.WriteFile(pathB, b.Data, 0o644); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrScratchIO, err)
	}
	defer os.Remove(pathB)

	cmd := exec.CommandContext(ctx, t.path, "-m",
		pathA, strconv.FormatInt(a.Size, 10),
		pathB, strconv.FormatInt(b.Size, 10))
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", models.ErrComparison, err)
	}
	return parseComparison(out)
}

func parseFingerprint(out []byte) (*models.Fingerprint, error) {
	res := gjson.ParseBytes(out)
	dataField := res.Get("data")
	if !dataField.Exists() {
		return nil, fmt.Errorf("%w: tool output missing data field", models.ErrExtraction)
	}
	data, err := base64.StdEncoding.DecodeString(dataField.String())
	if err != nil {
		return nil, fmt.Errorf("%w: decoding descriptor: %v", models.ErrExtraction, err)
	}

	size := res.Get("size").Int()
	if size == 0 {
		size = int64(len(data))
	}
	if size != int64(len(data)) {
		return nil, fmt.Errorf("%w: descriptor length %d does not match size %d",
			models.ErrExtraction, len(data), size)
	}

	var scores []float64
	for _, v := range res.Get("frameScores").Array() {
		scores = append(scores, v.Float())
	}

	return &models.Fingerprint{Data: data, Size: size, FrameScores: scores}, nil
}

func parseComparison(out []byte) (*models.Comparison, error) {
	res := gjson.ParseBytes(out)
	if !res.Get("frameStartTime").Exists() {
		return nil, fmt.Errorf("%w: tool output missing frameStartTime", models.ErrComparison)
	}
	return &models.Comparison{
		Score:                    res.Get("score").Float(),
		Similarity:               res.Get("similarity").Float(),
		FrameStartTime:           res.Get("frameStartTime").Float(),
		MostSimilarFramePosition: res.Get("mostSimilarFramePosition").Int(),
	}, nil
}
