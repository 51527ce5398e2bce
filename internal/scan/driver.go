package scan

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/tunetrace/tunetrace/internal/audio"
	"github.com/tunetrace/tunetrace/pkg/models"
)

// Driver runs one scan over a sample buffer.
type Driver struct {
	cfg Config
}

// New builds a Driver, filling in engine defaults.
func New(cfg Config) *Driver {
	if cfg.DeltaMs <= 0 {
		cfg.DeltaMs = DefaultDeltaMs
	}
	if cfg.PruneRadiusMs <= 0 {
		cfg.PruneRadiusMs = DefaultPruneRadiusMs
	}
	return &Driver{cfg: cfg}
}

func newTag(dataOffset int64, fcr *models.Comparison) models.Tag {
	return models.Tag{
		DataPosition:             dataOffset + fcr.Offset,
		MostSimilarFramePosition: fcr.MostSimilarFramePosition,
		Score:                    fcr.Score,
		Similarity:               fcr.Similarity,
	}
}

// Run sweeps the buffer at 100 ms stride, votes each complete window
// group, prunes clustered candidates and attaches payloads. Candidate
// positions are monotonically non-decreasing; a candidate past the
// duration limit stops the sweep entirely so the payload region of every
// emitted tag stays inside the buffer.
func (d *Driver) Run(ctx context.Context) (*models.ScanResult, error) {
	cfg := &d.cfg
	counts := audio.Muldiv(1000, cfg.Duration, StrideMs)
	maxDuration := 1000 * cfg.Duration
	durationLimit := cfg.DataOffset + 1000*(cfg.Duration-5)

	col := &collector{
		samples:   cfg.Samples,
		rate:      cfg.FingerprintRate,
		trigger:   cfg.Trigger,
		delta:     cfg.DeltaMs,
		debug:     cfg.Debug,
		debugDir:  cfg.DebugDir,
		extractor: cfg.Extractor,
		comparer:  cfg.Comparer,
		log:       cfg.Log,
	}

	// Parallel mode collects every group up front, merged back in
	// ascending elapse order. The sequential vote loop below is
	// authoritative either way.
	var groups []*Group
	if cfg.Workers > 1 {
		var err error
		groups, err = collectAll(ctx, col, counts, cfg.Workers)
		if err != nil {
			return nil, err
		}
	}

	liveTags := make([]models.Tag, 0)
	for count, elapse := int64(0), int64(0); count < counts && elapse < maxDuration; count, elapse = count+1, elapse+StrideMs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var group *Group
		if groups != nil {
			group = groups[count]
		} else {
			var err error
			group, err = col.collect(ctx, elapse)
			if err != nil {
				return nil, err
			}
		}
		if !group.Complete() {
			continue
		}

		vote := Classify(group.FCRs)
		if vote.Pattern == NoMatch {
			continue
		}
		tag := newTag(cfg.DataOffset, group.FCRs[vote.Index])
		if cfg.Debug {
			cfg.Log.Debugf("hit [%s] at %dms frame=%d score=%.3f similarity=%.3f",
				vote.Pattern, tag.DataPosition, tag.MostSimilarFramePosition, tag.Score, tag.Similarity)
		}
		if tag.DataPosition > durationLimit {
			break
		}
		liveTags = append(liveTags, tag)
	}

	if len(liveTags) > 0 {
		pruned := Prune(liveTags, cfg.PruneRadiusMs)
		if cfg.Debug {
			cfg.Log.Debugf("pruning: before=%d after=%d", len(liveTags), len(pruned))
		}
		kept := make([]models.Tag, 0, len(pruned))
		for _, tag := range pruned {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if d.attachPayload(ctx, &tag) {
				kept = append(kept, tag)
			}
		}
		liveTags = kept
	}

	return &models.ScanResult{
		TriggerCounts: int64(len(liveTags)),
		TagCounts:     int64(len(liveTags)),
		LiveTags:      liveTags,
	}, nil
}

func collectAll(ctx context.Context, col *collector, counts int64, workers int) ([]*Group, error) {
	groups := make([]*Group, counts)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for k := int64(0); k < counts; k++ {
		k := k
		g.Go(func() error {
			group, err := col.collect(gctx, k*StrideMs)
			if err != nil {
				return err
			}
			groups[k] = group
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return groups, nil
}
