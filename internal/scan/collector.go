package scan

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/tunetrace/tunetrace/internal/audio"
	"github.com/tunetrace/tunetrace/pkg/models"
)

// Group is the ordered set of (fingerprint, comparison) pairs collected
// around one scan offset. A group is complete when it holds exactly 5
// pairs; incomplete groups are skipped by the voter.
type Group struct {
	FRs  []*models.Fingerprint
	FCRs []*models.Comparison
}

// Complete reports whether all 5 probes produced a pair.
func (g *Group) Complete() bool {
	return g != nil && len(g.FCRs) == groupSize
}

type collector struct {
	samples []int16
	rate    int64
	trigger *models.Fingerprint
	delta   int64

	debug    bool
	debugDir string

	extractor Extractor
	comparer  Comparer
	log       Logger
}

// collect probes 5 offsets elapse, elapse+delta, ..., elapse+4*delta.
// Each probe extracts a one-second window at the probe offset,
// fingerprints it and compares it against the trigger fingerprint. A
// probe whose window runs past the buffer is silently dropped; a probe
// whose extraction or comparison fails is dropped, and logged in debug
// mode. Either way the group comes back incomplete.
func (c *collector) collect(ctx context.Context, elapse int64) (*Group, error) {
	group := &Group{
		FRs:  make([]*models.Fingerprint, 0, groupSize),
		FCRs: make([]*models.Comparison, 0, groupSize),
	}
	for i := int64(0); i < groupSize; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		offset := elapse + i*c.delta
		window := audio.Window(c.samples, offset, c.rate)
		if window == nil {
			return group, nil
		}

		fr, err := c.extractor.Extract(ctx, window)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// An unusable scratch directory fails the whole scan; a tool
			// failure only costs this offset.
			if errors.Is(err, models.ErrScratchIO) {
				return nil, err
			}
			if c.debug {
				c.log.Warnf("probe at %dms: %v", offset, err)
			}
			return group, nil
		}

		fcr, err := c.comparer.Compare(ctx, fr, c.trigger)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, models.ErrScratchIO) {
				return nil, err
			}
			if c.debug {
				c.log.Warnf("probe at %dms: %v", offset, err)
			}
			return group, nil
		}
		fcr.Offset = offset

		if c.debug {
			name := fmt.Sprintf("window-%06d.wav", offset)
			if err := audio.WriteWAV(filepath.Join(c.debugDir, name), window, int(c.rate)); err != nil {
				c.log.Warnf("debug dump at %dms: %v", offset, err)
			}
		}

		group.FRs = append(group.FRs, fr)
		group.FCRs = append(group.FCRs, fcr)
	}
	return group, nil
}
