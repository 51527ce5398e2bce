package scan

import (
	"context"

	"github.com/tunetrace/tunetrace/internal/audio"
	"github.com/tunetrace/tunetrace/internal/fingerprint"
	"github.com/tunetrace/tunetrace/pkg/models"
)

// attachPayload fingerprints the 5-second region starting 1 second after
// the tag position and stores it as the tag description. It reports
// false when the region does not fit inside the buffer or extraction
// fails; such tags are dropped.
func (d *Driver) attachPayload(ctx context.Context, tag *models.Tag) bool {
	cfg := &d.cfg
	maxDuration := 1000 * cfg.Duration

	tagOffset := tag.DataPosition + payloadDelayMs
	endOffset := tagOffset + payloadSpanMs
	if endOffset >= cfg.DataOffset+maxDuration {
		return false
	}
	tagOffset -= cfg.DataOffset
	endOffset -= cfg.DataOffset

	iStart := audio.MsToSamples(tagOffset, cfg.FingerprintRate)
	iEnd := audio.MsToSamples(endOffset, cfg.FingerprintRate)
	size := iEnd - iStart
	if size >= int64(len(cfg.Samples)) {
		return false
	}
	region := audio.Slice(cfg.Samples, iStart, size)
	if region == nil {
		return false
	}

	fr, err := cfg.Extractor.Extract(ctx, region)
	if err != nil {
		if ctx.Err() == nil {
			cfg.Log.Warnf("payload for tag at %dms: %v", tag.DataPosition, err)
		}
		return false
	}
	tag.Description = fingerprint.ToPayloadString(fr.Data)
	return true
}
