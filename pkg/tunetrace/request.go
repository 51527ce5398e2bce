package tunetrace

import (
	"fmt"
	"hash/crc32"
	"net/url"
	"path"
	"strings"

	"github.com/tunetrace/tunetrace/pkg/models"
)

// Duration bounds for a scan, in seconds. A tag keeps its payload only
// when the 5-second region starting 1 second after it ends before the end
// of the buffer; at the 6-second minimum no tag position satisfies that,
// so every candidate is dropped in the payload phase.
const (
	MinDuration = 6
	MaxDuration = 17
)

// ScanRequest is a fully materialized scan input: the PCM buffer, its
// rates and duration, and the trigger fingerprint to search for.
type ScanRequest struct {
	// SourceURL identifies where the audio came from. Only used to derive
	// a display/persistence name; nothing is fetched.
	SourceURL string

	// DataOffset is the absolute stream offset (ms) of Samples[0]; tag
	// positions in the result are absolute.
	DataOffset int64

	Samples         []int16
	Size            int64 // must equal len(Samples)
	SampleRate      int64 // Hz
	Duration        int64 // seconds, MinDuration..MaxDuration
	FingerprintRate int64 // Hz, rate fingerprint frame offsets are measured at

	TriggerFingerprint []byte
	TriggerSize        int64 // must equal len(TriggerFingerprint)
}

func (r *ScanRequest) validate() error {
	if int64(len(r.Samples)) != r.Size {
		return fmt.Errorf("%w: sample buffer length %d does not match size %d",
			models.ErrInvalidInput, len(r.Samples), r.Size)
	}
	if int64(len(r.TriggerFingerprint)) != r.TriggerSize {
		return fmt.Errorf("%w: trigger fingerprint length %d does not match size %d",
			models.ErrInvalidInput, len(r.TriggerFingerprint), r.TriggerSize)
	}
	if r.Duration < MinDuration || r.Duration > MaxDuration {
		return fmt.Errorf("%w: duration must be %d to %d seconds only",
			models.ErrInvalidInput, MinDuration, MaxDuration)
	}
	if r.DataOffset < 0 {
		return fmt.Errorf("%w: negative data offset", models.ErrInvalidInput)
	}
	if r.FingerprintRate <= 0 {
		return fmt.Errorf("%w: fingerprint rate must be positive", models.ErrInvalidInput)
	}
	if deriveFileName(r.SourceURL) == "" {
		return fmt.Errorf("%w: empty filename derived from source url", models.ErrInvalidInput)
	}
	return nil
}

// deriveFileName turns the source URL into a scratch-safe name: the
// sanitized basename of the URL path, or the crc32 of the whole URL when
// no usable basename survives. An empty URL derives an empty name.
func deriveFileName(source string) string {
	if source == "" {
		return ""
	}
	base := source
	if u, err := url.Parse(source); err == nil && u.Path != "" {
		base = u.Path
	}
	base = path.Base(base)

	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	if name := b.String(); name != "" && name != "." && name != ".." {
		return name
	}
	return fmt.Sprintf("%08x", crc32.ChecksumIEEE([]byte(source)))
}
