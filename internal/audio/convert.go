package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Muldiv computes a*b/c in 64-bit integer arithmetic with truncation.
// Sample-index math relies on the truncation; do not round.
func Muldiv(a, b, c int64) int64 {
	return a * b / c
}

// MsToSamples converts a millisecond offset to a sample index at the
// given fingerprint rate.
func MsToSamples(ms, rate int64) int64 {
	return Muldiv(ms, rate, 1000)
}

// Window returns the one-second window of samples starting at the given
// millisecond offset, or nil if the window would run past the end of the
// buffer.
func Window(samples []int16, offsetMs, rate int64) []int16 {
	start := MsToSamples(offsetMs, rate)
	end := start + rate
	if start < 0 || end > int64(len(samples)) {
		return nil
	}
	return samples[start:end]
}

// Slice returns samples[start:start+size], or nil when out of bounds.
func Slice(samples []int16, start, size int64) []int16 {
	if start < 0 || size <= 0 || start+size > int64(len(samples)) {
		return nil
	}
	return samples[start : start+size]
}

// WritePCM16 writes samples as raw little-endian signed 16-bit PCM.
func WritePCM16(w io.Writer, samples []int16) error {
	buf := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(s))
	}
	_, err := w.Write(buf)
	return err
}

// WritePCM16File writes samples as a raw PCM file at path.
func WritePCM16File(path string, samples []int16) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating pcm file: %w", err)
	}
	if err := WritePCM16(f, samples); err != nil {
		f.Close()
		return fmt.Errorf("writing pcm file: %w", err)
	}
	return f.Close()
}
