package audio

import (
	"errors"
	"fmt"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ReadWAV reads a 16-bit PCM WAV file and returns its samples and sample
// rate. Stereo input is averaged down to mono.
func ReadWAV(path string) ([]int16, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, errors.New("not a valid WAV file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decoding wav: %w", err)
	}
	if dec.BitDepth != 16 {
		return nil, 0, fmt.Errorf("unsupported bit depth %d: only 16-bit PCM supported", dec.BitDepth)
	}

	rate := int(dec.SampleRate)
	switch dec.NumChans {
	case 1:
		out := make([]int16, len(buf.Data))
		for i, s := range buf.Data {
			out[i] = int16(s)
		}
		return out, rate, nil
	case 2:
		frames := len(buf.Data) / 2
		out := make([]int16, frames)
		for i := 0; i < frames; i++ {
			out[i] = int16((int32(buf.Data[2*i]) + int32(buf.Data[2*i+1])) / 2)
		}
		return out, rate, nil
	default:
		return nil, 0, fmt.Errorf("unsupported channel count %d: only mono/stereo supported", dec.NumChans)
	}
}

// WriteWAV writes samples as a mono 16-bit PCM WAV file. Used for debug
// dumps of probe windows.
func WriteWAV(path string, samples []int16, rate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		f.Close()
		return fmt.Errorf("encoding wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
