package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ConvertToWAV converts any ffmpeg-readable audio file to a mono 16-bit
// PCM WAV at the given rate, written into outputDir. Returns the output
// path.
func ConvertToWAV(ctx context.Context, inputPath, outputDir string, rate int) (string, error) {
	if rate == 0 {
		rate = 11025
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", err
	}

	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	outputPath := filepath.Join(outputDir, base+".wav")
	tmpPath := outputPath + ".tmp.wav"
	defer os.Remove(tmpPath)

	cmd := exec.CommandContext(
		ctx,
		"ffmpeg",
		"-y",
		"-v", "quiet",
		"-i", inputPath,
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", rate),
		"-c:a", "pcm_s16le",
		tmpPath,
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("ffmpeg failed: %v (%s)", err, out)
	}

	if err := os.Rename(tmpPath, outputPath); err != nil {
		return "", fmt.Errorf("moving converted wav: %w", err)
	}
	return outputPath, nil
}

// FetchAudio downloads the best audio stream of a remote source with
// yt-dlp into outputDir and returns the downloaded file path. The caller
// converts it with ConvertToWAV before scanning.
func FetchAudio(ctx context.Context, sourceURL, outputDir string) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 3*time.Minute)
		defer cancel()
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	outputTemplate := filepath.Join(outputDir, "source.%(ext)s")

	cmd := exec.CommandContext(
		ctx,
		"yt-dlp",
		"-f", "ba",
		"--no-warnings",
		"--no-playlist",
		"-o", outputTemplate,
		sourceURL,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("yt-dlp download failed: %v\nstderr: %s", err, stderr.String())
	}

	extensions := []string{".m4a", ".webm", ".opus", ".mp3", ".aac", ".ogg", ".wav"}
	for _, ext := range extensions {
		candidate := filepath.Join(outputDir, "source"+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("downloaded audio file not found (checked extensions: %v)", extensions)
}
