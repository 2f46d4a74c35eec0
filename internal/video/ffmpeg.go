package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os/exec"
	"time"

	"github.com/disintegration/imaging"

	"media-pipeline/internal/logging"
	"media-pipeline/internal/metrics"
)

// FrameExtractor returns a representative frame of a stored video.
type FrameExtractor interface {
	FirstFrame(ctx context.Context, path string) (image.Image, error)
}

// FFmpeg extracts frames with the ffmpeg binary.
type FFmpeg struct {
	// Binary is the ffmpeg executable; empty means "ffmpeg" on PATH.
	Binary string
	// Timeout bounds one extraction attempt.
	Timeout time.Duration
}

// Available reports whether the ffmpeg binary can be found.
func (f FFmpeg) Available() bool {
	_, err := exec.LookPath(f.binary())
	return err == nil
}

func (f FFmpeg) binary() string {
	if f.Binary == "" {
		return "ffmpeg"
	}
	return f.Binary
}

// FirstFrame grabs the frame at one second, falling back to the very first
// frame for clips shorter than that.
func (f FFmpeg) FirstFrame(ctx context.Context, path string) (image.Image, error) {
	start := time.Now()
	defer func() {
		metrics.VideoFrameExtractDuration.Observe(time.Since(start).Seconds())
	}()

	out, err := f.run(ctx, "-ss", "00:00:01", "-i", path)
	if err != nil || len(out) == 0 {
		logging.Debug("ffmpeg seek extraction failed for %s: %v, retrying from start", path, err)
		out, err = f.run(ctx, "-i", path)
		if err != nil {
			return nil, err
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output for %s", path)
	}

	img, err := imaging.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("failed to decode ffmpeg output: %w", err)
	}
	return img, nil
}

func (f FFmpeg) run(ctx context.Context, input ...string) ([]byte, error) {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	args := append([]string{"-hide_banner", "-loglevel", "error"}, input...)
	args = append(args, "-frames:v", "1", "-f", "image2pipe", "-vcodec", "png", "-")

	cmd := exec.CommandContext(ctx, f.binary(), args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %w, stderr: %s", err, stderr.String())
	}
	return stdout.Bytes(), nil
}
