// Package capture grabs a frame from the local camera by invoking
// external utilities: imagesnap first, ffmpeg as fallback.
package capture

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// ErrCaptureFailed means no utility produced a readable image.
var ErrCaptureFailed = errors.New("camera capture failed")

// runCommand is swappable in tests.
var runCommand = func(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// Camera captures images into a working directory.
type Camera struct {
	Dir string
}

// NewCamera creates a Camera writing to dir (default "captured_images").
func NewCamera(dir string) *Camera {
	if dir == "" {
		dir = "captured_images"
	}
	return &Camera{Dir: dir}
}

// Capture takes one frame and returns the JPEG bytes.
func (c *Camera) Capture() ([]byte, error) {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	path := filepath.Join(c.Dir, fmt.Sprintf("medical_image_%d.jpg", time.Now().Unix()))

	if err := runCommand("imagesnap", "-q", path); err == nil && fileReadable(path) {
		log.Printf("[Capture] ✅ Captured image with imagesnap")
	} else {
		log.Printf("[Capture] imagesnap unavailable, trying ffmpeg")
		err := runCommand("ffmpeg",
			"-f", "avfoundation",
			"-video_size", "640x480",
			"-framerate", "30",
			"-i", "0",
			"-vframes", "1",
			"-y", path)
		if err != nil || !fileReadable(path) {
			return nil, ErrCaptureFailed
		}
		log.Printf("[Capture] ✅ Captured image with ffmpeg")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read image: %v", ErrCaptureFailed, err)
	}
	return data, nil
}

func fileReadable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}
