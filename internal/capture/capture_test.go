package capture

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapture_FirstUtilitySucceeds(t *testing.T) {
	orig := runCommand
	defer func() { runCommand = orig }()

	var calls []string
	runCommand = func(name string, args ...string) error {
		calls = append(calls, name)
		// Simulate imagesnap writing the file.
		return os.WriteFile(args[len(args)-1], []byte("jpegdata"), 0o644)
	}

	cam := NewCamera(t.TempDir())
	data, err := cam.Capture()
	require.NoError(t, err)
	assert.Equal(t, []byte("jpegdata"), data)
	assert.Equal(t, []string{"imagesnap"}, calls)
}

func TestCapture_FallsBackToFfmpeg(t *testing.T) {
	orig := runCommand
	defer func() { runCommand = orig }()

	var calls []string
	runCommand = func(name string, args ...string) error {
		calls = append(calls, name)
		if name == "imagesnap" {
			return errors.New("not installed")
		}
		return os.WriteFile(args[len(args)-1], []byte("frame"), 0o644)
	}

	cam := NewCamera(t.TempDir())
	data, err := cam.Capture()
	require.NoError(t, err)
	assert.Equal(t, []byte("frame"), data)
	assert.Equal(t, []string{"imagesnap", "ffmpeg"}, calls)
}

func TestCapture_AllUtilitiesFail(t *testing.T) {
	orig := runCommand
	defer func() { runCommand = orig }()

	runCommand = func(name string, args ...string) error {
		return errors.New("no camera")
	}

	cam := NewCamera(t.TempDir())
	_, err := cam.Capture()
	assert.ErrorIs(t, err, ErrCaptureFailed)
}

func TestCapture_EmptyFileIsFailure(t *testing.T) {
	orig := runCommand
	defer func() { runCommand = orig }()

	runCommand = func(name string, args ...string) error {
		// Utility exits 0 but writes nothing usable.
		f, err := os.Create(args[len(args)-1])
		if err == nil {
			f.Close()
		}
		return err
	}

	cam := NewCamera(t.TempDir())
	_, err := cam.Capture()
	assert.ErrorIs(t, err, ErrCaptureFailed)
}

func TestNewCamera_DefaultDir(t *testing.T) {
	cam := NewCamera("")
	assert.Equal(t, "captured_images", cam.Dir)
}
