package speech

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalDevicesOpen(t *testing.T) {
	dir := t.TempDir()
	mic := filepath.Join(dir, "mic")
	cam := filepath.Join(dir, "cam")
	require.NoError(t, os.WriteFile(mic, nil, 0644))
	require.NoError(t, os.WriteFile(cam, nil, 0644))

	d := &LocalDevices{
		AudioPaths: []string{filepath.Join(dir, "missing"), mic},
		VideoPaths: []string{cam},
	}
	require.True(t, d.IsSupported())

	stream, err := d.Open(context.Background(), MediaRequest{Audio: true, Video: true})
	require.NoError(t, err)
	file := stream.(*fileStream)
	assert.Len(t, file.files, 2)
	require.NoError(t, stream.Stop())
	assert.Empty(t, file.files)
}

func TestLocalDevicesNotFound(t *testing.T) {
	d := &LocalDevices{AudioPaths: []string{filepath.Join(t.TempDir(), "none")}}

	_, err := d.Open(context.Background(), MediaRequest{Audio: true})
	require.ErrorIs(t, err, ErrDeviceNotFound)
	assert.Contains(t, DeviceErrorMessage(err), "No microphone found")

	_, err = d.Open(context.Background(), MediaRequest{Video: true})
	require.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestLocalDevicesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := &LocalDevices{AudioPaths: []string{"/dev/null"}}

	_, err := d.Open(ctx, MediaRequest{Audio: true})
	require.ErrorIs(t, err, context.Canceled)
}

func TestClassifyDeviceError(t *testing.T) {
	busy := &os.PathError{Op: "open", Path: "/dev/video0", Err: syscall.EBUSY}
	assert.ErrorIs(t, classifyDeviceError(busy), ErrDeviceBusy)

	denied := &os.PathError{Op: "open", Path: "/dev/video0", Err: os.ErrPermission}
	assert.ErrorIs(t, classifyDeviceError(denied), ErrPermissionDenied)
}
