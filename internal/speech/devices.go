package speech

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"

	"github.com/hashicorp/go-multierror"
)

// LocalDevices открывает устройства захвата как файлы, например
// /dev/snd/pcmC0D0c и /dev/video0. Первый открывшийся путь занимает устройство.
type LocalDevices struct {
	AudioPaths []string
	VideoPaths []string
}

func NewLocalDevices() *LocalDevices {
	return &LocalDevices{
		AudioPaths: []string{"/dev/snd/pcmC0D0c", "/dev/dsp"},
		VideoPaths: []string{"/dev/video0", "/dev/video1"},
	}
}

func (d *LocalDevices) IsSupported() bool {
	return len(d.AudioPaths) > 0 || len(d.VideoPaths) > 0
}

func (d *LocalDevices) Open(ctx context.Context, req MediaRequest) (MediaStream, error) {
	stream := &fileStream{}
	if req.Audio {
		if err := stream.open(ctx, d.AudioPaths); err != nil {
			_ = stream.Stop()
			return nil, fmt.Errorf("open microphone: %w", err)
		}
	}
	if req.Video {
		if err := stream.open(ctx, d.VideoPaths); err != nil {
			_ = stream.Stop()
			return nil, fmt.Errorf("open camera: %w", err)
		}
	}
	return stream, nil
}

type fileStream struct {
	files []*os.File
}

func (s *fileStream) open(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return ErrDeviceNotFound
	}
	var last error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		f, err := os.OpenFile(path, os.O_RDONLY, 0)
		if err == nil {
			s.files = append(s.files, f)
			return nil
		}
		last = classifyDeviceError(err)
		// занятое или запрещенное устройство важнее отсутствующего
		if !errors.Is(last, ErrDeviceNotFound) {
			return last
		}
	}
	return last
}

func (s *fileStream) Stop() error {
	var result *multierror.Error
	for _, f := range s.files {
		if err := f.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	s.files = nil
	return result.ErrorOrNil()
}

func classifyDeviceError(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %v", ErrDeviceNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	case errors.Is(err, syscall.EBUSY):
		return fmt.Errorf("%w: %v", ErrDeviceBusy, err)
	default:
		return err
	}
}
