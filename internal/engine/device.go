package engine

import (
	"fmt"
	"io"

	"github.com/hajimehoshi/oto"
)

const (
	bytesPerSample      = 2 // int16 PCM
	defaultDeviceBuffer = 8192
)

// DeviceError wraps output-device failures: the device could not be
// opened, or a write failed mid-stream.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string { return fmt.Sprintf("audio device %s: %v", e.Op, e.Err) }
func (e *DeviceError) Unwrap() error { return e.Err }

// Device opens an output stream for a given PCM layout. The returned
// handle is exclusively owned by the streaming goroutine for the
// session's lifetime.
type Device interface {
	Open(sampleRate, channels int) (io.WriteCloser, error)
}

// OtoDevice drives the platform audio output through oto. Write
// blocks at real-time rate once the internal buffer is full, which is
// what paces the chunk loop.
type OtoDevice struct {
	BufferBytes int
}

// Open acquires the device. oto allows one live context per process;
// the at-most-one-session invariant guarantees the previous handle is
// closed before the next Open.
func (d OtoDevice) Open(sampleRate, channels int) (io.WriteCloser, error) {
	buf := d.BufferBytes
	if buf <= 0 {
		buf = defaultDeviceBuffer
	}
	ctx, err := oto.NewContext(sampleRate, channels, bytesPerSample, buf)
	if err != nil {
		return nil, &DeviceError{Op: "open", Err: err}
	}
	return &otoStream{ctx: ctx, player: ctx.NewPlayer()}, nil
}

type otoStream struct {
	ctx    *oto.Context
	player *oto.Player
}

func (s *otoStream) Write(p []byte) (int, error) {
	return s.player.Write(p)
}

func (s *otoStream) Close() error {
	perr := s.player.Close()
	cerr := s.ctx.Close()
	if perr != nil {
		return perr
	}
	return cerr
}
