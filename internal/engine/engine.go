// Package engine streams decoded PCM to an output device in
// fixed-size chunks while staying controllable from another
// goroutine: gain, mute, pause, seek-by-restart and cooperative stop.
package engine

import (
	"io"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"aria/internal/decode"
	"aria/internal/track"
)

// DefaultChunkFrames is the number of frames written per loop
// iteration. One chunk is the unit of cancellation and of gain/mute
// apply latency (~23ms at 44.1kHz).
const DefaultChunkFrames = 1024

// Decoder is the decode collaborator: one call, one full PCM buffer.
type Decoder interface {
	Decode(path string) (*decode.Buffer, error)
}

// Options configures engine callbacks. OnDone and Visualize are
// invoked from the streaming goroutine.
type Options struct {
	// ChunkFrames overrides DefaultChunkFrames; zero keeps the default.
	ChunkFrames int
	// OnDone fires exactly once per started session, after the device
	// handle is released, whichever way the loop exited.
	OnDone func(*Session)
	// OnError reports a mid-stream write failure. Start-time failures
	// are returned from Start instead.
	OnError func(error)
	// Visualize receives each written chunk (pre-gain, post-mute) and
	// its frame count. Fire-and-forget.
	Visualize func(chunk []int16, frames int)
}

// Engine creates playback sessions. At most one session should run at
// a time; the transport controller enforces that by stopping the
// previous session before starting the next.
type Engine struct {
	dec  Decoder
	dev  Device
	log  *zap.Logger
	opts Options
}

func New(dec Decoder, dev Device, log *zap.Logger, opts Options) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.ChunkFrames <= 0 {
		opts.ChunkFrames = DefaultChunkFrames
	}
	return &Engine{dec: dec, dev: dev, log: log, opts: opts}
}

// Start decodes the whole track, opens the output device and spawns
// the streaming goroutine. It returns as soon as the session is
// running. On error no session exists and OnDone will not fire.
// A start offset past end-of-data yields a session that completes
// immediately.
func (e *Engine) Start(tr *track.Track, startMillis float64, gain float64, muted bool) (*Session, error) {
	buf, err := e.dec.Decode(tr.Path)
	if err != nil {
		return nil, err
	}

	startFrame := int(startMillis / 1000.0 * float64(buf.SampleRate))
	if startFrame < 0 {
		startFrame = 0
	}
	samples := buf.Samples
	if off := startFrame * buf.Channels; off < len(samples) {
		samples = samples[off:]
	} else {
		samples = nil
	}

	out, err := e.dev.Open(buf.SampleRate, buf.Channels)
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:         uuid.NewString(),
		track:      tr,
		sampleRate: buf.SampleRate,
		channels:   buf.Channels,
		startFrame: startFrame,
		gain:       gain,
		muted:      muted,
		position:   float64(startFrame) / float64(buf.SampleRate) * 1000.0,
		done:       make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	if s.gain < 0 {
		s.gain = 0
	} else if s.gain > 1 {
		s.gain = 1
	}

	go e.stream(s, samples, out)
	return s, nil
}

// stream is the session's streaming goroutine. It owns the device
// handle and is the only writer of the position counter.
func (e *Engine) stream(s *Session, samples []int16, out io.WriteCloser) {
	log := e.log.With(zap.String("session", s.id), zap.String("track", s.track.Path))
	log.Info("session started",
		zap.Int("sample_rate", s.sampleRate),
		zap.Int("channels", s.channels),
		zap.Int("start_frame", s.startFrame),
		zap.Int("frames", len(samples)/s.channels))

	chunkSamples := e.opts.ChunkFrames * s.channels
	work := make([]int16, chunkSamples)
	wire := make([]byte, chunkSamples*bytesPerSample)

	framesWritten := 0
	for off := 0; off < len(samples); off += chunkSamples {
		gain, muted, ok := s.controls()
		if !ok {
			log.Info("stop requested")
			break
		}

		end := off + chunkSamples
		if end > len(samples) {
			end = len(samples)
		}
		chunk := work[:end-off]
		if muted {
			for i := range chunk {
				chunk[i] = 0
			}
		} else {
			copy(chunk, samples[off:end])
			applyGain(chunk, gain)
		}

		if _, err := out.Write(wire[:pcmBytes(chunk, wire)]); err != nil {
			log.Error("device write failed", zap.Error(err))
			if e.opts.OnError != nil {
				e.opts.OnError(&DeviceError{Op: "write", Err: err})
			}
			break
		}

		framesWritten += (end - off) / s.channels
		s.setPosition(float64(s.startFrame+framesWritten) / float64(s.sampleRate) * 1000.0)

		if e.opts.Visualize != nil {
			raw := samples[off:end]
			if muted {
				raw = chunk
			}
			e.opts.Visualize(raw, (end-off)/s.channels)
		}
	}

	if err := out.Close(); err != nil {
		log.Warn("device close failed", zap.Error(err))
	}
	log.Info("session finished", zap.Float64("position_ms", s.Position()))

	if e.opts.OnDone != nil {
		e.opts.OnDone(s)
	}
	close(s.done)
}
