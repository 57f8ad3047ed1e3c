// Package decode turns audio files into raw interleaved int16 PCM.
// The playback engine treats this as a black box: one call, one full
// sample buffer. Format support is whatever the underlying decode
// libraries provide.
package decode

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/faiface/beep"
	beepflac "github.com/faiface/beep/flac"
	beepmp3 "github.com/faiface/beep/mp3"
	beepvorbis "github.com/faiface/beep/vorbis"
	"github.com/go-audio/wav"
	"github.com/hraban/opus"
)

// Ogg-opus streams are decoded at the codec's native layout.
const (
	opusSampleRate = 48000
	opusChannels   = 2
)

var errUnsupported = errors.New("unsupported audio format")

// DecodeError means the file exists but could not be read as audio.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode %s: %v", e.Path, e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

// Buffer is a fully decoded track: interleaved int16 samples.
type Buffer struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

// Frames returns the number of sample frames in the buffer.
func (b *Buffer) Frames() int {
	if b.Channels == 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Seconds returns the buffer duration in seconds.
func (b *Buffer) Seconds() float64 {
	if b.SampleRate == 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Files decodes audio files from the local filesystem.
type Files struct{}

// Decode reads the whole file into a PCM buffer. A missing path is
// reported as the underlying fs error; a present but unreadable file
// as *DecodeError.
func (Files) Decode(path string) (*Buffer, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return decodeWAV(path)
	case ".mp3":
		return decodeBeep(path, beepmp3.Decode)
	case ".flac":
		return decodeBeep(path, func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
			return beepflac.Decode(rc)
		})
	case ".ogg", ".oga":
		return decodeBeep(path, beepvorbis.Decode)
	case ".opus":
		return decodeOpus(path)
	default:
		return nil, &DecodeError{Path: path, Err: errUnsupported}
	}
}

func decodeWAV(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	if buf == nil || buf.Format == nil || buf.Format.SampleRate <= 0 || buf.Format.NumChannels <= 0 {
		return nil, &DecodeError{Path: path, Err: errors.New("no pcm data")}
	}

	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int16(v)
	}
	return &Buffer{
		Samples:    samples,
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
	}, nil
}

func decodeBeep(path string, dec func(io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	stream, format, err := dec(f)
	if err != nil {
		f.Close()
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer stream.Close()

	buf, err := drain(stream, format)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return buf, nil
}

// drain pulls the whole stream into an interleaved int16 buffer. Beep
// streams hand out stereo float64 frames; mono formats carry the same
// value on both channels, so only the left one is kept.
func drain(stream beep.StreamSeekCloser, format beep.Format) (*Buffer, error) {
	channels := format.NumChannels
	if channels < 1 || channels > 2 {
		channels = 2
	}

	out := make([]int16, 0, stream.Len()*channels)
	frames := make([][2]float64, 512)
	for {
		n, ok := stream.Stream(frames)
		for i := 0; i < n; i++ {
			if channels == 1 {
				out = append(out, floatSample(frames[i][0]))
			} else {
				out = append(out, floatSample(frames[i][0]), floatSample(frames[i][1]))
			}
		}
		if !ok {
			if err := stream.Err(); err != nil {
				return nil, err
			}
			break
		}
	}

	return &Buffer{Samples: out, SampleRate: int(format.SampleRate), Channels: channels}, nil
}

func decodeOpus(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stream, err := opus.NewStream(f)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}

	var out []int16
	pcm := make([]int16, 5760*opusChannels)
	for {
		n, err := stream.Read(pcm)
		if err == io.EOF || n == 0 {
			break
		}
		if err != nil {
			return nil, &DecodeError{Path: path, Err: err}
		}
		out = append(out, pcm[:n*opusChannels]...)
	}

	return &Buffer{Samples: out, SampleRate: opusSampleRate, Channels: opusChannels}, nil
}

func floatSample(v float64) int16 {
	s := v * 32767
	if s > 32767 {
		s = 32767
	} else if s < -32768 {
		s = -32768
	}
	return int16(s)
}
