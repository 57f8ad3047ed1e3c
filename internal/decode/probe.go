package decode

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/faiface/beep"
	beepflac "github.com/faiface/beep/flac"
	beepvorbis "github.com/faiface/beep/vorbis"
	"github.com/go-audio/wav"
	"github.com/hraban/opus"
	tmp3 "github.com/tcolgate/mp3"
)

// ProbeDuration returns the duration of an audio file in seconds
// without keeping its samples around. Used at track-add time,
// independent of playback.
func ProbeDuration(path string) (float64, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return probeWAV(path)
	case ".mp3":
		return probeMP3(path)
	case ".flac":
		return probeBeep(path, func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
			return beepflac.Decode(rc)
		})
	case ".ogg", ".oga":
		return probeBeep(path, beepvorbis.Decode)
	case ".opus":
		return probeOpus(path)
	default:
		return 0, &DecodeError{Path: path, Err: errUnsupported}
	}
}

func probeWAV(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	d, err := dec.Duration()
	if err != nil {
		return 0, &DecodeError{Path: path, Err: err}
	}
	return d.Seconds(), nil
}

// probeMP3 walks the frame headers; VBR files have no reliable
// duration in a single header.
func probeMP3(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec := tmp3.NewDecoder(f)
	var frame tmp3.Frame
	var skipped int
	var total float64
	for {
		if err := dec.Decode(&frame, &skipped); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, &DecodeError{Path: path, Err: err}
		}
		total += frame.Duration().Seconds()
	}
	return total, nil
}

func probeBeep(path string, dec func(io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}

	stream, format, err := dec(f)
	if err != nil {
		f.Close()
		return 0, &DecodeError{Path: path, Err: err}
	}
	defer stream.Close()

	if format.SampleRate <= 0 {
		return 0, &DecodeError{Path: path, Err: errors.New("no sample rate")}
	}
	return float64(stream.Len()) / float64(format.SampleRate), nil
}

// probeOpus has to read the stream through; ogg-opus carries no frame
// count up front that the decoder exposes.
func probeOpus(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	stream, err := opus.NewStream(f)
	if err != nil {
		return 0, &DecodeError{Path: path, Err: err}
	}

	pcm := make([]int16, 5760*opusChannels)
	frames := 0
	for {
		n, err := stream.Read(pcm)
		if err == io.EOF || n == 0 {
			break
		}
		if err != nil {
			return 0, &DecodeError{Path: path, Err: err}
		}
		frames += n
	}
	return float64(frames) / float64(opusSampleRate), nil
}
