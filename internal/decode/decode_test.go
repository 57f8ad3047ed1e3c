package decode

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeWAV encodes samples as a 16-bit mono wav fixture.
func writeWAV(t *testing.T, path string, rate int, samples []int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: rate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestDecodeWAVRoundTrip(t *testing.T) {
	in := []int{0, 100, -100, 32767, -32768, 1234}
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeWAV(t, path, 8000, in)

	buf, err := Files{}.Decode(path)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if buf.SampleRate != 8000 || buf.Channels != 1 {
		t.Fatalf("format: rate %d channels %d", buf.SampleRate, buf.Channels)
	}
	if len(buf.Samples) != len(in) {
		t.Fatalf("got %d samples, want %d", len(buf.Samples), len(in))
	}
	for i, v := range in {
		if buf.Samples[i] != int16(v) {
			t.Errorf("sample %d: got %d, want %d", i, buf.Samples[i], v)
		}
	}
	if buf.Frames() != len(in) {
		t.Errorf("Frames() = %d, want %d", buf.Frames(), len(in))
	}
}

func TestDecodeMissingFile(t *testing.T) {
	_, err := Files{}.Decode(filepath.Join(t.TempDir(), "gone.wav"))
	if !os.IsNotExist(err) {
		t.Fatalf("got %v, want not-exist", err)
	}
	var de *DecodeError
	if errors.As(err, &de) {
		t.Fatal("missing file reported as DecodeError, want plain fs error")
	}
}

func TestDecodeUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("not audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Files{}.Decode(path)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("got %v, want *DecodeError", err)
	}
	if !errors.Is(err, errUnsupported) {
		t.Fatalf("got %v, want unsupported format", err)
	}
}

func TestDecodeCorruptWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.wav")
	if err := os.WriteFile(path, []byte("RIFFjunkjunkjunk"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Files{}.Decode(path)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("got %v, want *DecodeError", err)
	}
	if de.Path != path {
		t.Fatalf("error path %q, want %q", de.Path, path)
	}
}

func TestProbeDurationWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "second.wav")
	writeWAV(t, path, 8000, make([]int, 8000))

	dur, err := ProbeDuration(path)
	if err != nil {
		t.Fatalf("ProbeDuration: %v", err)
	}
	if math.Abs(dur-1.0) > 0.01 {
		t.Fatalf("duration = %v, want 1s", dur)
	}
}

func TestProbeDurationMissingFile(t *testing.T) {
	_, err := ProbeDuration(filepath.Join(t.TempDir(), "gone.mp3"))
	if !os.IsNotExist(err) {
		t.Fatalf("got %v, want not-exist", err)
	}
}

func TestBufferMath(t *testing.T) {
	b := &Buffer{Samples: make([]int16, 96), SampleRate: 48, Channels: 2}
	if b.Frames() != 48 {
		t.Errorf("Frames() = %d, want 48", b.Frames())
	}
	if b.Seconds() != 1.0 {
		t.Errorf("Seconds() = %v, want 1", b.Seconds())
	}

	var zero Buffer
	if zero.Frames() != 0 || zero.Seconds() != 0 {
		t.Errorf("zero buffer: frames %d seconds %v", zero.Frames(), zero.Seconds())
	}
}

func TestFloatSampleClips(t *testing.T) {
	if got := floatSample(2.0); got != 32767 {
		t.Errorf("floatSample(2.0) = %d, want 32767", got)
	}
	if got := floatSample(-2.0); got != -32768 {
		t.Errorf("floatSample(-2.0) = %d, want -32768", got)
	}
	if got := floatSample(0); got != 0 {
		t.Errorf("floatSample(0) = %d, want 0", got)
	}
}
