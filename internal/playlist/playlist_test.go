package playlist

import (
	"os"
	"path/filepath"
	"testing"

	"aria/internal/track"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.wav")
	b := filepath.Join(dir, "b.mp3")
	touch(t, a)
	touch(t, b)

	list := filepath.Join(dir, "mix.playlist")
	if err := Save(list, []*track.Track{{Path: a}, {Path: b}}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(list, func(p string) *track.Track { return &track.Track{Path: p} })
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 || got[0].Path != a || got[1].Path != b {
		t.Fatalf("round trip lost order: %v", got)
	}
}

func TestLoadSkipsMissingAndDirs(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "keep.wav")
	touch(t, a)

	list := filepath.Join(dir, "mix.playlist")
	content := a + "\n" +
		filepath.Join(dir, "gone.wav") + "\n" +
		dir + "\n" + // a directory, not a track
		"\n" // blank lines are ignored
	if err := os.WriteFile(list, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Load(list, func(p string) *track.Track { return &track.Track{Path: p} })
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 || got[0].Path != a {
		t.Fatalf("got %v, want just %s", got, a)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.playlist"), nil)
	if !os.IsNotExist(err) {
		t.Fatalf("got %v, want not-exist", err)
	}
}
