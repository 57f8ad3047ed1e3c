package library

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// Probing junk content fails softly, so fixture files only need the
// right extension.
func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestLibrary(t *testing.T, root string) *Library {
	t.Helper()
	l, err := New(root, []string{".wav", ".mp3"}, 50*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func waitForTracks(t *testing.T, l *Library, n int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if len(l.Tracks()) == n {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out: have %d tracks, want %d", len(l.Tracks()), n)
}

func TestInitialScan(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.wav"))
	touch(t, filepath.Join(dir, "a.mp3"))
	touch(t, filepath.Join(dir, "notes.txt")) // filtered out

	sub := filepath.Join(dir, "album")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	touch(t, filepath.Join(sub, "c.wav"))

	l := newTestLibrary(t, dir)

	tracks := l.Tracks()
	if len(tracks) != 3 {
		t.Fatalf("scanned %d tracks, want 3", len(tracks))
	}
	// Sorted by path.
	for i := 1; i < len(tracks); i++ {
		if tracks[i-1].Path > tracks[i].Path {
			t.Fatalf("tracks not sorted: %q before %q", tracks[i-1].Path, tracks[i].Path)
		}
	}
}

func TestDetectsNewFile(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "one.wav"))

	l := newTestLibrary(t, dir)
	waitForTracks(t, l, 1)

	touch(t, filepath.Join(dir, "two.wav"))
	waitForTracks(t, l, 2)
}

func TestDetectsRemovedFile(t *testing.T) {
	dir := t.TempDir()
	gone := filepath.Join(dir, "gone.wav")
	touch(t, gone)
	touch(t, filepath.Join(dir, "stays.wav"))

	l := newTestLibrary(t, dir)
	waitForTracks(t, l, 2)

	if err := os.Remove(gone); err != nil {
		t.Fatal(err)
	}
	waitForTracks(t, l, 1)
}

func TestDetectsNewSubdirectory(t *testing.T) {
	dir := t.TempDir()
	l := newTestLibrary(t, dir)
	waitForTracks(t, l, 0)

	sub := filepath.Join(dir, "fresh")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	// Give the watcher a beat to pick up the new directory before
	// writing into it.
	time.Sleep(100 * time.Millisecond)
	touch(t, filepath.Join(sub, "deep.wav"))

	waitForTracks(t, l, 1)
}

func TestCloseIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	l := newTestLibrary(t, dir)
	if err := l.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
