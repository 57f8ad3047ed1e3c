// Package track holds the per-file metadata snapshot the playlist is
// built from.
package track

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dhowden/tag"
	"go.uber.org/zap"

	"aria/internal/decode"
)

const (
	unknownArtist = "Unknown Artist"
	unknownAlbum  = "Unknown Album"
)

// Track describes one audio file. Path and Duration are fixed after
// Probe; the display fields may be rewritten by the edit surface.
type Track struct {
	Path     string
	Title    string
	Artist   string
	Album    string
	Duration float64 // seconds, 0 when probing failed
}

// Probe builds a Track for path. Tag and duration failures are
// non-fatal: the track falls back to filename and zero duration so a
// broken file still shows up in the playlist.
func Probe(path string, log *zap.Logger) *Track {
	if log == nil {
		log = zap.NewNop()
	}

	t := &Track{
		Path:   path,
		Title:  filepath.Base(path),
		Artist: unknownArtist,
		Album:  unknownAlbum,
	}

	if f, err := os.Open(path); err == nil {
		meta, err := tag.ReadFrom(f)
		f.Close()
		if err != nil {
			log.Debug("tag read failed", zap.String("path", path), zap.Error(err))
		} else {
			if v := meta.Title(); v != "" {
				t.Title = v
			}
			if v := meta.Artist(); v != "" {
				t.Artist = v
			}
			if v := meta.Album(); v != "" {
				t.Album = v
			}
		}
	}

	dur, err := decode.ProbeDuration(path)
	if err != nil {
		log.Warn("duration probe failed", zap.String("path", path), zap.Error(err))
	} else {
		t.Duration = dur
	}

	return t
}

// SetTags rewrites the editable display fields. Empty values keep the
// current ones.
func (t *Track) SetTags(title, artist, album string) {
	if title != "" {
		t.Title = title
	}
	if artist != "" {
		t.Artist = artist
	}
	if album != "" {
		t.Album = album
	}
}

func (t *Track) String() string {
	return fmt.Sprintf("%s - %s", t.Title, t.Artist)
}
