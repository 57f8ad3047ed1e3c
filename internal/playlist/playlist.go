// Package playlist persists playlists as plain text, one file path
// per line.
package playlist

import (
	"bufio"
	"os"
	"strings"

	"aria/internal/track"
)

// Save writes one track path per line.
func Save(path string, tracks []*track.Track) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, t := range tracks {
		w.WriteString(t.Path)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load rebuilds tracks from a saved playlist by re-probing each path.
// Entries that no longer resolve to a regular file are skipped.
func Load(path string, probe func(string) *track.Track) ([]*track.Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var tracks []*track.Track
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		p := strings.TrimSpace(scanner.Text())
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			continue
		}
		tracks = append(tracks, probe(p))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return tracks, nil
}
