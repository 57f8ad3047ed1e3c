package transport

import "aria/internal/track"

// DefaultHistorySize bounds the playback history.
const DefaultHistorySize = 100

// history is a bounded most-recently-started list, newest first. A
// replayed track moves to the front instead of appearing twice.
type history struct {
	max   int
	items []*track.Track
}

func newHistory(max int) *history {
	if max <= 0 {
		max = DefaultHistorySize
	}
	return &history{max: max}
}

func (h *history) add(t *track.Track) {
	for i, it := range h.items {
		if it == t {
			h.items = append(h.items[:i], h.items[i+1:]...)
			break
		}
	}
	h.items = append([]*track.Track{t}, h.items...)
	if len(h.items) > h.max {
		h.items = h.items[:h.max]
	}
}

func (h *history) list() []*track.Track {
	out := make([]*track.Track, len(h.items))
	copy(out, h.items)
	return out
}
