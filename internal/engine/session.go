package engine

import (
	"sync"

	"aria/internal/track"
)

// Session is one run of the engine: a single track, a single device
// acquisition, from start to terminal release. Never reused; seeks and
// track changes create a new one.
//
// Gain, mute, pause, stop and position are the only state shared with
// the control surface. They live behind one mutex so related fields
// are never read torn, and the lock is never held across a device
// write.
type Session struct {
	id         string
	track      *track.Track
	sampleRate int
	channels   int
	startFrame int

	mu   sync.Mutex
	cond *sync.Cond

	gain          float64 // [0,1]
	muted         bool
	paused        bool
	stopRequested bool
	position      float64 // milliseconds, monotone while running

	done chan struct{} // closed after the device is released
}

func (s *Session) ID() string          { return s.id }
func (s *Session) Track() *track.Track { return s.track }

// Done is closed once the streaming goroutine has released all
// resources and the completion callback has returned.
func (s *Session) Done() <-chan struct{} { return s.done }

// SetGain publishes a new gain. The streaming loop observes it no
// later than the next chunk boundary.
func (s *Session) SetGain(gain float64) {
	if gain < 0 {
		gain = 0
	} else if gain > 1 {
		gain = 1
	}
	s.mu.Lock()
	s.gain = gain
	s.mu.Unlock()
}

// SetMuted publishes the mute flag. Mute only changes sample values,
// never control flow.
func (s *Session) SetMuted(muted bool) {
	s.mu.Lock()
	s.muted = muted
	s.mu.Unlock()
}

// SetPaused flips the cooperative pause flag the chunk loop waits on.
func (s *Session) SetPaused(paused bool) {
	s.mu.Lock()
	s.paused = paused
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Paused reports the pause flag.
func (s *Session) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Position returns the playback position in milliseconds.
func (s *Session) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// Stop requests termination at the next chunk boundary and blocks
// until the streaming goroutine has released the output device. A
// paused session is woken so stop never deadlocks against the pause
// wait.
func (s *Session) Stop() {
	s.mu.Lock()
	s.stopRequested = true
	s.cond.Broadcast()
	s.mu.Unlock()
	<-s.done
}

// setPosition is the engine-side writer for the position counter.
func (s *Session) setPosition(millis float64) {
	s.mu.Lock()
	s.position = millis
	s.mu.Unlock()
}

// controls reads the live control state at a chunk boundary. Blocks
// while paused, returns false when stop was requested.
func (s *Session) controls() (gain float64, muted bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.paused && !s.stopRequested {
		s.cond.Wait()
	}
	if s.stopRequested {
		return 0, false, false
	}
	return s.gain, s.muted, true
}
