// Package transport owns the playlist and the logical play/pause/stop
// state, and is the sole mutator of the playback engine. UI commands
// come in on one side, session lifecycle goes out the other.
package transport

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"aria/internal/engine"
	"aria/internal/playlist"
	"aria/internal/track"
)

// State is the logical transport state, independent of whether an
// engine session object currently exists.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "stopped"
	}
}

// Effect is the equalizer selection. It is carried for the UI and
// never applied to samples.
type Effect string

const (
	EffectNormal      Effect = "normal"
	EffectBassBoost   Effect = "bass-boost"
	EffectTrebleBoost Effect = "treble-boost"
)

const (
	// SkipStepMillis is the rewind/forward step the original player used.
	SkipStepMillis = 15000

	minSpeed = 0.5
	maxSpeed = 1.5
)

var (
	ErrNoTracks = errors.New("playlist is empty")
	ErrBadIndex = errors.New("track index out of range")
)

// Status is the polling snapshot the shell renders from.
type Status struct {
	Track          *track.Track
	Index          int
	State          State
	PositionMillis float64
	Volume         int
	Muted          bool
	Shuffle        bool
	Repeat         bool
	Speed          float64
	Effect         Effect
	TrackCount     int
}

// Options configures a Controller.
type Options struct {
	Logger      *zap.Logger
	HistorySize int
	Volume      int // initial volume, 0-100
	// Visualize is forwarded to the engine; fires per written chunk.
	Visualize func(chunk []int16, frames int)
	// OnError surfaces session errors (start failures and mid-stream
	// device errors) to the shell.
	OnError func(error)
}

// Controller mediates between UI commands and engine sessions. All
// playlist mutation happens here, under one mutex: commands arrive on
// the caller's goroutine, session completions arrive as messages on
// doneCh and are applied by a single consumer goroutine.
type Controller struct {
	log     *zap.Logger
	eng     *engine.Engine
	onError func(error)

	mu       sync.Mutex
	tracks   []*track.Track
	current  int // -1 when nothing selected
	state    State
	posMilli float64
	volume   int // 0-100
	muted    bool
	shuffle  bool
	repeat   bool
	speed    float64
	effect   Effect
	hist     *history
	session  *engine.Session
	rng      *rand.Rand

	doneCh chan *engine.Session
	quit   chan struct{}
	wg     sync.WaitGroup
}

// New builds a controller around the given decode and device
// collaborators and starts the completion consumer.
func New(dec engine.Decoder, dev engine.Device, opts Options) *Controller {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	volume := opts.Volume
	if volume <= 0 || volume > 100 {
		volume = 80
	}

	c := &Controller{
		log:     log,
		onError: opts.OnError,
		current: -1,
		volume:  volume,
		speed:   1.0,
		effect:  EffectNormal,
		hist:    newHistory(opts.HistorySize),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		doneCh:  make(chan *engine.Session, 1),
		quit:    make(chan struct{}),
	}
	c.eng = engine.New(dec, dev, log.Named("engine"), engine.Options{
		OnDone:    c.sessionDone,
		OnError:   opts.OnError,
		Visualize: opts.Visualize,
	})

	c.wg.Add(1)
	go c.watchSessions()
	return c
}

// Close stops playback and the completion consumer.
func (c *Controller) Close() {
	c.Stop()
	close(c.quit)
	c.wg.Wait()
}

// sessionDone runs on the streaming goroutine. It only posts a
// message; the playlist is never touched from here.
func (c *Controller) sessionDone(s *engine.Session) {
	select {
	case c.doneCh <- s:
	default:
		// Slot occupied by an unconsumed notification. Sessions are
		// serialized, so that one is stale and this one supersedes it.
		select {
		case <-c.doneCh:
		default:
		}
		select {
		case c.doneCh <- s:
		default:
		}
	}
}

func (c *Controller) watchSessions() {
	defer c.wg.Done()
	for {
		select {
		case <-c.quit:
			return
		case s := <-c.doneCh:
			c.advance(s)
		}
	}
}

// advance applies the end-of-track policy after a natural completion.
// Completions of sessions the controller already tore down (seek,
// stop, track change) are dropped here by identity.
func (c *Controller) advance(finished *engine.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if finished != c.session {
		return
	}
	c.session = nil

	if len(c.tracks) == 0 {
		c.state = Stopped
		c.current = -1
		c.posMilli = 0
		return
	}

	if !c.repeat {
		if c.shuffle {
			c.current = c.rng.Intn(len(c.tracks))
		} else {
			c.current = (c.current + 1) % len(c.tracks)
		}
	}
	c.posMilli = 0
	c.startLocked()
}

// stopSessionLocked tears down the running session, if any, and joins
// it. Clearing c.session first marks the pending completion stale.
func (c *Controller) stopSessionLocked() {
	if c.session == nil {
		return
	}
	s := c.session
	c.session = nil
	s.Stop()
}

// startLocked restarts playback of the current track at c.posMilli.
// The previous session is fully released before the new device opens.
func (c *Controller) startLocked() {
	c.stopSessionLocked()

	if c.current < 0 || c.current >= len(c.tracks) {
		c.state = Stopped
		return
	}
	tr := c.tracks[c.current]

	s, err := c.eng.Start(tr, c.posMilli, float64(c.volume)/100.0, c.muted)
	if err != nil {
		c.log.Error("cannot start playback", zap.String("track", tr.Path), zap.Error(err))
		c.state = Stopped
		if c.onError != nil {
			c.onError(fmt.Errorf("play %s: %w", tr.Path, err))
		}
		return
	}

	c.session = s
	c.state = Playing
	c.hist.add(tr)
	c.log.Info("now playing", zap.String("track", tr.String()), zap.Int("index", c.current))
}

// Play starts (or resumes after Stop) the current track. With nothing
// selected it starts at the head of the playlist.
func (c *Controller) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.tracks) == 0 {
		return ErrNoTracks
	}
	if c.current < 0 {
		c.current = 0
		c.posMilli = 0
	}
	c.startLocked()
	return nil
}

// TogglePlayPause flips between Playing and Paused without tearing
// down the session. From Stopped it behaves like Play.
func (c *Controller) TogglePlayPause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Playing:
		if c.session != nil {
			c.session.SetPaused(true)
		}
		c.state = Paused
	case Paused:
		if c.session != nil {
			c.session.SetPaused(false)
		}
		c.state = Playing
	default:
		if len(c.tracks) == 0 {
			return ErrNoTracks
		}
		if c.current < 0 {
			c.current = 0
			c.posMilli = 0
		}
		c.startLocked()
	}
	return nil
}

// Stop tears down the session and resets the position to zero.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopSessionLocked()
	c.state = Stopped
	c.posMilli = 0
}

// Next advances the playlist: uniformly random under shuffle,
// otherwise the following index with wrap-around.
func (c *Controller) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.tracks) == 0 {
		return ErrNoTracks
	}
	if c.shuffle {
		c.current = c.rng.Intn(len(c.tracks))
	} else {
		c.current = (c.current + 1) % len(c.tracks)
	}
	c.posMilli = 0
	c.startLocked()
	return nil
}

// Previous always steps back one index with wrap-around, regardless
// of shuffle.
func (c *Controller) Previous() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.tracks) == 0 {
		return ErrNoTracks
	}
	c.current = (c.current - 1 + len(c.tracks)) % len(c.tracks)
	c.posMilli = 0
	c.startLocked()
	return nil
}

// JumpTo plays the track at index.
func (c *Controller) JumpTo(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.tracks) {
		return ErrBadIndex
	}
	c.current = index
	c.posMilli = 0
	c.startLocked()
	return nil
}

// Seek moves to an absolute position. A live session is torn down and
// restarted at the new offset; the engine has no mid-stream
// reposition primitive.
func (c *Controller) Seek(millis float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if millis < 0 {
		millis = 0
	}
	if c.current >= 0 && c.current < len(c.tracks) {
		if d := c.tracks[c.current].Duration; d > 0 && millis > d*1000 {
			millis = d * 1000
		}
	}
	c.posMilli = millis
	if c.session != nil {
		c.startLocked()
	}
}

// Forward skips ahead, clamped to the track duration when known.
func (c *Controller) Forward(deltaMillis float64) {
	c.Seek(c.positionNow() + deltaMillis)
}

// Rewind skips back, clamped to zero.
func (c *Controller) Rewind(deltaMillis float64) {
	c.Seek(c.positionNow() - deltaMillis)
}

func (c *Controller) positionNow() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		return c.session.Position()
	}
	return c.posMilli
}

// SetVolume sets the 0-100 volume; a live session picks it up at the
// next chunk boundary.
func (c *Controller) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	} else if volume > 100 {
		volume = 100
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.volume = volume
	if c.session != nil {
		c.session.SetGain(float64(volume) / 100.0)
	}
}

// ToggleMute flips the mute flag and returns the new value. Mute is
// transport state: it survives seeks and track changes.
func (c *Controller) ToggleMute() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.muted = !c.muted
	if c.session != nil {
		c.session.SetMuted(c.muted)
	}
	return c.muted
}

// SetShuffle flips random advance on natural track end and Next.
func (c *Controller) SetShuffle(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shuffle = on
}

// SetRepeat makes natural completion restart the same track.
func (c *Controller) SetRepeat(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.repeat = on
}

// SetSpeed stores the playback speed selection, clamped to 0.5-1.5.
// It is a passthrough value the engine does not act on.
func (c *Controller) SetSpeed(speed float64) float64 {
	if speed < minSpeed {
		speed = minSpeed
	} else if speed > maxSpeed {
		speed = maxSpeed
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.speed = speed
	return c.speed
}

// SetEffect stores the equalizer selection. Passthrough only.
func (c *Controller) SetEffect(effect Effect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.effect = effect
}

// Add appends a track to the playlist.
func (c *Controller) Add(t *track.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tracks = append(c.tracks, t)
}

// Remove deletes the track at index. Removing the playing track stops
// playback; removing an earlier one shifts currentIndex so it keeps
// pointing at the same logical track.
func (c *Controller) Remove(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.tracks) {
		return ErrBadIndex
	}
	removed := c.tracks[index]
	c.tracks = append(c.tracks[:index], c.tracks[index+1:]...)

	switch {
	case index == c.current:
		c.stopSessionLocked()
		c.state = Stopped
		c.posMilli = 0
		if c.current >= len(c.tracks) {
			c.current = len(c.tracks) - 1
		}
	case index < c.current:
		c.current--
	}
	c.log.Info("removed track", zap.String("track", removed.String()))
	return nil
}

// Tracks returns a snapshot of the playlist order.
func (c *Controller) Tracks() []*track.Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*track.Track, len(c.tracks))
	copy(out, c.tracks)
	return out
}

// Filter returns playlist entries whose title, artist or album
// contains the query, case-insensitively. Pure query, no state.
func (c *Controller) Filter(query string) []*track.Track {
	query = strings.ToLower(query)
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []*track.Track
	for _, t := range c.tracks {
		if strings.Contains(strings.ToLower(t.Title), query) ||
			strings.Contains(strings.ToLower(t.Artist), query) ||
			strings.Contains(strings.ToLower(t.Album), query) {
			out = append(out, t)
		}
	}
	return out
}

// History returns the bounded most-recently-started list, newest first.
func (c *Controller) History() []*track.Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hist.list()
}

// PlayFromHistory plays the index-th history entry, provided it is
// still in the playlist.
func (c *Controller) PlayFromHistory(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := c.hist.list()
	if index < 0 || index >= len(items) {
		return ErrBadIndex
	}
	for i, t := range c.tracks {
		if t == items[index] {
			c.current = i
			c.posMilli = 0
			c.startLocked()
			return nil
		}
	}
	return ErrBadIndex
}

// SavePlaylist writes the playlist paths to a line-based file.
func (c *Controller) SavePlaylist(path string) error {
	return playlist.Save(path, c.Tracks())
}

// LoadPlaylist replaces the playlist from a line-based file,
// re-probing each entry and skipping paths that no longer resolve.
func (c *Controller) LoadPlaylist(path string) error {
	tracks, err := playlist.Load(path, func(p string) *track.Track {
		return track.Probe(p, c.log)
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopSessionLocked()
	c.state = Stopped
	c.posMilli = 0
	c.tracks = tracks
	c.current = -1
	return nil
}

// Snapshot returns the polling view of the transport.
func (c *Controller) Snapshot() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		Index:      c.current,
		State:      c.state,
		Volume:     c.volume,
		Muted:      c.muted,
		Shuffle:    c.shuffle,
		Repeat:     c.repeat,
		Speed:      c.speed,
		Effect:     c.effect,
		TrackCount: len(c.tracks),
	}
	if c.current >= 0 && c.current < len(c.tracks) {
		st.Track = c.tracks[c.current]
	}
	if c.session != nil {
		st.PositionMillis = c.session.Position()
	} else {
		st.PositionMillis = c.posMilli
	}
	return st
}
