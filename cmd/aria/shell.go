package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"
	"go.uber.org/zap"

	"aria/internal/library"
	"aria/internal/track"
	"aria/internal/transport"
	"aria/internal/viz"
)

const meterWidth = 24

// meter keeps the latest visualization state fed by the engine's
// chunk callback. It is read from the shell goroutine.
type meter struct {
	mu   sync.Mutex
	rms  float64
	last []int16
}

func newMeter() *meter { return &meter{} }

func (m *meter) feed(chunk []int16, frames int) {
	m.mu.Lock()
	m.rms = viz.RMS(chunk)
	m.last = append(m.last[:0], chunk...)
	m.mu.Unlock()
}

func (m *meter) bar() string {
	m.mu.Lock()
	level := m.rms
	m.mu.Unlock()

	filled := int(level * meterWidth)
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", meterWidth-filled) + "]"
}

func (m *meter) spectrum(bins int) []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return viz.Spectrum(m.last, bins)
}

func runShell(ctrl *transport.Controller, lib *library.Library, m *meter, log *zap.Logger) error {
	rl, err := readline.NewEx(&readline.Config{Prompt: "aria> "})
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Println("aria - type 'help' for commands")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err == io.EOF {
			return nil
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "quit", "q", "exit":
			return nil
		case "help", "h":
			printHelp()
		case "status", "s":
			printStatus(ctrl.Snapshot(), m)
		case "watch":
			watchStatus(ctrl, rl, m)
		case "play":
			report(ctrl.Play())
		case "pause", "p":
			report(ctrl.TogglePlayPause())
		case "stop":
			ctrl.Stop()
		case "next", "n":
			report(ctrl.Next())
		case "prev":
			report(ctrl.Previous())
		case "jump":
			if i, ok := argIndex(args, ctrl.Snapshot().TrackCount); ok {
				report(ctrl.JumpTo(i))
			}
		case "seek":
			if len(args) == 1 {
				if sec, err := strconv.ParseFloat(args[0], 64); err == nil {
					ctrl.Seek(sec * 1000)
				}
			}
		case "fwd":
			ctrl.Forward(skipArg(args))
		case "rew":
			ctrl.Rewind(skipArg(args))
		case "vol":
			if len(args) == 1 {
				if v, err := strconv.Atoi(args[0]); err == nil {
					ctrl.SetVolume(v)
				}
			}
		case "mute", "m":
			if ctrl.ToggleMute() {
				fmt.Println("muted")
			} else {
				fmt.Println("unmuted")
			}
		case "shuffle":
			st := ctrl.Snapshot()
			ctrl.SetShuffle(!st.Shuffle)
			fmt.Printf("shuffle %s\n", onOff(!st.Shuffle))
		case "repeat":
			st := ctrl.Snapshot()
			ctrl.SetRepeat(!st.Repeat)
			fmt.Printf("repeat %s\n", onOff(!st.Repeat))
		case "speed":
			if len(args) == 1 {
				if sp, err := strconv.ParseFloat(args[0], 64); err == nil {
					fmt.Printf("speed %.1fx\n", ctrl.SetSpeed(sp))
				}
			}
		case "eq":
			if len(args) == 1 {
				switch args[0] {
				case "bass":
					ctrl.SetEffect(transport.EffectBassBoost)
				case "treble":
					ctrl.SetEffect(transport.EffectTrebleBoost)
				default:
					ctrl.SetEffect(transport.EffectNormal)
				}
			}
		case "add":
			for _, p := range args {
				t := track.Probe(p, log)
				ctrl.Add(t)
				fmt.Printf("added %s\n", t)
			}
		case "rm":
			if i, ok := argIndex(args, ctrl.Snapshot().TrackCount); ok {
				report(ctrl.Remove(i))
			}
		case "ls":
			printTracks(filterTracks(ctrl, args))
		case "edit":
			editTrack(ctrl, rl, args)
		case "lib":
			if lib == nil {
				fmt.Println("no music directory configured")
				continue
			}
			printTracks(lib.Tracks())
		case "addlib":
			if lib == nil {
				fmt.Println("no music directory configured")
				continue
			}
			for _, t := range lib.Tracks() {
				ctrl.Add(t)
			}
			fmt.Printf("added %d tracks\n", len(lib.Tracks()))
		case "save":
			if len(args) == 1 {
				report(ctrl.SavePlaylist(args[0]))
			}
		case "load":
			if len(args) == 1 {
				report(ctrl.LoadPlaylist(args[0]))
			}
		case "history":
			printTracks(ctrl.History())
		case "hplay":
			if i, ok := argIndex(args, len(ctrl.History())); ok {
				report(ctrl.PlayFromHistory(i))
			}
		case "spectrum":
			for _, mag := range m.spectrum(16) {
				n := int(mag / 2048)
				if n > meterWidth {
					n = meterWidth
				}
				fmt.Println(strings.Repeat("#", n))
			}
		default:
			fmt.Printf("unknown command %q, try 'help'\n", cmd)
		}
	}
}

func printHelp() {
	fmt.Print(`transport:
  play | pause | stop | next | prev | jump N
  seek SECONDS | fwd [SECONDS] | rew [SECONDS]
  vol 0-100 | mute | shuffle | repeat | speed 0.5-1.5 | eq normal|bass|treble
playlist:
  add PATH... | rm N | ls [QUERY] | edit N | save FILE | load FILE
  lib | addlib | history | hplay N
other:
  status | watch | spectrum | quit
`)
}

func printStatus(st transport.Status, m *meter) {
	if st.Track == nil {
		fmt.Printf("%s | %d tracks | vol %d%%\n", st.State, st.TrackCount, st.Volume)
		return
	}
	flags := ""
	if st.Shuffle {
		flags += " shuffle"
	}
	if st.Repeat {
		flags += " repeat"
	}
	if st.Muted {
		flags += " muted"
	}
	fmt.Printf("%s %s  %d/%d %s\n", st.State, m.bar(), st.Index+1, st.TrackCount, st.Track)
	fmt.Printf("  %s / %s  vol %d%%  %.1fx %s%s\n",
		fmtTime(st.PositionMillis/1000), fmtTime(st.Track.Duration),
		st.Volume, st.Speed, st.Effect, flags)
}

// watchStatus redraws a one-line status on a 500ms tick until the
// next line (or interrupt) arrives.
func watchStatus(ctrl *transport.Controller, rl *readline.Instance, m *meter) {
	fmt.Println("watching, press enter to stop")
	stop := make(chan struct{})
	go func() {
		rl.Readline()
		close(stop)
	}()

	tick := time.NewTicker(500 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-stop:
			fmt.Println()
			return
		case <-tick.C:
			st := ctrl.Snapshot()
			if st.Track == nil {
				fmt.Printf("\r%-70s", st.State.String())
				continue
			}
			line := fmt.Sprintf("%s %s %s / %s  %s",
				st.State, m.bar(),
				fmtTime(st.PositionMillis/1000), fmtTime(st.Track.Duration),
				st.Track)
			fmt.Printf("\r%-70s", line)
		}
	}
}

func printTracks(tracks []*track.Track) {
	if len(tracks) == 0 {
		fmt.Println("(empty)")
		return
	}
	for i, t := range tracks {
		fmt.Printf("%3d. %s [%s]\n", i+1, t, fmtTime(t.Duration))
	}
}

func filterTracks(ctrl *transport.Controller, args []string) []*track.Track {
	if len(args) == 0 {
		return ctrl.Tracks()
	}
	return ctrl.Filter(strings.Join(args, " "))
}

func editTrack(ctrl *transport.Controller, rl *readline.Instance, args []string) {
	i, ok := argIndex(args, ctrl.Snapshot().TrackCount)
	if !ok {
		return
	}
	t := ctrl.Tracks()[i]
	title := ask(rl, "Title", t.Title)
	artist := ask(rl, "Artist", t.Artist)
	album := ask(rl, "Album", t.Album)
	t.SetTags(title, artist, album)
	fmt.Printf("updated %s\n", t)
}

func ask(rl *readline.Instance, prompt, def string) string {
	rl.SetPrompt(fmt.Sprintf("%s [%s]: ", prompt, def))
	defer rl.SetPrompt("aria> ")
	line, _ := rl.Readline()
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

// argIndex parses a 1-based track number and bounds-checks it.
func argIndex(args []string, count int) (int, bool) {
	if len(args) != 1 {
		fmt.Println("need a track number")
		return 0, false
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > count {
		fmt.Println("track number out of range")
		return 0, false
	}
	return n - 1, true
}

func skipArg(args []string) float64 {
	if len(args) == 1 {
		if sec, err := strconv.ParseFloat(args[0], 64); err == nil && sec > 0 {
			return sec * 1000
		}
	}
	return transport.SkipStepMillis
}

func report(err error) {
	if err != nil {
		fmt.Printf("[!] %v\n", err)
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func fmtTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	d := time.Duration(seconds * float64(time.Second))
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
