package audio

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

// Cue is a short sound played at a milestone of the install
type Cue int

const (
	CueDownload Cue = iota
	CueSuccess
	CueError
)

// SampleRate is used for every cue and for the speaker
const SampleRate = beep.SampleRate(44100)

type note struct {
	freq float64 // 0 is a rest
	dur  time.Duration
}

var cues = map[Cue][]note{
	CueDownload: {{660, 70 * time.Millisecond}, {0, 30 * time.Millisecond}, {880, 70 * time.Millisecond}},
	CueSuccess:  {{523.25, 90 * time.Millisecond}, {659.25, 90 * time.Millisecond}, {783.99, 160 * time.Millisecond}},
	CueError:    {{392, 140 * time.Millisecond}, {0, 40 * time.Millisecond}, {261.63, 220 * time.Millisecond}},
}

var (
	speakerOnce  sync.Once
	speakerReady bool
	enabled      bool
	logger       = log.New(io.Discard)
)

// Init configures the audio package. Sound stays off until Init(true, ...).
func Init(enable bool, l *log.Logger) {
	enabled = enable
	if l != nil {
		logger = l
	}
}

func ensureSpeakerInitialized() bool {
	speakerOnce.Do(func() {
		logger.Debug("Setting up audio...")
		if err := speaker.Init(SampleRate, SampleRate.N(time.Second/10)); err != nil {
			logger.Debug("Audio unavailable", "err", err)
			return
		}
		speakerReady = true
	})
	return speakerReady
}

// Tone builds the streamer for cue at sample rate sr
func Tone(cue Cue, sr beep.SampleRate) (beep.Streamer, error) {
	notes, ok := cues[cue]
	if !ok {
		return nil, fmt.Errorf("unknown cue %d", cue)
	}

	parts := make([]beep.Streamer, 0, len(notes))
	for _, n := range notes {
		if n.freq == 0 {
			parts = append(parts, beep.Silence(sr.N(n.dur)))
			continue
		}
		sine, err := generators.SineTone(sr, n.freq)
		if err != nil {
			return nil, fmt.Errorf("failed to generate tone: %w", err)
		}
		parts = append(parts, beep.Take(sr.N(n.dur), sine))
	}

	return &effects.Volume{
		Streamer: beep.Seq(parts...),
		Base:     2,
		Volume:   -2,
	}, nil
}

// Play plays a cue synchronously (blocks until complete)
func Play(cue Cue) {
	if !enabled {
		return
	}
	tone, err := Tone(cue, SampleRate)
	if err != nil {
		logger.Debug("Couldn't play sound", "err", err)
		return
	}
	if !ensureSpeakerInitialized() {
		return
	}

	done := make(chan bool)
	speaker.Play(beep.Seq(tone, beep.Callback(func() {
		done <- true
	})))
	<-done
}

// PlayAsync plays a cue without waiting for it to finish
func PlayAsync(cue Cue) {
	if !enabled {
		return
	}
	tone, err := Tone(cue, SampleRate)
	if err != nil {
		logger.Debug("Couldn't play sound", "err", err)
		return
	}
	if !ensureSpeakerInitialized() {
		return
	}
	speaker.Play(tone)
}

// StopAll stops all currently playing sounds
func StopAll() {
	if !speakerReady {
		return
	}
	speaker.Clear()
}
