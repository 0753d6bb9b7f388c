//go:build !audio_stub

package game

import (
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/oto/v2"

	"locomotion/internal/locomotion"
	"locomotion/internal/sfx"
)

const (
	BitDepth  = 0 // 32-bit float (oto.FormatFloat32LE)
	maxVoices = 4
)

// AudioSystem plays procedural locomotion cues.
type AudioSystem struct {
	ctx    *oto.Context
	ready  chan struct{}
	volume float64
}

var globalAudio *AudioSystem

// activeVoices limits overlapping cues so rapid swipes do not clip.
var activeVoices int32

// InitAudio initializes the audio system.
func InitAudio(volume float64) error {
	ctx, ready, err := oto.NewContext(sfx.SampleRate, sfx.ChannelCount, BitDepth)
	if err != nil {
		return err
	}
	globalAudio = &AudioSystem{ctx: ctx, ready: ready, volume: volume}
	return nil
}

// PlayCue renders and plays c on its own goroutine.
func PlayCue(c sfx.Cue, pan float64) {
	if globalAudio == nil || globalAudio.volume <= 0 {
		return
	}
	select {
	case <-globalAudio.ready:
	default:
		return
	}
	if atomic.AddInt32(&activeVoices, 1) > maxVoices {
		atomic.AddInt32(&activeVoices, -1)
		return
	}
	samples := sfx.Generate(c, pan)
	if len(samples) == 0 {
		atomic.AddInt32(&activeVoices, -1)
		return
	}
	go func() {
		defer atomic.AddInt32(&activeVoices, -1)
		player := globalAudio.ctx.NewPlayer(sfx.NewReader(samples))
		player.SetVolume(globalAudio.volume)
		player.Play()
		for player.IsPlaying() {
			time.Sleep(10 * time.Millisecond)
		}
		player.Close()
	}()
}

// playEvents turns one frame's events into cues. Swipe and lane events
// from one Step must arrive together.
func playEvents(events []locomotion.Event) {
	for _, p := range sfx.ForEvents(events) {
		PlayCue(p.Cue, p.Pan)
	}
}
