//go:build audio_stub

package game

import (
	"locomotion/internal/locomotion"
	"locomotion/internal/sfx"
)

func InitAudio(volume float64) error       { return nil }
func PlayCue(c sfx.Cue, pan float64)       {}
func playEvents(events []locomotion.Event) {}
