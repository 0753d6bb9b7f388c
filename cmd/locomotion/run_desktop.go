//go:build !android

package main

import (
	"locomotion/internal/config"
	"locomotion/internal/game"
	"locomotion/internal/scene"
)

func run(cfg config.Config, opts scene.Options) { game.RunDesktop(cfg, opts) }
