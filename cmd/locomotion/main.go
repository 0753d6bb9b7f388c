// Command locomotion runs the touch locomotion scenes: a forked spline road
// walked with drags and swipes, or a free-roam street view moved by taps.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"locomotion/internal/config"
	"locomotion/internal/logx"
	"locomotion/internal/scene"
	"locomotion/internal/telemetry"
)

func main() {
	var (
		cfgPath  = flag.String("config", os.Getenv("LOCOMOTION_CONFIG"), "TOML tuning file (env LOCOMOTION_CONFIG)")
		logPath  = flag.String("log", "", "telemetry log file, overrides the config; \"-\" disables it")
		mode     = flag.String("mode", "", "control scheme: drag, look, paddle or gaze")
		sceneArg = flag.String("scene", "", "scene to open: spline or street")
		dump     = flag.Bool("print-config", false, "print the effective configuration and exit")
		verbose  = flag.Bool("v", false, "info logging")
		debug    = flag.Bool("vv", false, "debug logging")
		quiet    = flag.Bool("q", false, "errors only")
	)
	flag.Parse()
	logx.Setup(logx.LevelFromFlags(*debug, *verbose, *quiet))

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *mode != "" {
		cfg.Movement.Mode = *mode
	}
	if *sceneArg != "" {
		cfg.Scene = *sceneArg
	}
	switch *logPath {
	case "":
	case "-":
		cfg.Telemetry.LogFile = ""
	default:
		cfg.Telemetry.LogFile = *logPath
	}
	if n := cfg.Sanitize(); n > 0 {
		slog.Info("configuration adjusted", "fixes", n)
	}

	if *dump {
		if err := config.Write(os.Stdout, cfg); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	opts := scene.Options{Panel: &telemetry.Panel{}}
	if cfg.Telemetry.LogFile != "" {
		l, err := telemetry.Open(cfg.Telemetry.LogFile, opts.Panel)
		if err != nil {
			slog.Warn("telemetry disabled", "err", err)
		} else {
			defer l.Close()
			opts.Logger = l
		}
	}
	run(cfg, opts)
}
