// Package config loads the per-session tuning file. Every value has a default
// and is fixed once the session starts.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pelletier/go-toml/v2"

	"locomotion/internal/gesture"
	"locomotion/internal/locomotion"
	"locomotion/internal/spline"
)

type Path struct {
	TotalLength     float64    `toml:"total_length"`
	ForkRatio       float64    `toml:"fork_ratio"`
	LeftAngle       float64    `toml:"left_angle"`
	LeftLength      float64    `toml:"left_length"`
	SegmentsPerUnit float64    `toml:"segments_per_unit"`
	Direction       [3]float64 `toml:"direction"`
	RoadWidth       float64    `toml:"road_width"`
}

type Lanes struct {
	Count       int     `toml:"count"`
	Width       float64 `toml:"width"`
	SwitchSpeed float64 `toml:"switch_speed"`
}

type Movement struct {
	Mode              string  `toml:"mode"`
	BaseSpeed         float64 `toml:"base_speed"`
	MaxSpeed          float64 `toml:"max_speed"`
	CmToSpeed         float64 `toml:"cm_to_speed"`
	TapMoveDistance   float64 `toml:"tap_move_distance"`
	MoveDuration      float64 `toml:"move_duration"`
	ArriveDistance    float64 `toml:"arrive_distance"`
	NoHitDistance     float64 `toml:"no_hit_distance"`
	MaxRayDistance    float64 `toml:"max_ray_distance"`
	EyeHeight         float64 `toml:"eye_height"`
	SwipeMoveDistance float64 `toml:"swipe_move_distance"`
	StopBeforeEnd     float64 `toml:"stop_before_end"`
}

type Rotation struct {
	TwoFingerYaw         bool    `toml:"two_finger_yaw"`
	TwoFingerRotateSpeed float64 `toml:"two_finger_rotate_speed"`
	Speed                float64 `toml:"speed"`
	Invert               bool    `toml:"invert"`
	AllowPitch           bool    `toml:"allow_pitch"`
	PitchMin             float64 `toml:"pitch_min"`
	PitchMax             float64 `toml:"pitch_max"`
}

type Gesture struct {
	FallbackDPI       float64 `toml:"fallback_dpi"`
	HoldPixels        float64 `toml:"hold_pixels"`
	HoldTime          float64 `toml:"hold_time"`
	DeadZoneCm        float64 `toml:"dead_zone_cm"`
	SwipeVelocityCm   float64 `toml:"swipe_velocity_cm"`
	SwipeMaxDuration  float64 `toml:"swipe_max_duration"`
	SwipeMinCm        float64 `toml:"swipe_min_cm"`
	SwipeMinPixels    float64 `toml:"swipe_min_pixels"`
	TapPixels         float64 `toml:"tap_pixels"`
	DoubleTapInterval float64 `toml:"double_tap_interval"`
	RotatePixels      float64 `toml:"rotate_pixels"`
}

type Telemetry struct {
	LogFile string `toml:"log_file"` // empty disables the file
}

type Audio struct {
	Enabled bool    `toml:"enabled"`
	Volume  float64 `toml:"volume"`
}

// Config is the whole tuning file.
type Config struct {
	Scene     string    `toml:"scene"` // "spline" or "street"
	Path      Path      `toml:"path"`
	Lanes     Lanes     `toml:"lanes"`
	Movement  Movement  `toml:"movement"`
	Rotation  Rotation  `toml:"rotation"`
	Gesture   Gesture   `toml:"gesture"`
	Telemetry Telemetry `toml:"telemetry"`
	Audio     Audio     `toml:"audio"`
}

const (
	SceneSpline = "spline"
	SceneStreet = "street"
)

func Default() Config {
	p := spline.DefaultParams()
	s := locomotion.DefaultSettings()
	st := locomotion.DefaultStreetSettings()
	th := gesture.DefaultThresholds()
	return Config{
		Scene: SceneSpline,
		Path: Path{
			TotalLength:     p.TotalLength,
			ForkRatio:       p.ForkRatio,
			LeftAngle:       p.LeftAngle,
			LeftLength:      p.LeftLength,
			SegmentsPerUnit: p.SegmentsPerUnit,
			Direction:       p.Direction,
			RoadWidth:       3,
		},
		Lanes: Lanes{Count: s.LaneCount, Width: s.LaneWidth, SwitchSpeed: s.LaneSwitchSpeed},
		Movement: Movement{
			Mode:              s.Mode.String(),
			BaseSpeed:         s.BaseSpeed,
			MaxSpeed:          s.MaxSpeed,
			CmToSpeed:         s.CmToSpeed,
			TapMoveDistance:   s.TapMoveDistance,
			MoveDuration:      s.MoveDuration,
			ArriveDistance:    s.ArriveDistance,
			NoHitDistance:     st.NoHitDistance,
			MaxRayDistance:    st.MaxRayDistance,
			EyeHeight:         st.EyeHeight,
			SwipeMoveDistance: st.SwipeMoveDistance,
			StopBeforeEnd:     st.StopBeforeEnd,
		},
		Rotation: Rotation{
			TwoFingerYaw:         s.TwoFingerYaw,
			TwoFingerRotateSpeed: s.TwoFingerRotateSpeed,
			Speed:                s.RotationSpeed,
			Invert:               s.InvertRotation,
			AllowPitch:           s.AllowPitch,
			PitchMin:             s.PitchMin,
			PitchMax:             s.PitchMax,
		},
		Gesture: Gesture{
			FallbackDPI:       gesture.FallbackDPI,
			HoldPixels:        th.HoldPixels,
			HoldTime:          th.HoldTime,
			DeadZoneCm:        th.DeadZoneCm,
			SwipeVelocityCm:   th.SwipeVelocityCm,
			SwipeMaxDuration:  th.SwipeMaxDuration,
			SwipeMinCm:        th.SwipeMinCm,
			SwipeMinPixels:    th.SwipeMinPixels,
			TapPixels:         th.TapPixels,
			DoubleTapInterval: th.DoubleTapInterval,
			RotatePixels:      th.RotatePixels,
		},
		Telemetry: Telemetry{LogFile: "data.log"},
		Audio:     Audio{Enabled: true, Volume: 0.8},
	}
}

// Parse decodes data over the defaults. Unknown keys are an error so typos
// do not silently fall back to defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return cfg, fmt.Errorf("parse config: %w\n%s", err, strict.String())
		}
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Load reads path. An empty path returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Marshal encodes cfg as TOML.
func Marshal(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// Write marshals cfg to w.
func Write(w io.Writer, cfg Config) error {
	out, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Sanitize replaces values the session cannot run with and logs each change.
// It returns the number of adjustments.
func (c *Config) Sanitize() int {
	def := Default()
	n := 0
	fix := func(key string, bad bool, apply func()) {
		if !bad {
			return
		}
		apply()
		n++
		slog.Warn("config value out of range, using fallback", "key", key)
	}

	fix("scene", c.Scene != SceneSpline && c.Scene != SceneStreet, func() { c.Scene = def.Scene })
	m, err := locomotion.ParseMode(c.Movement.Mode)
	fix("movement.mode", err != nil || (c.Scene == SceneSpline && m.StreetOnly()),
		func() { c.Movement.Mode = def.Movement.Mode })

	fix("path.total_length", !(c.Path.TotalLength >= spline.MinLength), func() { c.Path.TotalLength = def.Path.TotalLength })
	fix("path.left_length", !(c.Path.LeftLength >= spline.MinLength), func() { c.Path.LeftLength = def.Path.LeftLength })
	fix("path.fork_ratio", !(c.Path.ForkRatio >= spline.MinForkRatio && c.Path.ForkRatio <= spline.MaxForkRatio),
		func() { c.Path.ForkRatio = mgl64.Clamp(c.Path.ForkRatio, spline.MinForkRatio, spline.MaxForkRatio) })
	fix("path.segments_per_unit", !(c.Path.SegmentsPerUnit > 0), func() { c.Path.SegmentsPerUnit = def.Path.SegmentsPerUnit })
	fix("path.direction", mgl64.Vec3(c.Path.Direction).LenSqr() < 1e-12, func() { c.Path.Direction = def.Path.Direction })
	fix("path.road_width", !(c.Path.RoadWidth > 0), func() { c.Path.RoadWidth = def.Path.RoadWidth })

	fix("lanes.count", c.Lanes.Count < 1, func() { c.Lanes.Count = def.Lanes.Count })
	fix("lanes.width", c.Lanes.Width < 0, func() { c.Lanes.Width = def.Lanes.Width })
	fix("lanes.switch_speed", !(c.Lanes.SwitchSpeed > 0), func() { c.Lanes.SwitchSpeed = def.Lanes.SwitchSpeed })

	fix("movement.max_speed", c.Movement.MaxSpeed < 0, func() { c.Movement.MaxSpeed = def.Movement.MaxSpeed })
	fix("movement.base_speed", c.Movement.BaseSpeed < 0, func() { c.Movement.BaseSpeed = def.Movement.BaseSpeed })
	fix("movement.move_duration", !(c.Movement.MoveDuration > 0), func() { c.Movement.MoveDuration = def.Movement.MoveDuration })
	fix("movement.arrive_distance", !(c.Movement.ArriveDistance > 0), func() { c.Movement.ArriveDistance = def.Movement.ArriveDistance })
	fix("movement.max_ray_distance", !(c.Movement.MaxRayDistance > 0), func() { c.Movement.MaxRayDistance = def.Movement.MaxRayDistance })
	fix("movement.stop_before_end", c.Movement.StopBeforeEnd < 0, func() { c.Movement.StopBeforeEnd = def.Movement.StopBeforeEnd })

	fix("rotation.pitch", c.Rotation.PitchMin > c.Rotation.PitchMax, func() {
		c.Rotation.PitchMin, c.Rotation.PitchMax = c.Rotation.PitchMax, c.Rotation.PitchMin
	})

	fix("gesture.fallback_dpi", !(c.Gesture.FallbackDPI > 0), func() { c.Gesture.FallbackDPI = def.Gesture.FallbackDPI })
	fix("gesture.hold_time", c.Gesture.HoldTime < 0, func() { c.Gesture.HoldTime = def.Gesture.HoldTime })
	fix("gesture.double_tap_interval", c.Gesture.DoubleTapInterval < 0, func() { c.Gesture.DoubleTapInterval = def.Gesture.DoubleTapInterval })

	fix("audio.volume", !(c.Audio.Volume >= 0 && c.Audio.Volume <= 1), func() {
		c.Audio.Volume = mgl64.Clamp(c.Audio.Volume, 0, 1)
	})
	return n
}

// SplineParams builds the road description. origin is where the entity
// stands when the scene starts.
func (c Config) SplineParams(origin mgl64.Vec3) spline.Params {
	return spline.Params{
		Origin:          origin,
		Direction:       c.Path.Direction,
		TotalLength:     c.Path.TotalLength,
		ForkRatio:       c.Path.ForkRatio,
		LeftAngle:       c.Path.LeftAngle,
		LeftLength:      c.Path.LeftLength,
		SegmentsPerUnit: c.Path.SegmentsPerUnit,
	}
}

func (c Config) Thresholds() gesture.Thresholds {
	g := c.Gesture
	return gesture.Thresholds{
		HoldPixels:        g.HoldPixels,
		HoldTime:          g.HoldTime,
		DeadZoneCm:        g.DeadZoneCm,
		SwipeVelocityCm:   g.SwipeVelocityCm,
		SwipeMaxDuration:  g.SwipeMaxDuration,
		SwipeMinCm:        g.SwipeMinCm,
		SwipeMinPixels:    g.SwipeMinPixels,
		TapPixels:         g.TapPixels,
		DoubleTapInterval: g.DoubleTapInterval,
		RotatePixels:      g.RotatePixels,
	}
}

// DPI returns reported when the platform knows it, else the configured
// fallback.
func (c Config) DPI(reported float64) float64 {
	if reported > 0 {
		return reported
	}
	return c.Gesture.FallbackDPI
}

func (c Config) mode() locomotion.Mode {
	m, _ := locomotion.ParseMode(c.Movement.Mode)
	return m
}

func (c Config) Settings() locomotion.Settings {
	return locomotion.Settings{
		Mode:                 c.mode(),
		BaseSpeed:            c.Movement.BaseSpeed,
		MaxSpeed:             c.Movement.MaxSpeed,
		CmToSpeed:            c.Movement.CmToSpeed,
		LaneCount:            c.Lanes.Count,
		LaneWidth:            c.Lanes.Width,
		LaneSwitchSpeed:      c.Lanes.SwitchSpeed,
		TwoFingerYaw:         c.Rotation.TwoFingerYaw,
		TwoFingerRotateSpeed: c.Rotation.TwoFingerRotateSpeed,
		RotationSpeed:        c.Rotation.Speed,
		InvertRotation:       c.Rotation.Invert,
		AllowPitch:           c.Rotation.AllowPitch,
		PitchMin:             c.Rotation.PitchMin,
		PitchMax:             c.Rotation.PitchMax,
		TapMoveDistance:      c.Movement.TapMoveDistance,
		MoveDuration:         c.Movement.MoveDuration,
		ArriveDistance:       c.Movement.ArriveDistance,
	}
}

func (c Config) StreetSettings() locomotion.StreetSettings {
	return locomotion.StreetSettings{
		Mode:              c.mode(),
		RotationSpeed:     c.Rotation.Speed,
		InvertRotation:    c.Rotation.Invert,
		AllowPitch:        c.Rotation.AllowPitch,
		PitchMin:          c.Rotation.PitchMin,
		PitchMax:          c.Rotation.PitchMax,
		MoveDuration:      c.Movement.MoveDuration,
		NoHitDistance:     c.Movement.NoHitDistance,
		MaxRayDistance:    c.Movement.MaxRayDistance,
		ArriveDistance:    c.Movement.ArriveDistance,
		EyeHeight:         c.Movement.EyeHeight,
		BaseSpeed:         c.Movement.BaseSpeed,
		MaxSpeed:          c.Movement.MaxSpeed,
		SwipeMoveDistance: c.Movement.SwipeMoveDistance,
		StopBeforeEnd:     c.Movement.StopBeforeEnd,
	}
}
