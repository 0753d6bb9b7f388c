// Package scene wires the locomotion controllers to a front end: it owns the
// road, the camera, the HUD and the event bus, and exposes one Step per frame.
// Nothing here touches a graphics or audio API.
package scene

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"locomotion/internal/config"
	"locomotion/internal/gesture"
	"locomotion/internal/locomotion"
	"locomotion/internal/roadmesh"
	"locomotion/internal/spline"
	"locomotion/internal/telemetry"
)

// MaxFrame caps a single step so a stalled frame does not teleport the
// entity.
const MaxFrame = 0.1

// Options carries the collaborators a front end injects. All are optional.
type Options struct {
	Logger telemetry.Logger
	// Panel is shared with Logger when the logger mirrors records to it.
	Panel *telemetry.Panel
	Now   func() time.Time
}

// Session is one running scene.
type Session struct {
	cfg  config.Config
	opts Options

	Bus    *Bus
	Camera *Camera
	HUD    *HUD
	Panel  *telemetry.Panel

	mode   locomotion.Mode
	net    *spline.Network
	mesh   *roadmesh.Mesh
	road   *locomotion.Controller
	street *locomotion.StreetController
	ground locomotion.GroundPlane

	pose      locomotion.Transform
	clock     float64
	last      []locomotion.Event
	target    mgl64.Vec3
	hasTarget bool
}

// New builds the scene described by cfg. cfg is expected to be sanitised.
func New(cfg config.Config, opts Options) *Session {
	s := &Session{
		cfg:   cfg,
		opts:  opts,
		Bus:   NewBus(),
		HUD:   NewHUD(),
		Panel: opts.Panel,
		mode:  cfg.Settings().Mode,
	}
	if s.Panel == nil {
		s.Panel = &telemetry.Panel{}
	}
	if cfg.Scene == config.SceneStreet {
		s.Camera = NewFirstPersonCamera()
	} else {
		s.Camera = NewChaseCamera()
		s.net = spline.Build(cfg.SplineParams(mgl64.Vec3{}))
		s.mesh = roadmesh.Build(s.net, cfg.Path.RoadWidth)
	}
	s.Bus.SubscribeAll(func(e locomotion.Event) {
		slog.Debug("locomotion event", "type", e.Type, "lane", e.Lane, "branch", e.Branch, "pos", e.Position)
	})
	s.Bus.Subscribe(locomotion.EventMoveStarted, func(e locomotion.Event) {
		s.target, s.hasTarget = e.Position, true
	})
	drop := func(locomotion.Event) { s.hasTarget = false }
	s.Bus.Subscribe(locomotion.EventMoveArrived, drop)
	s.Bus.Subscribe(locomotion.EventMoveCanceled, drop)
	s.build(mgl64.Vec3{})
	return s
}

func (s *Session) deps() locomotion.Deps {
	return locomotion.Deps{Logger: s.opts.Logger, Display: s.Panel, Now: s.opts.Now}
}

// build (re)creates the controller for the current mode. Street sessions
// keep their position.
func (s *Session) build(start mgl64.Vec3) {
	th := s.cfg.Thresholds()
	if s.cfg.Scene == config.SceneStreet {
		set := s.cfg.StreetSettings()
		set.Mode = s.mode
		s.street = locomotion.NewStreet(start, set, th, locomotion.StreetDeps{
			Deps:      s.deps(),
			Camera:    s.Camera,
			Raycaster: s.ground,
		})
		s.pose = s.street.Eye()
	} else {
		set := s.cfg.Settings()
		set.Mode = s.mode
		s.road = locomotion.New(s.net, set, th, s.deps())
		s.pose, _ = s.road.Tick(0, locomotion.Input{})
	}
	s.hasTarget = false
	s.Camera.Snap()
	s.Camera.Follow(s.pose, 0)
}

func (s *Session) Scene() string              { return s.cfg.Scene }
func (s *Session) Mode() locomotion.Mode      { return s.mode }
func (s *Session) Network() *spline.Network   { return s.net }
func (s *Session) Mesh() *roadmesh.Mesh       { return s.mesh }
func (s *Session) Pose() locomotion.Transform { return s.pose }
func (s *Session) Clock() float64             { return s.clock }

// Events returns what happened during the last Step.
func (s *Session) Events() []locomotion.Event { return s.last }

// Road is nil in street scenes.
func (s *Session) Road() *locomotion.Controller { return s.road }

// Street is nil in spline scenes.
func (s *Session) Street() *locomotion.StreetController { return s.street }

// Cursor reports the street-view ground marker.
func (s *Session) Cursor() (locomotion.Cursor, bool) {
	if s.street == nil {
		return locomotion.Cursor{}, false
	}
	return s.street.Cursor(), true
}

func (s *Session) Resize(w, h int) {
	s.Camera.Resize(w, h)
	s.HUD.Layout(w, h)
}

// Step runs one frame: HUD first, then the controller, then listeners and
// the camera.
func (s *Session) Step(dt float64, in locomotion.Input) locomotion.Transform {
	dt = mgl64.Clamp(dt, 0, MaxFrame)
	s.clock += dt

	touches, actions := s.HUD.Filter(in.Touches)
	in.Touches = touches
	in.DPI = s.cfg.DPI(in.DPI)
	if in.ScreenWidth <= 0 {
		in.ScreenWidth, in.ScreenHeight = s.Camera.Width, s.Camera.Height
	}
	for _, a := range actions {
		s.Apply(a)
	}

	var events []locomotion.Event
	if s.street != nil {
		_, events = s.street.Tick(dt, in)
		s.pose = s.street.Eye()
	} else {
		s.pose, events = s.road.Tick(dt, in)
	}
	s.last = events
	for _, e := range events {
		s.Bus.Emit(e)
	}
	s.Camera.Follow(s.pose, dt)
	return s.pose
}

// Apply performs a HUD or keyboard action.
func (s *Session) Apply(a Action) {
	switch a {
	case ActionToggleMode:
		s.SetMode(s.nextMode())
	case ActionToggleDebug:
		open := s.Panel.Toggle()
		slog.Info("debug panel", "open", open)
	case ActionSlower:
		s.AdjustSpeed(-1)
	case ActionFaster:
		s.AdjustSpeed(1)
	}
}

// nextMode cycles through the schemes the current scene supports.
func (s *Session) nextMode() locomotion.Mode {
	modes := []locomotion.Mode{locomotion.ModeDragWalk, locomotion.ModeLookAround}
	if s.street != nil {
		modes = append(modes, locomotion.ModePaddle, locomotion.ModeGazeDrag)
	}
	for i, m := range modes {
		if m == s.mode {
			return modes[(i+1)%len(modes)]
		}
	}
	return modes[0]
}

// SetMode switches the control scheme. The spline entity restarts at the
// beginning of the road.
func (s *Session) SetMode(m locomotion.Mode) {
	if m == s.mode {
		return
	}
	s.mode = m
	start := mgl64.Vec3{}
	if s.street != nil {
		start = s.street.Position()
	}
	s.build(start)
	slog.Info("locomotion mode", "mode", m)
}

// AdjustSpeed nudges the spline drag base speed within [0, max speed]. Street
// scenes keep their configured speeds.
func (s *Session) AdjustSpeed(delta float64) {
	if s.road == nil {
		return
	}
	set := s.road.Settings()
	v := mgl64.Clamp(set.BaseSpeed+delta, 0, set.MaxSpeed)
	s.road.SetBaseSpeed(v)
	slog.Info("base speed", "value", v)
}

// Status is the one-line summary for the window title or HUD corner.
func (s *Session) Status() string {
	if s.street != nil {
		p := s.street.Position()
		return fmt.Sprintf("street/%s  pos (%.1f, %.1f)  yaw %.0f", s.mode, p.X(), p.Z(), s.street.Yaw())
	}
	st := s.road.State()
	return fmt.Sprintf("spline/%s  %s lane %d  %.0f%%  speed %.0f",
		s.mode, st.Branch, st.Lane, 100*s.road.Progress(), s.road.Settings().BaseSpeed)
}

// Overlay is the text the front end draws: the status line, plus the debug
// panel when it is open.
func (s *Session) Overlay() []string {
	lines := []string{s.Status()}
	if s.Panel.Active() {
		lines = append(lines, s.Panel.Lines()...)
	}
	return lines
}

// Thresholds exposes the gesture tuning so front ends can build a Pointer.
func (s *Session) Thresholds() gesture.Thresholds { return s.cfg.Thresholds() }
