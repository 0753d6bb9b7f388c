package telemetry

// Panel is an in-memory Display. Front ends read Lines each frame and draw
// them however they can.
type Panel struct {
	active   bool
	touch    string
	movement string
	gesture  string
}

func (p *Panel) SetTouchLog(s string)    { p.touch = s }
func (p *Panel) SetMovementLog(s string) { p.movement = s }
func (p *Panel) SetGestureLog(s string)  { p.gesture = s }
func (p *Panel) Active() bool            { return p.active }

// Toggle opens or closes the panel and returns the new state.
func (p *Panel) Toggle() bool {
	p.active = !p.active
	return p.active
}

// Lines returns the gesture, touch and movement logs, skipping empty ones.
func (p *Panel) Lines() []string {
	var out []string
	for _, s := range []string{p.gesture, p.touch, p.movement} {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
