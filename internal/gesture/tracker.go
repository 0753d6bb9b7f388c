package gesture

// Frame is every active touch for one input frame.
type Frame struct {
	Touches     []Touch
	DPI         float64 // zero when the platform cannot report it
	ScreenWidth float64
}

// Result is what the tracker made of a frame.
type Result struct {
	Fingers int
	Kind    Kind

	// One finger. Touch is set whenever a touch was accepted for
	// classification, including the Began and lift-off frames.
	Touch    Touch
	HasTouch bool
	Began    bool
	Stroke   Stroke
	Ended    bool
	Outcome  Outcome

	// Two fingers.
	Pair Pair

	// Reset is set when an in-flight gesture was dropped this frame.
	Reset bool
}

// Tracker routes frames to the one-finger or two-finger machine by finger
// count.
type Tracker struct {
	th      Thresholds
	one     *Classifier
	two     *TwoFinger
	blocked map[int]bool // fingers ignored until they lift
}

func NewTracker(th Thresholds) *Tracker {
	return &Tracker{
		th:      th,
		one:     NewClassifier(th),
		two:     NewTwoFinger(th),
		blocked: make(map[int]bool),
	}
}

func (tr *Tracker) Thresholds() Thresholds { return tr.th }

// Reset drops all gesture state.
func (tr *Tracker) Reset() {
	tr.one.Reset()
	tr.two.Reset()
	clear(tr.blocked)
}

func (tr *Tracker) Update(f Frame) Result {
	res := Result{Fingers: len(f.Touches)}

	switch len(f.Touches) {
	case 1:
	case 2:
		if tr.one.Active() {
			tr.one.Reset()
			res.Reset = true
		}
		res.Kind = TwoFingerRotate
		res.Pair = tr.two.Update(f.Touches[0], f.Touches[1], f.DPI)
		return res
	default:
		if tr.one.Active() || tr.two.Active() {
			res.Reset = true
		}
		tr.one.Reset()
		tr.two.Reset()
		if len(f.Touches) == 0 {
			clear(tr.blocked)
		}
		return res
	}

	t := f.Touches[0]

	// The finger left behind by a two-finger gesture never drives the
	// one-finger machine.
	if tr.two.Active() {
		tr.two.Reset()
		if !t.Phase.Done() {
			tr.blocked[t.ID] = true
		}
		return res
	}

	if t.Phase == Began {
		delete(tr.blocked, t.ID)
		if t.OverUI {
			tr.blocked[t.ID] = true
		}
	}
	if tr.blocked[t.ID] {
		if t.Phase.Done() {
			delete(tr.blocked, t.ID)
		}
		return res
	}

	res.Touch = t
	res.HasTouch = true

	switch t.Phase {
	case Began:
		tr.one.Begin(t, f.DPI, f.ScreenWidth)
		res.Began = true
	case Moved, Stationary:
		tr.one.Update(t)
	case Ended, Canceled:
		if !tr.one.Active() {
			return res
		}
		res.Ended = true
		res.Outcome = tr.one.End(t)
		res.Stroke = res.Outcome.Stroke
		res.Kind = res.Outcome.Kind
		return res
	}

	if tr.one.Active() {
		res.Stroke = tr.one.Stroke()
		res.Kind = res.Stroke.Kind
	}
	return res
}
