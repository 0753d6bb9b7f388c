// Package sfx synthesises the short locomotion cues as interleaved stereo
// float32 PCM. Playback lives with the platform front ends.
package sfx

import (
	"io"
	"math"

	"locomotion/internal/locomotion"
)

const (
	SampleRate   = 44100
	ChannelCount = 2
	FrameBytes   = 8 // two little-endian float32 samples
)

// Cue identifies a sound effect.
type Cue int

const (
	CueLane Cue = iota
	CueFork
	CueMoveStart
	CueArrive
	CueBlocked
)

func (c Cue) String() string {
	switch c {
	case CueLane:
		return "lane"
	case CueFork:
		return "fork"
	case CueMoveStart:
		return "move"
	case CueArrive:
		return "arrive"
	case CueBlocked:
		return "blocked"
	}
	return "unknown"
}

// Play is one cue to start, with a stereo pan in [-1, 1].
type Play struct {
	Cue Cue
	Pan float64
}

// ForEvents maps one tick's controller events to cues. A swipe followed by a
// lane change pans the lane tick towards the swipe; a swipe with no lane
// change hit the road edge and plays the blocked buzz.
func ForEvents(events []locomotion.Event) []Play {
	var out []Play
	var swipe *locomotion.Event
	for i := range events {
		e := &events[i]
		switch e.Type {
		case locomotion.EventSwipe:
			if swipe != nil {
				out = append(out, Play{CueBlocked, 0.8 * float64(sign(swipe.Direction))})
			}
			swipe = e
		case locomotion.EventLaneChanged:
			pan := 0.0
			if swipe != nil {
				pan = 0.6 * float64(sign(swipe.Direction))
				swipe = nil
			}
			out = append(out, Play{CueLane, pan})
		case locomotion.EventBranchChanged:
			out = append(out, Play{CueFork, 0})
		case locomotion.EventMoveStarted:
			out = append(out, Play{CueMoveStart, 0})
		case locomotion.EventMoveArrived:
			out = append(out, Play{CueArrive, 0})
		}
	}
	if swipe != nil {
		out = append(out, Play{CueBlocked, 0.8 * float64(sign(swipe.Direction))})
	}
	return out
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// Generate renders c panned by pan (-1 left, 1 right).
func Generate(c Cue, pan float64) []byte {
	var mono []float64
	switch c {
	case CueLane:
		mono = genLane()
	case CueFork:
		mono = genFork()
	case CueMoveStart:
		mono = genWhoosh()
	case CueArrive:
		mono = genArrive()
	case CueBlocked:
		mono = genBlocked()
	default:
		return nil
	}
	return stereo(mono, pan)
}

// stereo applies an equal-power pan and soft saturation.
func stereo(mono []float64, pan float64) []byte {
	pan = math.Max(-1, math.Min(1, pan))
	a := (pan + 1) * math.Pi / 4
	l, r := math.Cos(a)*math.Sqrt2, math.Sin(a)*math.Sqrt2
	buf := makeBuf(len(mono))
	for i, s := range mono {
		putStereoF32LR(buf, i, softSat(s*l), softSat(s*r))
	}
	return buf
}

// Reader plays a rendered buffer once.
type Reader struct {
	data []byte
	pos  int
}

func NewReader(data []byte) *Reader { return &Reader{data: data} }

func (r *Reader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

// putStereoF32LR writes independent left/right samples in [-1,1].
func putStereoF32LR(buf []byte, i int, left, right float64) {
	lv := math.Float32bits(float32(left))
	rv := math.Float32bits(float32(right))
	buf[i*8] = byte(lv)
	buf[i*8+1] = byte(lv >> 8)
	buf[i*8+2] = byte(lv >> 16)
	buf[i*8+3] = byte(lv >> 24)
	buf[i*8+4] = byte(rv)
	buf[i*8+5] = byte(rv >> 8)
	buf[i*8+6] = byte(rv >> 16)
	buf[i*8+7] = byte(rv >> 24)
}

// softSat applies gentle tanh-like saturation with no hard clipping.
func softSat(x float64) float64 {
	if x > 1.0 {
		return 1.0 - 0.5/(x)
	}
	if x < -1.0 {
		return -1.0 + 0.5/(-x)
	}
	return x - x*x*x/3.0
}

// adsr returns an envelope at normalized progress [0,1].
// attack/decay/release are fractions of the total duration.
func adsr(progress, attack, decay, sustain, release float64) float64 {
	switch {
	case progress < attack:
		return progress / attack
	case progress < attack+decay:
		return 1.0 - (progress-attack)/decay*(1.0-sustain)
	case progress < 1.0-release:
		return sustain
	default:
		return sustain * (1.0 - (progress-(1.0-release))/release)
	}
}

// fm returns an FM-synthesized sample.
// carrier: base frequency, modRatio: modulator/carrier ratio, modIdx: modulation depth.
func fm(t, carrier, modRatio, modIdx float64) float64 {
	mod := math.Sin(2 * math.Pi * carrier * modRatio * t)
	return math.Sin(2*math.Pi*carrier*t + modIdx*mod)
}

// lcg advances an LCG seed and returns a noise sample in [-1,1].
func lcg(seed *uint64) float64 {
	*seed = *seed*6364136223846793005 + 1442695040888963407
	return float64(int64(*seed>>33)-int64(1<<30)) / float64(1<<30)
}

// makeBuf allocates a stereo float32 buffer for n samples.
func makeBuf(n int) []byte { return make([]byte, n*FrameBytes) }

func samples(seconds float64) int { return int(seconds * SampleRate) }

// genLane: short bright tick, rising.
func genLane() []float64 {
	n := samples(0.07)
	out := make([]float64, n)
	for i := range out {
		t := float64(i) / SampleRate
		p := float64(i) / float64(n)
		env := adsr(p, 0.004, 0.5, 0.0, 0.1)
		freq := 900 + 500*p
		out[i] = fm(t, freq, 1.0, 0.8) * env * 0.35
	}
	return out
}

// genFork: two-note bell chime, a fifth apart.
func genFork() []float64 {
	notes := []float64{659.25, 987.77} // E5 B5
	step := samples(0.08)
	total := len(notes)*step + samples(0.3)
	out := make([]float64, total)
	for ni, freq := range notes {
		start := ni * step
		dur := total - start
		for j := 0; j < dur; j++ {
			t := float64(start+j) / SampleRate
			np := float64(j) / float64(dur)
			env := adsr(np, 0.004, 0.6, 0.05, 0.3)
			out[start+j] += fm(t, freq, 2.756, 4.0*env) * env * 0.3
		}
	}
	return out
}

// genWhoosh: band-limited noise swept up and back down.
func genWhoosh() []float64 {
	n := samples(0.28)
	out := make([]float64, n)
	seed := uint64(0x5EED)
	var lp float64
	for i := range out {
		p := float64(i) / float64(n)
		env := math.Sin(math.Pi * p)
		cut := 0.04 + 0.25*math.Sin(math.Pi*p)
		lp += cut * (lcg(&seed) - lp)
		out[i] = lp * env * 0.9
	}
	return out
}

// genArrive: soft low thump.
func genArrive() []float64 {
	n := samples(0.12)
	out := make([]float64, n)
	for i := range out {
		t := float64(i) / SampleRate
		p := float64(i) / float64(n)
		env := adsr(p, 0.01, 0.4, 0.0, 0.2)
		freq := 180 - 80*p
		out[i] = math.Sin(2*math.Pi*freq*t) * env * 0.45
	}
	return out
}

// genBlocked: dull falling buzz.
func genBlocked() []float64 {
	n := samples(0.1)
	out := make([]float64, n)
	for i := range out {
		t := float64(i) / SampleRate
		p := float64(i) / float64(n)
		env := adsr(p, 0.01, 0.5, 0.1, 0.3)
		out[i] = fm(t, 220-60*p, 0.5, 2.0) * env * 0.3
	}
	return out
}
