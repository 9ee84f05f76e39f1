package sound

import (
	"math"
	"time"
)

// Wave is an oscillator shape.
type Wave int

const (
	Sine Wave = iota
	Sawtooth
)

// Curve is how an envelope moves from Start to End.
type Curve int

const (
	Hold Curve = iota
	Linear
	Exponential
)

// Envelope is a value that ramps from Start to End over Ramp and then holds
// End. Exponential ramps require Start and End to be positive.
type Envelope struct {
	Start float64
	End   float64
	Ramp  time.Duration
	Curve Curve
}

// Constant returns an envelope fixed at v.
func Constant(v float64) Envelope {
	return Envelope{Start: v, End: v}
}

// At returns the envelope value t after the tone started.
func (e Envelope) At(t time.Duration) float64 {
	if e.Curve == Hold || e.Ramp <= 0 {
		return e.Start
	}
	if t >= e.Ramp {
		return e.End
	}
	if t <= 0 {
		return e.Start
	}
	x := float64(t) / float64(e.Ramp)
	switch e.Curve {
	case Linear:
		return e.Start + (e.End-e.Start)*x
	case Exponential:
		return e.Start * math.Pow(e.End/e.Start, x)
	default:
		return e.Start
	}
}

// Tone is one oscillator started at Offset and stopped after Length.
type Tone struct {
	Wave   Wave
	Offset time.Duration
	Length time.Duration
	Freq   Envelope
	Gain   Envelope
}

func (t Tone) end() time.Duration {
	return t.Offset + t.Length
}

// Pattern is a named set of tones mixed together.
type Pattern struct {
	Name  string
	Tones []Tone
}

// Duration is the time until the last tone stops.
func (p Pattern) Duration() time.Duration {
	var d time.Duration
	for _, t := range p.Tones {
		if e := t.end(); e > d {
			d = e
		}
	}
	return d
}

// Render mixes the pattern into mono samples in [-1, 1].
func Render(p Pattern, sampleRate int) []float64 {
	if sampleRate <= 0 {
		return nil
	}
	n := sampleIndex(p.Duration(), sampleRate)
	out := make([]float64, n)
	step := time.Second / time.Duration(sampleRate)

	for _, tone := range p.Tones {
		first := sampleIndex(tone.Offset, sampleRate)
		last := sampleIndex(tone.end(), sampleRate)
		if last > n {
			last = n
		}

		phase := 0.0
		for i := first; i < last; i++ {
			t := time.Duration(i-first) * step
			out[i] += oscillate(tone.Wave, phase) * tone.Gain.At(t)

			phase += tone.Freq.At(t) / float64(sampleRate)
			phase -= math.Floor(phase)
		}
	}

	for i, v := range out {
		out[i] = math.Max(-1, math.Min(1, v))
	}
	return out
}

func sampleIndex(d time.Duration, sampleRate int) int {
	return int(math.Round(d.Seconds() * float64(sampleRate)))
}

// oscillate evaluates one period of w at phase in [0, 1).
func oscillate(w Wave, phase float64) float64 {
	switch w {
	case Sawtooth:
		return 2 * (phase - math.Floor(phase+0.5))
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}
