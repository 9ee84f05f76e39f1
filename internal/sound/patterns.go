package sound

import "time"

const (
	Beep  = "beep"
	Chime = "chime"
	Alert = "alert"
)

var patterns = map[string]Pattern{
	Beep: {
		Name: Beep,
		Tones: []Tone{{
			Wave:   Sine,
			Length: 200 * time.Millisecond,
			Freq:   Constant(440),
			Gain:   Constant(0.1),
		}},
	},
	Chime: {
		Name: Chime,
		Tones: []Tone{{
			Wave:   Sine,
			Length: 500 * time.Millisecond,
			Freq:   Envelope{Start: 500, End: 1000, Ramp: 100 * time.Millisecond, Curve: Exponential},
			Gain:   Envelope{Start: 0.5, End: 0.01, Ramp: 500 * time.Millisecond, Curve: Exponential},
		}},
	},
	Alert: {
		Name: Alert,
		Tones: []Tone{
			{
				Wave:   Sawtooth,
				Length: 300 * time.Millisecond,
				Freq:   Envelope{Start: 200, End: 150, Ramp: 300 * time.Millisecond, Curve: Linear},
				Gain:   Constant(0.3),
			},
			{
				Wave:   Sawtooth,
				Offset: 400 * time.Millisecond,
				Length: 300 * time.Millisecond,
				Freq:   Constant(200),
				Gain:   Constant(0.3),
			},
		},
	},
}

// Lookup returns the named pattern. Unknown names get the beep.
func Lookup(name string) Pattern {
	if p, ok := patterns[name]; ok {
		return p
	}
	return patterns[Beep]
}
