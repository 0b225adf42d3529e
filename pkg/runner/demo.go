package runner

import "time"

// Step is one key of a scripted session.
type Step struct {
	Key   string
	Delay time.Duration
}

// DemoSteps clears the display and types 123 + 456 =, pausing between keys.
func DemoSteps() []Step {
	const (
		short = 300 * time.Millisecond
		long  = 500 * time.Millisecond
	)
	return []Step{
		{Key: "Escape", Delay: long},
		{Key: "1", Delay: short},
		{Key: "2", Delay: short},
		{Key: "3", Delay: short},
		{Key: "+", Delay: long},
		{Key: "4", Delay: short},
		{Key: "5", Delay: short},
		{Key: "6", Delay: short},
		{Key: "=", Delay: long},
	}
}

// Scale multiplies every step delay by f.
func Scale(steps []Step, f float64) []Step {
	out := make([]Step, len(steps))
	for i, s := range steps {
		out[i] = Step{Key: s.Key, Delay: time.Duration(float64(s.Delay) * f)}
	}
	return out
}
