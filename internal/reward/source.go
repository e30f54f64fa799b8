package reward

import (
	"math/rand/v2"
	"sync"
)

// MathSource draws from the process-wide non-deterministic generator.
type MathSource struct{}

func NewMathSource() MathSource {
	return MathSource{}
}

func (MathSource) Float64() float64 {
	return rand.Float64()
}

// SeededSource is reproducible for a given seed.
type SeededSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSeededSource(seed uint64) *SeededSource {
	return &SeededSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *SeededSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// ScriptedSource replays a fixed sequence, wrapping around at the end.
type ScriptedSource struct {
	mu     sync.Mutex
	values []float64
	next   int
}

func NewScriptedSource(values ...float64) *ScriptedSource {
	return &ScriptedSource{values: values}
}

func (s *ScriptedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}
