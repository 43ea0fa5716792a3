package engine

import (
	"fmt"
	"math/rand/v2"

	"github.com/SeamusWaldron/cubeturn/internal/cube"
)

// SourceScramble tags turns made by a Scrambler.
const SourceScramble = "scramble"

// Scrambler picks faces uniformly at random, with replacement. Consecutive
// picks may repeat or partially undo each other.
type Scrambler struct {
	seed uint64
	rng  *rand.Rand
}

// NewScrambler creates a scrambler whose picks are fully determined by seed.
func NewScrambler(seed uint64) *Scrambler {
	return &Scrambler{
		seed: seed,
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Seed returns the seed the scrambler was created with.
func (s *Scrambler) Seed() uint64 {
	return s.seed
}

// Pick returns the next random face.
func (s *Scrambler) Pick() cube.Face {
	faces := cube.Faces()
	return faces[s.rng.IntN(len(faces))]
}

// Scramble applies turns instant face turns to e and returns the faces used.
// It refuses to start while an animated turn holds the lock.
func (s *Scrambler) Scramble(e *Engine, turns int) ([]cube.Face, error) {
	if turns < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTurns, turns)
	}
	if e.Busy() {
		return nil, ErrBusy
	}

	picks := make([]cube.Face, 0, turns)
	for i := 0; i < turns; i++ {
		face := s.Pick()
		outcome, err := e.Submit(Request{Face: face, Direction: Forward, Source: SourceScramble})
		if err != nil {
			return picks, fmt.Errorf("failed to apply scramble turn %d: %w", i+1, err)
		}
		if outcome != Committed {
			return picks, fmt.Errorf("%w: scramble turn %d was %s", ErrBusy, i+1, outcome)
		}
		picks = append(picks, face)
	}
	return picks, nil
}
