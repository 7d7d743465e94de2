// Package entropy supplies die faces to the rules core.
//
// The core only ever sees the Source capability. Production callers use a
// seeded Uniform generator; tests and replays use a Script whose faces are
// fixed in advance. Neither variant is a security boundary.
package entropy

import (
	"fmt"
	"math/rand"
	"sync"

	apperrors "github.com/louisbranch/darkforge/internal/platform/errors"
)

// Sides is the number of faces on every die the core rolls.
const Sides = 6

var (
	// ErrExhaustedSequence indicates a Script was drawn past its last face.
	ErrExhaustedSequence = apperrors.New(apperrors.CodeEntropyExhaustedSequence, "scripted sequence exhausted")
	// ErrInvalidFace indicates a face outside 1..6.
	ErrInvalidFace = apperrors.New(apperrors.CodeEntropyInvalidFace, "face must be between 1 and 6")
)

// Source yields die faces in 1..6. It must not block.
type Source interface {
	NextFace() (int, error)
}

// Draw takes exactly n faces from src, stopping at the first failure.
func Draw(src Source, n int) ([]int, error) {
	faces := make([]int, 0, n)
	for i := 0; i < n; i++ {
		face, err := src.NextFace()
		if err != nil {
			return nil, fmt.Errorf("draw face %d of %d: %w", i+1, n, err)
		}
		if face < 1 || face > Sides {
			return nil, fmt.Errorf("%w: got %d", ErrInvalidFace, face)
		}
		faces = append(faces, face)
	}
	return faces, nil
}

// Uniform is a seeded pseudo-random source. It is not safe for concurrent
// use; wrap it with Synchronized when sharing.
type Uniform struct {
	seed int64
	rng  *rand.Rand
}

// NewUniform returns a Uniform source that replays identically for a seed.
func NewUniform(seed int64) *Uniform {
	return &Uniform{seed: seed, rng: rand.New(rand.NewSource(seed))}
}

// Seed returns the seed the source was created with.
func (u *Uniform) Seed() int64 {
	return u.seed
}

// NextFace implements Source.
func (u *Uniform) NextFace() (int, error) {
	return u.rng.Intn(Sides) + 1, nil
}

// Script replays a fixed sequence of faces.
type Script struct {
	faces  []int
	cursor int
}

// NewScript validates faces and returns a Script over a copy of them.
func NewScript(faces ...int) (*Script, error) {
	for i, face := range faces {
		if face < 1 || face > Sides {
			return nil, fmt.Errorf("%w: face %d at position %d", ErrInvalidFace, face, i)
		}
	}
	return &Script{faces: append([]int(nil), faces...)}, nil
}

// NextFace implements Source. Once exhausted it keeps failing without
// advancing.
func (s *Script) NextFace() (int, error) {
	if s.cursor >= len(s.faces) {
		return 0, fmt.Errorf("%w after %d faces", ErrExhaustedSequence, len(s.faces))
	}
	face := s.faces[s.cursor]
	s.cursor++
	return face, nil
}

// Remaining reports how many faces are left.
func (s *Script) Remaining() int {
	return len(s.faces) - s.cursor
}

type synchronized struct {
	mu  sync.Mutex
	src Source
}

// Synchronized serializes draws on src so it can be shared across goroutines.
func Synchronized(src Source) Source {
	return &synchronized{src: src}
}

func (s *synchronized) NextFace() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.NextFace()
}

// Recorder wraps a source and remembers every face it handed out.
type Recorder struct {
	src   Source
	faces []int
}

// NewRecorder returns a Recorder over src.
func NewRecorder(src Source) *Recorder {
	return &Recorder{src: src}
}

// NextFace implements Source. Failed draws are not recorded.
func (r *Recorder) NextFace() (int, error) {
	face, err := r.src.NextFace()
	if err != nil {
		return 0, err
	}
	r.faces = append(r.faces, face)
	return face, nil
}

// Faces returns a copy of the faces drawn so far.
func (r *Recorder) Faces() []int {
	return append([]int(nil), r.faces...)
}

// Replay returns a Script that reproduces the recorded draws.
func (r *Recorder) Replay() (*Script, error) {
	return NewScript(r.faces...)
}
