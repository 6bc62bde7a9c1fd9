package nbody

import (
	"math"

	"github.com/pkg/errors"
	"github.com/quartercastle/vector"
	"golang.org/x/exp/constraints"
)

var (
	ErrOutOfBounds     = errors.New("body position outside of tree region")
	ErrInvalidMass     = errors.New("body mass must be positive and finite")
	ErrInvalidPosition = errors.New("body position must be a finite 2D vector")
	ErrInvalidVelocity = errors.New("body velocity must be empty or a finite 2D vector")
	ErrInvalidRegion   = errors.New("invalid region")
	ErrInvalidConfig   = errors.New("invalid simulation config")
)

// Body is a point mass. The tree keeps value copies, bodies inside the tree
// are found again by their position.
type Body struct {
	Mass float64       `json:"mass"`
	Pos  vector.Vector `json:"pos"`
	Vel  vector.Vector `json:"vel,omitempty"`
}

// copyBody returns b with vectors that do not share memory with b.
func copyBody(b Body) Body {
	c := Body{Mass: b.Mass, Pos: vector.Vector{b.Pos.X(), b.Pos.Y()}}
	if len(b.Vel) == 0 {
		c.Vel = vector.Vector{0, 0}
	} else {
		c.Vel = vector.Vector{b.Vel.X(), b.Vel.Y()}
	}
	return c
}

func (b Body) validate() error {
	if !(b.Mass > 0) || math.IsInf(b.Mass, 0) {
		return errors.Wrapf(ErrInvalidMass, "mass=%v", b.Mass)
	}
	if len(b.Pos) != 2 || !isFinite(b.Pos.X()) || !isFinite(b.Pos.Y()) {
		return errors.Wrapf(ErrInvalidPosition, "pos=%v", b.Pos)
	}
	if len(b.Vel) != 0 && (len(b.Vel) != 2 || !isFinite(b.Vel.X()) || !isFinite(b.Vel.Y())) {
		return errors.Wrapf(ErrInvalidVelocity, "vel=%v", b.Vel)
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func samePosition(a, b vector.Vector) bool {
	return a.X() == b.X() && a.Y() == b.Y()
}

func clamp[T constraints.Ordered](in, lo, hi T) T {
	if in > hi {
		return hi
	} else if in < lo {
		return lo
	}
	return in
}
