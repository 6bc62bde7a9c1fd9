package nbody

import (
	"math"

	"github.com/pkg/errors"
	"github.com/quartercastle/vector"
)

// Quadrant indices, in the order used for subdivision and traversal.
const (
	NorthWest = iota // top left
	NorthEast        // top right
	SouthWest        // bottom left
	SouthEast        // bottom right
)

// Region is an axis-aligned rectangle with its origin in the top left
// corner, y grows downwards.
type Region struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains is inclusive on all four edges.
func (r Region) Contains(pos vector.Vector) bool {
	return pos.X() >= r.X && pos.X() <= r.X+r.Width && pos.Y() >= r.Y && pos.Y() <= r.Y+r.Height
}

func (r Region) Center() vector.Vector {
	return vector.Vector{r.X + r.Width/2, r.Y + r.Height/2}
}

func (r Region) Area() float64 {
	return r.Width * r.Height
}

// Quadrant returns the sub-rectangle with half width and height for one of
// NorthWest, NorthEast, SouthWest or SouthEast.
func (r Region) Quadrant(i int) Region {
	halfWidth := r.Width / 2
	halfHeight := r.Height / 2
	q := Region{X: r.X, Y: r.Y, Width: halfWidth, Height: halfHeight}
	if i == NorthEast || i == SouthEast {
		q.X += halfWidth
	}
	if i == SouthWest || i == SouthEast {
		q.Y += halfHeight
	}
	return q
}

// QuadrantOf assigns pos to exactly one quadrant. Points on the middle lines
// belong to the east/south side, so the quadrants behave as half-open
// rectangles while the parent stays closed.
func (r Region) QuadrantOf(pos vector.Vector) int {
	midX := r.X + r.Width/2
	midY := r.Y + r.Height/2
	i := NorthWest
	if pos.X() >= midX {
		i += 1
	}
	if pos.Y() >= midY {
		i += 2
	}
	return i
}

// Overlaps reports whether both rectangles share an area larger than zero;
// touching edges do not count.
func (r Region) Overlaps(o Region) bool {
	return r.X < o.X+o.Width && o.X < r.X+r.Width && r.Y < o.Y+o.Height && o.Y < r.Y+r.Height
}

func (r Region) Validate() error {
	for _, f := range []float64{r.X, r.Y, r.Width, r.Height} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return errors.Wrapf(ErrInvalidRegion, "non-finite region %+v", r)
		}
	}
	if r.Width <= 0 || r.Height <= 0 {
		return errors.Wrapf(ErrInvalidRegion, "region %+v must have positive width and height", r)
	}
	return nil
}
