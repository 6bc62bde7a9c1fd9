package nbody

import (
	"github.com/quartercastle/vector"
)

// ForceParams holds the constants of a force evaluation.
type ForceParams struct {
	// G is the gravitational constant.
	G float64
	// Theta defines the accuracy of the approximation, see
	// https://en.wikipedia.org/wiki/Barnes%E2%80%93Hut_simulation#Calculating_the_force_acting_on_a_body
	// With Theta = 0 every leaf is visited and the result is exact.
	Theta float64
	// Point masses closer than MinDistance contribute nothing.
	MinDistance float64
}

// Acceleration returns the gravitational acceleration acting on target.
// Bodies stored at the target's position are skipped, a body in the tree
// does not attract itself.
func (qt *QuadTree) Acceleration(target Body, params ForceParams) vector.Vector {
	acc := vector.Vector{0, 0}
	qt.accumulateAcceleration(acc, target, params)
	return acc
}

func (qt *QuadTree) accumulateAcceleration(acc vector.Vector, target Body, params ForceParams) {
	if qt.count == 0 {
		return
	}
	if qt.IsLeaf() {
		for _, other := range qt.Bodies {
			if samePosition(other.Pos, target.Pos) {
				continue
			}
			addGravity(acc, target, other.Pos, other.Mass, params)
		}
		return
	}
	d := qt.Center.Sub(target.Pos).Magnitude()
	// A node containing the target is always opened, its aggregate may
	// include the target itself. d == 0 never passes the check either:
	// Width/0 is +Inf.
	if !qt.Region.Contains(target.Pos) && d > params.MinDistance && qt.Region.Width/d < params.Theta {
		addGravity(acc, target, qt.Center, qt.TotalMass, params)
		return
	}
	for _, child := range qt.Children {
		child.accumulateAcceleration(acc, target, params)
	}
}

// addGravity adds the acceleration of target caused by a point mass at pos:
// F = G*m1*m2/d², a = F/m1, directed towards pos.
func addGravity(acc vector.Vector, target Body, pos vector.Vector, mass float64, params ForceParams) {
	delta := pos.Sub(target.Pos)
	dist := delta.Magnitude()
	if dist <= params.MinDistance {
		return
	}
	force := params.G * target.Mass * mass / (dist * dist)
	vector.In(acc).Add(delta.Scale(force / target.Mass / dist))
}

// BruteForceAcceleration sums the acceleration over all pairs, it is the
// exact reference for Acceleration.
func BruteForceAcceleration(target Body, bodies []Body, params ForceParams) vector.Vector {
	acc := vector.Vector{0, 0}
	for _, other := range bodies {
		if samePosition(other.Pos, target.Pos) {
			continue
		}
		addGravity(acc, target, other.Pos, other.Mass, params)
	}
	return acc
}

func KineticEnergy(bodies []Body) float64 {
	e := 0.0
	for _, b := range bodies {
		if len(b.Vel) == 0 {
			continue
		}
		v := b.Vel.Magnitude()
		e += 0.5 * b.Mass * v * v
	}
	return e
}

// PotentialEnergy is the exact pairwise gravitational potential energy.
func PotentialEnergy(bodies []Body, params ForceParams) float64 {
	e := 0.0
	for i := range bodies {
		for j := i + 1; j < len(bodies); j++ {
			dist := bodies[j].Pos.Sub(bodies[i].Pos).Magnitude()
			if dist <= params.MinDistance {
				continue
			}
			e -= params.G * bodies[i].Mass * bodies[j].Mass / dist
		}
	}
	return e
}

func TotalMomentum(bodies []Body) vector.Vector {
	p := vector.Vector{0, 0}
	for _, b := range bodies {
		if len(b.Vel) == 0 {
			continue
		}
		vector.In(p).Add(b.Vel.Scale(b.Mass))
	}
	return p
}
