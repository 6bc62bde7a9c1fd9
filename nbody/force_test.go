package nbody

import (
	"math"
	"testing"

	"github.com/quartercastle/vector"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/barneshut"
	"gonum.org/v1/gonum/spatial/r2"
)

type particle struct {
	pos  r2.Vec
	mass float64
}

func (p particle) Coord2() r2.Vec { return p.pos }
func (p particle) Mass() float64  { return p.mass }

// referenceAccelerations uses the naive path of gonum's barneshut.Plane.
func referenceAccelerations(bodies []Body, G float64) []r2.Vec {
	particles := make([]barneshut.Particle2, len(bodies))
	for i, b := range bodies {
		particles[i] = particle{pos: r2.Vec{X: b.Pos.X(), Y: b.Pos.Y()}, mass: b.Mass}
	}
	plane := barneshut.Plane{Particles: particles}
	acc := make([]r2.Vec, len(bodies))
	for i, p := range particles {
		acc[i] = r2.Scale(G/p.Mass(), plane.ForceOn(p, 0, barneshut.Gravity2))
	}
	return acc
}

func distance(a, b vector.Vector) float64 {
	return a.Sub(b).Magnitude()
}

var fourBodies = []Body{
	{Mass: 1, Pos: vector.Vector{5, 5}},
	{Mass: 2, Pos: vector.Vector{90, 90}},
	{Mass: 3, Pos: vector.Vector{95, 90}},
	{Mass: 4, Pos: vector.Vector{90, 95}},
}

func TestQuadTree_Acceleration_twoBodies(t *testing.T) {
	const G = 2.0
	qt, err := BuildTree(nil, Region{X: 0, Y: 0, Width: 10, Height: 10}, []Body{
		{Mass: 5, Pos: vector.Vector{0, 0}},
		{Mass: 5, Pos: vector.Vector{10, 0}},
	})
	assert := assert.New(t)
	assert.NoError(err)
	params := ForceParams{G: G, Theta: 0}
	acc := qt.Acceleration(Body{Mass: 5, Pos: vector.Vector{0, 0}}, params)
	force := acc.Scale(5)
	assert.InDelta(G*25/100, force.X(), 1e-12)
	assert.Equal(0.0, force.Y())
	acc = qt.Acceleration(Body{Mass: 5, Pos: vector.Vector{10, 0}}, params)
	assert.InDelta(-G*25/100/5, acc.X(), 1e-12)
	assert.Equal(0.0, acc.Y())
}

func TestQuadTree_Acceleration_selfForce(t *testing.T) {
	lone := Body{Mass: 3, Pos: vector.Vector{4, 2}}
	qt, err := BuildTree(nil, Region{X: 0, Y: 0, Width: 10, Height: 10}, []Body{lone})
	assert := assert.New(t)
	assert.NoError(err)
	for _, theta := range []float64{0, 0.5, 2} {
		assert.Equal(vector.Vector{0, 0}, qt.Acceleration(lone, ForceParams{G: 1, Theta: theta}))
	}
}

func TestQuadTree_Acceleration_emptyTree(t *testing.T) {
	qt := NewQuadTree(nil, Region{X: 0, Y: 0, Width: 10, Height: 10})
	acc := qt.Acceleration(Body{Mass: 1, Pos: vector.Vector{1, 1}}, ForceParams{G: 1, Theta: 0.5})
	assert.Equal(t, vector.Vector{0, 0}, acc)
}

func TestQuadTree_Acceleration_coincidentBodies(t *testing.T) {
	qt := NewQuadTree(&QuadTreeConfig{LeafCapacity: 1, MaxDepth: 4}, Region{X: 0, Y: 0, Width: 10, Height: 10})
	assert := assert.New(t)
	assert.NoError(qt.Insert(Body{Mass: 1, Pos: vector.Vector{3, 3}}))
	assert.NoError(qt.Insert(Body{Mass: 1, Pos: vector.Vector{3, 3}}))
	acc := qt.Acceleration(Body{Mass: 1, Pos: vector.Vector{3, 3}}, ForceParams{G: 1})
	assert.False(math.IsNaN(acc.X()) || math.IsNaN(acc.Y()))
	assert.Equal(vector.Vector{0, 0}, acc)
}

func TestQuadTree_Acceleration_largeTheta(t *testing.T) {
	bodies := []Body{
		{Mass: 1, Pos: vector.Vector{1, 1}},
		{Mass: 1, Pos: vector.Vector{9, 9}},
	}
	qt, err := BuildTree(nil, Region{X: 0, Y: 0, Width: 10, Height: 10}, bodies)
	assert := assert.New(t)
	assert.NoError(err)
	for _, theta := range []float64{0.7, 2, 100} {
		for i, target := range bodies {
			// the root holds the target, its aggregate must not be used
			exact := BruteForceAcceleration(target, bodies, ForceParams{G: 1})
			acc := qt.Acceleration(target, ForceParams{G: 1, Theta: theta})
			assert.InDeltaf(exact.X(), acc.X(), 1e-12, "theta=%v body %d", theta, i)
			assert.InDeltaf(exact.Y(), acc.Y(), 1e-12, "theta=%v body %d", theta, i)
		}
	}
}

func TestQuadTree_Acceleration_thetaConvergence(t *testing.T) {
	const G = 1.0
	qt, err := BuildTree(nil, Region{X: 0, Y: 0, Width: 100, Height: 100}, fourBodies)
	assert := assert.New(t)
	assert.NoError(err)
	for i, target := range fourBodies {
		exact := BruteForceAcceleration(target, fourBodies, ForceParams{G: G})
		lastErr := math.Inf(+1)
		for _, theta := range []float64{0.5, 0.3, 0.1, 0.05, 0} {
			acc := qt.Acceleration(target, ForceParams{G: G, Theta: theta})
			e := distance(acc, exact)
			assert.LessOrEqualf(e, lastErr+1e-15, "body %d: error grows for theta=%v", i, theta)
			lastErr = e
		}
		assert.InDelta(0.0, lastErr, 1e-15, "theta=0 is exact")
	}
	// the far cluster is approximated for body 0 at theta 0.5
	approx := qt.Acceleration(fourBodies[0], ForceParams{G: G, Theta: 0.5})
	exact := BruteForceAcceleration(fourBodies[0], fourBodies, ForceParams{G: G})
	assert.NotZero(distance(approx, exact))
	assert.Less(distance(approx, exact), 0.01*exact.Magnitude())
}

func TestBruteForceAcceleration_gonumReference(t *testing.T) {
	const G = 6.674e-1
	rect := Region{X: 0, Y: 0, Width: 1000, Height: 800}
	for _, test := range []struct {
		Name   string
		Bodies []Body
	}{
		{Name: "four bodies", Bodies: fourBodies},
		{Name: "random", Bodies: randomBodies(64, rect, 11)},
	} {
		t.Run(test.Name, func(t *testing.T) {
			qt, err := BuildTree(nil, rect, test.Bodies)
			assert := assert.New(t)
			assert.NoError(err)
			reference := referenceAccelerations(test.Bodies, G)
			for i, b := range test.Bodies {
				brute := BruteForceAcceleration(b, test.Bodies, ForceParams{G: G})
				tree := qt.Acceleration(b, ForceParams{G: G, Theta: 0})
				tol := 1e-9 * math.Max(1, brute.Magnitude())
				assert.InDelta(reference[i].X, brute.X(), tol)
				assert.InDelta(reference[i].Y, brute.Y(), tol)
				assert.InDelta(reference[i].X, tree.X(), tol)
				assert.InDelta(reference[i].Y, tree.Y(), tol)
			}
		})
	}
}

func TestQuadTree_Acceleration_approximationError(t *testing.T) {
	rect := Region{X: 0, Y: 0, Width: 1000, Height: 800}
	bodies := randomBodies(500, rect, 5)
	qt, err := BuildTree(nil, rect, bodies)
	assert.NoError(t, err)
	totalErr, total := 0.0, 0.0
	for _, b := range bodies {
		exact := BruteForceAcceleration(b, bodies, ForceParams{G: 1})
		approx := qt.Acceleration(b, ForceParams{G: 1, Theta: 0.5})
		totalErr += distance(approx, exact)
		total += exact.Magnitude()
	}
	assert.Less(t, totalErr/total, 0.05)
}

func TestEnergyAndMomentum(t *testing.T) {
	bodies := []Body{
		{Mass: 2, Pos: vector.Vector{0, 0}, Vel: vector.Vector{1, 0}},
		{Mass: 1, Pos: vector.Vector{3, 4}, Vel: vector.Vector{0, -2}},
	}
	assert := assert.New(t)
	assert.InDelta(0.5*2*1+0.5*1*4, KineticEnergy(bodies), 1e-12)
	assert.InDelta(-3*2*1/5.0, PotentialEnergy(bodies, ForceParams{G: 3}), 1e-12)
	assert.Equal(vector.Vector{2, -2}, TotalMomentum(bodies))
}

func BenchmarkQuadTree_Acceleration(b *testing.B) {
	rect := Region{X: 0, Y: 0, Width: 1000, Height: 800}
	bodies := randomBodies(10000, rect, 1)
	qt, _ := BuildTree(nil, rect, bodies)
	params := ForceParams{G: 1, Theta: 0.5}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		qt.Acceleration(bodies[i%len(bodies)], params)
	}
}
