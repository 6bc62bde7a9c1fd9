package nbody

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/quartercastle/vector"
	"github.com/rs/zerolog/log"
)

type SimulationConfig struct {
	// Bounds is the region of the root node. Bodies leaving it keep moving
	// but are not part of the tree until they return.
	Bounds Region
	G      float64
	// Theta is the opening angle threshold. Unlike the other fields a zero
	// value is kept: Theta = 0 turns off the approximation.
	Theta float64
	// TimeStep is the dt of the semi-implicit euler integration.
	TimeStep     float64
	LeafCapacity int
	MaxDepth     int
	MinDistance  float64
	// Parallelization is the number of goroutines computing accelerations.
	// Values < 2 compute everything on the calling goroutine.
	Parallelization int
	// Rebuild clears and rebuilds the tree every step instead of removing
	// and reinserting single bodies.
	Rebuild bool
}

var DefaultSimulationConfig = SimulationConfig{
	Bounds:          Region{X: 0, Y: 0, Width: 1000, Height: 800},
	G:               1.0,
	Theta:           0.5,
	TimeStep:        1.0,
	LeafCapacity:    DefaultQuadTreeConfig.LeafCapacity,
	MaxDepth:        DefaultQuadTreeConfig.MaxDepth,
	MinDistance:     1e-9,
	Parallelization: runtime.NumCPU(),
}

// ApplyConfig fills zero values of conf with DefaultSimulationConfig and
// validates the result.
func ApplyConfig(conf SimulationConfig) (SimulationConfig, error) {
	if conf.Bounds.Width == 0.0 || conf.Bounds.Height == 0.0 {
		conf.Bounds = DefaultSimulationConfig.Bounds
	}
	if conf.G == 0.0 {
		conf.G = DefaultSimulationConfig.G
	}
	if conf.TimeStep == 0.0 {
		conf.TimeStep = DefaultSimulationConfig.TimeStep
	}
	if conf.LeafCapacity == 0 {
		conf.LeafCapacity = DefaultSimulationConfig.LeafCapacity
	}
	if conf.MaxDepth == 0 {
		conf.MaxDepth = DefaultSimulationConfig.MaxDepth
	}
	if conf.MinDistance == 0.0 {
		conf.MinDistance = DefaultSimulationConfig.MinDistance
	}
	if err := conf.Bounds.Validate(); err != nil {
		return conf, errors.Wrap(ErrInvalidConfig, err.Error())
	}
	switch {
	case conf.G < 0 || !isFinite(conf.G):
		return conf, errors.Wrapf(ErrInvalidConfig, "G=%v", conf.G)
	case conf.Theta < 0 || !isFinite(conf.Theta):
		return conf, errors.Wrapf(ErrInvalidConfig, "Theta=%v", conf.Theta)
	case conf.TimeStep < 0 || !isFinite(conf.TimeStep):
		return conf, errors.Wrapf(ErrInvalidConfig, "TimeStep=%v", conf.TimeStep)
	case conf.LeafCapacity < 0 || conf.MaxDepth < 0 || conf.MinDistance < 0:
		return conf, errors.Wrapf(ErrInvalidConfig, "LeafCapacity=%d MaxDepth=%d MinDistance=%v", conf.LeafCapacity, conf.MaxDepth, conf.MinDistance)
	}
	return conf, nil
}

func (conf *SimulationConfig) quadTreeConfig() *QuadTreeConfig {
	return &QuadTreeConfig{LeafCapacity: conf.LeafCapacity, MaxDepth: conf.MaxDepth}
}

func (conf *SimulationConfig) forceParams() ForceParams {
	return ForceParams{G: conf.G, Theta: conf.Theta, MinDistance: conf.MinDistance}
}

// StepStats describes the tree maintenance of a single step.
type StepStats struct {
	// Reinserted bodies were moved inside the tree.
	Reinserted int
	// Escaped bodies are outside of the bounds after the step.
	Escaped int
}

type Stats struct {
	Steps      int
	TotalTime  time.Duration
	Reinserted int
	// Escaped is the number of bodies outside of the bounds after the last
	// step.
	Escaped int
}

// Simulation owns the body list and the tree built from it.
type Simulation struct {
	conf     SimulationConfig
	bodies   []Body
	tree     *QuadTree
	step     int
	observer Observer
}

func NewSimulation(conf SimulationConfig, bodies []Body) (*Simulation, error) {
	conf, err := ApplyConfig(conf)
	if err != nil {
		return nil, err
	}
	s := &Simulation{conf: conf, bodies: make([]Body, len(bodies))}
	for i := range bodies {
		if err := bodies[i].validate(); err != nil {
			return nil, errors.Wrapf(err, "body %d", i)
		}
		s.bodies[i] = copyBody(bodies[i])
	}
	s.tree, err = BuildTree(conf.quadTreeConfig(), conf.Bounds, s.bodies)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// SetObserver registers o to receive the bodies after every step of Run.
func (s *Simulation) SetObserver(o Observer) {
	s.observer = o
}

// Bodies returns a copy of the current body list.
func (s *Simulation) Bodies() []Body {
	bodies := make([]Body, len(s.bodies))
	for i := range s.bodies {
		bodies[i] = copyBody(s.bodies[i])
	}
	return bodies
}

func (s *Simulation) Tree() *QuadTree {
	return s.tree
}

func (s *Simulation) Config() SimulationConfig {
	return s.conf
}

// Step advances all bodies by one TimeStep.
func (s *Simulation) Step() StepStats {
	var stats StepStats
	s.bodies, stats = step(s.tree, s.bodies, &s.conf)
	s.step++
	return stats
}

// Run executes steps until the given number of steps is reached or ctx is
// done.
func (s *Simulation) Run(ctx context.Context, steps int) Stats {
	startTime := time.Now()
	stats := Stats{}
simulation:
	for stats.Steps < steps {
		select {
		case <-ctx.Done():
			break simulation
		default:
			// continue stepping
		}
		stepStats := s.Step()
		stats.Steps += 1
		stats.Reinserted += stepStats.Reinserted
		if stepStats.Escaped != stats.Escaped {
			log.Ctx(ctx).Debug().Msgf("step %d: %d bodies outside of %+v", s.step, stepStats.Escaped, s.conf.Bounds)
		}
		stats.Escaped = stepStats.Escaped
		if s.observer != nil {
			s.observer.Frame(ctx, s.step, s.Bodies())
		}
	}
	stats.TotalTime = time.Since(startTime)
	log.Ctx(ctx).Info().Msgf(
		"simulation finished: stats{steps: %d, bodies: %d, escaped: %d, time: %d ms}",
		stats.Steps, len(s.bodies), stats.Escaped, stats.TotalTime.Milliseconds(),
	)
	return stats
}

// StepBodies advances bodies by one step against tree, which must hold
// every body of bodies lying inside its region. The tree is updated to the
// new positions, the input slice is left untouched.
func StepBodies(tree *QuadTree, bodies []Body, conf SimulationConfig) ([]Body, StepStats, error) {
	conf, err := ApplyConfig(conf)
	if err != nil {
		return nil, StepStats{}, err
	}
	next := make([]Body, len(bodies))
	for i := range bodies {
		if err := bodies[i].validate(); err != nil {
			return nil, StepStats{}, errors.Wrapf(err, "body %d", i)
		}
		next[i] = copyBody(bodies[i])
	}
	next, stats := step(tree, next, &conf)
	return next, stats, nil
}

// step updates bodies in place. All accelerations are computed against the
// tree as it is at the start of the step, the tree is mutated afterwards.
func step(tree *QuadTree, bodies []Body, conf *SimulationConfig) ([]Body, StepStats) {
	accelerations := calculateAccelerations(tree, bodies, conf.forceParams(), conf.Parallelization)
	previous := make([]vector.Vector, len(bodies))
	dt := conf.TimeStep
	for i := range bodies {
		previous[i] = bodies[i].Pos
		bodies[i].Vel = bodies[i].Vel.Add(accelerations[i].Scale(dt))
		bodies[i].Pos = bodies[i].Pos.Add(bodies[i].Vel.Scale(dt))
	}
	stats := StepStats{}
	if conf.Rebuild {
		tree.Clear()
	}
	for i := range bodies {
		if !conf.Rebuild {
			tree.Remove(Body{Mass: bodies[i].Mass, Pos: previous[i]})
		}
		if err := tree.Insert(bodies[i]); err != nil {
			stats.Escaped++
			continue
		}
		stats.Reinserted++
	}
	return bodies, stats
}

func calculateAccelerations(tree *QuadTree, bodies []Body, params ForceParams, parallelization int) []vector.Vector {
	accelerations := make([]vector.Vector, len(bodies))
	calculate := func(from, to int) {
		for i := from; i < to; i++ {
			accelerations[i] = tree.Acceleration(bodies[i], params)
		}
	}
	total := len(bodies)
	p := clamp(parallelization, 1, max(total, 1))
	if p == 1 {
		calculate(0, total)
		return accelerations
	}
	wg := sync.WaitGroup{}
	wg.Add(p)
	for i := 0; i < p; i++ {
		go func(i int) {
			defer wg.Done()
			calculate(i*total/p, (i+1)*total/p)
		}(i)
	}
	wg.Wait()
	return accelerations
}
