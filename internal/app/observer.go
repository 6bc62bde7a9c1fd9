package app

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/suxatcode/nbody-quadtree/nbody"
)

// LogObserver implements nbody.Observer by logging the energy and momentum
// of every n-th frame. In a closed system both stay roughly constant, drift
// indicates a too large TimeStep or Theta.
type LogObserver struct {
	every  int
	params nbody.ForceParams
}

func NewLogObserver(every int, conf nbody.SimulationConfig) *LogObserver {
	return &LogObserver{
		every:  every,
		params: nbody.ForceParams{G: conf.G, Theta: conf.Theta, MinDistance: conf.MinDistance},
	}
}

func (o *LogObserver) Frame(ctx context.Context, step int, bodies []nbody.Body) {
	if o.every <= 0 || step%o.every != 0 {
		return
	}
	kinetic := nbody.KineticEnergy(bodies)
	potential := nbody.PotentialEnergy(bodies, o.params)
	momentum := nbody.TotalMomentum(bodies)
	log.Ctx(ctx).Debug().
		Int("step", step).
		Float64("kinetic", kinetic).
		Float64("potential", potential).
		Float64("energy", kinetic+potential).
		Floats64("momentum", momentum).
		Msg("frame")
}
