// Package population creates the initial bodies of a simulation run, either
// generated from a seed or decoded from json.
package population

import (
	"encoding/json"
	"io"
	"math"
	"strings"

	"github.com/pkg/errors"
	"github.com/quartercastle/vector"
	"github.com/suxatcode/nbody-quadtree/nbody"
	"golang.org/x/exp/rand"
)

type Layout int

const (
	LayoutUndefined Layout = iota
	// uniformly distributed positions, random velocities
	LayoutRandom
	// bodies orbit a heavy central body
	LayoutDisc
	// evenly spread on a circle, at rest
	LayoutCircle
)

var layoutNames = map[string]Layout{
	"random": LayoutRandom,
	"disc":   LayoutDisc,
	"circle": LayoutCircle,
}

func ParseLayout(s string) (Layout, error) {
	if layout, ok := layoutNames[strings.ToLower(s)]; ok {
		return layout, nil
	}
	return LayoutUndefined, errors.Errorf("unknown layout '%s'", s)
}

type Config struct {
	Count  int
	Bounds nbody.Region
	// masses are drawn from [MassMin, MassMax)
	MassMin, MassMax float64
	// velocity components are drawn from [0, SpeedMax) for LayoutRandom
	SpeedMax float64
	Layout   Layout
	Seed     uint64
	// G is needed for the orbital velocities of LayoutDisc.
	G float64
	// CentralMass of LayoutDisc, defaults to the sum of all other masses.
	CentralMass float64
}

// 1000 planets in a 1000x800 window
var DefaultConfig = Config{
	Count:    1000,
	Bounds:   nbody.Region{X: 0, Y: 0, Width: 1000, Height: 800},
	MassMin:  1,
	MassMax:  1000,
	SpeedMax: 10,
	Layout:   LayoutRandom,
	Seed:     1,
	G:        1,
}

func (conf Config) withDefaults() Config {
	if conf.Count == 0 {
		conf.Count = DefaultConfig.Count
	}
	if conf.Bounds.Width == 0 || conf.Bounds.Height == 0 {
		conf.Bounds = DefaultConfig.Bounds
	}
	if conf.MassMin == 0 && conf.MassMax == 0 {
		conf.MassMin, conf.MassMax = DefaultConfig.MassMin, DefaultConfig.MassMax
	}
	if conf.Layout == LayoutUndefined {
		conf.Layout = DefaultConfig.Layout
	}
	if conf.G == 0 {
		conf.G = DefaultConfig.G
	}
	return conf
}

// Generate returns conf.Count bodies inside conf.Bounds. The same Seed
// always yields the same bodies.
func Generate(conf Config) ([]nbody.Body, error) {
	conf = conf.withDefaults()
	if conf.Count < 0 {
		return nil, errors.Errorf("negative body count %d", conf.Count)
	}
	if !(conf.MassMin > 0) || conf.MassMax < conf.MassMin {
		return nil, errors.Wrapf(nbody.ErrInvalidMass, "mass range [%v, %v)", conf.MassMin, conf.MassMax)
	}
	if err := conf.Bounds.Validate(); err != nil {
		return nil, err
	}
	rnd := rand.New(rand.NewSource(conf.Seed))
	switch conf.Layout {
	case LayoutRandom:
		return random(conf, rnd), nil
	case LayoutDisc:
		return disc(conf, rnd), nil
	case LayoutCircle:
		return circle(conf, rnd), nil
	}
	return nil, errors.Errorf("unknown layout %d", conf.Layout)
}

func mass(conf Config, rnd *rand.Rand) float64 {
	return conf.MassMin + rnd.Float64()*(conf.MassMax-conf.MassMin)
}

func random(conf Config, rnd *rand.Rand) []nbody.Body {
	bodies := make([]nbody.Body, conf.Count)
	for i := range bodies {
		bodies[i] = nbody.Body{
			Mass: mass(conf, rnd),
			Pos: vector.Vector{
				conf.Bounds.X + rnd.Float64()*conf.Bounds.Width,
				conf.Bounds.Y + rnd.Float64()*conf.Bounds.Height,
			},
			Vel: vector.Vector{rnd.Float64() * conf.SpeedMax, rnd.Float64() * conf.SpeedMax},
		}
	}
	return bodies
}

// disc puts a heavy body into the center, all other bodies get the circular
// orbit velocity around it.
func disc(conf Config, rnd *rand.Rand) []nbody.Body {
	if conf.Count == 0 {
		return []nbody.Body{}
	}
	center := conf.Bounds.Center()
	maxRadius := 0.45 * math.Min(conf.Bounds.Width, conf.Bounds.Height)
	bodies := make([]nbody.Body, conf.Count)
	total := 0.0
	for i := 1; i < len(bodies); i++ {
		r := maxRadius * (0.1 + 0.9*math.Sqrt(rnd.Float64()))
		angle := rnd.Float64() * 2 * math.Pi
		bodies[i] = nbody.Body{
			Mass: mass(conf, rnd),
			Pos:  vector.Vector{center.X() + r*math.Cos(angle), center.Y() + r*math.Sin(angle)},
		}
		total += bodies[i].Mass
	}
	central := conf.CentralMass
	if central <= 0 {
		central = math.Max(total, conf.MassMax)
	}
	bodies[0] = nbody.Body{Mass: central, Pos: center, Vel: vector.Vector{0, 0}}
	for i := 1; i < len(bodies); i++ {
		delta := bodies[i].Pos.Sub(center)
		r := delta.Magnitude()
		v := math.Sqrt(conf.G * central / r)
		bodies[i].Vel = vector.Vector{-delta.Y() / r * v, delta.X() / r * v}
	}
	return bodies
}

func circle(conf Config, rnd *rand.Rand) []nbody.Body {
	radius := 0.45 * math.Min(conf.Bounds.Width, conf.Bounds.Height)
	bodies := make([]nbody.Body, conf.Count)
	for i := range bodies {
		bodies[i] = nbody.Body{
			Mass: mass(conf, rnd),
			Pos:  pointOnCircle(i, conf.Count, radius, conf.Bounds.Center()),
			Vel:  vector.Vector{0, 0},
		}
	}
	return bodies
}

func pointOnCircle(i, total int, radius float64, center vector.Vector) vector.Vector {
	return vector.Vector{
		math.Sin(float64(i) * 2.0 * math.Pi / float64(total)),
		math.Cos(float64(i) * 2.0 * math.Pi / float64(total)),
	}.Scale(radius).Add(center)
}

// File is the json format read and written by the nbody command.
type File struct {
	Bounds *nbody.Region `json:"bounds,omitempty"`
	Bodies []nbody.Body  `json:"bodies"`
}

func Decode(r io.Reader) (*File, error) {
	f := File{}
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, errors.Wrap(err, "decode bodies")
	}
	for i, b := range f.Bodies {
		if len(b.Pos) != 2 {
			return nil, errors.Wrapf(nbody.ErrInvalidPosition, "body %d: pos=%v", i, b.Pos)
		}
		if len(b.Vel) != 0 && len(b.Vel) != 2 {
			return nil, errors.Wrapf(nbody.ErrInvalidVelocity, "body %d: vel=%v", i, b.Vel)
		}
	}
	return &f, nil
}

func Encode(w io.Writer, f *File) error {
	return errors.Wrap(json.NewEncoder(w).Encode(f), "encode bodies")
}
