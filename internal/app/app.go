package app

import (
	"context"
	"io"
	"os"
	"runtime/pprof"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/suxatcode/nbody-quadtree/internal/population"
	"github.com/suxatcode/nbody-quadtree/nbody"
)

const InputStdin = "-"

type Config struct {
	Production bool `env:"PRODUCTION" envDefault:"false"`
	// Levels are {trace, debug, info, warn, error, fatal, panic}.
	// See github.com/rs/zerolog@v1.19.0/log.go for possible values.
	LogLevel string `env:"LOGLEVEL" envDefault:"info"`
	// Timeout stops the simulation early, 0 runs all Steps.
	Timeout time.Duration `env:"NBODY_TIMEOUT" envDefault:"0s"`
	Steps   int           `env:"NBODY_STEPS" envDefault:"100"`
	// LogEvery logs energy and momentum every n steps, 0 disables it.
	LogEvery int `env:"NBODY_LOG_EVERY" envDefault:"10"`
	// CPUProfile is written while the simulation runs, if set.
	CPUProfile string `env:"NBODY_CPUPROFILE" envDefault:""`

	// Input is a json file with the initial bodies, "-" reads stdin. Bodies
	// are generated if empty.
	Input  string  `env:"NBODY_INPUT" envDefault:""`
	Count  int     `env:"NBODY_COUNT" envDefault:"1000"`
	Seed   uint64  `env:"NBODY_SEED" envDefault:"1"`
	Layout string  `env:"NBODY_LAYOUT" envDefault:"random"`
	Width  float64 `env:"NBODY_WIDTH" envDefault:"1000"`
	Height float64 `env:"NBODY_HEIGHT" envDefault:"800"`

	G            float64 `env:"NBODY_G" envDefault:"1"`
	Theta        float64 `env:"NBODY_THETA" envDefault:"0.5"`
	TimeStep     float64 `env:"NBODY_DT" envDefault:"1"`
	LeafCapacity int     `env:"NBODY_LEAF_CAPACITY" envDefault:"1"`
	// 0 uses one goroutine per cpu
	Parallelization int  `env:"NBODY_PARALLELIZATION" envDefault:"0"`
	Rebuild         bool `env:"NBODY_REBUILD" envDefault:"false"`
}

func GetEnvConfig() (Config, error) {
	conf := Config{}
	if err := env.Parse(&conf); err != nil {
		return conf, errors.Wrap(err, "parse environment")
	}
	return conf, nil
}

func (conf Config) bounds() nbody.Region {
	return nbody.Region{X: 0, Y: 0, Width: conf.Width, Height: conf.Height}
}

func (conf Config) SimulationConfig() nbody.SimulationConfig {
	sc := nbody.SimulationConfig{
		Bounds:          conf.bounds(),
		G:               conf.G,
		Theta:           conf.Theta,
		TimeStep:        conf.TimeStep,
		LeafCapacity:    conf.LeafCapacity,
		Parallelization: conf.Parallelization,
		Rebuild:         conf.Rebuild,
	}
	if sc.Parallelization == 0 {
		sc.Parallelization = nbody.DefaultSimulationConfig.Parallelization
	}
	return sc
}

func (conf Config) PopulationConfig() (population.Config, error) {
	layout, err := population.ParseLayout(conf.Layout)
	if err != nil {
		return population.Config{}, err
	}
	pc := population.DefaultConfig
	pc.Count = conf.Count
	pc.Seed = conf.Seed
	pc.Layout = layout
	pc.Bounds = conf.bounds()
	pc.G = conf.G
	return pc, nil
}

// SetupLogging configures the global zerolog logger, human readable unless
// running in production.
func SetupLogging(conf Config) {
	level, err := zerolog.ParseLevel(conf.LogLevel)
	if err != nil {
		println("failed to parse LogLevel: '" + conf.LogLevel + "', setting to info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if !conf.Production {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// Run loads or generates the initial bodies, simulates conf.Steps steps and
// writes the final bodies as json to out.
func Run(ctx context.Context, conf Config, in io.Reader, out io.Writer) (nbody.Stats, error) {
	simConf := conf.SimulationConfig()
	bodies, bounds, err := loadBodies(conf, in)
	if err != nil {
		return nbody.Stats{}, err
	}
	if bounds != nil {
		simConf.Bounds = *bounds
	}
	sim, err := nbody.NewSimulation(simConf, bodies)
	if err != nil {
		return nbody.Stats{}, errors.Wrap(err, "create simulation")
	}
	log.Ctx(ctx).Info().Msgf("Config: %#v", sim.Config())
	if conf.LogEvery > 0 {
		sim.SetObserver(NewLogObserver(conf.LogEvery, sim.Config()))
	}
	if conf.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, conf.Timeout)
		defer cancel()
	}
	if conf.CPUProfile != "" {
		f, err := os.Create(conf.CPUProfile)
		if err != nil {
			return nbody.Stats{}, errors.Wrap(err, "create cpu profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return nbody.Stats{}, errors.Wrap(err, "start cpu profile")
		}
		defer pprof.StopCPUProfile()
	}
	stats := sim.Run(ctx, conf.Steps)
	final := sim.Config().Bounds
	if err := population.Encode(out, &population.File{Bounds: &final, Bodies: sim.Bodies()}); err != nil {
		return stats, err
	}
	return stats, nil
}

func loadBodies(conf Config, in io.Reader) ([]nbody.Body, *nbody.Region, error) {
	switch conf.Input {
	case "":
		pc, err := conf.PopulationConfig()
		if err != nil {
			return nil, nil, err
		}
		bodies, err := population.Generate(pc)
		return bodies, nil, err
	case InputStdin:
		f, err := population.Decode(in)
		if err != nil {
			return nil, nil, err
		}
		return f.Bodies, f.Bounds, nil
	}
	file, err := os.Open(conf.Input)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open input '%s'", conf.Input)
	}
	defer file.Close()
	f, err := population.Decode(file)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "input '%s'", conf.Input)
	}
	return f.Bodies, f.Bounds, nil
}
