/*
 * nbody runs a Barnes-Hut gravity simulation. Initial bodies are read as json
 * (NBODY_INPUT, "-" for stdin) or generated, the bodies after the last step
 * are written to stdout in the same format.
 */
package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/suxatcode/nbody-quadtree/internal/app"
)

func main() {
	conf, err := app.GetEnvConfig()
	if err != nil {
		log.Fatal().Msgf("%v", err)
	}
	app.SetupLogging(conf)
	ctx := log.Logger.WithContext(context.Background())
	stats, err := app.Run(ctx, conf, os.Stdin, os.Stdout)
	if err != nil {
		log.Fatal().Msgf("%v", err)
	}
	log.Info().Msgf("Stats: %#v", stats)
}
