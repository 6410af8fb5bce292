package main

import (
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/Garsondee/tactical-overlays/internal/config"
	"github.com/Garsondee/tactical-overlays/internal/engine"
	"github.com/Garsondee/tactical-overlays/internal/event"
	"github.com/Garsondee/tactical-overlays/internal/host"
	"github.com/Garsondee/tactical-overlays/internal/logging"
	"github.com/Garsondee/tactical-overlays/internal/tabletop"
)

func main() {
	var cfgPath string
	var flags config.Flags
	var seed int64
	flag.StringVar(&cfgPath, "config", "", "path to a JSON config file")
	flag.StringVar(&flags.LogLevel, "log-level", "", "debug, info, warn or error")
	flag.IntVar(&flags.Width, "width", 0, "window width")
	flag.IntVar(&flags.Height, "height", 0, "window height")
	flag.Int64Var(&seed, "seed", 0, "tracking number seed; 0 uses the clock")
	flag.Parse()

	cfg := config.Default()
	if cfgPath != "" {
		var err error
		if cfg, err = config.Load(cfgPath); err != nil {
			log.Fatal(err)
		}
	}
	cfg.Resolve(flags)
	if seed != 0 {
		cfg.TrackingSeed = seed
	}

	sev, err := logging.ParseSeverity(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	logger := logging.NewWriter(os.Stderr, sev)

	world := tabletop.DemoWorld()
	bus := event.NewBus(logger)
	eng, err := engine.New(engine.Deps{
		Platform:  world,
		Bus:       bus,
		Validator: host.NewObstacleValidator(),
		Logger:    logger,
		Config:    cfg,
	})
	if err != nil {
		log.Fatal(err)
	}
	if err := eng.Start(); err != nil {
		logger.Warnf("engine started with config problems: %v", err)
	}
	defer eng.Stop()

	game, err := tabletop.New(tabletop.Options{
		World:  world,
		Bus:    bus,
		Engine: eng,
		Logger: logger,
		Width:  cfg.WindowWidth,
		Height: cfg.WindowHeight,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer game.Close()

	ebiten.SetWindowTitle("Tactical Overlays")
	ebiten.SetWindowSize(cfg.WindowWidth, cfg.WindowHeight)
	if err := ebiten.RunGame(game); err != nil {
		logger.Errorf("run: %v", err)
	}
}
