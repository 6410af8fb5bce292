package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Garsondee/tactical-overlays/internal/bridge"
	"github.com/Garsondee/tactical-overlays/internal/config"
	"github.com/Garsondee/tactical-overlays/internal/engine"
	"github.com/Garsondee/tactical-overlays/internal/event"
	"github.com/Garsondee/tactical-overlays/internal/host"
	"github.com/Garsondee/tactical-overlays/internal/logging"
)

func main() {
	var cfgPath string
	var flags config.Flags
	flag.StringVar(&cfgPath, "config", "", "path to a JSON config file")
	flag.StringVar(&flags.LogLevel, "log-level", "", "debug, info, warn or error")
	flag.StringVar(&flags.BridgeAddr, "addr", "", "listen address")
	flag.Parse()

	cfg := config.Default()
	if cfgPath != "" {
		var err error
		if cfg, err = config.Load(cfgPath); err != nil {
			log.Fatal(err)
		}
	}
	cfg.Resolve(flags)

	sev, err := logging.ParseSeverity(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	logger := logging.NewWriter(os.Stderr, sev)

	world := host.NewWorld()
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

	srv, err := bridge.New(bridge.Options{World: world, Bus: bus, Engine: eng, Logger: logger})
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		srv.Run(ctx)
		eng.Stop()
	}()

	server := srv.HTTPServer(cfg.BridgeAddr)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("shutdown: %v", err)
		}
	}()

	logger.Infof("listening on ws://%s/ws", cfg.BridgeAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Errorf("serve: %v", err)
		stop()
	}
	<-runDone
}
