package main

import (
	"context"
	"flag"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/lao-tseu-is-alive/go-flock3d/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-flock3d/pkg/viewer"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/log"
)

func main() {
	configFile := flag.String("config", "", "configuration file (.json, .toml, .yaml)")
	width := flag.Int("width", 1280, "window width")
	height := flag.Int("height", 800, "window height")
	debug := flag.Bool("debug", false, "log debug messages")
	flag.Parse()

	level := log.InfoLevel
	if *debug {
		level = log.DebugLevel
	}
	logger := log.New(level, os.Stdout)

	cfg := simulation.DefaultConfig()
	if *configFile != "" {
		loaded, err := simulation.LoadConfig(*configFile)
		if err != nil {
			logger.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}

	ctx := context.Background()
	system, err := actor.NewActorSystem("Flock3D",
		actor.WithLogger(logger),
		actor.WithActorInitMaxRetries(3))
	if err != nil {
		logger.Fatalf("Failed to create actor system: %v", err)
	}
	if err := system.Start(ctx); err != nil {
		logger.Fatalf("Failed to start actor system: %v", err)
	}
	defer func() {
		_ = system.Stop(ctx)
	}()

	// Buffer to avoid blocking the world actor
	snapshotCh := make(chan *simulation.Snapshot, 10)
	worldPID, err := system.Spawn(ctx, "world", simulation.NewWorldActor(snapshotCh, cfg))
	if err != nil {
		logger.Fatalf("Failed to spawn world: %v", err)
	}

	game := viewer.NewGame(ctx, system, worldPID, snapshotCh, cfg, *width, *height)

	ebiten.SetWindowSize(*width, *height)
	ebiten.SetWindowTitle("Flock 3D")
	if err := ebiten.RunGame(game); err != nil {
		logger.Fatal(err)
	}
}
