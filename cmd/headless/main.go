// Command headless runs the flock without a window and logs how it evolves:
// speed and finiteness checks, polarization and repairs.
package main

import (
	"flag"
	"math"
	"os"
	"time"

	"github.com/lao-tseu-is-alive/go-flock3d/pkg/simulation"
	"github.com/tochemey/goakt/v3/log"
)

func main() {
	configFile := flag.String("config", "", "configuration file (.json, .toml, .yaml)")
	steps := flag.Int("steps", 1000, "number of steps to run")
	every := flag.Int("every", 100, "log a report every N steps")
	workers := flag.Int("workers", 0, "override the number of force workers")
	seed := flag.Uint64("seed", 0, "override the random seed")
	flag.Parse()

	logger := log.New(log.InfoLevel, os.Stdout)

	cfg := simulation.DefaultConfig()
	if *configFile != "" {
		loaded, err := simulation.LoadConfig(*configFile)
		if err != nil {
			logger.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *seed > 0 {
		cfg.Seed = *seed
	}

	world, err := simulation.NewWorld(cfg, simulation.WithLogger(logger))
	if err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	start := time.Now()
	violations := 0
	for i := 1; i <= *steps; i++ {
		world.Step()
		violations += checkInvariants(world, logger)
		if *every > 0 && i%*every == 0 {
			report(world, logger)
		}
	}
	elapsed := time.Since(start)

	logger.Infof("📊 %d steps in %v (%.0f steps/sec), %d invariant violations",
		*steps, elapsed, float64(*steps)/elapsed.Seconds(), violations)
	if violations > 0 {
		os.Exit(1)
	}
}

// checkInvariants returns the number of agents that are too fast or not finite.
func checkInvariants(world *simulation.World, logger log.Logger) int {
	maxSpeed := world.Config().MaxSpeed
	bad := 0
	for _, a := range world.Agents() {
		if !a.IsFinite() {
			logger.Errorf("step %d: agent %d is not finite", world.StepCount(), a.ID)
			bad++
			continue
		}
		if speed := a.Velocity.Len(); speed > maxSpeed+1e-9 {
			logger.Errorf("step %d: agent %d speed %.6f exceeds %.6f", world.StepCount(), a.ID, speed, maxSpeed)
			bad++
		}
	}
	return bad
}

func report(world *simulation.World, logger log.Logger) {
	snap := world.Snapshot()
	ordinary, adversarial := snap.Counts()

	var meanSpeed float64
	minDist := math.Inf(1)
	for i, t := range snap.Agents {
		meanSpeed += t.Velocity.Len()
		for _, o := range snap.Agents[i+1:] {
			minDist = math.Min(minDist, t.Position.DistanceTo(o.Position))
		}
	}
	if len(snap.Agents) > 0 {
		meanSpeed /= float64(len(snap.Agents))
	}

	logger.Infof("step %d | agents %d predators %d | polarization %.3f | mean speed %.3f | min distance %.2f | occupied cells %d | repairs %d",
		snap.Step, ordinary, adversarial, snap.Polarization(), meanSpeed, minDist,
		world.Grid().Occupancy(), snap.Repairs)
}
