package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"github.com/plus3/scenecore/ecs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ecs-stress: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := ecs.LoadConfig()
	if err != nil {
		return err
	}

	duration := flag.Duration("duration", 10*time.Second, "The total duration the test should run for.")
	entityCount := flag.Int("entities", 10000, "The initial number of entities to create.")
	depth := flag.Int("depth", 6, "The maximum depth of the generated scene tree.")
	systemCount := flag.Int("systems", 50, "The number of filler systems registered at random priorities.")
	workers := flag.Int("workers", cfg.Workers, "Goroutines used by the world position pass (overrides ECS_WORKERS).")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "Seed for the random scene.")
	format := flag.String("format", "text", "Report format: text or yaml.")
	profileMode := flag.String("profile", "", "Write a cpu or mem profile to the working directory.")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	verbose := flag.Bool("v", false, "Log world and scheduler activity at debug level.")
	flag.Parse()

	if *format != "text" && *format != "yaml" {
		return fmt.Errorf("unknown report format %q", *format)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	switch *profileMode {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		return fmt.Errorf("unknown profile mode %q", *profileMode)
	}

	cfg.Workers = *workers
	cfg.InitialCapacity = max(cfg.InitialCapacity, *entityCount)

	logger.Info("starting ECS stress test", "entities", *entityCount, "depth", *depth, "systems", *systemCount, "seed", *seed)

	registry := ecs.NewComponentRegistry()
	registerComponents(registry)
	world := ecs.NewWorld(registry, ecs.WithConfig(cfg), ecs.WithLogger(logger))

	rng := rand.New(rand.NewPCG(*seed, *seed>>1))
	pop := newPopulation(rng, *depth)
	lifetime := registerSystems(world, rng, pop, *systemCount)

	logger.Info("populating world", "world", world.ID())
	for range *entityCount {
		if _, err := pop.spawn(world); err != nil {
			return fmt.Errorf("populate: %w", err)
		}
	}
	if err := world.Hierarchy().Validate(); err != nil {
		return fmt.Errorf("populate: %w", err)
	}

	report := &Report{
		Duration:       *duration,
		Entities:       *entityCount,
		Depth:          *depth,
		Systems:        *systemCount,
		Workers:        world.Config().Workers,
		Seed:           *seed,
		GCPauseMetrics: *gcPauseMetrics,
	}

	runtime.ReadMemStats(&report.MemStatsStart)

	logger.Info("running simulation", "duration", *duration)
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	startTime := time.Now()
	lastFrameTime := startTime

Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			deltaTime := min(time.Since(lastFrameTime), world.Config().MaxFrameDelta)
			lastFrameTime = time.Now()

			stepStart := time.Now()
			world.Step(deltaTime.Seconds())
			report.UpdateTime.Samples = append(report.UpdateTime.Samples, time.Since(stepStart))
			report.TotalUpdates++
		}
	}

	report.TotalTime = time.Since(startTime)
	report.UpdateTime.Finalize()
	runtime.ReadMemStats(&report.MemStatsEnd)

	report.FinalEntities = world.EntityCount()
	report.Expired = lifetime.Expired
	report.Respawned = lifetime.Respawned
	report.SystemStats = world.Scheduler().GetStats().Systems

	if err := world.Hierarchy().Validate(); err != nil {
		logger.Error("scene tree corrupted", "error", err)
	}
	logger.Info("simulation finished", "frames", report.TotalUpdates)

	if *format == "yaml" {
		return report.GenerateYAML(os.Stdout)
	}
	return report.Generate(os.Stdout)
}
