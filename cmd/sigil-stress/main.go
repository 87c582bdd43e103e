package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/plus3/sigil/diag"
	"github.com/plus3/sigil/entity"
	"github.com/plus3/sigil/scene"
)

func main() {
	duration := flag.Duration("duration", 10*time.Second, "The total duration the test should run for.")
	entityCount := flag.Int("entities", 10000, "The number of entities to generate.")
	ruleCount := flag.Int("rules", 200, "The number of rules to generate.")
	configPath := flag.String("config", "", "Optional YAML file overriding the generator defaults.")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	log.Println("Starting rule engine stress test...")

	// Diagnostics go to both the log and a counter; a healthy steady state
	// emits none at all.
	counter := &diag.Collector{}
	reporter := diag.NewReporter(diag.NewZapSink(logger), counter)
	w := scene.NewWorld(entity.Config{
		GlobalCapacity: cfg.GlobalCapacity,
		SceneCapacity:  cfg.SceneCapacity,
	}, reporter)

	rng := rand.New(rand.NewSource(cfg.Seed))
	log.Printf("Populating world with %d entities...\n", *entityCount)
	for i := 0; i < *entityCount; i++ {
		if !spawnRandomEntity(w, cfg, rng, i) {
			log.Printf("Scene partition full after %d entities.\n", i)
			break
		}
	}
	if err := generateRules(w, cfg, rng, *ruleCount); err != nil {
		log.Fatalf("Failed to generate rules: %v", err)
	}
	log.Printf("Population complete: %d rules over %d interned selectors.\n", w.Rules.Len(), w.Selectors.Size())

	report := &Report{
		Duration:       *duration,
		Entities:       *entityCount,
		Rules:          w.Rules.Len(),
		Selectors:      w.Selectors.Size(),
		GCPauseMetrics: *gcPauseMetrics,
		FrameTime: Stats{
			Samples: make([]time.Duration, 0),
		},
	}

	runtime.ReadMemStats(&report.MemStatsStart)

	log.Printf("Running simulation for %s...\n", *duration)
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	startTime := time.Now()
	var totalFrames int64
	lastFrameTime := time.Now()

Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			deltaTime := time.Since(lastFrameTime)
			lastFrameTime = time.Now()

			frameStart := time.Now()
			w.RunFrame(float64(deltaTime) / float64(time.Second))
			frameDuration := time.Since(frameStart)

			report.FrameTime.Samples = append(report.FrameTime.Samples, frameDuration)
			totalFrames++
		}
	}

	report.TotalTime = time.Since(startTime)
	report.TotalFrames = totalFrames
	report.Diagnostics = len(counter.Records)
	report.FrameTime.Finalize()
	runtime.ReadMemStats(&report.MemStatsEnd)

	log.Println("Simulation finished.")

	fmt.Println("\n\n--- Stress Test Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}
	fmt.Println("--- End of Report ---")

	log.Println("Stress test complete.")
}
