package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"synth-depth-go/internal/engine"
	"synth-depth-go/internal/processing"
	"synth-depth-go/internal/scene"
)

func main() {
	var (
		configPath    = flag.String("config", "", "TOML file overriding the default scene parameters")
		seed          = flag.Uint64("seed", 42, "Seed for every sampled scene parameter")
		engineCommand = flag.String("engine", "blenderproc run", "Command that executes a scene script; the script, plan path and base path are appended")
		scriptPath    = flag.String("script", "", "Engine-side script reading the plan JSON (default: bundled render_plan.py written next to the plan)")
		dryRun        = flag.Bool("dry-run", false, "Write the scene plan without running the engine")
		skipPreflight = flag.Bool("skip-preflight", false, "Do not check that models and textures exist")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <base-path>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	base, err := filepath.Abs(flag.Arg(0))
	if err != nil {
		log.Fatalf("resolve base path: %v", err)
	}

	cfg, err := scene.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			cfg.Seed = *seed
		}
	})

	layout := scene.NewLayout(base, cfg.Resources)
	before, err := engine.NextIndex(layout.HDF5)
	if err != nil {
		log.Fatalf("scan %s: %v", layout.HDF5, err)
	}

	plan, err := scene.Generate(cfg, layout)
	if err != nil {
		log.Fatalf("generate scene: %v", err)
	}
	counts := plan.CountByCategory()
	for _, category := range plan.Categories() {
		log.Printf("scene %s: category %d: %d objects", plan.ID, category, counts[category])
	}
	log.Printf("scene %s: seed=%d elements=%d helpers=%d", plan.ID, plan.Seed, len(plan.Elements()), len(plan.Helpers()))

	planPath := layout.PlanPath(processing.Timestamp())
	if _, err := scene.WritePlan(planPath, plan); err != nil {
		log.Fatalf("write plan: %v", err)
	}
	log.Printf("wrote scene plan %s", planPath)

	script := *scriptPath
	if script == "" {
		if script, err = engine.WriteScript(layout.Plans); err != nil {
			log.Fatalf("write engine script: %v", err)
		}
	} else if script, err = filepath.Abs(script); err != nil {
		log.Fatalf("resolve script path: %v", err)
	}

	if !*skipPreflight {
		if err := engine.Preflight(plan); err != nil {
			log.Fatalf("preflight: %v", err)
		}
	}
	if *dryRun {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := engine.Runner{Command: *engineCommand, Script: script, Dir: base}
	if err := runner.Run(ctx, planPath, base); err != nil {
		log.Fatalf("engine: %v", err)
	}

	out, err := engine.VerifyOutputs(layout, before)
	if err != nil {
		log.Fatalf("verify outputs: %v", err)
	}
	log.Printf("frames in %s: %d (first new index %d), coco annotations: %t", layout.HDF5, len(out.Indices), before, out.CocoAnnotations)
}
