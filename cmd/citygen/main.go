package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/OCharnyshevich/lostcities/internal/config"
)

func main() {
	cfg := config.DefaultConfig()
	configPath := flag.String("config", "", "YAML configuration file")
	dump := flag.Bool("dump", false, "print the placement grid of every area and the chunk heights")

	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "world seed")
	flag.StringVar(&cfg.Generator, "generator", cfg.Generator, `terrain generator: "noise" or "flat"`)
	flag.StringVar(&cfg.Dimension, "dimension", cfg.Dimension, "dimension name")
	flag.IntVar(&cfg.CenterX, "center-x", cfg.CenterX, "center chunk x")
	flag.IntVar(&cfg.CenterZ, "center-z", cfg.CenterZ, "center chunk z")
	flag.IntVar(&cfg.Radius, "radius", cfg.Radius, "radius in chunks around the center")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent chunk workers")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	flag.StringVar(&cfg.RouterFile, "router", cfg.RouterFile, "density router YAML (built-in when empty)")
	flag.StringVar(&cfg.RegistryFile, "registry", cfg.RegistryFile, "city registry YAML (no cities when empty)")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *configPath != "" {
		fromFile, err := config.Load(*configPath)
		if err != nil {
			log.Error("load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
		explicit := make(map[string]bool)
		flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		config.Merge(cfg, fromFile, explicit)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	level, _ := config.ParseLevel(cfg.LogLevel)
	log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var out io.Writer
	if *dump {
		out = os.Stdout
	}
	if err := run(ctx, cfg, out, log); err != nil {
		log.Error("generation failed", "error", err)
		os.Exit(1)
	}
}
