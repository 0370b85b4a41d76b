package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/OCharnyshevich/lostcities/internal/city"
	"github.com/OCharnyshevich/lostcities/internal/config"
	"github.com/OCharnyshevich/lostcities/internal/terrain"
	"github.com/OCharnyshevich/lostcities/internal/terrain/density"
	store "github.com/OCharnyshevich/lostcities/internal/world"
	"github.com/OCharnyshevich/lostcities/internal/world/gen"
	"github.com/OCharnyshevich/lostcities/pkg/world"
)

// result is what a run produced, kept for dumping.
type result struct {
	store  *store.Store
	gen    gen.Generator
	solver *city.Solver
	chunks []world.ChunkPos
}

func run(ctx context.Context, cfg *config.Config, out io.Writer, log *slog.Logger) error {
	res, err := generate(ctx, cfg, log)
	if err != nil {
		return err
	}
	if out != nil {
		return dump(out, res)
	}
	return nil
}

func generate(ctx context.Context, cfg *config.Config, log *slog.Logger) (*result, error) {
	ts := cfg.TerrainSettings()
	st := store.NewStore(ts.MinY, ts.MaxY())

	gctx, err := gen.NewContext(cfg.Seed, gen.ContextOptions{
		AreaCacheSize: cfg.AreaCache.Size,
		AreaTTL:       cfg.AreaCache.TTL,
	}, log)
	if err != nil {
		return nil, err
	}

	res := &result{store: st}
	switch cfg.Generator {
	case config.GeneratorFlat:
		res.gen = gen.NewFlatGenerator(st, gctx.Log)
	default:
		sampler, err := newSampler(cfg, ts)
		if err != nil {
			return nil, err
		}
		if cfg.RegistryFile != "" {
			reg, err := loadRegistry(cfg.RegistryFile)
			if err != nil {
				return nil, err
			}
			meta := &city.MapMetadata{Default: cfg.Chunks}
			res.solver, err = city.NewSolver(cfg.City, reg, meta, gctx.Areas, cfg.Seed, gctx.Log)
			if err != nil {
				return nil, err
			}
		}
		res.gen, err = gen.NewNoiseGenerator(st, sampler, res.solver, cfg.Buildings, gctx.Log)
		if err != nil {
			return nil, err
		}
	}

	for dx := -cfg.Radius; dx <= cfg.Radius; dx++ {
		for dz := -cfg.Radius; dz <= cfg.Radius; dz++ {
			res.chunks = append(res.chunks, world.ChunkPos{
				Dimension: cfg.Dimension, X: cfg.CenterX + dx, Z: cfg.CenterZ + dz,
			})
		}
	}

	start := time.Now()
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, pos := range res.chunks {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			return res.gen.Generate(pos)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	gctx.Sweep()
	gctx.Log.Info("generated", "chunks", len(res.chunks), "generator", cfg.Generator,
		"workers", cfg.Workers, "elapsed", time.Since(start).Round(time.Millisecond))
	return res, nil
}

func newSampler(cfg *config.Config, ts terrain.Settings) (*terrain.Sampler, error) {
	spec := density.DefaultRouter()
	if cfg.RouterFile != "" {
		f, err := os.Open(cfg.RouterFile)
		if err != nil {
			return nil, fmt.Errorf("open router: %w", err)
		}
		defer f.Close()
		if spec, err = density.LoadRouter(f); err != nil {
			return nil, err
		}
	}
	router, err := spec.Build(cfg.Seed)
	if err != nil {
		return nil, err
	}
	return terrain.NewSampler(ts, router, cfg.Seed)
}

func loadRegistry(path string) (*city.MemoryRegistry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	defer f.Close()
	return city.LoadRegistry(f)
}

// dump prints the area grids covering the generated chunks, then the
// terrain height at the center of every chunk, one z row per line.
func dump(w io.Writer, res *result) error {
	if res.solver != nil {
		seen := make(map[world.ChunkPos]bool)
		for _, pos := range res.chunks {
			a, err := res.solver.Area(pos)
			if err != nil {
				return err
			}
			if seen[a.Pos] {
				continue
			}
			seen[a.Pos] = true
			if err := a.Dump(w); err != nil {
				return err
			}
		}
	}

	minX, minZ := res.chunks[0].X, res.chunks[0].Z
	maxX, maxZ := res.chunks[len(res.chunks)-1].X, res.chunks[len(res.chunks)-1].Z
	for z := minZ; z <= maxZ; z++ {
		for x := minX; x <= maxX; x++ {
			h := res.gen.HeightAt(x<<4+8, z<<4+8)
			if _, err := fmt.Fprintf(w, "%5d", h); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
