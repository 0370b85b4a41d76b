// Package gen runs the per-chunk generation pipeline: terrain from the
// density sampler, multi-building placement from the city solver and the
// final commit into the world store.
package gen

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/OCharnyshevich/lostcities/internal/cache"
	"github.com/OCharnyshevich/lostcities/internal/city"
	"github.com/OCharnyshevich/lostcities/internal/world/driver"
	"github.com/OCharnyshevich/lostcities/pkg/world"
)

// Store is the world store a Generator writes to.
type Store interface {
	driver.Store
	SetStatus(pos world.ChunkPos, st world.Status)
}

// Generator produces chunks deterministically from a seed.
type Generator interface {
	// Generate writes the chunk at pos into the store and marks it full.
	Generate(pos world.ChunkPos) error
	// HeightAt returns the terrain height of a global column.
	HeightAt(x, z int) int
}

// Context is shared by every worker of one generation run.
type Context struct {
	ID    uuid.UUID
	Seed  int64
	Areas *city.AreaCache
	Log   *slog.Logger
}

// ContextOptions sizes the shared caches.
type ContextOptions struct {
	AreaCacheSize int
	AreaTTL       time.Duration
	Clock         cache.Clock
}

// NewContext creates a generation context with a fresh run ID.
func NewContext(seed int64, opts ContextOptions, log *slog.Logger) (*Context, error) {
	id := uuid.New()
	log = log.With("run", id.String())
	areas, err := cache.New[world.ChunkPos, *city.Area](cache.Options{
		Name:     "areas",
		Capacity: opts.AreaCacheSize,
		TTL:      opts.AreaTTL,
		Clock:    opts.Clock,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("area cache: %w", err)
	}
	return &Context{ID: id, Seed: seed, Areas: areas, Log: log}, nil
}

// Sweep drops stale areas and logs the cache counters.
func (c *Context) Sweep() {
	n := c.Areas.Sweep()
	st := c.Areas.Stats()
	c.Log.Info("area cache", "swept", n, "size", c.Areas.Len(),
		"hits", st.Hits, "misses", st.Misses, "evictions", st.Evictions,
		"hit_rate", fmt.Sprintf("%.2f", st.HitRate()))
}
