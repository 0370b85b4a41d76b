package gen

import (
	"log/slog"

	"github.com/OCharnyshevich/lostcities/internal/world/driver"
	"github.com/OCharnyshevich/lostcities/pkg/world"
)

// FlatGenerator generates a superflat world above the minimum build height:
// bedrock, two layers of stone, dirt and grass on top.
type FlatGenerator struct {
	store Store
	log   *slog.Logger
}

// NewFlatGenerator creates a FlatGenerator writing to store.
func NewFlatGenerator(store Store, log *slog.Logger) *FlatGenerator {
	return &FlatGenerator{store: store, log: log}
}

func (g *FlatGenerator) Generate(pos world.ChunkPos) error {
	g.store.SetStatus(pos, world.StatusGenerating)
	d := driver.New(g.store, pos, g.log)
	base := g.store.MinY()

	for x := range world.ChunkWidth {
		for z := range world.ChunkWidth {
			d.Current(x, base, z).
				Add(world.Bedrock).
				Add(world.Stone).
				Add(world.Stone).
				Add(world.Dirt).
				Add(world.Grass)
		}
	}
	if err := d.Commit(); err != nil {
		return err
	}
	g.store.SetStatus(pos, world.StatusFull)
	return nil
}

// HeightAt returns the y of the grass layer.
func (g *FlatGenerator) HeightAt(_, _ int) int {
	return g.store.MinY() + 4
}
