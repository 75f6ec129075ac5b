package world

import (
	"math"
	"slices"

	"github.com/helmsworks/bridgesim/internal/core/ecs"
	"gonum.org/v1/gonum/spatial/r3"
)

// Grid is a cell-based spatial hash over entity positions. It is rebuilt by
// the phase that needs it and queried for candidates; callers do the exact
// distance test. Accessed only from the tick goroutine.
type Grid struct {
	cellSize float64
	cells    map[cellKey][]ecs.EntityID
	pos      map[ecs.EntityID]r3.Vec
}

type cellKey struct {
	cx, cy, cz int64
}

func NewGrid(cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = 100
	}
	return &Grid{
		cellSize: cellSize,
		cells:    make(map[cellKey][]ecs.EntityID),
		pos:      make(map[ecs.EntityID]r3.Vec),
	}
}

func (g *Grid) toCell(v float64) int64 {
	return int64(math.Floor(v / g.cellSize))
}

func (g *Grid) key(p r3.Vec) cellKey {
	return cellKey{g.toCell(p.X), g.toCell(p.Y), g.toCell(p.Z)}
}

// Reset empties the grid, keeping allocated cells.
func (g *Grid) Reset() {
	for k, ids := range g.cells {
		g.cells[k] = ids[:0]
	}
	clear(g.pos)
}

// Insert places id at p.
func (g *Grid) Insert(id ecs.EntityID, p r3.Vec) {
	k := g.key(p)
	g.cells[k] = append(g.cells[k], id)
	g.pos[id] = p
}

// Position returns the indexed position of id.
func (g *Grid) Position(id ecs.EntityID) (r3.Vec, bool) {
	p, ok := g.pos[id]
	return p, ok
}

// Len returns the number of indexed entities.
func (g *Grid) Len() int { return len(g.pos) }

// Within returns every indexed entity whose position lies within radius of
// p, in ascending EntityID order.
func (g *Grid) Within(p r3.Vec, radius float64) []ecs.EntityID {
	if radius < 0 {
		return nil
	}
	span := int64(math.Ceil(radius / g.cellSize))
	c := g.key(p)
	r2 := radius * radius
	var out []ecs.EntityID
	for dx := -span; dx <= span; dx++ {
		for dy := -span; dy <= span; dy++ {
			for dz := -span; dz <= span; dz++ {
				for _, id := range g.cells[cellKey{c.cx + dx, c.cy + dy, c.cz + dz}] {
					if r3.Norm2(r3.Sub(g.pos[id], p)) <= r2 {
						out = append(out, id)
					}
				}
			}
		}
	}
	slices.Sort(out)
	return out
}
