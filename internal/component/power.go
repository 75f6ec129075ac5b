package component

import "github.com/helmsworks/bridgesim/internal/core/ecs"

// PowerGrid tracks a ship's power generation and per-module draw.
type PowerGrid struct {
	Generation float64
	Capacity   float64 // 0 = uncapped
	Usage      float64
	Allocated  map[ecs.EntityID]float64
}

func NewPowerGrid(generation, capacity float64) PowerGrid {
	return PowerGrid{
		Generation: generation,
		Capacity:   capacity,
		Allocated:  make(map[ecs.EntityID]float64, 8),
	}
}

// Reset clears all allocations.
func (g *PowerGrid) Reset() {
	clear(g.Allocated)
	g.Usage = 0
}

// Allocate records amount drawn by module.
func (g *PowerGrid) Allocate(module ecs.EntityID, amount float64) {
	if amount <= 0 {
		return
	}
	g.Allocated[module] += amount
	g.Usage += amount
}

// Available is generation minus everything allocated, floored at zero.
func (g *PowerGrid) Available() float64 { return g.AvailableExcluding() }

// AvailableExcluding is what the grid has left for the given modules once
// every other module's draw is served, floored at zero.
func (g *PowerGrid) AvailableExcluding(modules ...ecs.EntityID) float64 {
	used := g.Usage
	for _, m := range modules {
		used -= g.Allocated[m]
	}
	if a := g.Generation - used; a > 0 {
		return a
	}
	return 0
}

// SupplyFor is the share of the given modules' draw the grid can cover,
// capped at 1. Modules that draw nothing are always fully supplied.
func (g *PowerGrid) SupplyFor(modules ...ecs.EntityID) float64 {
	var draw float64
	for _, m := range modules {
		draw += g.Allocated[m]
	}
	if draw <= 0 {
		return 1
	}
	return min(1, g.AvailableExcluding(modules...)/draw)
}

// CoolingSystem tracks a ship's heat dissipation and its distribution.
type CoolingSystem struct {
	Generation float64
	Capacity   float64 // 0 = uncapped
	Used       float64
	Allocated  map[ecs.EntityID]float64
}

func NewCoolingSystem(generation, capacity float64) CoolingSystem {
	return CoolingSystem{
		Generation: generation,
		Capacity:   capacity,
		Allocated:  make(map[ecs.EntityID]float64, 8),
	}
}

func (c *CoolingSystem) Reset() {
	clear(c.Allocated)
	c.Used = 0
}

func (c *CoolingSystem) Allocate(module ecs.EntityID, amount float64) {
	if amount <= 0 {
		return
	}
	c.Allocated[module] += amount
	c.Used += amount
}

// Available is generation minus everything allocated, floored at zero.
func (c *CoolingSystem) Available() float64 {
	if a := c.Generation - c.Used; a > 0 {
		return a
	}
	return 0
}
