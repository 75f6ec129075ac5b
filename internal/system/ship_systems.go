package system

import (
	"math"
	"time"

	"github.com/helmsworks/bridgesim/internal/component"
	"github.com/helmsworks/bridgesim/internal/core/ecs"
	"github.com/helmsworks/bridgesim/internal/core/event"
	coresys "github.com/helmsworks/bridgesim/internal/core/system"
	"github.com/helmsworks/bridgesim/internal/world"
)

// PowerRules are the emergency floors applied when a ship's generators
// underperform.
type PowerRules struct {
	EmergencyPower   float64
	EmergencyCooling float64
}

// ShipSystemsSystem runs the power grid, cooling, per-module heat and
// efficiency, limited-use timers and shield regeneration.
// Phase 8 (ShipSystems).
type ShipSystemsSystem struct {
	world *world.State
	rules PowerRules
}

func NewShipSystemsSystem(ws *world.State, rules PowerRules) *ShipSystemsSystem {
	return &ShipSystemsSystem{world: ws, rules: rules}
}

func (s *ShipSystemsSystem) Phase() coresys.Phase { return coresys.PhaseShipSystems }

func (s *ShipSystemsSystem) Update(dt time.Duration) {
	sec := dt.Seconds()
	s.world.Ships.Each(func(h ecs.EntityID, ship *component.Ship) {
		if ship.Destroyed {
			return
		}
		s.updatePower(ship)
		s.updateCooling(ship)
		s.updateModules(h, ship, sec)
		s.regenerateShields(h, ship, sec)
	})
}

// updatePower aggregates generation from operational power cores, floored at
// the emergency level, and books every module's draw against it.
func (s *ShipSystemsSystem) updatePower(ship *component.Ship) {
	grid := &ship.Power
	grid.Reset()
	var gen float64
	s.world.EachModule(ship, func(_ ecs.EntityID, m *component.Module) {
		if m.TypeID == component.ModulePowerCore && m.Operational {
			gen += m.Stats.NumberOr(component.StatPowerGeneration, 0) * m.Efficiency
		}
	})
	gen = math.Max(gen, s.rules.EmergencyPower)
	if grid.Capacity > 0 {
		gen = math.Min(gen, grid.Capacity)
	}
	grid.Generation = gen

	s.world.EachModule(ship, func(mh ecs.EntityID, m *component.Module) {
		if m.Operational {
			grid.Allocate(mh, m.Stats.NumberOr(component.StatPowerDraw, 0)*m.PowerAllocation)
		}
	})
}

// updateCooling aggregates cooling output and splits it across modules by
// their cooling allocation, normalized when the fractions exceed 1 in total.
func (s *ShipSystemsSystem) updateCooling(ship *component.Ship) {
	cs := &ship.Cooling
	cs.Reset()
	var gen, share float64
	s.world.EachModule(ship, func(_ ecs.EntityID, m *component.Module) {
		if m.TypeID == component.ModuleCooling && m.Operational {
			gen += m.Stats.NumberOr(component.StatCoolingGeneration, 0) * m.Efficiency
		}
		share += m.CoolingAllocation
	})
	gen = math.Max(gen, s.rules.EmergencyCooling)
	if cs.Capacity > 0 {
		gen = math.Min(gen, cs.Capacity)
	}
	cs.Generation = gen

	scale := 1.0
	if share > 1 {
		scale = 1 / share
	}
	s.world.EachModule(ship, func(mh ecs.EntityID, m *component.Module) {
		cs.Allocate(mh, gen*m.CoolingAllocation*scale)
	})
}

func (s *ShipSystemsSystem) updateModules(h ecs.EntityID, ship *component.Ship, dt float64) {
	s.world.EachModule(ship, func(mh ecs.EntityID, m *component.Module) {
		wasOverheated, wasOperational := m.Overheated, m.Operational

		heat := 0.0
		if m.Operational {
			heat = m.Stats.NumberOr(component.StatHeatGeneration, 0)
		}
		m.UpdateHeat(heat, ship.Cooling.Allocated[mh], dt)
		if m.Limited != nil {
			m.Limited.Tick(dt)
		}
		m.UpdateEfficiency()
		ship.ModuleHealth[m.InstanceID] = m.HealthFraction()

		if m.Overheated != wasOverheated || m.Operational != wasOperational {
			event.Emit(s.world.Bus, event.ModuleStatusChanged{
				Ship:        h,
				ModuleID:    m.InstanceID,
				Operational: m.Operational,
				Overheated:  m.Overheated,
				HealthPct:   m.HealthFraction() * 100,
			})
		}
	})
}

// regenerateShields recharges raised shields. Ships with shield generators
// regenerate at their summed output; others use the compiled regen rate.
// Either way the rate is scaled by the power left for the generators after
// every other module draws, over the generators' own draw.
func (s *ShipSystemsSystem) regenerateShields(h ecs.EntityID, ship *component.Ship, dt float64) {
	if !ship.Shield.Raised {
		return
	}
	var rate, boost float64 = 0, 1
	var generators []ecs.EntityID
	s.world.EachModule(ship, func(mh ecs.EntityID, m *component.Module) {
		switch {
		case m.TypeID == component.ModuleShieldGenerator:
			generators = append(generators, mh)
			if m.Operational {
				rate += m.Stats.NumberOr(component.StatShieldRegen, 0) * m.Efficiency
			}
		case auxiliaryActive(m, component.EffectShieldBoost):
			boost *= 1 + m.Stats.NumberOr(component.StatMagnitude, 0)
		}
	})
	if len(generators) == 0 {
		rate = ship.Shield.RegenRate
	}
	amount := rate * boost * ship.Power.SupplyFor(generators...) * dt

	before := math.Floor(ship.Shield.Fraction() * 100)
	if !ship.Shield.Regenerate(amount) {
		return
	}
	if after := math.Floor(ship.Shield.Fraction() * 100); after != before {
		event.Emit(s.world.Bus, event.ShieldChanged{
			Ship:    h,
			Current: ship.Shield.Current,
			Max:     ship.Shield.Max,
			Raised:  true,
		})
	}
}
