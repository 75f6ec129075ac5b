package system

import (
	"time"

	"github.com/helmsworks/bridgesim/internal/component"
	"github.com/helmsworks/bridgesim/internal/core/ecs"
	coresys "github.com/helmsworks/bridgesim/internal/core/system"
	"github.com/helmsworks/bridgesim/internal/world"
	"gonum.org/v1/gonum/spatial/r3"
)

// ForceSystem accumulates engine thrust and drag on every ship.
// Phase 1 (Forces).
type ForceSystem struct {
	world *world.State
	drag  float64
}

func NewForceSystem(ws *world.State, dragCoefficient float64) *ForceSystem {
	return &ForceSystem{world: ws, drag: dragCoefficient}
}

func (s *ForceSystem) Phase() coresys.Phase { return coresys.PhaseForces }

func (s *ForceSystem) Update(_ time.Duration) {
	s.world.Ships.Each(func(h ecs.EntityID, ship *component.Ship) {
		if ship.Destroyed {
			return
		}
		tr, ok := s.world.Transforms.Get(h)
		if !ok {
			return
		}
		f, ok := s.world.Forces.Get(h)
		if !ok {
			return
		}

		if ship.Throttle != (r3.Vec{}) && ship.DockedTo.IsZero() {
			thrust := s.engineThrust(ship)
			if thrust > 0 {
				f.Add(r3.Scale(thrust, component.Rotate(tr.Rotation, ship.Throttle)))
			}
		}

		// F = -k·|v|·v
		if speed := r3.Norm(tr.Velocity); speed > 0 && s.drag > 0 {
			f.Add(r3.Scale(-s.drag*speed, tr.Velocity))
		}
	})
}

// engineThrust sums operational engine output, each engine scaled by its
// efficiency and its power allocation.
func (s *ForceSystem) engineThrust(ship *component.Ship) float64 {
	var thrust, boost float64 = 0, 1
	s.world.EachModule(ship, func(_ ecs.EntityID, m *component.Module) {
		switch {
		case m.TypeID == component.ModuleEngine && m.Operational:
			thrust += m.Stats.NumberOr(component.StatThrust, 0) * m.Efficiency * m.PowerAllocation
		case auxiliaryActive(m, component.EffectThrustBoost):
			boost *= 1 + m.Stats.NumberOr(component.StatMagnitude, 0)
		}
	})
	return thrust * boost
}

// auxiliaryActive reports whether m is a running limited-use module with the
// given effect.
func auxiliaryActive(m *component.Module, effect string) bool {
	if m.Limited == nil || !m.Limited.Active || !m.Operational {
		return false
	}
	e, ok := m.Stats.String(component.StatEffect)
	return ok && e == effect
}
