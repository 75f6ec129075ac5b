package system

import (
	"time"

	"github.com/helmsworks/bridgesim/internal/component"
	"github.com/helmsworks/bridgesim/internal/core/ecs"
	coresys "github.com/helmsworks/bridgesim/internal/core/system"
	"github.com/helmsworks/bridgesim/internal/world"
	"gonum.org/v1/gonum/spatial/r3"
)

// IntegrateSystem turns accumulated force into velocity using each ship's
// effective weight, then clears the accumulator. Phase 2 (Integrate).
type IntegrateSystem struct {
	world *world.State
}

func NewIntegrateSystem(ws *world.State) *IntegrateSystem {
	return &IntegrateSystem{world: ws}
}

func (s *IntegrateSystem) Phase() coresys.Phase { return coresys.PhaseIntegrate }

func (s *IntegrateSystem) Update(dt time.Duration) {
	sec := dt.Seconds()
	ecs.Each2(s.world.Transforms, s.world.Forces, func(h ecs.EntityID, tr *component.Transform, f *component.Force) {
		if f.Sum == (r3.Vec{}) {
			return
		}
		mass := 1.0
		if ship, ok := s.world.Ships.Get(h); ok {
			mass = ship.Mass()
		}
		tr.Velocity = r3.Add(tr.Velocity, r3.Scale(sec/mass, f.Sum))
		f.Clear()
	})
}
