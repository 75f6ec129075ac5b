package system

import (
	"time"

	"github.com/helmsworks/bridgesim/internal/component"
	"github.com/helmsworks/bridgesim/internal/core/ecs"
	"github.com/helmsworks/bridgesim/internal/core/event"
	coresys "github.com/helmsworks/bridgesim/internal/core/system"
	"github.com/helmsworks/bridgesim/internal/world"
	"gonum.org/v1/gonum/spatial/r3"
)

// MovementSystem advances positions and orientations. Phase 3 (Movement).
type MovementSystem struct {
	world *world.State
}

func NewMovementSystem(ws *world.State) *MovementSystem {
	return &MovementSystem{world: ws}
}

func (s *MovementSystem) Phase() coresys.Phase { return coresys.PhaseMovement }

func (s *MovementSystem) Update(dt time.Duration) {
	sec := dt.Seconds()
	s.world.Transforms.Each(func(h ecs.EntityID, tr *component.Transform) {
		tr.Rotation = component.IntegrateRotation(tr.Rotation, tr.AngularVelocity, sec)
		if tr.Velocity == (r3.Vec{}) {
			return
		}
		tr.Position = r3.Add(tr.Position, r3.Scale(sec, tr.Velocity))
		if ship, ok := s.world.Ships.Get(h); ok && !ship.Destroyed {
			event.Emit(s.world.Bus, event.ShipMoved{
				Ship:     h,
				ShipID:   ship.ID,
				Position: tr.Position,
				Velocity: tr.Velocity,
			})
		}
	})
}
