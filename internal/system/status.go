package system

import (
	"time"

	"github.com/helmsworks/bridgesim/internal/component"
	"github.com/helmsworks/bridgesim/internal/core/ecs"
	"github.com/helmsworks/bridgesim/internal/core/event"
	coresys "github.com/helmsworks/bridgesim/internal/core/system"
	"github.com/helmsworks/bridgesim/internal/world"
)

// StatusEffectSystem decays timed effects and rederives effective weight.
// Phase 9 (StatusEffects).
type StatusEffectSystem struct {
	world *world.State
}

func NewStatusEffectSystem(ws *world.State) *StatusEffectSystem {
	return &StatusEffectSystem{world: ws}
}

func (s *StatusEffectSystem) Phase() coresys.Phase { return coresys.PhaseStatusEffects }

func (s *StatusEffectSystem) Update(dt time.Duration) {
	sec := dt.Seconds()
	s.world.Statuses.Each(func(h ecs.EntityID, st *component.StatusEffects) {
		for _, kind := range st.Update(sec) {
			event.Emit(s.world.Bus, event.StatusEffectRemoved{Ship: h, Effect: kind.String()})
		}
		if ship, ok := s.world.Ships.Get(h); ok {
			ship.UpdateEffectiveWeight(st)
		}
	})
}
