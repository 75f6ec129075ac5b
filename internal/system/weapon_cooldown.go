package system

import (
	"time"

	"github.com/helmsworks/bridgesim/internal/component"
	"github.com/helmsworks/bridgesim/internal/core/ecs"
	coresys "github.com/helmsworks/bridgesim/internal/core/system"
	"github.com/helmsworks/bridgesim/internal/world"
)

// WeaponCooldownSystem counts weapon cooldowns down to zero.
// Phase 4 (WeaponCooldown).
type WeaponCooldownSystem struct {
	world *world.State
}

func NewWeaponCooldownSystem(ws *world.State) *WeaponCooldownSystem {
	return &WeaponCooldownSystem{world: ws}
}

func (s *WeaponCooldownSystem) Phase() coresys.Phase { return coresys.PhaseWeaponCooldown }

func (s *WeaponCooldownSystem) Update(dt time.Duration) {
	sec := dt.Seconds()
	s.world.Weapons.Each(func(_ ecs.EntityID, w *component.Weapon) {
		if w.Cooldown > 0 {
			w.Cooldown = max(0, w.Cooldown-sec)
		}
	})
}
