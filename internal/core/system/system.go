package system

import "time"

// Phase defines execution ordering within a single tick. Phases run strictly
// in ascending order; no phase may be skipped or reordered.
type Phase int

const (
	PhaseInput          Phase = iota // 0: apply queued command intents
	PhaseForces                      // 1: thrust + drag accumulation
	PhaseIntegrate                   // 2: force -> velocity
	PhaseMovement                    // 3: velocity -> position, spin -> rotation
	PhaseWeaponCooldown              // 4: cooldown countdown
	PhaseWeaponFire                  // 5: queue projectile spawns
	PhaseProjectiles                 // 6: commit spawns, steer, lifetime
	PhaseCombat                      // 7: hits, beams, countermeasures
	PhaseShipSystems                 // 8: power, cooling, modules, shields
	PhaseStatusEffects               // 9: effect decay
	PhaseFTL                         // 10: warp + jump drives
	PhaseComms                       // 11: comms / scan authority
	PhaseAftermath                   // 12: collision, repair, explosion, momentum
	PhasePersist                     // 13: snapshot sink
	PhaseCleanup                     // 14: destroy queued entities
)

var phaseNames = [...]string{
	"input", "forces", "integrate", "movement", "weapon_cooldown",
	"weapon_fire", "projectiles", "combat", "ship_systems",
	"status_effects", "ftl", "comms", "aftermath", "persist", "cleanup",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// System is the interface every phase system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
