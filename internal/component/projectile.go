package component

import (
	"github.com/helmsworks/bridgesim/internal/combat"
	"github.com/helmsworks/bridgesim/internal/core/ecs"
)

// ProjectileKind is the carrier type of a projectile.
type ProjectileKind uint8

const (
	ProjectileKinetic ProjectileKind = iota
	ProjectileMissile
	ProjectileTorpedo
	ProjectileBeam
)

func (k ProjectileKind) String() string {
	switch k {
	case ProjectileMissile:
		return "missile"
	case ProjectileTorpedo:
		return "torpedo"
	case ProjectileBeam:
		return "beam"
	}
	return "kinetic"
}

// Interceptable reports whether point defense can shoot the projectile down.
func (k ProjectileKind) Interceptable() bool {
	return k == ProjectileMissile || k == ProjectileTorpedo
}

// Projectile is a transient damage carrier. Beams have no lifetime and stay
// attached to their source weapon.
type Projectile struct {
	Kind     ProjectileKind
	Owner    ecs.EntityID // firing ship
	Weapon   ecs.EntityID
	Target   ecs.EntityID // zero when dumb-fired
	Damage   float64
	Tags     []combat.Tag
	Lifetime float64 // seconds remaining; unused for beams
	Range    float64 // beams only

	Thrust   float64 // missiles
	TurnRate float64 // missiles, rad/s
}
