package event

import (
	"time"

	"github.com/helmsworks/bridgesim/internal/core/ecs"
	"gonum.org/v1/gonum/spatial/r3"
)

// Outbound event records. The broadcast layer drains and serializes these
// on its own cadence; the engine never reads them back.

type ShipMoved struct {
	Ship     ecs.EntityID
	ShipID   string
	Position r3.Vec
	Velocity r3.Vec
}

type WeaponFired struct {
	Ship       ecs.EntityID
	WeaponID   string
	Target     ecs.EntityID
	Projectile string // kinetic, missile, torpedo, beam
	Count      int
}

type DamageTaken struct {
	Ship      ecs.EntityID
	ShipID    string
	Source    ecs.EntityID // attacking ship, zero for environmental damage
	Kind      string       // projectile, beam, explosion
	Amount    float64
	HullPct   float64
	ShieldPct float64
}

type ShieldChanged struct {
	Ship    ecs.EntityID
	Current float64
	Max     float64
	Raised  bool
}

type StatusEffectApplied struct {
	Ship     ecs.EntityID
	Effect   string
	Duration float64
}

type StatusEffectRemoved struct {
	Ship   ecs.EntityID
	Effect string
}

type ModuleStatusChanged struct {
	Ship        ecs.EntityID
	ModuleID    string
	Operational bool
	Overheated  bool
	HealthPct   float64
}

type ShipDestroyed struct {
	Ship   ecs.EntityID
	ShipID string
	Team   string
}

type FTLEngaged struct {
	Ship  ecs.EntityID
	Drive string // warp, jump
}

type FTLDisengaged struct {
	Ship  ecs.EntityID
	Drive string
}

type ShipDocked struct {
	Ship   ecs.EntityID
	Target ecs.EntityID
}

type ShipCollision struct {
	A, B     ecs.EntityID
	Distance float64
}

type ScanCompleted struct {
	Ship      ecs.EntityID
	Target    ecs.EntityID
	Position  r3.Vec
	HullPct   float64
	ShieldPct float64
}

type TickCompleted struct {
	Tick    uint64
	Elapsed time.Duration
}
