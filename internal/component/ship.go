package component

import (
	"github.com/helmsworks/bridgesim/internal/core/ecs"
	"gonum.org/v1/gonum/spatial/r3"
)

// GravitonWeightMultiplier scales effective weight while a graviton effect
// is present. It does not grow with repeated hits.
const GravitonWeightMultiplier = 1.3

// Ship is the aggregate state of one ship. Modules and weapons are separate
// entities referenced by handle.
type Ship struct {
	ID    string
	Class string
	Team  string
	Roles map[string]string // bridge role -> player id

	Hull    float64
	MaxHull float64
	Shield  Shield
	Power   PowerGrid
	Cooling CoolingSystem

	BaseWeight      float64
	EffectiveWeight float64
	Radius          float64

	Modules      []ecs.EntityID          // compile order
	ModuleIndex  map[string]ecs.EntityID // instance id -> handle
	ModuleHealth map[string]float64      // instance id -> health fraction
	Weapons      []ecs.EntityID

	Throttle     r3.Vec // body frame, each axis -1..1
	RepairTarget ecs.EntityID
	DockedTo     ecs.EntityID
	Destroyed    bool
}

// ApplyHullDamage reduces hull, clamped at zero. It reports whether this
// damage brought the hull to zero.
func (s *Ship) ApplyHullDamage(amount float64) (zeroed bool) {
	if amount <= 0 || s.Hull <= 0 {
		return false
	}
	s.Hull -= amount
	if s.Hull <= 0 {
		s.Hull = 0
		return true
	}
	return false
}

// HullFraction returns Hull/MaxHull.
func (s *Ship) HullFraction() float64 {
	if s.MaxHull <= 0 {
		return 0
	}
	return s.Hull / s.MaxHull
}

// UpdateEffectiveWeight derives EffectiveWeight from BaseWeight and status.
func (s *Ship) UpdateEffectiveWeight(status *StatusEffects) {
	w := s.BaseWeight
	if status.GravitonWeighted() {
		w *= GravitonWeightMultiplier
	}
	s.EffectiveWeight = w
}

// Mass returns the inertial mass used by integration. Never zero.
func (s *Ship) Mass() float64 {
	if s.EffectiveWeight > 0 {
		return s.EffectiveWeight
	}
	if s.BaseWeight > 0 {
		return s.BaseWeight
	}
	return 1
}
