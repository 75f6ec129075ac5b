package component

import (
	"github.com/helmsworks/bridgesim/internal/combat"
	"github.com/helmsworks/bridgesim/internal/core/ecs"
)

// WeaponKind is the optional manifest-declared weapon family.
type WeaponKind uint8

const (
	WeaponUnspecified WeaponKind = iota
	WeaponEnergy
	WeaponKinetic
	WeaponMissile
	WeaponTorpedo
)

// UnlimitedAmmo marks a weapon that does not track ammunition.
const UnlimitedAmmo = -1

// Weapon is one weapon instance mounted on a ship.
type Weapon struct {
	ID     string
	TypeID string
	Kind   WeaponKind
	Tags   []combat.Tag
	Ship   ecs.EntityID

	BaseDamage  float64
	Cooldown    float64
	MaxCooldown float64
	Ammo        int

	AutoFire      bool
	FireRequested bool // manual trigger, consumed by the firing phase
	Active        bool
	PointDefense  bool
	Target        ecs.EntityID

	Range              float64
	ProjectileSpeed    float64
	ProjectileLifetime float64
	Thrust             float64 // missiles
	TurnRate           float64 // missiles, rad/s

	Beam ecs.EntityID // live beam entity, if any
}

// IsEnergy reports whether the weapon draws no ammunition. An explicit kind
// wins; otherwise an energy-type tag marks it.
func (w *Weapon) IsEnergy() bool {
	switch w.Kind {
	case WeaponEnergy:
		return true
	case WeaponUnspecified:
		return combat.IsEnergy(w.Tags)
	}
	return false
}

// IsCountermeasure reports whether the weapon carries a countermeasure tag.
// Countermeasures only ever intercept.
func (w *Weapon) IsCountermeasure() bool { return combat.IsCountermeasure(w.Tags) }

// HasAmmo reports whether the weapon may fire as far as ammunition goes.
func (w *Weapon) HasAmmo() bool {
	return w.IsEnergy() || w.Ammo == UnlimitedAmmo || w.Ammo > 0
}

// ConsumeAmmo spends one round when ammunition is tracked.
func (w *Weapon) ConsumeAmmo() {
	if w.IsEnergy() || w.Ammo == UnlimitedAmmo {
		return
	}
	if w.Ammo > 0 {
		w.Ammo--
	}
}

// Ready reports whether the weapon can discharge this tick.
func (w *Weapon) Ready() bool {
	return w.Active && w.Cooldown <= 0 && w.HasAmmo()
}

// ResetCooldown starts a full cooldown cycle.
func (w *Weapon) ResetCooldown() { w.Cooldown = w.MaxCooldown }

// ProjectileKind derives the carrier type from the tag set.
func (w *Weapon) ProjectileKind() ProjectileKind {
	switch {
	case combat.Has(w.Tags, combat.TagBeam):
		return ProjectileBeam
	case combat.Has(w.Tags, combat.TagMissile) || w.Kind == WeaponMissile:
		return ProjectileMissile
	case combat.Has(w.Tags, combat.TagTorpedo) || w.Kind == WeaponTorpedo:
		return ProjectileTorpedo
	}
	return ProjectileKinetic
}
