package world

import (
	"errors"

	"github.com/helmsworks/bridgesim/internal/combat"
	"github.com/helmsworks/bridgesim/internal/component"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	ErrDuplicateShip     = errors.New("ship id already in world")
	ErrShipNotFound      = errors.New("ship not found")
	ErrModuleNotFound    = errors.New("module not found")
	ErrWeaponNotFound    = errors.New("weapon not found")
	ErrTargetLockJammed  = errors.New("target lock jammed")
	ErrNoWarpDrive       = errors.New("ship has no warp drive")
	ErrNoJumpDrive       = errors.New("ship has no jump drive")
	ErrDriveInoperative  = errors.New("drive module inoperative")
	ErrOutOfDockingRange = errors.New("dock target out of range")
	ErrNotCountermeasure = errors.New("weapon is not a countermeasure")
)

// CompiledShip is the blueprint compiler's output: everything needed to put
// one ship into the world.
type CompiledShip struct {
	ID       string
	Class    string
	Team     string
	Roles    map[string]string
	Status   ShipStatus
	Position r3.Vec
	Velocity r3.Vec
	Modules  []CompiledModule
	Weapons  []WeaponInstance
}

// ShipStatus is the ship-level aggregate at spawn.
type ShipStatus struct {
	Hull              float64
	MaxHull           float64
	Shields           float64
	MaxShields        float64
	ShieldsRaised     bool
	ShieldRegen       float64
	PowerGeneration   float64
	PowerCapacity     float64
	CoolingGeneration float64
	CoolingCapacity   float64
	Weight            float64
	Radius            float64
}

// CompiledModule is a module with its variant stats already resolved.
type CompiledModule struct {
	InstanceID string
	TypeID     string
	Stats      component.Stats
	Health     float64
	MaxHealth  float64
}

// WeaponInstance is one weapon as mounted by the compiler.
type WeaponInstance struct {
	ID                 string
	TypeID             string
	Kind               component.WeaponKind
	Tags               []combat.Tag
	Ammo               int
	BaseDamage         float64
	Cooldown           float64
	Range              float64
	ProjectileSpeed    float64
	ProjectileLifetime float64
	Thrust             float64
	TurnRate           float64
	AutoFire           bool
	PointDefense       bool
}
