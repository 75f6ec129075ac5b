package data

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/helmsworks/bridgesim/internal/combat"
	"github.com/helmsworks/bridgesim/internal/component"
	"github.com/helmsworks/bridgesim/internal/world"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

// ErrInvalidManifest is wrapped by every manifest validation failure.
var ErrInvalidManifest = errors.New("invalid ship manifest")

// Vec3 is a YAML vector, written {x: 0, y: 0, z: 0}.
type Vec3 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

func (v Vec3) R3() r3.Vec { return r3.Vec{X: v.X, Y: v.Y, Z: v.Z} }

// ShipStatusEntry is the compiled ship-level aggregate.
type ShipStatusEntry struct {
	Hull              float64 `yaml:"hull"`
	MaxHull           float64 `yaml:"max_hull"`
	Shields           float64 `yaml:"shields"`
	MaxShields        float64 `yaml:"max_shields"`
	ShieldsRaised     bool    `yaml:"shields_raised"`
	ShieldRegen       float64 `yaml:"shield_regen"`
	PowerGeneration   float64 `yaml:"power_generation"`
	PowerCapacity     float64 `yaml:"power_capacity"`
	CoolingGeneration float64 `yaml:"cooling_generation"`
	CoolingCapacity   float64 `yaml:"cooling_capacity"`
	Weight            float64 `yaml:"weight"`
	Radius            float64 `yaml:"radius"`
}

// ModuleEntry is one compiled module with its variant stats resolved.
type ModuleEntry struct {
	ID        string         `yaml:"id"`
	Type      string         `yaml:"type"`
	Health    float64        `yaml:"health"`
	MaxHealth float64        `yaml:"max_health"`
	Stats     map[string]any `yaml:"stats"`
}

// WeaponEntry is one mounted weapon.
type WeaponEntry struct {
	ID                 string   `yaml:"id"`
	Type               string   `yaml:"type"`
	Kind               string   `yaml:"kind"` // energy, kinetic, missile, torpedo; optional
	Tags               []string `yaml:"tags"`
	Ammo               *int     `yaml:"ammo"` // absent = not tracked
	Damage             float64  `yaml:"damage"`
	Cooldown           float64  `yaml:"cooldown"`
	Range              float64  `yaml:"range"`
	ProjectileSpeed    float64  `yaml:"projectile_speed"`
	ProjectileLifetime float64  `yaml:"projectile_lifetime"`
	Thrust             float64  `yaml:"thrust"`
	TurnRate           float64  `yaml:"turn_rate"`
	AutoFire           bool     `yaml:"auto_fire"`
	PointDefense       bool     `yaml:"point_defense"` // implied by a countermeasure tag
}

// ShipEntry is one compiled ship as emitted by the blueprint compiler.
type ShipEntry struct {
	ID       string            `yaml:"id"`
	Class    string            `yaml:"class"`
	Team     string            `yaml:"team"`
	Roles    map[string]string `yaml:"roles"`
	Position Vec3              `yaml:"position"`
	Velocity Vec3              `yaml:"velocity"`
	Status   ShipStatusEntry   `yaml:"status"`
	Modules  []ModuleEntry     `yaml:"modules"`
	Weapons  []WeaponEntry     `yaml:"weapons"`
}

// ShipManifest is the inbound compiled-ship file.
type ShipManifest struct {
	Ships []ShipEntry `yaml:"ships"`
}

// LoadShipManifest loads a ships.yaml file.
func LoadShipManifest(path string) (*ShipManifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ship manifest: %w", err)
	}
	m, err := ParseShipManifest(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ParseShipManifest decodes manifest YAML.
func ParseShipManifest(raw []byte) (*ShipManifest, error) {
	var m ShipManifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse ship manifest: %w", err)
	}
	return &m, nil
}

// Count returns the number of ships in the manifest.
func (m *ShipManifest) Count() int { return len(m.Ships) }

// Compile validates every entry and converts it to world input. Ship ids
// must be unique across the manifest.
func (m *ShipManifest) Compile() ([]world.CompiledShip, error) {
	out := make([]world.CompiledShip, 0, len(m.Ships))
	seen := make(map[string]struct{}, len(m.Ships))
	for i := range m.Ships {
		e := &m.Ships[i]
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate ship id %q", ErrInvalidManifest, e.ID)
		}
		seen[e.ID] = struct{}{}
		cs, err := e.Compile()
		if err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, nil
}

// Compile converts one ship entry.
func (e *ShipEntry) Compile() (world.CompiledShip, error) {
	if e.ID == "" {
		return world.CompiledShip{}, fmt.Errorf("%w: ship without id", ErrInvalidManifest)
	}
	st := e.Status
	if st.Hull <= 0 && st.MaxHull <= 0 {
		return world.CompiledShip{}, fmt.Errorf("%w: ship %s: hull must be positive", ErrInvalidManifest, e.ID)
	}
	cs := world.CompiledShip{
		ID:    e.ID,
		Class: e.Class,
		Team:  e.Team,
		Roles: e.Roles,
		Status: world.ShipStatus{
			Hull:              st.Hull,
			MaxHull:           st.MaxHull,
			Shields:           st.Shields,
			MaxShields:        max(st.MaxShields, st.Shields),
			ShieldsRaised:     st.ShieldsRaised,
			ShieldRegen:       st.ShieldRegen,
			PowerGeneration:   st.PowerGeneration,
			PowerCapacity:     st.PowerCapacity,
			CoolingGeneration: st.CoolingGeneration,
			CoolingCapacity:   st.CoolingCapacity,
			Weight:            st.Weight,
			Radius:            st.Radius,
		},
		Position: e.Position.R3(),
		Velocity: e.Velocity.R3(),
	}

	moduleIDs := make(map[string]struct{}, len(e.Modules))
	for _, me := range e.Modules {
		if me.ID == "" || me.Type == "" {
			return world.CompiledShip{}, fmt.Errorf("%w: ship %s: module needs id and type", ErrInvalidManifest, e.ID)
		}
		if _, dup := moduleIDs[me.ID]; dup {
			return world.CompiledShip{}, fmt.Errorf("%w: ship %s: duplicate module id %q", ErrInvalidManifest, e.ID, me.ID)
		}
		moduleIDs[me.ID] = struct{}{}
		stats, err := component.StatsFromMap(me.Stats)
		if err != nil {
			return world.CompiledShip{}, fmt.Errorf("%w: ship %s module %s: %v", ErrInvalidManifest, e.ID, me.ID, err)
		}
		cs.Modules = append(cs.Modules, world.CompiledModule{
			InstanceID: me.ID,
			TypeID:     me.Type,
			Stats:      stats,
			Health:     me.Health,
			MaxHealth:  me.MaxHealth,
		})
	}

	weaponIDs := make(map[string]struct{}, len(e.Weapons))
	for _, we := range e.Weapons {
		if we.ID == "" {
			return world.CompiledShip{}, fmt.Errorf("%w: ship %s: weapon without id", ErrInvalidManifest, e.ID)
		}
		if _, dup := weaponIDs[we.ID]; dup {
			return world.CompiledShip{}, fmt.Errorf("%w: ship %s: duplicate weapon id %q", ErrInvalidManifest, e.ID, we.ID)
		}
		weaponIDs[we.ID] = struct{}{}
		wi, err := we.compile()
		if err != nil {
			return world.CompiledShip{}, fmt.Errorf("%w: ship %s weapon %s: %v", ErrInvalidManifest, e.ID, we.ID, err)
		}
		cs.Weapons = append(cs.Weapons, wi)
	}
	return cs, nil
}

func (we *WeaponEntry) compile() (world.WeaponInstance, error) {
	kind, err := parseWeaponKind(we.Kind)
	if err != nil {
		return world.WeaponInstance{}, err
	}
	tags := make([]combat.Tag, 0, len(we.Tags))
	for _, name := range we.Tags {
		t, err := combat.ParseTag(name)
		if err != nil {
			return world.WeaponInstance{}, err
		}
		if slices.Contains(tags, t) {
			continue
		}
		tags = append(tags, t)
	}
	if err := combat.ValidateCategories(tags); err != nil {
		return world.WeaponInstance{}, err
	}
	ammo := component.UnlimitedAmmo
	if we.Ammo != nil {
		ammo = *we.Ammo
	}
	return world.WeaponInstance{
		ID:                 we.ID,
		TypeID:             we.Type,
		Kind:               kind,
		Tags:               tags,
		Ammo:               ammo,
		BaseDamage:         we.Damage,
		Cooldown:           we.Cooldown,
		Range:              we.Range,
		ProjectileSpeed:    we.ProjectileSpeed,
		ProjectileLifetime: we.ProjectileLifetime,
		Thrust:             we.Thrust,
		TurnRate:           we.TurnRate,
		AutoFire:           we.AutoFire,
		PointDefense:       we.PointDefense || combat.IsCountermeasure(tags),
	}, nil
}

func parseWeaponKind(s string) (component.WeaponKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return component.WeaponUnspecified, nil
	case "energy":
		return component.WeaponEnergy, nil
	case "kinetic":
		return component.WeaponKinetic, nil
	case "missile":
		return component.WeaponMissile, nil
	case "torpedo":
		return component.WeaponTorpedo, nil
	}
	return component.WeaponUnspecified, fmt.Errorf("unknown weapon kind %q", s)
}
