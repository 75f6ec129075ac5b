package combat

import (
	"errors"
	"fmt"
)

// ErrTagConflict is returned when a tag set contains two mutually exclusive
// tags. Callers match it with errors.Is.
var ErrTagConflict = errors.New("weapon tag conflict")

// EffectKind identifies a timed status effect.
type EffectKind uint8

const (
	EffectIonJam EffectKind = iota
	EffectGravitonWeight
	EffectTachyonBlock

	EffectKindCount
)

var effectNames = [...]string{"ion_jam", "graviton_weight", "tachyon_block"}

func (k EffectKind) String() string {
	if int(k) >= len(effectNames) {
		return "unknown"
	}
	return effectNames[k]
}

// StatusEffectSpec is the effect a hit may attach to its target.
type StatusEffectSpec struct {
	Kind      EffectKind
	Duration  float64 // seconds
	Magnitude float64
	Chance    float64 // 0..1 probability the effect lands
}

// Modifier is the per-tag contribution folded by the calculator.
type Modifier struct {
	DamageMult      float64
	ShieldMult      float64
	ShieldBypass    float64
	ProjectileCount int  // fire-pattern tags only, 0 = no opinion
	Continuous      bool // fire-pattern tags only
	Status          *StatusEffectSpec
}

// Identity is the modifier applied for tags absent from a table.
var Identity = Modifier{DamageMult: 1, ShieldMult: 1}

// ModifierTable maps each tag to its modifier.
type ModifierTable map[Tag]Modifier

// DefaultTable returns a fresh copy of the built-in per-tag table.
func DefaultTable() ModifierTable {
	return ModifierTable{
		TagBeam:       {DamageMult: 1, ShieldMult: 1, ProjectileCount: 1, Continuous: true},
		TagBurst:      {DamageMult: 1, ShieldMult: 1, ProjectileCount: 3},
		TagPulse:      {DamageMult: 1, ShieldMult: 1, ProjectileCount: 2},
		TagSingleFire: {DamageMult: 1, ShieldMult: 1, ProjectileCount: 1},
		TagPhoton:     {DamageMult: 1, ShieldMult: 0.5},
		TagPlasma:     {DamageMult: 1, ShieldMult: 2},
		TagPositron:   {DamageMult: 1, ShieldMult: 1, ShieldBypass: 0.25},
		TagIon: {DamageMult: 0.6, ShieldMult: 1,
			Status: &StatusEffectSpec{Kind: EffectIonJam, Duration: 10, Magnitude: 1, Chance: 0.8}},
		TagGraviton: {DamageMult: 0.5, ShieldMult: 1,
			Status: &StatusEffectSpec{Kind: EffectGravitonWeight, Duration: 15, Magnitude: 0.3, Chance: 0.7}},
		TagTachyon: {DamageMult: 0.4, ShieldMult: 1,
			Status: &StatusEffectSpec{Kind: EffectTachyonBlock, Duration: 20, Magnitude: 1, Chance: 0.9}},
		TagAntimissile: {DamageMult: 0.3, ShieldMult: 1},
		TagAntitorpedo: {DamageMult: 0.5, ShieldMult: 1},
		TagDecoy:       {DamageMult: 0, ShieldMult: 1},
		TagChaff:       {DamageMult: 0, ShieldMult: 1},
	}
}

// Result is the resolved output for one hit.
type Result struct {
	HullDamage      float64
	ShieldDamage    float64
	ShieldBypass    float64 // 0..1 fraction of hull damage that ignores shields
	ProjectileCount int
	Continuous      bool
	Status          *StatusEffectSpec
}

// ShieldMultiplier returns ShieldDamage/HullDamage, or 1 when no damage.
func (r Result) ShieldMultiplier() float64 {
	if r.HullDamage == 0 {
		return 1
	}
	return r.ShieldDamage / r.HullDamage
}

// Calculator folds tag modifiers from a table. The zero value uses
// DefaultTable.
type Calculator struct {
	table ModifierTable
}

// NewCalculator builds a calculator over table. Tags missing from table fall
// back to the default table, then to Identity.
func NewCalculator(table ModifierTable) *Calculator {
	merged := DefaultTable()
	for t, m := range table {
		merged[t] = m
	}
	return &Calculator{table: merged}
}

var defaultCalculator = NewCalculator(nil)

// Calculate resolves base damage against tags using the default table.
func Calculate(baseDamage float64, tags []Tag) (Result, error) {
	return defaultCalculator.Calculate(baseDamage, tags)
}

// Modifier returns the table entry for t.
func (c *Calculator) Modifier(t Tag) Modifier {
	if c == nil || c.table == nil {
		return defaultCalculator.Modifier(t)
	}
	if m, ok := c.table[t]; ok {
		return m
	}
	return Identity
}

// Calculate validates tags and folds their modifiers over baseDamage.
// Damage and shield multipliers compose multiplicatively, bypass fractions
// add up to a cap of 1. Only the first status-effect tag in tag order is
// attached; later ones are ignored.
func (c *Calculator) Calculate(baseDamage float64, tags []Tag) (Result, error) {
	if err := Validate(tags); err != nil {
		return Result{}, err
	}

	dmgMult, shieldMult, bypass := 1.0, 1.0, 0.0
	res := Result{ProjectileCount: 1}
	for _, t := range tags {
		m := c.Modifier(t)
		dmgMult *= m.DamageMult
		shieldMult *= m.ShieldMult
		bypass += m.ShieldBypass
		if t.Category() == CategoryFirePattern {
			if m.ProjectileCount > 0 {
				res.ProjectileCount = m.ProjectileCount
			}
			res.Continuous = m.Continuous
		}
		if res.Status == nil && m.Status != nil {
			s := *m.Status
			res.Status = &s
		}
	}
	if bypass > 1 {
		bypass = 1
	}

	res.HullDamage = baseDamage * dmgMult
	res.ShieldDamage = res.HullDamage * shieldMult
	res.ShieldBypass = bypass
	return res, nil
}

// Validate checks the calculator's exclusion rules: at most one fire-pattern
// tag, not both Missile and Torpedo, not both Manual and Automatic.
func Validate(tags []Tag) error {
	var pattern Tag
	for _, t := range tags {
		if t.Category() != CategoryFirePattern {
			continue
		}
		if pattern != TagNone && pattern != t {
			return fmt.Errorf("%w: %s and %s", ErrTagConflict, pattern, t)
		}
		pattern = t
	}
	if Has(tags, TagMissile) && Has(tags, TagTorpedo) {
		return fmt.Errorf("%w: %s and %s", ErrTagConflict, TagMissile, TagTorpedo)
	}
	if Has(tags, TagManual) && Has(tags, TagAutomatic) {
		return fmt.Errorf("%w: %s and %s", ErrTagConflict, TagManual, TagAutomatic)
	}
	return nil
}

// ValidateCategories enforces the stricter manifest rule: each category holds
// at most one tag per weapon.
func ValidateCategories(tags []Tag) error {
	var seen [len(categoryNames)]Tag
	for _, t := range tags {
		cat := t.Category()
		if cat == CategoryNone {
			return fmt.Errorf("invalid tag %s", t)
		}
		if prev := seen[cat]; prev != TagNone && prev != t {
			return fmt.Errorf("%w: %s and %s both in category %s", ErrTagConflict, prev, t, cat)
		}
		seen[cat] = t
	}
	return nil
}
