// Package combat holds the weapon-tag damage calculator: a pure fold over a
// weapon's tag set producing hull, shield, bypass and status-effect outputs.
package combat

import (
	"fmt"
	"strings"
)

// Tag is a weapon behavior tag. Tags are grouped into categories; see
// Category.
type Tag uint8

const (
	TagNone Tag = iota

	// fire pattern
	TagBeam
	TagBurst
	TagPulse
	TagSingleFire

	// projectile type
	TagMissile
	TagTorpedo

	// energy type
	TagPhoton
	TagPlasma
	TagPositron

	// status effect
	TagIon
	TagGraviton
	TagTachyon

	// countermeasure
	TagAntimissile
	TagAntitorpedo
	TagDecoy
	TagChaff

	// fire mode
	TagManual
	TagAutomatic

	tagCount
)

// Category groups mutually related tags.
type Category uint8

const (
	CategoryNone Category = iota
	CategoryFirePattern
	CategoryProjectileType
	CategoryEnergyType
	CategoryStatusEffect
	CategoryCountermeasure
	CategoryFireMode
)

var tagNames = [tagCount]string{
	TagNone:        "none",
	TagBeam:        "beam",
	TagBurst:       "burst",
	TagPulse:       "pulse",
	TagSingleFire:  "single_fire",
	TagMissile:     "missile",
	TagTorpedo:     "torpedo",
	TagPhoton:      "photon",
	TagPlasma:      "plasma",
	TagPositron:    "positron",
	TagIon:         "ion",
	TagGraviton:    "graviton",
	TagTachyon:     "tachyon",
	TagAntimissile: "antimissile",
	TagAntitorpedo: "antitorpedo",
	TagDecoy:       "decoy",
	TagChaff:       "chaff",
	TagManual:      "manual",
	TagAutomatic:   "automatic",
}

var tagCategories = [tagCount]Category{
	TagBeam:        CategoryFirePattern,
	TagBurst:       CategoryFirePattern,
	TagPulse:       CategoryFirePattern,
	TagSingleFire:  CategoryFirePattern,
	TagMissile:     CategoryProjectileType,
	TagTorpedo:     CategoryProjectileType,
	TagPhoton:      CategoryEnergyType,
	TagPlasma:      CategoryEnergyType,
	TagPositron:    CategoryEnergyType,
	TagIon:         CategoryStatusEffect,
	TagGraviton:    CategoryStatusEffect,
	TagTachyon:     CategoryStatusEffect,
	TagAntimissile: CategoryCountermeasure,
	TagAntitorpedo: CategoryCountermeasure,
	TagDecoy:       CategoryCountermeasure,
	TagChaff:       CategoryCountermeasure,
	TagManual:      CategoryFireMode,
	TagAutomatic:   CategoryFireMode,
}

var categoryNames = [...]string{
	"none", "fire_pattern", "projectile_type", "energy_type",
	"status_effect", "countermeasure", "fire_mode",
}

func (t Tag) String() string {
	if t >= tagCount {
		return fmt.Sprintf("tag(%d)", uint8(t))
	}
	return tagNames[t]
}

// Category returns the category the tag belongs to.
func (t Tag) Category() Category {
	if t >= tagCount {
		return CategoryNone
	}
	return tagCategories[t]
}

func (c Category) String() string {
	if int(c) >= len(categoryNames) {
		return "unknown"
	}
	return categoryNames[c]
}

// ParseTag maps a manifest tag name (case-insensitive, "-" or "_") to a Tag.
func ParseTag(s string) (Tag, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	if name == "singlefire" {
		name = "single_fire"
	}
	for i := TagBeam; i < tagCount; i++ {
		if tagNames[i] == name {
			return i, nil
		}
	}
	return TagNone, fmt.Errorf("unknown weapon tag %q", s)
}

// Has reports whether tags contains t.
func Has(tags []Tag, t Tag) bool {
	for _, x := range tags {
		if x == t {
			return true
		}
	}
	return false
}

// IsEnergy reports whether the set carries an energy-type tag.
func IsEnergy(tags []Tag) bool {
	for _, t := range tags {
		if t.Category() == CategoryEnergyType {
			return true
		}
	}
	return false
}

// IsCountermeasure reports whether the set carries a countermeasure tag.
func IsCountermeasure(tags []Tag) bool {
	for _, t := range tags {
		if t.Category() == CategoryCountermeasure {
			return true
		}
	}
	return false
}
