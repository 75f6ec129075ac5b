package component

import "github.com/helmsworks/bridgesim/internal/combat"

// StatusEffect is one active timed effect on a ship.
type StatusEffect struct {
	Kind      combat.EffectKind
	Remaining float64 // seconds
	Magnitude float64
}

// StatusEffects is the set of effects active on a ship, at most one per kind.
type StatusEffects struct {
	effects [combat.EffectKindCount]*StatusEffect
}

func NewStatusEffects() *StatusEffects { return &StatusEffects{} }

// Apply adds an effect or refreshes an existing one of the same kind. Effects
// never stack: duration and magnitude become the max of old and new. It
// reports whether the effect was newly added.
func (s *StatusEffects) Apply(kind combat.EffectKind, duration, magnitude float64) (added bool) {
	if kind >= combat.EffectKindCount || duration <= 0 {
		return false
	}
	if cur := s.effects[kind]; cur != nil {
		cur.Remaining = max(cur.Remaining, duration)
		cur.Magnitude = max(cur.Magnitude, magnitude)
		return false
	}
	s.effects[kind] = &StatusEffect{Kind: kind, Remaining: duration, Magnitude: magnitude}
	return true
}

// Has reports whether kind is active.
func (s *StatusEffects) Has(kind combat.EffectKind) bool {
	return s != nil && kind < combat.EffectKindCount && s.effects[kind] != nil
}

// Get returns the active effect of kind, if any.
func (s *StatusEffects) Get(kind combat.EffectKind) (*StatusEffect, bool) {
	if !s.Has(kind) {
		return nil, false
	}
	return s.effects[kind], true
}

// Update decrements every duration and removes effects at or below zero.
// Removed kinds are returned in kind order.
func (s *StatusEffects) Update(dt float64) []combat.EffectKind {
	var removed []combat.EffectKind
	for k, e := range s.effects {
		if e == nil {
			continue
		}
		e.Remaining -= dt
		if e.Remaining <= 0 {
			s.effects[k] = nil
			removed = append(removed, combat.EffectKind(k))
		}
	}
	return removed
}

// Len returns the number of active effects.
func (s *StatusEffects) Len() int {
	n := 0
	for _, e := range s.effects {
		if e != nil {
			n++
		}
	}
	return n
}

func (s *StatusEffects) IonJammed() bool        { return s.Has(combat.EffectIonJam) }
func (s *StatusEffects) GravitonWeighted() bool { return s.Has(combat.EffectGravitonWeight) }
func (s *StatusEffects) TachyonBlocked() bool   { return s.Has(combat.EffectTachyonBlock) }
