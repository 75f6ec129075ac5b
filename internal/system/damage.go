package system

import (
	"github.com/helmsworks/bridgesim/internal/combat"
	"github.com/helmsworks/bridgesim/internal/component"
	"github.com/helmsworks/bridgesim/internal/core/ecs"
	"github.com/helmsworks/bridgesim/internal/core/event"
	"github.com/helmsworks/bridgesim/internal/world"
)

// DamageRules tunes how a resolved hit lands on a ship.
type DamageRules struct {
	RollStatusChance  bool
	ModuleDamageShare float64
}

// applyResult lands a calculator result on ship h and returns the hull lost.
//
// The bypass fraction goes straight to hull. The remainder is scaled by the
// shield multiplier and offered to raised shields; whatever the shield cannot
// absorb is scaled back and taken by the hull.
func applyResult(ws *world.State, rules DamageRules, h ecs.EntityID, ship *component.Ship, source ecs.EntityID, kind string, res combat.Result) float64 {
	if ship.Destroyed {
		return 0
	}
	bypass := res.HullDamage * res.ShieldBypass
	rest := res.HullDamage - bypass
	hullLoss := bypass

	shieldBefore := ship.Shield.Current
	// a non-positive multiplier means shields cannot stop this hit at all
	if mult := res.ShieldMultiplier(); ship.Shield.Raised && ship.Shield.Current > 0 && rest > 0 && mult > 0 {
		overflow := ship.Shield.ApplyDamage(rest * mult)
		hullLoss += overflow / mult
	} else {
		hullLoss += rest
	}

	hullBefore := ship.Hull
	ship.ApplyHullDamage(hullLoss)
	lost := hullBefore - ship.Hull

	if ship.Shield.Current != shieldBefore {
		event.Emit(ws.Bus, event.ShieldChanged{
			Ship:    h,
			Current: ship.Shield.Current,
			Max:     ship.Shield.Max,
			Raised:  ship.Shield.Raised,
		})
	}
	if res.HullDamage > 0 {
		ws.EmitDamage(h, ship, source, kind, res.HullDamage)
	}
	if lost > 0 && rules.ModuleDamageShare > 0 {
		damageModule(ws, h, ship, lost*rules.ModuleDamageShare)
	}
	if res.Status != nil {
		applyStatus(ws, rules, h, res.Status)
	}
	return lost
}

// damageModule passes part of a hull hit to one randomly chosen operational
// module.
func damageModule(ws *world.State, h ecs.EntityID, ship *component.Ship, amount float64) {
	candidates := make([]*component.Module, 0, len(ship.Modules))
	ws.EachModule(ship, func(_ ecs.EntityID, m *component.Module) {
		if m.Operational {
			candidates = append(candidates, m)
		}
	})
	if len(candidates) == 0 || ws.Rand == nil {
		return
	}
	idx := int(ws.Rand.Float64() * float64(len(candidates)))
	if idx >= len(candidates) {
		idx = len(candidates) - 1
	}
	m := candidates[idx]
	disabled := m.ApplyDamage(amount)
	ship.ModuleHealth[m.InstanceID] = m.HealthFraction()
	if disabled {
		event.Emit(ws.Bus, event.ModuleStatusChanged{
			Ship:        h,
			ModuleID:    m.InstanceID,
			Operational: false,
			Overheated:  m.Overheated,
			HealthPct:   0,
		})
	}
}

func applyStatus(ws *world.State, rules DamageRules, h ecs.EntityID, spec *combat.StatusEffectSpec) {
	if rules.RollStatusChance && ws.Rand != nil && ws.Rand.Float64() >= spec.Chance {
		return
	}
	st := ws.Status(h)
	if st == nil {
		return
	}
	if st.Apply(spec.Kind, spec.Duration, spec.Magnitude) {
		event.Emit(ws.Bus, event.StatusEffectApplied{
			Ship:     h,
			Effect:   spec.Kind.String(),
			Duration: spec.Duration,
		})
	}
}
