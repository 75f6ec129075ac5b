package system

import (
	"time"

	"github.com/helmsworks/bridgesim/internal/combat"
	"github.com/helmsworks/bridgesim/internal/component"
	"github.com/helmsworks/bridgesim/internal/core/ecs"
	"github.com/helmsworks/bridgesim/internal/core/event"
	coresys "github.com/helmsworks/bridgesim/internal/core/system"
	"github.com/helmsworks/bridgesim/internal/world"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// FireDefaults fill in projectile parameters a weapon does not declare.
type FireDefaults struct {
	ProjectileSpeed float64
	ProjectileLife  float64
	BeamRange       float64
}

// WeaponFireSystem discharges ready weapons into the pending spawn list.
// Nothing spawned here exists until the projectile phase commits it.
// Phase 5 (WeaponFire).
type WeaponFireSystem struct {
	world    *world.State
	defaults FireDefaults
	log      *zap.Logger
}

func NewWeaponFireSystem(ws *world.State, defaults FireDefaults, log *zap.Logger) *WeaponFireSystem {
	return &WeaponFireSystem{world: ws, defaults: defaults, log: log}
}

func (s *WeaponFireSystem) Phase() coresys.Phase { return coresys.PhaseWeaponFire }

func (s *WeaponFireSystem) Update(_ time.Duration) {
	s.world.Weapons.Each(func(wh ecs.EntityID, w *component.Weapon) {
		manual := w.FireRequested
		w.FireRequested = false
		if w.PointDefense || w.IsCountermeasure() || !(w.AutoFire || manual) || !w.Ready() {
			return
		}
		ship, ok := s.world.Ship(w.Ship)
		if !ok || ship.Destroyed {
			return
		}
		// a jammed ship holds fire on its locks; the lock itself survives
		if !w.Target.IsZero() && s.world.Status(w.Ship).IonJammed() {
			return
		}
		tr, ok := s.world.Transforms.Get(w.Ship)
		if !ok {
			return
		}
		s.fire(wh, w, tr, ship, manual)
	})
}

func (s *WeaponFireSystem) fire(wh ecs.EntityID, w *component.Weapon, tr *component.Transform, ship *component.Ship, manual bool) {
	res, err := s.world.Calc.Calculate(w.BaseDamage, w.Tags)
	if err != nil {
		s.log.Warn("weapon skipped",
			zap.String("ship", ship.ID),
			zap.String("weapon", w.ID),
			zap.Error(err))
		return
	}

	target, targetPos, hasTarget := s.resolveTarget(w)
	kind := w.ProjectileKind()

	if kind == component.ProjectileBeam {
		if !hasTarget || s.world.Alive(w.Beam) {
			return
		}
		rng := w.Range
		if rng <= 0 {
			rng = s.defaults.BeamRange
		}
		if component.Distance(tr.Position, targetPos) > rng {
			return
		}
		s.world.QueueProjectile(world.ProjectileSpawn{
			Projectile: component.Projectile{
				Kind:   kind,
				Owner:  w.Ship,
				Weapon: wh,
				Target: target,
				Damage: w.BaseDamage,
				Tags:   cloneTags(w.Tags),
				Range:  rng,
			},
			Position: tr.Position,
		})
		w.ResetCooldown()
		s.emitFired(w, target, kind, 1)
		return
	}

	// auto-fire waits for the target to come within range; a manual trigger
	// fires regardless
	if !manual && hasTarget && w.Range > 0 && component.Distance(tr.Position, targetPos) > w.Range {
		return
	}
	if !manual && !hasTarget {
		return
	}

	dir := tr.Heading()
	if hasTarget {
		if d := component.Unit(r3.Sub(targetPos, tr.Position)); d != (r3.Vec{}) {
			dir = d
		}
	}
	speed := w.ProjectileSpeed
	if speed <= 0 {
		speed = s.defaults.ProjectileSpeed
	}
	life := w.ProjectileLifetime
	if life <= 0 {
		life = s.defaults.ProjectileLife
	}
	origin := r3.Add(tr.Position, r3.Scale(ship.Radius, dir))
	velocity := r3.Add(tr.Velocity, r3.Scale(speed, dir))

	count := max(res.ProjectileCount, 1)
	for range count {
		s.world.QueueProjectile(world.ProjectileSpawn{
			Projectile: component.Projectile{
				Kind:     kind,
				Owner:    w.Ship,
				Weapon:   wh,
				Target:   target,
				Damage:   w.BaseDamage,
				Tags:     cloneTags(w.Tags),
				Lifetime: life,
				Thrust:   w.Thrust,
				TurnRate: w.TurnRate,
			},
			Position: origin,
			Velocity: velocity,
		})
	}
	w.ConsumeAmmo()
	w.ResetCooldown()
	s.emitFired(w, target, kind, count)
}

// resolveTarget returns the weapon's locked target when it is still a live
// ship.
func (s *WeaponFireSystem) resolveTarget(w *component.Weapon) (ecs.EntityID, r3.Vec, bool) {
	if w.Target.IsZero() {
		return ecs.NoEntity, r3.Vec{}, false
	}
	ship, ok := s.world.Ship(w.Target)
	if !ok || ship.Destroyed {
		w.Target = ecs.NoEntity
		return ecs.NoEntity, r3.Vec{}, false
	}
	tr, ok := s.world.Transforms.Get(w.Target)
	if !ok {
		return ecs.NoEntity, r3.Vec{}, false
	}
	return w.Target, tr.Position, true
}

func (s *WeaponFireSystem) emitFired(w *component.Weapon, target ecs.EntityID, kind component.ProjectileKind, count int) {
	event.Emit(s.world.Bus, event.WeaponFired{
		Ship:       w.Ship,
		WeaponID:   w.ID,
		Target:     target,
		Projectile: kind.String(),
		Count:      count,
	})
}

func cloneTags(tags []combat.Tag) []combat.Tag {
	out := make([]combat.Tag, len(tags))
	copy(out, tags)
	return out
}
