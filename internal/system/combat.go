package system

import (
	"time"

	"github.com/helmsworks/bridgesim/internal/component"
	"github.com/helmsworks/bridgesim/internal/core/ecs"
	coresys "github.com/helmsworks/bridgesim/internal/core/system"
	"github.com/helmsworks/bridgesim/internal/world"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// CombatRules are the combat tunables taken from config.
type CombatRules struct {
	CollisionThreshold float64
	PointDefenseRange  float64 // used when a countermeasure weapon has no range
	MomentumFactor     float64 // impulse per point of damage
	Damage             DamageRules
}

// CombatSystem resolves projectile hits, continuous beam damage and
// point-defense interception, in that order. Phase 7 (Combat).
type CombatSystem struct {
	world *world.State
	rules CombatRules
	log   *zap.Logger
}

func NewCombatSystem(ws *world.State, rules CombatRules, log *zap.Logger) *CombatSystem {
	return &CombatSystem{world: ws, rules: rules, log: log}
}

func (s *CombatSystem) Phase() coresys.Phase { return coresys.PhaseCombat }

func (s *CombatSystem) Update(dt time.Duration) {
	s.resolveHits()
	s.resolveBeams(dt.Seconds())
	s.resolveCountermeasures()
}

func (s *CombatSystem) resolveHits() {
	s.world.Projectiles.Each(func(h ecs.EntityID, p *component.Projectile) {
		if p.Kind == component.ProjectileBeam || p.Target.IsZero() || !s.world.Alive(h) {
			return
		}
		target, ok := s.world.Ship(p.Target)
		if !ok || target.Destroyed {
			return
		}
		ptr, ok := s.world.Transforms.Get(h)
		if !ok {
			return
		}
		ttr, ok := s.world.Transforms.Get(p.Target)
		if !ok {
			return
		}
		if component.Distance(ptr.Position, ttr.Position) >= s.rules.CollisionThreshold {
			return
		}

		// the projectile is spent whether or not its damage resolves
		s.world.MarkForDestruction(h)

		res, err := s.world.Calc.Calculate(p.Damage, p.Tags)
		if err != nil {
			s.log.Warn("projectile damage skipped",
				zap.Uint64("tick", s.world.Tick),
				zap.String("target", target.ID),
				zap.Error(err))
			return
		}
		lost := applyResult(s.world, s.rules.Damage, p.Target, target, p.Owner, p.Kind.String(), res)
		if lost > 0 && s.rules.MomentumFactor > 0 {
			dir := component.Unit(ptr.Velocity)
			s.world.QueueImpact(world.Impact{
				Ship:    p.Target,
				Impulse: r3.Scale(res.HullDamage*s.rules.MomentumFactor, dir),
			})
		}
	})
}

func (s *CombatSystem) resolveBeams(dt float64) {
	s.world.Projectiles.Each(func(h ecs.EntityID, p *component.Projectile) {
		if p.Kind != component.ProjectileBeam || !s.world.Alive(h) {
			return
		}
		if s.world.Status(p.Owner).IonJammed() {
			return
		}
		target, ok := s.world.Ship(p.Target)
		if !ok || target.Destroyed {
			return
		}
		src, ok := s.world.Transforms.Get(p.Owner)
		if !ok {
			return
		}
		dst, ok := s.world.Transforms.Get(p.Target)
		if !ok {
			return
		}
		if p.Range > 0 && component.Distance(src.Position, dst.Position) > p.Range {
			return
		}
		res, err := s.world.Calc.Calculate(p.Damage*dt, p.Tags)
		if err != nil {
			s.log.Warn("beam damage skipped",
				zap.Uint64("tick", s.world.Tick),
				zap.String("target", target.ID),
				zap.Error(err))
			return
		}
		applyResult(s.world, s.rules.Damage, p.Target, target, p.Owner, p.Kind.String(), res)
	})
}

// resolveCountermeasures lets each ready point-defense weapon shoot down the
// nearest missile or torpedo in range. Projectiles are not filtered by owner.
func (s *CombatSystem) resolveCountermeasures() {
	s.world.Weapons.Each(func(_ ecs.EntityID, w *component.Weapon) {
		if !w.PointDefense || !w.Ready() {
			return
		}
		ship, ok := s.world.Ship(w.Ship)
		if !ok || ship.Destroyed {
			return
		}
		src, ok := s.world.Transforms.Get(w.Ship)
		if !ok {
			return
		}
		rng := w.Range
		if rng <= 0 {
			rng = s.rules.PointDefenseRange
		}

		best := ecs.NoEntity
		bestDist := rng
		s.world.Projectiles.Each(func(h ecs.EntityID, p *component.Projectile) {
			if !p.Kind.Interceptable() || !s.world.Alive(h) {
				return
			}
			tr, ok := s.world.Transforms.Get(h)
			if !ok {
				return
			}
			if d := component.Distance(src.Position, tr.Position); d <= bestDist {
				if best.IsZero() || d < bestDist {
					best, bestDist = h, d
				}
			}
		})
		if best.IsZero() {
			return
		}
		s.world.MarkForDestruction(best)
		w.ConsumeAmmo()
		w.ResetCooldown()
		s.log.Debug("projectile intercepted",
			zap.String("ship", ship.ID),
			zap.String("weapon", w.ID),
			zap.Float64("distance", bestDist))
	})
}
