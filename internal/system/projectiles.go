package system

import (
	"math"
	"time"

	"github.com/helmsworks/bridgesim/internal/component"
	"github.com/helmsworks/bridgesim/internal/core/ecs"
	coresys "github.com/helmsworks/bridgesim/internal/core/system"
	"github.com/helmsworks/bridgesim/internal/world"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// ProjectileSystem commits the spawns queued by weapon fire, steers missiles,
// runs lifetimes down and retires beams whose weapon has stopped.
// Phase 6 (Projectiles).
type ProjectileSystem struct {
	world *world.State
	log   *zap.Logger
}

func NewProjectileSystem(ws *world.State, log *zap.Logger) *ProjectileSystem {
	return &ProjectileSystem{world: ws, log: log}
}

func (s *ProjectileSystem) Phase() coresys.Phase { return coresys.PhaseProjectiles }

func (s *ProjectileSystem) Update(dt time.Duration) {
	if n := s.world.CommitSpawns(); n > 0 {
		s.log.Debug("projectiles spawned", zap.Int("count", n), zap.Uint64("tick", s.world.Tick))
	}
	sec := dt.Seconds()
	s.world.Projectiles.Each(func(h ecs.EntityID, p *component.Projectile) {
		if !s.world.Alive(h) {
			return
		}
		if p.Kind == component.ProjectileBeam {
			s.updateBeam(h, p)
			return
		}
		if p.Kind == component.ProjectileMissile {
			s.steer(h, p, sec)
		}
		p.Lifetime -= sec
		if p.Lifetime <= 0 {
			s.world.MarkForDestruction(h)
		}
	})
}

// updateBeam pins a beam to its firing ship, or retires it once the weapon
// stops firing or the owner or target is gone. A manually triggered beam
// burns for one cooldown cycle.
func (s *ProjectileSystem) updateBeam(h ecs.EntityID, p *component.Projectile) {
	w, wok := s.world.Weapons.Get(p.Weapon)
	owner, ook := s.world.Ship(p.Owner)
	target, tok := s.world.Ship(p.Target)
	firing := wok && w.Active && (w.AutoFire || w.Cooldown > 0) && w.Target == p.Target && !w.PointDefense
	if !firing || !ook || owner.Destroyed || !tok || target.Destroyed {
		s.world.MarkForDestruction(h)
		if wok && w.Beam == h {
			w.Beam = ecs.NoEntity
		}
		return
	}
	if src, ok := s.world.Transforms.Get(p.Owner); ok {
		if tr, ok := s.world.Transforms.Get(h); ok {
			tr.Position = src.Position
			tr.Velocity = r3.Vec{}
		}
	}
}

// steer turns a missile toward its target by at most TurnRate·dt radians and
// adds Thrust·dt to its speed.
func (s *ProjectileSystem) steer(h ecs.EntityID, p *component.Projectile, dt float64) {
	tr, ok := s.world.Transforms.Get(h)
	if !ok {
		return
	}
	speed := r3.Norm(tr.Velocity)
	dir := component.Unit(tr.Velocity)
	if dt > 0 && p.Thrust > 0 {
		speed += p.Thrust * dt
	}
	if dst, ok := s.world.Transforms.Get(p.Target); ok && s.world.Alive(p.Target) && dir != (r3.Vec{}) {
		want := component.Unit(r3.Sub(dst.Position, tr.Position))
		if want != (r3.Vec{}) {
			dir = turnToward(dir, want, p.TurnRate*dt)
		}
	}
	if dir == (r3.Vec{}) {
		return
	}
	tr.Velocity = r3.Scale(speed, dir)
}

// turnToward rotates unit vector from toward unit vector to by at most
// maxAngle radians.
func turnToward(from, to r3.Vec, maxAngle float64) r3.Vec {
	cos := math.Max(-1, math.Min(1, r3.Dot(from, to)))
	angle := math.Acos(cos)
	if angle <= maxAngle {
		return to
	}
	if maxAngle <= 0 {
		return from
	}
	axis := component.Unit(r3.Cross(from, to))
	if axis == (r3.Vec{}) {
		// antiparallel; any perpendicular axis works
		axis = component.Unit(r3.Cross(from, r3.Vec{Z: 1}))
		if axis == (r3.Vec{}) {
			axis = component.Unit(r3.Cross(from, r3.Vec{Y: 1}))
		}
	}
	sin, c := math.Sincos(maxAngle / 2)
	q := quat.Number{Real: c, Imag: axis.X * sin, Jmag: axis.Y * sin, Kmag: axis.Z * sin}
	return component.Unit(component.Rotate(q, from))
}
