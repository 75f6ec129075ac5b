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

// ExplosionFormula computes area damage at distance from an exploding ship.
// The Lua engine implements it; nil falls back to linear falloff.
type ExplosionFormula interface {
	ExplosionDamage(base, distance, radius float64) float64
}

// AftermathRules are the tunables for the aftermath phase.
type AftermathRules struct {
	RepairRate      float64 // hp/s when the ship carries no repair module
	ExplosionRadius float64
	ExplosionDamage float64
	MomentumFactor  float64
	Damage          DamageRules
}

// AftermathSystem reports ship contacts, runs repair crews, blows up ships
// whose hull reached zero and applies queued impact momentum.
// Phase 12 (Aftermath).
type AftermathSystem struct {
	world   *world.State
	rules   AftermathRules
	formula ExplosionFormula
	log     *zap.Logger
	grid    *world.Grid
	maxR    float64
}

func NewAftermathSystem(ws *world.State, rules AftermathRules, formula ExplosionFormula, log *zap.Logger) *AftermathSystem {
	cell := rules.ExplosionRadius
	if cell <= 0 {
		cell = 100
	}
	return &AftermathSystem{
		world:   ws,
		rules:   rules,
		formula: formula,
		log:     log,
		grid:    world.NewGrid(cell),
	}
}

func (s *AftermathSystem) Phase() coresys.Phase { return coresys.PhaseAftermath }

func (s *AftermathSystem) Update(dt time.Duration) {
	s.index()
	s.detectCollisions()
	s.repair(dt.Seconds())
	s.explode()
	s.applyMomentum()
}

// index rebuilds the spatial grid over live ships.
func (s *AftermathSystem) index() {
	s.grid.Reset()
	s.maxR = 0
	s.world.Ships.Each(func(h ecs.EntityID, ship *component.Ship) {
		if ship.Destroyed || !s.world.Alive(h) {
			return
		}
		if tr, ok := s.world.Transforms.Get(h); ok {
			s.grid.Insert(h, tr.Position)
			s.maxR = max(s.maxR, ship.Radius)
		}
	})
}

// detectCollisions emits one ShipCollision per overlapping pair. Contacts
// are informational; ships pass through each other.
func (s *AftermathSystem) detectCollisions() {
	s.world.Ships.Each(func(a ecs.EntityID, sa *component.Ship) {
		pa, ok := s.grid.Position(a)
		if !ok {
			return
		}
		for _, b := range s.grid.Within(pa, sa.Radius+s.maxR) {
			if b <= a {
				continue
			}
			sb, ok := s.world.Ships.Get(b)
			if !ok || sb.DockedTo == a || sa.DockedTo == b {
				continue
			}
			pb, _ := s.grid.Position(b)
			if d := component.Distance(pa, pb); d < sa.Radius+sb.Radius {
				event.Emit(s.world.Bus, event.ShipCollision{A: a, B: b, Distance: d})
			}
		}
	})
}

// repair restores health to each ship's repair target at the combined rate
// of its repair modules.
func (s *AftermathSystem) repair(dt float64) {
	s.world.Ships.Each(func(h ecs.EntityID, ship *component.Ship) {
		if ship.Destroyed || ship.RepairTarget.IsZero() {
			return
		}
		m, ok := s.world.Modules.Get(ship.RepairTarget)
		if !ok || m.Ship != h {
			ship.RepairTarget = ecs.NoEntity
			return
		}
		rate, crews := 0.0, 0
		s.world.EachModule(ship, func(_ ecs.EntityID, rm *component.Module) {
			if rm.TypeID == component.ModuleRepair {
				crews++
				if rm.Operational {
					rate += rm.Stats.NumberOr(component.StatRepairRate, 0) * rm.Efficiency
				}
			}
		})
		if crews == 0 {
			rate = s.rules.RepairRate
		}
		if m.Repair(rate * dt) {
			m.UpdateEfficiency()
			event.Emit(s.world.Bus, event.ModuleStatusChanged{
				Ship:        h,
				ModuleID:    m.InstanceID,
				Operational: true,
				Overheated:  m.Overheated,
				HealthPct:   m.HealthFraction() * 100,
			})
		}
		ship.ModuleHealth[m.InstanceID] = m.HealthFraction()
		if m.Health >= m.MaxHealth {
			ship.RepairTarget = ecs.NoEntity
		}
	})
}

// explode destroys every ship at zero hull. Blast damage can zero further
// ships, which explode in the same pass.
func (s *AftermathSystem) explode() {
	for {
		var doomed []ecs.EntityID
		s.world.Ships.Each(func(h ecs.EntityID, ship *component.Ship) {
			if !ship.Destroyed && ship.Hull <= 0 && s.world.Alive(h) {
				doomed = append(doomed, h)
			}
		})
		if len(doomed) == 0 {
			return
		}
		for _, h := range doomed {
			s.destroy(h)
		}
	}
}

func (s *AftermathSystem) destroy(h ecs.EntityID) {
	ship, _ := s.world.Ships.Get(h)
	ship.Destroyed = true
	event.Emit(s.world.Bus, event.ShipDestroyed{Ship: h, ShipID: ship.ID, Team: ship.Team})
	s.log.Info("ship destroyed",
		zap.String("ship", ship.ID),
		zap.String("team", ship.Team),
		zap.Uint64("tick", s.world.Tick))

	if epi, ok := s.grid.Position(h); ok && s.rules.ExplosionRadius > 0 && s.rules.ExplosionDamage > 0 {
		for _, other := range s.grid.Within(epi, s.rules.ExplosionRadius) {
			if other == h {
				continue
			}
			victim, ok := s.world.Ships.Get(other)
			if !ok || victim.Destroyed {
				continue
			}
			pos, _ := s.grid.Position(other)
			dist := component.Distance(epi, pos)
			dmg := s.blastDamage(dist)
			if dmg <= 0 {
				continue
			}
			res := combat.Result{HullDamage: dmg, ShieldDamage: dmg}
			applyResult(s.world, s.rules.Damage, other, victim, h, "explosion", res)
			if s.rules.MomentumFactor > 0 {
				s.world.QueueImpact(world.Impact{
					Ship:    other,
					Impulse: r3.Scale(dmg*s.rules.MomentumFactor, component.Unit(r3.Sub(pos, epi))),
				})
			}
		}
	}
	s.world.RemoveShip(h)
}

func (s *AftermathSystem) blastDamage(dist float64) float64 {
	if s.formula != nil {
		return s.formula.ExplosionDamage(s.rules.ExplosionDamage, dist, s.rules.ExplosionRadius)
	}
	return combat.LinearFalloff(s.rules.ExplosionDamage, dist, s.rules.ExplosionRadius)
}

func (s *AftermathSystem) applyMomentum() {
	for _, imp := range s.world.DrainImpacts() {
		ship, ok := s.world.Ship(imp.Ship)
		if !ok || ship.Destroyed {
			continue
		}
		tr, ok := s.world.Transforms.Get(imp.Ship)
		if !ok {
			continue
		}
		tr.Velocity = r3.Add(tr.Velocity, r3.Scale(1/ship.Mass(), imp.Impulse))
	}
}
