package sim

import (
	"math/rand/v2"
	"time"

	"github.com/helmsworks/bridgesim/internal/combat"
	"github.com/helmsworks/bridgesim/internal/component"
	"github.com/helmsworks/bridgesim/internal/config"
	"github.com/helmsworks/bridgesim/internal/core/ecs"
	"github.com/helmsworks/bridgesim/internal/core/event"
	coresys "github.com/helmsworks/bridgesim/internal/core/system"
	"github.com/helmsworks/bridgesim/internal/system"
	"github.com/helmsworks/bridgesim/internal/telemetry"
	"github.com/helmsworks/bridgesim/internal/world"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// Deps are the optional collaborators of an Engine. Any of them may be nil.
type Deps struct {
	Modifiers combat.ModifierTable     // tag overrides, merged over the defaults
	Formula   system.ExplosionFormula  // blast damage; nil = linear falloff
	Snapshots system.SnapshotWriter    // nil disables the persist phase
	Output    *telemetry.OutputManager // nil disables CSV telemetry
}

// Engine owns the world and advances it one fixed step at a time. Step must
// be called from a single goroutine; Submit is safe from any goroutine.
type Engine struct {
	cfg    *config.Config
	world  *world.State
	bus    *event.Bus
	runner *coresys.Runner
	log    *zap.Logger

	input     *system.InputSystem
	persist   *system.PersistenceSystem
	output    *telemetry.OutputManager
	collector telemetry.Collector
}

// NewEngine wires the world and registers one system per phase.
func NewEngine(cfg *config.Config, deps Deps, log *zap.Logger) *Engine {
	seed := uint64(cfg.Simulation.Seed)
	if cfg.Simulation.Seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	bus := event.NewBus()
	ws := world.NewState(bus, log,
		rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		combat.NewCalculator(deps.Modifiers),
		world.Options{
			DefaultRadius: cfg.Physics.DefaultRadius,
			DockingRange:  cfg.Physics.DockingRange,
		})

	e := &Engine{
		cfg:    cfg,
		world:  ws,
		bus:    bus,
		runner: coresys.NewRunner(),
		log:    log,
		output: deps.Output,
	}
	if e.output != nil {
		e.collector.Attach(bus)
	}

	damage := system.DamageRules{
		RollStatusChance:  cfg.Combat.RollStatusChance,
		ModuleDamageShare: cfg.Combat.ModuleDamageShare,
	}

	e.input = system.NewInputSystem(ws, log)
	e.runner.Register(e.input)
	e.runner.Register(system.NewForceSystem(ws, cfg.Physics.DragCoefficient))
	e.runner.Register(system.NewIntegrateSystem(ws))
	e.runner.Register(system.NewMovementSystem(ws))
	e.runner.Register(system.NewWeaponCooldownSystem(ws))
	e.runner.Register(system.NewWeaponFireSystem(ws, system.FireDefaults{
		ProjectileSpeed: cfg.Physics.ProjectileSpeed,
		ProjectileLife:  cfg.Physics.ProjectileLife,
		BeamRange:       cfg.Combat.BeamRange,
	}, log))
	e.runner.Register(system.NewProjectileSystem(ws, log))
	e.runner.Register(system.NewCombatSystem(ws, system.CombatRules{
		CollisionThreshold: cfg.Combat.CollisionThreshold,
		PointDefenseRange:  cfg.Combat.PointDefenseRange,
		MomentumFactor:     cfg.Physics.MomentumFactor,
		Damage:             damage,
	}, log))
	e.runner.Register(system.NewShipSystemsSystem(ws, system.PowerRules{
		EmergencyPower:   cfg.Power.EmergencyPower,
		EmergencyCooling: cfg.Power.EmergencyCooling,
	}))
	e.runner.Register(system.NewStatusEffectSystem(ws))
	e.runner.Register(system.NewFTLSystem(ws, log))
	e.runner.Register(system.NewCommsSystem(ws, log))
	e.runner.Register(system.NewAftermathSystem(ws, system.AftermathRules{
		RepairRate:      cfg.Power.RepairRate,
		ExplosionRadius: cfg.Combat.ExplosionRadius,
		ExplosionDamage: cfg.Combat.ExplosionDamage,
		MomentumFactor:  cfg.Physics.MomentumFactor,
		Damage:          damage,
	}, deps.Formula, log))
	if deps.Snapshots != nil {
		e.persist = system.NewPersistenceSystem(ws, deps.Snapshots, log, cfg.Database.SnapshotEvery)
		e.runner.Register(e.persist)
	}
	e.runner.Register(system.NewCleanupSystem(ws, log))
	return e
}

// World exposes the simulation state to the tick goroutine (spawning,
// inspection in tests). Other goroutines must use Submit.
func (e *Engine) World() *world.State { return e.world }

// Bus returns the outbound event bus for subscribers.
func (e *Engine) Bus() *event.Bus { return e.bus }

// Tick returns the number of completed ticks.
func (e *Engine) Tick() uint64 { return e.world.Tick }

// Submit queues a command for the next tick.
func (e *Engine) Submit(cmd world.Command) {
	e.world.Commands.Push(cmd)
}

// Spawn adds compiled ships to the world.
func (e *Engine) Spawn(ships ...world.CompiledShip) error {
	for _, cs := range ships {
		if _, err := e.world.SpawnShip(cs); err != nil {
			return err
		}
	}
	return nil
}

// Step runs every phase once with timestep dt, then publishes the tick's
// events to subscribers.
func (e *Engine) Step(dt time.Duration) {
	start := time.Now()
	e.world.Tick++
	e.runner.Tick(dt)
	elapsed := time.Since(start)

	event.Emit(e.bus, event.TickCompleted{Tick: e.world.Tick, Elapsed: elapsed})
	e.bus.SwapBuffers()
	e.bus.DispatchAll()

	if e.output != nil {
		e.record(elapsed)
	}
}

// Flush forces an out-of-band snapshot. Used on shutdown.
func (e *Engine) Flush() {
	if e.persist != nil {
		e.persist.Flush()
	}
}

func (e *Engine) record(elapsed time.Duration) {
	applied, rejected := e.input.LastTick()
	stats := telemetry.TickStats{
		Tick:             e.world.Tick,
		ElapsedMicros:    elapsed.Microseconds(),
		Ships:            e.world.Ships.Len(),
		Projectiles:      e.world.Projectiles.Len(),
		Entities:         e.world.EntityCount(),
		CommandsApplied:  applied,
		CommandsRejected: rejected,
	}
	e.collector.Fill(&stats)
	if err := e.output.WriteTick(stats); err != nil {
		e.log.Warn("telemetry write failed", zap.Error(err))
	}

	every := uint64(max(e.cfg.Telemetry.FlushEvery, 1))
	if e.world.Tick%every != 0 {
		return
	}
	if err := e.output.WriteShips(shipRows(e.world)); err != nil {
		e.log.Warn("telemetry write failed", zap.Error(err))
	}
}

func shipRows(ws *world.State) []telemetry.ShipRow {
	rows := make([]telemetry.ShipRow, 0, ws.Ships.Len())
	ws.Ships.Each(func(h ecs.EntityID, ship *component.Ship) {
		row := telemetry.ShipRow{
			Tick:      ws.Tick,
			ShipID:    ship.ID,
			Team:      ship.Team,
			HullPct:   ship.HullFraction() * 100,
			ShieldPct: ship.Shield.Fraction() * 100,
			PowerGen:  ship.Power.Generation,
			PowerUsed: ship.Power.Usage,
			PowerFree: ship.Power.Available(),
			CoolFree:  ship.Cooling.Available(),
			Weight:    ship.EffectiveWeight,
		}
		if tr, ok := ws.Transforms.Get(h); ok {
			row.PosX, row.PosY, row.PosZ = tr.Position.X, tr.Position.Y, tr.Position.Z
			row.Speed = r3.Norm(tr.Velocity)
		}
		if st := ws.Status(h); st != nil {
			row.Effects = st.Len()
		}
		rows = append(rows, row)
	})
	return rows
}
