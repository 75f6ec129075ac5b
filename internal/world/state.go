package world

import (
	"fmt"

	"github.com/helmsworks/bridgesim/internal/combat"
	"github.com/helmsworks/bridgesim/internal/component"
	"github.com/helmsworks/bridgesim/internal/core/ecs"
	"github.com/helmsworks/bridgesim/internal/core/event"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// Rand is the random source used for status-effect chance rolls.
type Rand interface {
	Float64() float64
}

// Options are world-level tunables taken from config.
type Options struct {
	DefaultRadius float64
	DockingRange  float64
}

// State owns every simulation entity. It is accessed only from the tick
// goroutine; other goroutines go through Commands.
type State struct {
	ecs  *ecs.World
	Bus  *event.Bus
	Log  *zap.Logger
	Rand Rand
	Calc *combat.Calculator
	Opts Options

	// Tick is the number of the tick being run; the engine advances it
	// before the first phase.
	Tick uint64

	Transforms  *ecs.PtrComponentStore[component.Transform]
	Forces      *ecs.PtrComponentStore[component.Force]
	Ships       *ecs.PtrComponentStore[component.Ship]
	Modules     *ecs.PtrComponentStore[component.Module]
	Weapons     *ecs.PtrComponentStore[component.Weapon]
	Projectiles *ecs.PtrComponentStore[component.Projectile]
	Statuses    *ecs.PtrComponentStore[component.StatusEffects]
	Warps       *ecs.PtrComponentStore[component.WarpDrive]
	Jumps       *ecs.PtrComponentStore[component.JumpDrive]

	Commands *CommandQueue

	shipsByID     map[string]ecs.EntityID
	pendingSpawns []ProjectileSpawn
	impacts       []Impact
	scans         []ScanRequest
}

func NewState(bus *event.Bus, log *zap.Logger, rng Rand, calc *combat.Calculator, opts Options) *State {
	if calc == nil {
		calc = combat.NewCalculator(nil)
	}
	s := &State{
		ecs:         ecs.NewWorld(),
		Bus:         bus,
		Log:         log,
		Rand:        rng,
		Calc:        calc,
		Opts:        opts,
		Transforms:  ecs.NewPtrComponentStore[component.Transform](),
		Forces:      ecs.NewPtrComponentStore[component.Force](),
		Ships:       ecs.NewPtrComponentStore[component.Ship](),
		Modules:     ecs.NewPtrComponentStore[component.Module](),
		Weapons:     ecs.NewPtrComponentStore[component.Weapon](),
		Projectiles: ecs.NewPtrComponentStore[component.Projectile](),
		Statuses:    ecs.NewPtrComponentStore[component.StatusEffects](),
		Warps:       ecs.NewPtrComponentStore[component.WarpDrive](),
		Jumps:       ecs.NewPtrComponentStore[component.JumpDrive](),
		Commands:    NewCommandQueue(),
		shipsByID:   make(map[string]ecs.EntityID, 32),
	}
	reg := s.ecs.Registry()
	reg.Register(s.Transforms)
	reg.Register(s.Forces)
	reg.Register(s.Ships)
	reg.Register(s.Modules)
	reg.Register(s.Weapons)
	reg.Register(s.Projectiles)
	reg.Register(s.Statuses)
	reg.Register(s.Warps)
	reg.Register(s.Jumps)
	return s
}

// Alive reports whether id refers to a live entity not queued for removal.
func (s *State) Alive(id ecs.EntityID) bool { return s.ecs.Alive(id) }

// MarkForDestruction queues id for the cleanup phase.
func (s *State) MarkForDestruction(id ecs.EntityID) { s.ecs.MarkForDestruction(id) }

// FlushDestroyQueue destroys queued entities. Called by the cleanup phase.
func (s *State) FlushDestroyQueue() int { return s.ecs.FlushDestroyQueue() }

// EntityCount returns the number of live entities.
func (s *State) EntityCount() int { return s.ecs.Pool().Count() }

// ShipByID resolves an external ship id to its handle.
func (s *State) ShipByID(id string) (ecs.EntityID, bool) {
	h, ok := s.shipsByID[id]
	if !ok || !s.Alive(h) {
		return ecs.NoEntity, false
	}
	return h, true
}

// Ship returns the live ship for h.
func (s *State) Ship(h ecs.EntityID) (*component.Ship, bool) {
	if !s.Alive(h) {
		return nil, false
	}
	return s.Ships.Get(h)
}

// Status returns the status-effect set for h.
func (s *State) Status(h ecs.EntityID) *component.StatusEffects {
	if st, ok := s.Statuses.Get(h); ok {
		return st
	}
	return nil
}

// Module resolves a ship's module by instance id.
func (s *State) Module(ship *component.Ship, instanceID string) (ecs.EntityID, *component.Module, bool) {
	h, ok := ship.ModuleIndex[instanceID]
	if !ok {
		return ecs.NoEntity, nil, false
	}
	m, ok := s.Modules.Get(h)
	return h, m, ok
}

// Weapon resolves a ship's weapon by weapon id.
func (s *State) Weapon(ship *component.Ship, weaponID string) (ecs.EntityID, *component.Weapon, bool) {
	for _, h := range ship.Weapons {
		if w, ok := s.Weapons.Get(h); ok && w.ID == weaponID {
			return h, w, true
		}
	}
	return ecs.NoEntity, nil, false
}

// EachModule calls fn for every module of ship in compile order.
func (s *State) EachModule(ship *component.Ship, fn func(ecs.EntityID, *component.Module)) {
	for _, h := range ship.Modules {
		if m, ok := s.Modules.Get(h); ok {
			fn(h, m)
		}
	}
}

// SpawnShip creates a ship and all its modules and weapons from compiled
// data. Duplicate ship ids are rejected.
func (s *State) SpawnShip(cs CompiledShip) (ecs.EntityID, error) {
	if cs.ID == "" {
		return ecs.NoEntity, fmt.Errorf("spawn ship: empty id")
	}
	if _, exists := s.ShipByID(cs.ID); exists {
		return ecs.NoEntity, fmt.Errorf("spawn ship %s: %w", cs.ID, ErrDuplicateShip)
	}

	h := s.ecs.CreateEntity()
	st := cs.Status
	radius := st.Radius
	if radius <= 0 {
		radius = s.Opts.DefaultRadius
	}
	maxHull := st.MaxHull
	if maxHull <= 0 {
		maxHull = st.Hull
	}
	ship := &component.Ship{
		ID:    cs.ID,
		Class: cs.Class,
		Team:  cs.Team,
		Roles: cs.Roles,
		Hull:  min(st.Hull, maxHull),

		MaxHull: maxHull,
		Shield: component.Shield{
			Current:   st.Shields,
			Max:       st.MaxShields,
			Raised:    st.ShieldsRaised,
			RegenRate: st.ShieldRegen,
		},
		Power:           component.NewPowerGrid(st.PowerGeneration, st.PowerCapacity),
		Cooling:         component.NewCoolingSystem(st.CoolingGeneration, st.CoolingCapacity),
		BaseWeight:      st.Weight,
		EffectiveWeight: st.Weight,
		Radius:          radius,
		ModuleIndex:     make(map[string]ecs.EntityID, len(cs.Modules)),
		ModuleHealth:    make(map[string]float64, len(cs.Modules)),
	}

	tr := component.NewTransform(cs.Position)
	tr.Velocity = cs.Velocity
	s.Transforms.Set(h, tr)
	s.Forces.Set(h, &component.Force{})
	s.Statuses.Set(h, component.NewStatusEffects())

	for _, cm := range cs.Modules {
		mh := s.spawnModule(h, cm)
		ship.Modules = append(ship.Modules, mh)
		ship.ModuleIndex[cm.InstanceID] = mh
		m, _ := s.Modules.Get(mh)
		ship.ModuleHealth[cm.InstanceID] = m.HealthFraction()
		s.attachDrive(h, mh, m)
	}
	for _, wi := range cs.Weapons {
		ship.Weapons = append(ship.Weapons, s.spawnWeapon(h, wi))
	}

	s.Ships.Set(h, ship)
	s.shipsByID[cs.ID] = h
	return h, nil
}

func (s *State) spawnModule(ship ecs.EntityID, cm CompiledModule) ecs.EntityID {
	mh := s.ecs.CreateEntity()
	maxHealth := cm.MaxHealth
	if maxHealth <= 0 {
		maxHealth = cm.Health
	}
	m := component.NewModule(cm.InstanceID, cm.TypeID, cm.Stats, maxHealth)
	m.Ship = ship
	if cm.Health > 0 || cm.MaxHealth > 0 {
		m.Health = min(cm.Health, m.MaxHealth)
		if m.Health <= 0 {
			m.Health = 0
			m.Operational = false
		}
	}
	if uses, ok := cm.Stats.Number(component.StatMaxUses); ok && uses > 0 {
		m.Limited = component.NewLimitedUse(
			int(uses),
			cm.Stats.NumberOr(component.StatCooldownTime, 0),
			cm.Stats.NumberOr(component.StatActiveDuration, 0),
		)
	}
	m.UpdateEfficiency()
	s.Modules.Set(mh, m)
	return mh
}

// attachDrive gives the ship a warp or jump drive backed by the first module
// of that type.
func (s *State) attachDrive(ship, mh ecs.EntityID, m *component.Module) {
	switch m.TypeID {
	case component.ModuleWarpDrive:
		if s.Warps.Has(ship) {
			return
		}
		s.Warps.Set(ship, &component.WarpDrive{
			Module:       mh,
			WarpFactor:   m.Stats.NumberOr(component.StatWarpFactor, 1),
			BaseSpeed:    m.Stats.NumberOr(component.StatBaseSpeed, 0),
			StartupTime:  m.Stats.NumberOr(component.StatStartupTime, 0),
			CooldownTime: m.Stats.NumberOr(component.StatCooldownTime, 0),
		})
	case component.ModuleJumpDrive:
		if s.Jumps.Has(ship) {
			return
		}
		s.Jumps.Set(ship, &component.JumpDrive{
			Module:       mh,
			ChargeTime:   m.Stats.NumberOr(component.StatChargeTime, 0),
			CooldownTime: m.Stats.NumberOr(component.StatCooldownTime, 0),
		})
	}
}

func (s *State) spawnWeapon(ship ecs.EntityID, wi WeaponInstance) ecs.EntityID {
	wh := s.ecs.CreateEntity()
	tags := make([]combat.Tag, len(wi.Tags))
	copy(tags, wi.Tags)
	s.Weapons.Set(wh, &component.Weapon{
		ID:                 wi.ID,
		TypeID:             wi.TypeID,
		Kind:               wi.Kind,
		Tags:               tags,
		Ship:               ship,
		BaseDamage:         wi.BaseDamage,
		MaxCooldown:        wi.Cooldown,
		Ammo:               wi.Ammo,
		AutoFire:           wi.AutoFire,
		Active:             true,
		PointDefense:       wi.PointDefense,
		Range:              wi.Range,
		ProjectileSpeed:    wi.ProjectileSpeed,
		ProjectileLifetime: wi.ProjectileLifetime,
		Thrust:             wi.Thrust,
		TurnRate:           wi.TurnRate,
	})
	return wh
}

// RemoveShip queues a ship and everything it owns for destruction.
func (s *State) RemoveShip(h ecs.EntityID) {
	ship, ok := s.Ships.Get(h)
	if !ok {
		return
	}
	for _, mh := range ship.Modules {
		s.MarkForDestruction(mh)
	}
	for _, wh := range ship.Weapons {
		if w, ok := s.Weapons.Get(wh); ok && !w.Beam.IsZero() {
			s.MarkForDestruction(w.Beam)
		}
		s.MarkForDestruction(wh)
	}
	s.MarkForDestruction(h)
	if cur, ok := s.shipsByID[ship.ID]; ok && cur == h {
		delete(s.shipsByID, ship.ID)
	}
}

// ProjectileSpawn is a spawn request collected during the firing phase.
type ProjectileSpawn struct {
	Projectile component.Projectile
	Position   r3.Vec
	Velocity   r3.Vec
}

// QueueProjectile appends a spawn request; it becomes an entity on the next
// CommitSpawns.
func (s *State) QueueProjectile(p ProjectileSpawn) {
	s.pendingSpawns = append(s.pendingSpawns, p)
}

// PendingSpawns returns the number of uncommitted spawn requests.
func (s *State) PendingSpawns() int { return len(s.pendingSpawns) }

// CommitSpawns turns queued spawn requests into projectile entities. Beam
// handles are written back to their source weapon.
func (s *State) CommitSpawns() int {
	n := len(s.pendingSpawns)
	for i := range s.pendingSpawns {
		req := &s.pendingSpawns[i]
		h := s.ecs.CreateEntity()
		p := req.Projectile
		s.Projectiles.Set(h, &p)
		tr := component.NewTransform(req.Position)
		tr.Velocity = req.Velocity
		s.Transforms.Set(h, tr)
		if p.Kind == component.ProjectileBeam {
			if w, ok := s.Weapons.Get(p.Weapon); ok {
				w.Beam = h
			}
		}
	}
	s.pendingSpawns = s.pendingSpawns[:0]
	return n
}

// Impact is a hit whose momentum transfer is deferred to the aftermath phase.
type Impact struct {
	Ship    ecs.EntityID
	Impulse r3.Vec
}

func (s *State) QueueImpact(i Impact) { s.impacts = append(s.impacts, i) }

// DrainImpacts returns and clears the queued impacts.
func (s *State) DrainImpacts() []Impact {
	out := s.impacts
	s.impacts = nil
	return out
}

// ScanRequest asks for a sensor sweep of Target on behalf of Ship.
type ScanRequest struct {
	Ship   ecs.EntityID
	Target ecs.EntityID
}

func (s *State) QueueScan(r ScanRequest) { s.scans = append(s.scans, r) }

// DrainScans returns and clears the queued scan requests.
func (s *State) DrainScans() []ScanRequest {
	out := s.scans
	s.scans = nil
	return out
}

// EmitDamage publishes a DamageTaken event with the ship's resulting state.
func (s *State) EmitDamage(h ecs.EntityID, ship *component.Ship, source ecs.EntityID, kind string, amount float64) {
	event.Emit(s.Bus, event.DamageTaken{
		Ship:      h,
		ShipID:    ship.ID,
		Source:    source,
		Kind:      kind,
		Amount:    amount,
		HullPct:   ship.HullFraction() * 100,
		ShieldPct: ship.Shield.Fraction() * 100,
	})
}
