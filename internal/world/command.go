package world

import (
	"fmt"
	"sync"

	"github.com/helmsworks/bridgesim/internal/component"
	"github.com/helmsworks/bridgesim/internal/core/ecs"
	"github.com/helmsworks/bridgesim/internal/core/event"
	"gonum.org/v1/gonum/spatial/r3"
)

// Command is a crew (or AI) intent. Commands are applied one at a time in
// the input phase, never while another phase is running.
type Command interface {
	Apply(s *State) error
}

// CommandQueue is the only part of the world safe to touch from other
// goroutines.
type CommandQueue struct {
	mu    sync.Mutex
	queue []Command
}

func NewCommandQueue() *CommandQueue {
	return &CommandQueue{queue: make([]Command, 0, 64)}
}

// Push appends a command for the next input phase.
func (q *CommandQueue) Push(c Command) {
	q.mu.Lock()
	q.queue = append(q.queue, c)
	q.mu.Unlock()
}

// Drain returns the queued commands in submission order and empties the queue.
func (q *CommandQueue) Drain() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.queue) == 0 {
		return nil
	}
	out := q.queue
	q.queue = make([]Command, 0, cap(out))
	return out
}

// Len returns the number of queued commands.
func (q *CommandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queue)
}

func (s *State) resolveShip(id string) (ecs.EntityID, *component.Ship, error) {
	h, ok := s.ShipByID(id)
	if !ok {
		return ecs.NoEntity, nil, fmt.Errorf("%w: %s", ErrShipNotFound, id)
	}
	ship, ok := s.Ships.Get(h)
	if !ok || ship.Destroyed {
		return ecs.NoEntity, nil, fmt.Errorf("%w: %s", ErrShipNotFound, id)
	}
	return h, ship, nil
}

func (s *State) resolveModule(shipID, moduleID string) (*component.Ship, ecs.EntityID, *component.Module, error) {
	_, ship, err := s.resolveShip(shipID)
	if err != nil {
		return nil, ecs.NoEntity, nil, err
	}
	mh, m, ok := s.Module(ship, moduleID)
	if !ok {
		return nil, ecs.NoEntity, nil, fmt.Errorf("%w: %s/%s", ErrModuleNotFound, shipID, moduleID)
	}
	return ship, mh, m, nil
}

// resolveWeapons returns one weapon, or all of the ship's weapons when
// weaponID is empty.
func (s *State) resolveWeapons(shipID, weaponID string) (ecs.EntityID, []*component.Weapon, error) {
	h, ship, err := s.resolveShip(shipID)
	if err != nil {
		return ecs.NoEntity, nil, err
	}
	if weaponID == "" {
		out := make([]*component.Weapon, 0, len(ship.Weapons))
		for _, wh := range ship.Weapons {
			if w, ok := s.Weapons.Get(wh); ok {
				out = append(out, w)
			}
		}
		return h, out, nil
	}
	_, w, ok := s.Weapon(ship, weaponID)
	if !ok {
		return ecs.NoEntity, nil, fmt.Errorf("%w: %s/%s", ErrWeaponNotFound, shipID, weaponID)
	}
	return h, []*component.Weapon{w}, nil
}

// ── Engineering ────────────────────────────────────────────────────

// SetPowerAllocation sets a module's power fraction (0..1).
type SetPowerAllocation struct {
	Ship, Module string
	Fraction     float64
}

func (c SetPowerAllocation) Apply(s *State) error {
	_, _, m, err := s.resolveModule(c.Ship, c.Module)
	if err != nil {
		return err
	}
	m.SetPowerAllocation(c.Fraction)
	return nil
}

// SetCoolingAllocation sets a module's share of the ship's cooling (0..1).
type SetCoolingAllocation struct {
	Ship, Module string
	Fraction     float64
}

func (c SetCoolingAllocation) Apply(s *State) error {
	_, _, m, err := s.resolveModule(c.Ship, c.Module)
	if err != nil {
		return err
	}
	m.SetCoolingAllocation(c.Fraction)
	return nil
}

// SetRepairTarget points the repair crew at a module; empty Module clears it.
type SetRepairTarget struct {
	Ship, Module string
}

func (c SetRepairTarget) Apply(s *State) error {
	if c.Module == "" {
		_, ship, err := s.resolveShip(c.Ship)
		if err != nil {
			return err
		}
		ship.RepairTarget = ecs.NoEntity
		return nil
	}
	ship, mh, _, err := s.resolveModule(c.Ship, c.Module)
	if err != nil {
		return err
	}
	ship.RepairTarget = mh
	return nil
}

// ActivateModule fires one charge of a limited-use module.
type ActivateModule struct {
	Ship, Module string
}

func (c ActivateModule) Apply(s *State) error {
	ship, _, m, err := s.resolveModule(c.Ship, c.Module)
	if err != nil {
		return err
	}
	if err := m.Activate(); err != nil {
		return fmt.Errorf("activate %s/%s: %w", c.Ship, c.Module, err)
	}
	if m.TypeID == component.ModuleAuxiliary || m.Limited != nil {
		h, _ := s.ShipByID(ship.ID)
		event.Emit(s.Bus, event.ModuleStatusChanged{
			Ship:        h,
			ModuleID:    m.InstanceID,
			Operational: m.Operational,
			Overheated:  m.Overheated,
			HealthPct:   m.HealthFraction() * 100,
		})
	}
	return nil
}

// ── Helm ───────────────────────────────────────────────────────────

// SetThrottle sets the body-frame thrust demand; each axis is clamped to
// -1..1. Any non-zero throttle undocks the ship.
type SetThrottle struct {
	Ship     string
	Throttle r3.Vec
}

func (c SetThrottle) Apply(s *State) error {
	_, ship, err := s.resolveShip(c.Ship)
	if err != nil {
		return err
	}
	ship.Throttle = r3.Vec{X: clampUnit(c.Throttle.X), Y: clampUnit(c.Throttle.Y), Z: clampUnit(c.Throttle.Z)}
	if ship.Throttle != (r3.Vec{}) {
		ship.DockedTo = ecs.NoEntity
	}
	return nil
}

// SetRotation sets the ship's angular velocity (rad/s, world frame).
type SetRotation struct {
	Ship            string
	AngularVelocity r3.Vec
}

func (c SetRotation) Apply(s *State) error {
	h, _, err := s.resolveShip(c.Ship)
	if err != nil {
		return err
	}
	if tr, ok := s.Transforms.Get(h); ok {
		tr.AngularVelocity = c.AngularVelocity
	}
	return nil
}

// EngageWarp starts the warp drive's startup sequence.
type EngageWarp struct{ Ship string }

func (c EngageWarp) Apply(s *State) error {
	h, _, err := s.resolveShip(c.Ship)
	if err != nil {
		return err
	}
	d, ok := s.Warps.Get(h)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoWarpDrive, c.Ship)
	}
	if m, ok := s.Modules.Get(d.Module); !ok || !m.Operational {
		return fmt.Errorf("%w: %s", ErrDriveInoperative, c.Ship)
	}
	if s.Status(h).TachyonBlocked() {
		d.Disabled = true
	}
	if err := d.Engage(); err != nil {
		return fmt.Errorf("engage warp %s: %w", c.Ship, err)
	}
	return nil
}

// DisengageWarp drops out of warp.
type DisengageWarp struct{ Ship string }

func (c DisengageWarp) Apply(s *State) error {
	h, _, err := s.resolveShip(c.Ship)
	if err != nil {
		return err
	}
	d, ok := s.Warps.Get(h)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoWarpDrive, c.Ship)
	}
	if d.Disengage() {
		event.Emit(s.Bus, event.FTLDisengaged{Ship: h, Drive: "warp"})
	}
	return nil
}

// ChargeJump starts charging the jump drive toward Destination.
type ChargeJump struct {
	Ship        string
	Destination r3.Vec
}

func (c ChargeJump) Apply(s *State) error {
	h, _, err := s.resolveShip(c.Ship)
	if err != nil {
		return err
	}
	d, ok := s.Jumps.Get(h)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoJumpDrive, c.Ship)
	}
	if m, ok := s.Modules.Get(d.Module); !ok || !m.Operational {
		return fmt.Errorf("%w: %s", ErrDriveInoperative, c.Ship)
	}
	if s.Status(h).TachyonBlocked() {
		d.Disabled = true
	}
	if err := d.Charge(c.Destination); err != nil {
		return fmt.Errorf("charge jump %s: %w", c.Ship, err)
	}
	return nil
}

// RequestDock docks with Target when within docking range, recharging every
// limited-use module.
type RequestDock struct {
	Ship, Target string
}

func (c RequestDock) Apply(s *State) error {
	h, ship, err := s.resolveShip(c.Ship)
	if err != nil {
		return err
	}
	th, _, err := s.resolveShip(c.Target)
	if err != nil {
		return err
	}
	a, _ := s.Transforms.Get(h)
	b, _ := s.Transforms.Get(th)
	if a == nil || b == nil || component.Distance(a.Position, b.Position) > s.Opts.DockingRange {
		return fmt.Errorf("%w: %s -> %s", ErrOutOfDockingRange, c.Ship, c.Target)
	}
	ship.DockedTo = th
	ship.Throttle = r3.Vec{}
	a.Velocity = b.Velocity
	s.EachModule(ship, func(_ ecs.EntityID, m *component.Module) {
		if m.Limited != nil {
			m.Limited.Recharge()
		}
	})
	event.Emit(s.Bus, event.ShipDocked{Ship: h, Target: th})
	return nil
}

// SetShieldsRaised raises or lowers shields.
type SetShieldsRaised struct {
	Ship   string
	Raised bool
}

func (c SetShieldsRaised) Apply(s *State) error {
	h, ship, err := s.resolveShip(c.Ship)
	if err != nil {
		return err
	}
	if ship.Shield.Raised == c.Raised {
		return nil
	}
	ship.Shield.Raised = c.Raised
	event.Emit(s.Bus, event.ShieldChanged{Ship: h, Current: ship.Shield.Current, Max: ship.Shield.Max, Raised: c.Raised})
	return nil
}

// ── Weapons ────────────────────────────────────────────────────────

// SetTarget locks a weapon (or every weapon when Weapon is empty) onto a
// ship. An empty Target clears the lock. Ion-jammed ships cannot lock.
type SetTarget struct {
	Ship, Weapon, Target string
}

func (c SetTarget) Apply(s *State) error {
	h, weapons, err := s.resolveWeapons(c.Ship, c.Weapon)
	if err != nil {
		return err
	}
	target := ecs.NoEntity
	if c.Target != "" {
		if s.Status(h).IonJammed() {
			return fmt.Errorf("%w: %s", ErrTargetLockJammed, c.Ship)
		}
		th, _, err := s.resolveShip(c.Target)
		if err != nil {
			return err
		}
		target = th
	}
	for _, w := range weapons {
		w.Target = target
	}
	return nil
}

// FireWeapon requests a single manual discharge.
type FireWeapon struct {
	Ship, Weapon string
}

func (c FireWeapon) Apply(s *State) error {
	_, weapons, err := s.resolveWeapons(c.Ship, c.Weapon)
	if err != nil {
		return err
	}
	for _, w := range weapons {
		w.FireRequested = true
	}
	return nil
}

// ToggleAutoFire enables or disables automatic fire.
type ToggleAutoFire struct {
	Ship, Weapon string
	Enabled      bool
}

func (c ToggleAutoFire) Apply(s *State) error {
	_, weapons, err := s.resolveWeapons(c.Ship, c.Weapon)
	if err != nil {
		return err
	}
	for _, w := range weapons {
		w.AutoFire = c.Enabled
	}
	return nil
}

// SetWeaponActive powers a weapon up or stands it down. Inactive weapons
// neither fire nor intercept, and their beams are retired.
type SetWeaponActive struct {
	Ship, Weapon string
	Active       bool
}

func (c SetWeaponActive) Apply(s *State) error {
	_, weapons, err := s.resolveWeapons(c.Ship, c.Weapon)
	if err != nil {
		return err
	}
	for _, w := range weapons {
		w.Active = c.Active
		if !c.Active {
			w.FireRequested = false
		}
	}
	return nil
}

// LoadAmmo adds rounds to an ammunition-tracking weapon.
type LoadAmmo struct {
	Ship, Weapon string
	Count        int
}

func (c LoadAmmo) Apply(s *State) error {
	_, weapons, err := s.resolveWeapons(c.Ship, c.Weapon)
	if err != nil {
		return err
	}
	if c.Count <= 0 {
		return nil
	}
	for _, w := range weapons {
		if w.IsEnergy() || w.Ammo == component.UnlimitedAmmo {
			continue
		}
		w.Ammo += c.Count
	}
	return nil
}

// ── Countermeasures ────────────────────────────────────────────────

// TogglePointDefense arms or stands down a countermeasure weapon. With no
// Weapon named it covers every countermeasure on the ship and leaves the
// rest alone. A stood-down countermeasure idles; it never fires offensively.
type TogglePointDefense struct {
	Ship, Weapon string
	Enabled      bool
}

func (c TogglePointDefense) Apply(s *State) error {
	_, weapons, err := s.resolveWeapons(c.Ship, c.Weapon)
	if err != nil {
		return err
	}
	if c.Weapon != "" && !weapons[0].IsCountermeasure() {
		return fmt.Errorf("%w: %s/%s", ErrNotCountermeasure, c.Ship, c.Weapon)
	}
	for _, w := range weapons {
		if w.IsCountermeasure() {
			w.PointDefense = c.Enabled
		}
	}
	return nil
}

// ── Sensors ────────────────────────────────────────────────────────

// RequestScan queues a sensor sweep answered in the comms phase.
type RequestScan struct {
	Ship, Target string
}

func (c RequestScan) Apply(s *State) error {
	h, _, err := s.resolveShip(c.Ship)
	if err != nil {
		return err
	}
	th, _, err := s.resolveShip(c.Target)
	if err != nil {
		return err
	}
	s.QueueScan(ScanRequest{Ship: h, Target: th})
	return nil
}

func clampUnit(v float64) float64 {
	switch {
	case v < -1:
		return -1
	case v > 1:
		return 1
	}
	return v
}
