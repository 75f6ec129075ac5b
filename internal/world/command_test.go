package world

import (
	"errors"
	"sync"
	"testing"

	"github.com/helmsworks/bridgesim/internal/combat"
	"github.com/helmsworks/bridgesim/internal/component"
	"gonum.org/v1/gonum/spatial/r3"
)

func auxShip(id string, pos r3.Vec) CompiledShip {
	cs := testShip(id, pos)
	cs.Modules = []CompiledModule{{
		InstanceID: "aux",
		TypeID:     component.ModuleAuxiliary,
		Health:     100,
		Stats: component.Stats{
			component.StatMaxUses:        component.Num(1),
			component.StatCooldownTime:   component.Num(5),
			component.StatActiveDuration: component.Num(2),
		},
	}}
	return cs
}

func TestCommandQueue(t *testing.T) {
	q := NewCommandQueue()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				q.Push(SetShieldsRaised{Ship: "a"})
			}
		}()
	}
	wg.Wait()
	if q.Len() != 800 {
		t.Errorf("expected 800 queued, got %d", q.Len())
	}
	if n := len(q.Drain()); n != 800 {
		t.Errorf("expected 800 drained, got %d", n)
	}
	if q.Drain() != nil {
		t.Error("expected empty drain to return nil")
	}
}

func TestCommandNotFound(t *testing.T) {
	s := newTestState()
	cs := testShip("a", r3.Vec{})
	cs.Weapons = []WeaponInstance{{ID: "gun"}}
	s.SpawnShip(cs)

	tests := []struct {
		name string
		cmd  Command
		want error
	}{
		{"ship", SetThrottle{Ship: "ghost"}, ErrShipNotFound},
		{"module", SetPowerAllocation{Ship: "a", Module: "nope"}, ErrModuleNotFound},
		{"weapon", FireWeapon{Ship: "a", Weapon: "nope"}, ErrWeaponNotFound},
		{"target", SetTarget{Ship: "a", Target: "ghost"}, ErrShipNotFound},
		{"warp", EngageWarp{Ship: "a"}, ErrNoWarpDrive},
		{"jump", ChargeJump{Ship: "a"}, ErrNoJumpDrive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cmd.Apply(s); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestActivateModule(t *testing.T) {
	s := newTestState()
	s.SpawnShip(auxShip("a", r3.Vec{}))

	if err := (ActivateModule{Ship: "a", Module: "aux"}).Apply(s); err != nil {
		t.Fatalf("first activation: %v", err)
	}
	err := (ActivateModule{Ship: "a", Module: "aux"}).Apply(s)
	if !errors.Is(err, component.ErrNoChargesRemaining) {
		t.Errorf("expected ErrNoChargesRemaining, got %v", err)
	}
}

func TestRequestDock(t *testing.T) {
	s := newTestState()
	h, _ := s.SpawnShip(auxShip("a", r3.Vec{}))
	base, _ := s.SpawnShip(testShip("base", r3.Vec{X: 100}))
	s.SpawnShip(testShip("far", r3.Vec{X: 1000}))
	if tr, ok := s.Transforms.Get(base); ok {
		tr.Velocity = r3.Vec{Y: 3}
	}
	ship, _ := s.Ship(h)
	ship.Throttle = r3.Vec{X: 1}
	if err := (ActivateModule{Ship: "a", Module: "aux"}).Apply(s); err != nil {
		t.Fatal(err)
	}

	if err := (RequestDock{Ship: "a", Target: "far"}).Apply(s); !errors.Is(err, ErrOutOfDockingRange) {
		t.Errorf("expected ErrOutOfDockingRange, got %v", err)
	}
	if err := (RequestDock{Ship: "a", Target: "base"}).Apply(s); err != nil {
		t.Fatalf("dock: %v", err)
	}
	if ship.DockedTo != base {
		t.Errorf("expected docked to %d, got %d", base, ship.DockedTo)
	}
	if ship.Throttle != (r3.Vec{}) {
		t.Errorf("expected throttle zeroed, got %v", ship.Throttle)
	}
	if tr, _ := s.Transforms.Get(h); tr.Velocity != (r3.Vec{Y: 3}) {
		t.Errorf("expected velocity matched to the base, got %v", tr.Velocity)
	}
	_, aux, _ := s.Module(ship, "aux")
	if aux.Limited.RemainingUses != 1 || aux.Limited.Active {
		t.Errorf("expected charges restored, got %+v", aux.Limited)
	}

	if err := (SetThrottle{Ship: "a", Throttle: r3.Vec{Y: -0.5}}).Apply(s); err != nil {
		t.Fatal(err)
	}
	if !ship.DockedTo.IsZero() {
		t.Error("expected throttle to undock")
	}
}

func TestWeaponCommands(t *testing.T) {
	s := newTestState()
	cs := testShip("a", r3.Vec{})
	cs.Weapons = []WeaponInstance{
		{ID: "gun", Kind: component.WeaponKinetic, Ammo: 2},
		{ID: "laser", Tags: []combat.Tag{combat.TagPhoton}, Ammo: 0},
		{ID: "pd", Kind: component.WeaponKinetic, Tags: []combat.Tag{combat.TagAntimissile}, Ammo: component.UnlimitedAmmo},
	}
	h, _ := s.SpawnShip(cs)
	ship, _ := s.Ship(h)
	weapon := func(id string) *component.Weapon {
		_, w, _ := s.Weapon(ship, id)
		return w
	}

	if err := (LoadAmmo{Ship: "a", Count: 5}).Apply(s); err != nil {
		t.Fatal(err)
	}
	if weapon("gun").Ammo != 7 || weapon("laser").Ammo != 0 || weapon("pd").Ammo != component.UnlimitedAmmo {
		t.Errorf("unexpected ammo %d/%d/%d", weapon("gun").Ammo, weapon("laser").Ammo, weapon("pd").Ammo)
	}

	if err := (ToggleAutoFire{Ship: "a", Enabled: true}).Apply(s); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"gun", "laser", "pd"} {
		if !weapon(id).AutoFire {
			t.Errorf("expected auto-fire on %s", id)
		}
	}

	if err := (TogglePointDefense{Ship: "a", Weapon: "pd", Enabled: true}).Apply(s); err != nil {
		t.Fatal(err)
	}
	if !weapon("pd").PointDefense || weapon("gun").PointDefense {
		t.Error("expected point defense on pd only")
	}
	if err := (TogglePointDefense{Ship: "a", Weapon: "gun", Enabled: true}).Apply(s); !errors.Is(err, ErrNotCountermeasure) {
		t.Errorf("expected ErrNotCountermeasure, got %v", err)
	}
	if err := (TogglePointDefense{Ship: "a", Enabled: false}).Apply(s); err != nil {
		t.Fatal(err)
	}
	if weapon("pd").PointDefense {
		t.Error("expected ship-wide stand-down to reach pd")
	}
	if err := (TogglePointDefense{Ship: "a", Enabled: true}).Apply(s); err != nil {
		t.Fatal(err)
	}
	if !weapon("pd").PointDefense || weapon("gun").PointDefense || weapon("laser").PointDefense {
		t.Error("expected ship-wide arming to skip offensive weapons")
	}

	if err := (SetWeaponActive{Ship: "a", Weapon: "laser", Active: false}).Apply(s); err != nil {
		t.Fatal(err)
	}
	if weapon("laser").Active || !weapon("gun").Active {
		t.Error("expected only laser stood down")
	}

	if err := (FireWeapon{Ship: "a", Weapon: "gun"}).Apply(s); err != nil {
		t.Fatal(err)
	}
	if !weapon("gun").FireRequested || weapon("laser").FireRequested {
		t.Error("expected only gun triggered")
	}
}

func TestWarpCommands(t *testing.T) {
	s := newTestState()
	cs := testShip("a", r3.Vec{})
	cs.Modules = []CompiledModule{{InstanceID: "warp", TypeID: component.ModuleWarpDrive, Health: 100,
		Stats: component.Stats{component.StatStartupTime: component.Num(1)}}}
	h, _ := s.SpawnShip(cs)
	d, _ := s.Warps.Get(h)

	if err := (EngageWarp{Ship: "a"}).Apply(s); err != nil {
		t.Fatal(err)
	}
	if d.State != component.WarpStarting {
		t.Fatalf("expected starting, got %s", d.State)
	}
	if err := (DisengageWarp{Ship: "a"}).Apply(s); err != nil {
		t.Fatal(err)
	}
	if d.State != component.WarpCooling {
		t.Errorf("expected aborted startup to cool down, got %s", d.State)
	}

	ship, _ := s.Ship(h)
	_, m, _ := s.Module(ship, "warp")
	m.ApplyDamage(1000)
	d.State = component.WarpIdle
	if err := (EngageWarp{Ship: "a"}).Apply(s); !errors.Is(err, ErrDriveInoperative) {
		t.Errorf("expected ErrDriveInoperative, got %v", err)
	}
}
