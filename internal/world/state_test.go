package world

import (
	"errors"
	"testing"

	"github.com/helmsworks/bridgesim/internal/combat"
	"github.com/helmsworks/bridgesim/internal/component"
	"github.com/helmsworks/bridgesim/internal/core/event"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

func newTestState() *State {
	return NewState(event.NewBus(), zap.NewNop(), nil, nil, Options{DefaultRadius: 20, DockingRange: 150})
}

func testShip(id string, pos r3.Vec) CompiledShip {
	return CompiledShip{
		ID:       id,
		Team:     "red",
		Status:   ShipStatus{Hull: 500, MaxHull: 500, Weight: 800},
		Position: pos,
	}
}

func TestSpawnShip(t *testing.T) {
	s := newTestState()
	cs := testShip("alpha", r3.Vec{X: 10})
	cs.Modules = []CompiledModule{
		{InstanceID: "core", TypeID: component.ModulePowerCore, Health: 40, MaxHealth: 80},
		{InstanceID: "warp", TypeID: component.ModuleWarpDrive, Health: 100,
			Stats: component.Stats{component.StatWarpFactor: component.Num(3)}},
	}
	cs.Weapons = []WeaponInstance{{ID: "gun", Tags: []combat.Tag{combat.TagSingleFire}, Cooldown: 2, Ammo: 8}}

	h, err := s.SpawnShip(cs)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	ship, ok := s.Ship(h)
	if !ok {
		t.Fatal("expected ship")
	}
	if ship.Radius != 20 {
		t.Errorf("expected default radius 20, got %v", ship.Radius)
	}
	if len(ship.Modules) != 2 || len(ship.Weapons) != 1 {
		t.Fatalf("expected 2 modules and 1 weapon, got %d and %d", len(ship.Modules), len(ship.Weapons))
	}
	if got := ship.ModuleHealth["core"]; got != 0.5 {
		t.Errorf("expected core health fraction 0.5, got %v", got)
	}
	if d, ok := s.Warps.Get(h); !ok || d.WarpFactor != 3 {
		t.Errorf("expected warp drive with factor 3, got %+v", d)
	}
	_, w, ok := s.Weapon(ship, "gun")
	if !ok || !w.Active || w.MaxCooldown != 2 || w.Ammo != 8 {
		t.Errorf("unexpected weapon %+v", w)
	}
	if got, ok := s.ShipByID("alpha"); !ok || got != h {
		t.Errorf("expected id lookup to return %d, got %d", h, got)
	}

	if _, err := s.SpawnShip(testShip("alpha", r3.Vec{})); !errors.Is(err, ErrDuplicateShip) {
		t.Errorf("expected ErrDuplicateShip, got %v", err)
	}
}

func TestSpawnShip_DeadModule(t *testing.T) {
	s := newTestState()
	cs := testShip("alpha", r3.Vec{})
	cs.Modules = []CompiledModule{{InstanceID: "eng", TypeID: component.ModuleEngine, Health: 0, MaxHealth: 50}}
	h, err := s.SpawnShip(cs)
	if err != nil {
		t.Fatal(err)
	}
	ship, _ := s.Ship(h)
	_, m, _ := s.Module(ship, "eng")
	if m.Operational || m.Efficiency != 0 {
		t.Errorf("expected zero-health module offline, got operational=%v efficiency=%v", m.Operational, m.Efficiency)
	}
}

func TestRemoveShip(t *testing.T) {
	s := newTestState()
	cs := testShip("alpha", r3.Vec{})
	cs.Modules = []CompiledModule{{InstanceID: "eng", TypeID: component.ModuleEngine, Health: 10}}
	cs.Weapons = []WeaponInstance{{ID: "gun"}}
	h, _ := s.SpawnShip(cs)
	before := s.EntityCount()

	s.RemoveShip(h)
	if s.Alive(h) {
		t.Error("expected ship doomed")
	}
	if _, ok := s.ShipByID("alpha"); ok {
		t.Error("expected id released")
	}
	if n := s.FlushDestroyQueue(); n != 3 {
		t.Errorf("expected 3 entities destroyed, got %d", n)
	}
	if s.EntityCount() != before-3 {
		t.Errorf("expected %d live entities, got %d", before-3, s.EntityCount())
	}
	if _, err := s.SpawnShip(testShip("alpha", r3.Vec{})); err != nil {
		t.Errorf("expected id reusable after removal, got %v", err)
	}
}

func TestCommitSpawns(t *testing.T) {
	s := newTestState()
	cs := testShip("alpha", r3.Vec{})
	cs.Weapons = []WeaponInstance{{ID: "lance", Tags: []combat.Tag{combat.TagBeam}}}
	h, _ := s.SpawnShip(cs)
	ship, _ := s.Ship(h)
	wh, w, _ := s.Weapon(ship, "lance")

	s.QueueProjectile(ProjectileSpawn{
		Projectile: component.Projectile{Kind: component.ProjectileBeam, Owner: h, Weapon: wh},
	})
	s.QueueProjectile(ProjectileSpawn{
		Projectile: component.Projectile{Kind: component.ProjectileKinetic, Owner: h, Lifetime: 2},
		Position:   r3.Vec{X: 5},
		Velocity:   r3.Vec{X: 100},
	})
	if s.Projectiles.Len() != 0 || s.PendingSpawns() != 2 {
		t.Fatal("expected spawns to stay pending until committed")
	}
	if n := s.CommitSpawns(); n != 2 {
		t.Fatalf("expected 2 committed, got %d", n)
	}
	if s.PendingSpawns() != 0 || s.Projectiles.Len() != 2 {
		t.Errorf("expected 2 projectiles and nothing pending")
	}
	if !s.Alive(w.Beam) {
		t.Error("expected beam handle on the weapon")
	}
	ids := s.Projectiles.IDs()
	tr, _ := s.Transforms.Get(ids[1])
	if tr.Position != (r3.Vec{X: 5}) || tr.Velocity != (r3.Vec{X: 100}) {
		t.Errorf("unexpected kinetic transform %+v", tr)
	}
}

func TestDrainQueues(t *testing.T) {
	s := newTestState()
	s.QueueImpact(Impact{Ship: 1})
	s.QueueScan(ScanRequest{Ship: 1, Target: 2})
	if n := len(s.DrainImpacts()); n != 1 {
		t.Errorf("expected 1 impact, got %d", n)
	}
	if n := len(s.DrainImpacts()); n != 0 {
		t.Errorf("expected impacts drained, got %d", n)
	}
	if n := len(s.DrainScans()); n != 1 {
		t.Errorf("expected 1 scan, got %d", n)
	}
}
