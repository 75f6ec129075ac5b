package sim

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/helmsworks/bridgesim/internal/combat"
	"github.com/helmsworks/bridgesim/internal/component"
	"github.com/helmsworks/bridgesim/internal/config"
	"github.com/helmsworks/bridgesim/internal/core/event"
	"github.com/helmsworks/bridgesim/internal/persist"
	"github.com/helmsworks/bridgesim/internal/system"
	"github.com/helmsworks/bridgesim/internal/telemetry"
	"github.com/helmsworks/bridgesim/internal/world"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

const step = 50 * time.Millisecond

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Simulation.Seed = 7
	cfg.Combat.RollStatusChance = false
	cfg.Combat.ModuleDamageShare = 0
	return cfg
}

func ship(id string, pos r3.Vec) world.CompiledShip {
	return world.CompiledShip{
		ID:       id,
		Team:     id,
		Status:   world.ShipStatus{Hull: 1000, MaxHull: 1000, Weight: 1000},
		Position: pos,
	}
}

func TestEngine_AuxiliaryCharges(t *testing.T) {
	e := NewEngine(testConfig(), Deps{}, zap.NewNop())
	cs := ship("a", r3.Vec{})
	cs.Modules = []world.CompiledModule{{
		InstanceID: "aux",
		TypeID:     component.ModuleAuxiliary,
		Health:     100,
		Stats: component.Stats{
			component.StatMaxUses:        component.Num(3),
			component.StatCooldownTime:   component.Num(5),
			component.StatActiveDuration: component.Num(2),
			component.StatEffect:         component.Str(component.EffectThrustBoost),
			component.StatMagnitude:      component.Num(0.5),
		},
	}}
	if err := e.Spawn(cs); err != nil {
		t.Fatal(err)
	}
	h, _ := e.World().ShipByID("a")
	sh, _ := e.World().Ship(h)
	_, aux, _ := e.World().Module(sh, "aux")

	activate := world.ActivateModule{Ship: "a", Module: "aux"}
	for use := 1; use <= 3; use++ {
		e.Submit(activate)
		e.Step(step)
		if got := aux.Limited.RemainingUses; got != 3-use {
			t.Fatalf("use %d: expected %d charges left, got %d", use, 3-use, got)
		}
		if !aux.Limited.Active {
			t.Fatalf("use %d: expected module active", use)
		}

		// a second request during cooldown is rejected
		e.Submit(activate)
		e.Step(step)
		if got := aux.Limited.RemainingUses; got != 3-use {
			t.Fatalf("use %d: cooldown activation consumed a charge", use)
		}

		e.Step(5 * time.Second)
	}

	err := activate.Apply(e.World())
	if !errors.Is(err, component.ErrNoChargesRemaining) {
		t.Errorf("expected ErrNoChargesRemaining, got %v", err)
	}
}

func TestEngine_ProjectileKill(t *testing.T) {
	e := NewEngine(testConfig(), Deps{}, zap.NewNop())
	a := ship("a", r3.Vec{})
	a.Weapons = []world.WeaponInstance{{
		ID:              "railgun",
		Kind:            component.WeaponKinetic,
		Tags:            []combat.Tag{combat.TagSingleFire},
		Ammo:            4,
		BaseDamage:      2000,
		Cooldown:        30,
		ProjectileSpeed: 600,
		AutoFire:        true,
	}}
	if err := e.Spawn(a, ship("b", r3.Vec{X: 300})); err != nil {
		t.Fatal(err)
	}

	var destroyed []event.ShipDestroyed
	var fired int
	event.Subscribe(e.Bus(), func(ev event.ShipDestroyed) { destroyed = append(destroyed, ev) })
	event.Subscribe(e.Bus(), func(ev event.WeaponFired) { fired += ev.Count })

	e.Submit(world.SetTarget{Ship: "a", Weapon: "railgun", Target: "b"})
	for range 20 {
		e.Step(step)
	}

	if fired != 1 {
		t.Errorf("expected 1 round fired, got %d", fired)
	}
	if len(destroyed) != 1 || destroyed[0].ShipID != "b" {
		t.Fatalf("expected b destroyed, got %+v", destroyed)
	}
	if _, ok := e.World().ShipByID("b"); ok {
		t.Error("expected b removed")
	}
	if n := e.World().Projectiles.Len(); n != 0 {
		t.Errorf("expected spent round cleaned up, got %d projectiles", n)
	}
	if e.Tick() != 20 {
		t.Errorf("expected tick 20, got %d", e.Tick())
	}

	ah, _ := e.World().ShipByID("a")
	as, _ := e.World().Ship(ah)
	_, w, _ := e.World().Weapon(as, "railgun")
	if w.Ammo != 3 || !w.Target.IsZero() {
		t.Errorf("expected ammo 3 and lock dropped, got ammo %d target %d", w.Ammo, w.Target)
	}
}

type memSnapshots struct {
	batches [][]persist.ShipSnapshot
}

func (m *memSnapshots) SaveSnapshots(_ context.Context, snaps []persist.ShipSnapshot) error {
	m.batches = append(m.batches, snaps)
	return nil
}

func TestEngine_Snapshots(t *testing.T) {
	cfg := testConfig()
	cfg.Database.SnapshotEvery = 3
	mem := &memSnapshots{}
	e := NewEngine(cfg, Deps{Snapshots: mem}, zap.NewNop())
	if err := e.Spawn(ship("a", r3.Vec{}), ship("b", r3.Vec{X: 500})); err != nil {
		t.Fatal(err)
	}

	for range 6 {
		e.Step(step)
	}
	if len(mem.batches) != 2 {
		t.Fatalf("expected 2 snapshot batches, got %d", len(mem.batches))
	}
	if got := mem.batches[1]; len(got) != 2 || got[0].Tick != 6 || got[0].ShipID != "a" {
		t.Errorf("unexpected batch %+v", got)
	}

	e.Flush()
	if len(mem.batches) != 3 {
		t.Errorf("expected flush to write a batch, got %d", len(mem.batches))
	}
}

// run plays a short ion-weapon exchange and returns the final snapshot.
func run(t *testing.T, seed int64) []persist.ShipSnapshot {
	t.Helper()
	cfg := testConfig()
	cfg.Simulation.Seed = seed
	cfg.Combat.RollStatusChance = true
	cfg.Combat.ModuleDamageShare = 0.25
	e := NewEngine(cfg, Deps{}, zap.NewNop())

	a := ship("a", r3.Vec{})
	a.Weapons = []world.WeaponInstance{{
		ID: "ion", Kind: component.WeaponEnergy, Tags: []combat.Tag{combat.TagPulse, combat.TagIon},
		BaseDamage: 10, Cooldown: 0.2, ProjectileSpeed: 300, AutoFire: true,
	}}
	b := ship("b", r3.Vec{X: 200})
	b.Modules = []world.CompiledModule{
		{InstanceID: "core", TypeID: component.ModulePowerCore, Health: 100},
		{InstanceID: "eng", TypeID: component.ModuleEngine, Health: 100},
	}
	if err := e.Spawn(a, b); err != nil {
		t.Fatal(err)
	}
	e.Submit(world.SetTarget{Ship: "a", Weapon: "ion", Target: "b"})
	for range 60 {
		e.Step(step)
	}
	return system.Snapshots(e.World())
}

func TestEngine_DeterministicWithSeed(t *testing.T) {
	first := run(t, 42)
	second := run(t, 42)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical runs for one seed\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestEngine_Telemetry(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	out, err := telemetry.NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	cfg := testConfig()
	cfg.Telemetry.FlushEvery = 2
	e := NewEngine(cfg, Deps{Output: out}, zap.NewNop())
	if err := e.Spawn(ship("a", r3.Vec{}), ship("b", r3.Vec{X: 500})); err != nil {
		t.Fatal(err)
	}
	e.Submit(world.SetThrottle{Ship: "a", Throttle: r3.Vec{X: 1}})
	e.Submit(world.SetThrottle{Ship: "ghost"})

	for range 4 {
		e.Step(step)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}

	if n := countLines(t, filepath.Join(dir, "ticks.csv")); n != 5 {
		t.Errorf("expected header + 4 tick rows, got %d lines", n)
	}
	// two ship rows on ticks 2 and 4
	if n := countLines(t, filepath.Join(dir, "ships.csv")); n != 5 {
		t.Errorf("expected header + 4 ship rows, got %d lines", n)
	}
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		n++
	}
	return n
}
