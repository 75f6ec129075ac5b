package system

import (
	"math"
	"testing"
	"time"

	"github.com/helmsworks/bridgesim/internal/combat"
	"github.com/helmsworks/bridgesim/internal/core/event"
	"github.com/helmsworks/bridgesim/internal/world"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestGravitonWeightSlowsAcceleration(t *testing.T) {
	ws := newWorld(t)
	h := spawnShip(t, ws, "a", r3.Vec{})

	ws.Status(h).Apply(combat.EffectGravitonWeight, 15, 0.3)
	NewStatusEffectSystem(ws).Update(0)

	ship := mustShip(t, ws, h)
	if math.Abs(ship.EffectiveWeight-1300) > 1e-9 {
		t.Fatalf("expected effective weight 1300, got %v", ship.EffectiveWeight)
	}

	f, _ := ws.Forces.Get(h)
	f.Add(r3.Vec{X: 1000})
	NewIntegrateSystem(ws).Update(time.Second)

	v := mustTransform(t, ws, h).Velocity.X
	if math.Abs(v-1000.0/1300.0) > 1e-6 {
		t.Errorf("expected dv 0.769, got %v", v)
	}
	if f.Sum != (r3.Vec{}) {
		t.Errorf("expected force cleared, got %v", f.Sum)
	}
}

func TestGravitonWeightExpires(t *testing.T) {
	ws := newWorld(t)
	rec := record(ws.Bus)
	h := spawnShip(t, ws, "a", r3.Vec{})
	ws.Status(h).Apply(combat.EffectGravitonWeight, 1, 0.3)

	sys := NewStatusEffectSystem(ws)
	sys.Update(500 * time.Millisecond)
	if w := mustShip(t, ws, h).EffectiveWeight; math.Abs(w-1300) > 1e-9 {
		t.Fatalf("expected 1300 while active, got %v", w)
	}
	sys.Update(500 * time.Millisecond)
	if w := mustShip(t, ws, h).EffectiveWeight; w != 1000 {
		t.Errorf("expected 1000 after expiry, got %v", w)
	}
	if n := countOf[event.StatusEffectRemoved](rec); n != 1 {
		t.Errorf("expected 1 removal event, got %d", n)
	}
}

func TestForceSystem_ThrustAndDrag(t *testing.T) {
	ws := newWorld(t)
	h := spawnShip(t, ws, "a", r3.Vec{},
		withModule("eng", "engine", 100, map[string]any{"thrust": 2000}),
		withModule("boost", "auxiliary", 100, map[string]any{
			"max_uses": 1, "cooldown_time": 10, "active_duration": 5,
			"effect": "thrust_boost", "magnitude": 0.5,
		}),
	)
	ship := mustShip(t, ws, h)
	ship.Throttle = r3.Vec{X: 0.5}

	sys := NewForceSystem(ws, 0)
	sys.Update(0)
	f, _ := ws.Forces.Get(h)
	if math.Abs(f.Sum.X-1000) > 1e-9 {
		t.Errorf("expected 1000 N forward, got %v", f.Sum)
	}
	f.Clear()

	if err := (world.ActivateModule{Ship: "a", Module: "boost"}).Apply(ws); err != nil {
		t.Fatal(err)
	}
	sys.Update(0)
	if math.Abs(f.Sum.X-1500) > 1e-9 {
		t.Errorf("expected boosted 1500 N, got %v", f.Sum)
	}
	f.Clear()

	// docked ships produce no thrust; drag still applies
	ship.DockedTo = h
	mustTransform(t, ws, h).Velocity = r3.Vec{X: 10}
	NewForceSystem(ws, 0.5).Update(0)
	if math.Abs(f.Sum.X-(-50)) > 1e-9 {
		t.Errorf("expected drag -50 N, got %v", f.Sum)
	}
}

func TestForceSystem_ThrustScalesWithAllocation(t *testing.T) {
	ws := newWorld(t)
	h := spawnShip(t, ws, "a", r3.Vec{},
		withModule("eng", "engine", 100, map[string]any{"thrust": 1000}),
	)
	ship := mustShip(t, ws, h)
	ship.Throttle = r3.Vec{X: 1}
	_, eng, _ := ws.Module(ship, "eng")
	eng.SetPowerAllocation(0.5)
	eng.UpdateEfficiency()

	NewForceSystem(ws, 0).Update(0)

	// efficiency 0.5 (allocation 0.5) × allocation 0.5
	f, _ := ws.Forces.Get(h)
	if math.Abs(f.Sum.X-250) > 1e-9 {
		t.Errorf("expected 250 N forward, got %v", f.Sum)
	}
}

func TestMovementSystem(t *testing.T) {
	ws := newWorld(t)
	rec := record(ws.Bus)
	h := spawnShip(t, ws, "a", r3.Vec{X: 1})
	tr := mustTransform(t, ws, h)
	tr.Velocity = r3.Vec{X: 10, Y: -4}
	tr.AngularVelocity = r3.Vec{Z: math.Pi / 2}

	NewMovementSystem(ws).Update(time.Second)

	if tr.Position != (r3.Vec{X: 11, Y: -4}) {
		t.Errorf("expected (11,-4,0), got %v", tr.Position)
	}
	heading := tr.Heading()
	if math.Abs(heading.X) > 1e-9 || math.Abs(heading.Y-1) > 1e-9 {
		t.Errorf("expected heading +Y after a quarter turn, got %v", heading)
	}
	if n := countOf[event.ShipMoved](rec); n != 1 {
		t.Errorf("expected 1 ShipMoved, got %d", n)
	}
}

func TestTurnToward(t *testing.T) {
	got := turnToward(r3.Vec{X: 1}, r3.Vec{Y: 1}, math.Pi/4)
	want := r3.Vec{X: math.Sqrt2 / 2, Y: math.Sqrt2 / 2}
	if r3.Norm(r3.Sub(got, want)) > 1e-9 {
		t.Errorf("expected %v, got %v", want, got)
	}
	if got := turnToward(r3.Vec{X: 1}, r3.Vec{Y: 1}, math.Pi); got != (r3.Vec{Y: 1}) {
		t.Errorf("expected full turn to +Y, got %v", got)
	}
	if got := turnToward(r3.Vec{X: 1}, r3.Vec{X: -1}, 0.1); math.Abs(r3.Norm(got)-1) > 1e-9 {
		t.Errorf("expected a unit vector for antiparallel turn, got %v", got)
	}
}
