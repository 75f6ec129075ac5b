package system

import (
	"math"
	"testing"
	"time"

	"github.com/helmsworks/bridgesim/internal/core/event"
	"github.com/helmsworks/bridgesim/internal/world"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

func newAftermath(ws *world.State, formula ExplosionFormula) *AftermathSystem {
	return NewAftermathSystem(ws, AftermathRules{
		RepairRate:      10,
		ExplosionRadius: 300,
		ExplosionDamage: 200,
	}, formula, zap.NewNop())
}

func withHull(hull float64) func(*world.CompiledShip) {
	return func(cs *world.CompiledShip) { cs.Status.Hull = hull }
}

func TestAftermath_Explosion(t *testing.T) {
	ws := newWorld(t)
	rec := record(ws.Bus)
	dead := spawnShip(t, ws, "dead", r3.Vec{})
	near := spawnShip(t, ws, "near", r3.Vec{X: 150})
	far := spawnShip(t, ws, "far", r3.Vec{X: 1000})
	mustShip(t, ws, dead).Hull = 0

	newAftermath(ws, nil).Update(50 * time.Millisecond)

	if ws.Alive(dead) {
		t.Error("expected destroyed ship queued for removal")
	}
	if _, ok := ws.ShipByID("dead"); ok {
		t.Error("expected id lookup to forget the destroyed ship")
	}
	if hull := mustShip(t, ws, near).Hull; math.Abs(hull-900) > 1e-9 {
		t.Errorf("expected blast to take 100 hull, got %v", hull)
	}
	if hull := mustShip(t, ws, far).Hull; hull != 1000 {
		t.Errorf("expected ship outside radius untouched, got %v", hull)
	}
	if n := countOf[event.ShipDestroyed](rec); n != 1 {
		t.Errorf("expected 1 ShipDestroyed, got %d", n)
	}
}

func TestAftermath_ChainExplosion(t *testing.T) {
	ws := newWorld(t)
	rec := record(ws.Bus)
	dead := spawnShip(t, ws, "dead", r3.Vec{})
	weak := spawnShip(t, ws, "weak", r3.Vec{X: 150}, withHull(50))
	mustShip(t, ws, dead).Hull = 0

	newAftermath(ws, nil).Update(50 * time.Millisecond)

	if ws.Alive(weak) || !mustShip(t, ws, weak).Destroyed {
		t.Error("expected the weakened ship to explode in the same tick")
	}
	if n := countOf[event.ShipDestroyed](rec); n != 2 {
		t.Errorf("expected 2 ShipDestroyed, got %d", n)
	}
}

type flatBlast float64

func (f flatBlast) ExplosionDamage(_, _, _ float64) float64 { return float64(f) }

func TestAftermath_ExplosionFormula(t *testing.T) {
	ws := newWorld(t)
	dead := spawnShip(t, ws, "dead", r3.Vec{})
	near := spawnShip(t, ws, "near", r3.Vec{X: 150})
	mustShip(t, ws, dead).Hull = 0

	newAftermath(ws, flatBlast(42)).Update(50 * time.Millisecond)

	if hull := mustShip(t, ws, near).Hull; hull != 958 {
		t.Errorf("expected formula damage 42, got hull %v", hull)
	}
}

func TestAftermath_Collision(t *testing.T) {
	tests := []struct {
		name   string
		gap    float64
		docked bool
		want   int
	}{
		{"overlapping", 30, false, 1},
		{"clear", 60, false, 0},
		{"docked pair", 30, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := newWorld(t)
			rec := record(ws.Bus)
			a := spawnShip(t, ws, "a", r3.Vec{})
			b := spawnShip(t, ws, "b", r3.Vec{X: tt.gap})
			if tt.docked {
				mustShip(t, ws, a).DockedTo = b
			}

			newAftermath(ws, nil).Update(50 * time.Millisecond)

			if n := countOf[event.ShipCollision](rec); n != tt.want {
				t.Errorf("expected %d collisions, got %d", tt.want, n)
			}
		})
	}
}

func TestAftermath_Repair(t *testing.T) {
	ws := newWorld(t)
	rec := record(ws.Bus)
	h := spawnShip(t, ws, "a", r3.Vec{}, withModule("eng", "engine", 0, nil))
	ship := mustShip(t, ws, h)
	if err := (world.SetRepairTarget{Ship: "a", Module: "eng"}).Apply(ws); err != nil {
		t.Fatal(err)
	}
	sys := newAftermath(ws, nil)

	sys.Update(time.Second)
	_, eng, _ := ws.Module(ship, "eng")
	if eng.Health != 10 || !eng.Operational {
		t.Errorf("expected 10 hp and back online, got %v operational=%v", eng.Health, eng.Operational)
	}
	if ship.ModuleHealth["eng"] != 0.1 {
		t.Errorf("expected health fraction 0.1, got %v", ship.ModuleHealth["eng"])
	}
	if n := countOf[event.ModuleStatusChanged](rec); n != 1 {
		t.Errorf("expected 1 ModuleStatusChanged, got %d", n)
	}

	sys.Update(10 * time.Second)
	if eng.Health != 100 {
		t.Errorf("expected full health, got %v", eng.Health)
	}
	if !ship.RepairTarget.IsZero() {
		t.Error("expected repair target cleared at full health")
	}
}

func TestAftermath_Momentum(t *testing.T) {
	ws := newWorld(t)
	h := spawnShip(t, ws, "a", r3.Vec{})
	ws.QueueImpact(world.Impact{Ship: h, Impulse: r3.Vec{X: 500}})

	newAftermath(ws, nil).Update(50 * time.Millisecond)

	if v := mustTransform(t, ws, h).Velocity; math.Abs(v.X-0.5) > 1e-9 || v.Y != 0 || v.Z != 0 {
		t.Errorf("expected velocity 0.5, got %v", v)
	}
}
