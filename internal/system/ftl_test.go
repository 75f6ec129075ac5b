package system

import (
	"errors"
	"testing"
	"time"

	"github.com/helmsworks/bridgesim/internal/combat"
	"github.com/helmsworks/bridgesim/internal/component"
	"github.com/helmsworks/bridgesim/internal/core/event"
	"github.com/helmsworks/bridgesim/internal/world"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

func warpShip(t *testing.T, ws *world.State) *component.WarpDrive {
	t.Helper()
	h := spawnShip(t, ws, "a", r3.Vec{}, withModule("warp", "warp_drive", 100, map[string]any{
		"warp_factor": 5, "base_speed": 100, "startup_time": 2, "cooldown_time": 3,
	}))
	d, ok := ws.Warps.Get(h)
	if !ok {
		t.Fatal("expected warp drive attached")
	}
	return d
}

func TestFTL_WarpStartupAndSuppression(t *testing.T) {
	ws := newWorld(t)
	rec := record(ws.Bus)
	d := warpShip(t, ws)
	h, _ := ws.ShipByID("a")
	sys := NewFTLSystem(ws, zap.NewNop())

	if err := (world.EngageWarp{Ship: "a"}).Apply(ws); err != nil {
		t.Fatal(err)
	}
	sys.Update(time.Second)
	if d.State != component.WarpStarting {
		t.Fatalf("expected starting, got %s", d.State)
	}
	sys.Update(time.Second)
	if d.State != component.WarpActive || !d.Active {
		t.Fatalf("expected active, got %s", d.State)
	}
	if v := mustTransform(t, ws, h).Velocity; v != (r3.Vec{X: 500}) {
		t.Errorf("expected warp velocity 500 along heading, got %v", v)
	}
	if n := countOf[event.FTLEngaged](rec); n != 1 {
		t.Errorf("expected 1 FTLEngaged, got %d", n)
	}

	ws.Status(h).Apply(combat.EffectTachyonBlock, 20, 1)
	sys.Update(50 * time.Millisecond)
	if d.State != component.WarpCooling || d.Active || !d.Disabled {
		t.Errorf("expected suppressed drive cooling and disabled, got %s active=%v disabled=%v", d.State, d.Active, d.Disabled)
	}
	if n := countOf[event.FTLDisengaged](rec); n != 1 {
		t.Errorf("expected 1 FTLDisengaged, got %d", n)
	}

	err := (world.EngageWarp{Ship: "a"}).Apply(ws)
	if !errors.Is(err, component.ErrDriveUnavailable) {
		t.Errorf("expected engage refused while blocked, got %v", err)
	}
}

func TestFTL_WarpRecoversAfterBlock(t *testing.T) {
	ws := newWorld(t)
	d := warpShip(t, ws)
	h, _ := ws.ShipByID("a")
	sys := NewFTLSystem(ws, zap.NewNop())

	ws.Status(h).Apply(combat.EffectTachyonBlock, 1, 1)
	sys.Update(50 * time.Millisecond)
	if !d.Disabled {
		t.Fatal("expected drive disabled under tachyon")
	}
	ws.Status(h).Update(2)
	sys.Update(50 * time.Millisecond)
	if d.Disabled || !d.CanEngage() {
		t.Errorf("expected drive usable once the block expires")
	}
}

func jumpShip(t *testing.T, ws *world.State) *component.JumpDrive {
	t.Helper()
	h := spawnShip(t, ws, "a", r3.Vec{}, withModule("jump", "jump_drive", 100, map[string]any{
		"charge_time": 3, "cooldown_time": 5,
	}))
	d, ok := ws.Jumps.Get(h)
	if !ok {
		t.Fatal("expected jump drive attached")
	}
	return d
}

func TestFTL_JumpCancelledByTachyon(t *testing.T) {
	ws := newWorld(t)
	d := jumpShip(t, ws)
	h, _ := ws.ShipByID("a")
	sys := NewFTLSystem(ws, zap.NewNop())

	if err := (world.ChargeJump{Ship: "a", Destination: r3.Vec{X: 10000}}).Apply(ws); err != nil {
		t.Fatal(err)
	}
	sys.Update(time.Second)
	if d.State != component.JumpCharging {
		t.Fatal("expected charging")
	}

	ws.Status(h).Apply(combat.EffectTachyonBlock, 20, 1)
	sys.Update(50 * time.Millisecond)
	if d.Destination != nil {
		t.Error("expected destination cleared")
	}
	if d.CanJump() {
		t.Error("expected jump unavailable while blocked")
	}
	if p := mustTransform(t, ws, h).Position; p != (r3.Vec{}) {
		t.Errorf("expected ship to stay put, got %v", p)
	}
}

func TestFTL_JumpArrival(t *testing.T) {
	ws := newWorld(t)
	rec := record(ws.Bus)
	d := jumpShip(t, ws)
	h, _ := ws.ShipByID("a")
	mustTransform(t, ws, h).Velocity = r3.Vec{Y: 40}
	sys := NewFTLSystem(ws, zap.NewNop())

	if err := (world.ChargeJump{Ship: "a", Destination: r3.Vec{X: 10000}}).Apply(ws); err != nil {
		t.Fatal(err)
	}
	sys.Update(3 * time.Second)

	tr := mustTransform(t, ws, h)
	if tr.Position != (r3.Vec{X: 10000}) || tr.Velocity != (r3.Vec{}) {
		t.Errorf("expected arrival at rest, got pos %v vel %v", tr.Position, tr.Velocity)
	}
	if d.CanJump() {
		t.Error("expected drive cooling down after the jump")
	}
	if n := countOf[event.FTLEngaged](rec); n != 1 {
		t.Errorf("expected 1 FTLEngaged, got %d", n)
	}
	if n := countOf[event.FTLDisengaged](rec); n != 1 {
		t.Errorf("expected 1 FTLDisengaged, got %d", n)
	}
}
