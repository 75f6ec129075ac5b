package system

import (
	"testing"

	"github.com/helmsworks/bridgesim/internal/component"
	"github.com/helmsworks/bridgesim/internal/core/ecs"
	"github.com/helmsworks/bridgesim/internal/core/event"
	"github.com/helmsworks/bridgesim/internal/world"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// fixedRand always rolls the same value.
type fixedRand float64

func (r fixedRand) Float64() float64 { return float64(r) }

func newWorld(t *testing.T) *world.State {
	t.Helper()
	return world.NewState(event.NewBus(), zap.NewNop(), fixedRand(0), nil, world.Options{
		DefaultRadius: 25,
		DockingRange:  150,
	})
}

func spawnShip(t *testing.T, ws *world.State, id string, pos r3.Vec, edit ...func(*world.CompiledShip)) ecs.EntityID {
	t.Helper()
	cs := world.CompiledShip{
		ID:   id,
		Team: "blue",
		Status: world.ShipStatus{
			Hull:    1000,
			MaxHull: 1000,
			Weight:  1000,
			Radius:  25,
		},
		Position: pos,
	}
	for _, fn := range edit {
		fn(&cs)
	}
	h, err := ws.SpawnShip(cs)
	if err != nil {
		t.Fatalf("spawn %s: %v", id, err)
	}
	return h
}

func withShields(current, maxShields float64, raised bool) func(*world.CompiledShip) {
	return func(cs *world.CompiledShip) {
		cs.Status.Shields = current
		cs.Status.MaxShields = maxShields
		cs.Status.ShieldsRaised = raised
	}
}

func withModule(id, typeID string, health float64, stats map[string]any) func(*world.CompiledShip) {
	return func(cs *world.CompiledShip) {
		st, err := component.StatsFromMap(stats)
		if err != nil {
			panic(err)
		}
		cs.Modules = append(cs.Modules, world.CompiledModule{
			InstanceID: id,
			TypeID:     typeID,
			Stats:      st,
			Health:     health,
			MaxHealth:  100,
		})
	}
}

func withWeapon(wi world.WeaponInstance) func(*world.CompiledShip) {
	return func(cs *world.CompiledShip) {
		cs.Weapons = append(cs.Weapons, wi)
	}
}

func mustShip(t *testing.T, ws *world.State, h ecs.EntityID) *component.Ship {
	t.Helper()
	ship, ok := ws.Ships.Get(h)
	if !ok {
		t.Fatalf("ship %d missing", h)
	}
	return ship
}

func mustTransform(t *testing.T, ws *world.State, h ecs.EntityID) *component.Transform {
	t.Helper()
	tr, ok := ws.Transforms.Get(h)
	if !ok {
		t.Fatalf("transform %d missing", h)
	}
	return tr
}

// recorder captures dispatched events.
type recorder struct {
	bus    *event.Bus
	events []any
}

func record(bus *event.Bus) *recorder {
	r := &recorder{bus: bus}
	bus.SubscribeAll(func(ev any) { r.events = append(r.events, ev) })
	return r
}

// flush dispatches everything emitted since the last flush.
func (r *recorder) flush() {
	r.bus.SwapBuffers()
	r.bus.DispatchAll()
}

func countOf[T any](r *recorder) int {
	r.flush()
	n := 0
	for _, ev := range r.events {
		if _, ok := ev.(T); ok {
			n++
		}
	}
	return n
}
