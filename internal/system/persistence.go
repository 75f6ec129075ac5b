package system

import (
	"context"
	"time"

	"github.com/helmsworks/bridgesim/internal/combat"
	"github.com/helmsworks/bridgesim/internal/component"
	"github.com/helmsworks/bridgesim/internal/core/ecs"
	coresys "github.com/helmsworks/bridgesim/internal/core/system"
	"github.com/helmsworks/bridgesim/internal/persist"
	"github.com/helmsworks/bridgesim/internal/world"
	"go.uber.org/zap"
)

// SnapshotWriter stores ship snapshots. *persist.SnapshotRepo implements it.
type SnapshotWriter interface {
	SaveSnapshots(ctx context.Context, snaps []persist.ShipSnapshot) error
}

// PersistenceSystem writes a snapshot of every ship every N ticks.
// Phase 13 (Persist).
type PersistenceSystem struct {
	world     *world.State
	writer    SnapshotWriter
	log       *zap.Logger
	tickCount int
	interval  int
	timeout   time.Duration
}

func NewPersistenceSystem(ws *world.State, writer SnapshotWriter, log *zap.Logger, intervalTicks int) *PersistenceSystem {
	return &PersistenceSystem{
		world:    ws,
		writer:   writer,
		log:      log,
		interval: max(intervalTicks, 1),
		timeout:  5 * time.Second,
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.Flush()
}

// Flush writes a snapshot immediately. Called on shutdown as well.
func (s *PersistenceSystem) Flush() {
	snaps := Snapshots(s.world)
	if len(snaps) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.writer.SaveSnapshots(ctx, snaps); err != nil {
		// a lost snapshot never stalls the simulation
		s.log.Error("snapshot save failed",
			zap.Uint64("tick", s.world.Tick),
			zap.Int("ships", len(snaps)),
			zap.Error(err))
		return
	}
	s.log.Debug("snapshot saved", zap.Uint64("tick", s.world.Tick), zap.Int("ships", len(snaps)))
}

// Snapshots captures every ship in the world in handle order.
func Snapshots(ws *world.State) []persist.ShipSnapshot {
	out := make([]persist.ShipSnapshot, 0, ws.Ships.Len())
	ws.Ships.Each(func(h ecs.EntityID, ship *component.Ship) {
		snap := persist.ShipSnapshot{
			Tick:          ws.Tick,
			ShipID:        ship.ID,
			Team:          ship.Team,
			Hull:          ship.Hull,
			MaxHull:       ship.MaxHull,
			Shields:       ship.Shield.Current,
			ShieldsRaised: ship.Shield.Raised,
			PowerGen:      ship.Power.Generation,
			PowerUsed:     ship.Power.Usage,
			Weight:        ship.EffectiveWeight,
			Destroyed:     ship.Destroyed,
		}
		if tr, ok := ws.Transforms.Get(h); ok {
			snap.PosX, snap.PosY, snap.PosZ = tr.Position.X, tr.Position.Y, tr.Position.Z
			snap.VelX, snap.VelY, snap.VelZ = tr.Velocity.X, tr.Velocity.Y, tr.Velocity.Z
		}
		if st := ws.Status(h); st != nil {
			for k := combat.EffectKind(0); k < combat.EffectKindCount; k++ {
				if st.Has(k) {
					snap.Effects = append(snap.Effects, k.String())
				}
			}
		}
		out = append(out, snap)
	})
	return out
}
