package system

import (
	"time"

	"github.com/helmsworks/bridgesim/internal/core/event"
	coresys "github.com/helmsworks/bridgesim/internal/core/system"
	"github.com/helmsworks/bridgesim/internal/world"
	"go.uber.org/zap"
)

// CommsSystem answers queued sensor sweeps. Ion-jammed requesters get
// nothing back. Phase 11 (Comms).
type CommsSystem struct {
	world *world.State
	log   *zap.Logger
}

func NewCommsSystem(ws *world.State, log *zap.Logger) *CommsSystem {
	return &CommsSystem{world: ws, log: log}
}

func (s *CommsSystem) Phase() coresys.Phase { return coresys.PhaseComms }

func (s *CommsSystem) Update(_ time.Duration) {
	for _, req := range s.world.DrainScans() {
		ship, ok := s.world.Ship(req.Ship)
		if !ok || ship.Destroyed {
			continue
		}
		if s.world.Status(req.Ship).IonJammed() {
			s.log.Debug("scan jammed", zap.String("ship", ship.ID))
			continue
		}
		target, ok := s.world.Ship(req.Target)
		if !ok || target.Destroyed {
			continue
		}
		tr, ok := s.world.Transforms.Get(req.Target)
		if !ok {
			continue
		}
		event.Emit(s.world.Bus, event.ScanCompleted{
			Ship:      req.Ship,
			Target:    req.Target,
			Position:  tr.Position,
			HullPct:   target.HullFraction() * 100,
			ShieldPct: target.Shield.Fraction() * 100,
		})
	}
}
