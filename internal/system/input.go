package system

import (
	"fmt"
	"time"

	coresys "github.com/helmsworks/bridgesim/internal/core/system"
	"github.com/helmsworks/bridgesim/internal/world"
	"go.uber.org/zap"
)

// InputSystem drains the command queue and applies each intent to the world.
// Phase 0 (Input).
type InputSystem struct {
	world *world.State
	log   *zap.Logger

	applied  int
	rejected int
}

func NewInputSystem(ws *world.State, log *zap.Logger) *InputSystem {
	return &InputSystem{world: ws, log: log}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	s.applied, s.rejected = 0, 0
	for _, cmd := range s.world.Commands.Drain() {
		if err := cmd.Apply(s.world); err != nil {
			s.rejected++
			s.log.Debug("command rejected",
				zap.String("command", fmt.Sprintf("%T", cmd)),
				zap.Uint64("tick", s.world.Tick),
				zap.Error(err))
			continue
		}
		s.applied++
	}
}

// LastTick returns how many commands the most recent Update applied and
// rejected.
func (s *InputSystem) LastTick() (applied, rejected int) {
	return s.applied, s.rejected
}
