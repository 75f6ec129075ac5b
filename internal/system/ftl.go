package system

import (
	"time"

	"github.com/helmsworks/bridgesim/internal/component"
	"github.com/helmsworks/bridgesim/internal/core/ecs"
	"github.com/helmsworks/bridgesim/internal/core/event"
	coresys "github.com/helmsworks/bridgesim/internal/core/system"
	"github.com/helmsworks/bridgesim/internal/world"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// FTLSystem runs the warp and jump drive state machines. A tachyon effect
// shuts both down for as long as it lasts. Phase 10 (FTL).
type FTLSystem struct {
	world *world.State
	log   *zap.Logger
}

func NewFTLSystem(ws *world.State, log *zap.Logger) *FTLSystem {
	return &FTLSystem{world: ws, log: log}
}

func (s *FTLSystem) Phase() coresys.Phase { return coresys.PhaseFTL }

func (s *FTLSystem) Update(dt time.Duration) {
	sec := dt.Seconds()
	s.world.Warps.Each(func(h ecs.EntityID, d *component.WarpDrive) {
		s.updateWarp(h, d, sec)
	})
	s.world.Jumps.Each(func(h ecs.EntityID, d *component.JumpDrive) {
		s.updateJump(h, d, sec)
	})
}

func (s *FTLSystem) driveOnline(module ecs.EntityID) bool {
	m, ok := s.world.Modules.Get(module)
	return ok && m.Operational
}

func (s *FTLSystem) updateWarp(h ecs.EntityID, d *component.WarpDrive, dt float64) {
	ship, ok := s.world.Ship(h)
	if !ok || ship.Destroyed {
		return
	}
	if s.world.Status(h).TachyonBlocked() || !s.driveOnline(d.Module) {
		if d.Suppress() {
			event.Emit(s.world.Bus, event.FTLDisengaged{Ship: h, Drive: "warp"})
		}
		d.Active = false
	} else {
		d.Disabled = false
	}

	if d.Update(dt) {
		ship.DockedTo = ecs.NoEntity
		event.Emit(s.world.Bus, event.FTLEngaged{Ship: h, Drive: "warp"})
	}
	if d.State != component.WarpActive {
		return
	}
	tr, ok := s.world.Transforms.Get(h)
	if !ok {
		return
	}
	dir := component.Unit(tr.Velocity)
	if dir == (r3.Vec{}) {
		dir = tr.Heading()
	}
	tr.Velocity = r3.Scale(d.Speed(), dir)
}

func (s *FTLSystem) updateJump(h ecs.EntityID, d *component.JumpDrive, dt float64) {
	ship, ok := s.world.Ship(h)
	if !ok || ship.Destroyed {
		return
	}
	if s.world.Status(h).TachyonBlocked() || !s.driveOnline(d.Module) {
		d.Disabled = true
		if d.Cancel() {
			s.log.Debug("jump charge cancelled", zap.String("ship", ship.ID))
		}
	} else {
		d.Disabled = false
	}

	dest, arrived := d.Update(dt)
	if !arrived {
		return
	}
	if tr, ok := s.world.Transforms.Get(h); ok {
		tr.Position = dest
		tr.Velocity = r3.Vec{}
	}
	ship.DockedTo = ecs.NoEntity
	event.Emit(s.world.Bus, event.FTLEngaged{Ship: h, Drive: "jump"})
	event.Emit(s.world.Bus, event.FTLDisengaged{Ship: h, Drive: "jump"})
}
