package component

import (
	"errors"

	"github.com/helmsworks/bridgesim/internal/core/ecs"
	"gonum.org/v1/gonum/spatial/r3"
)

var ErrDriveUnavailable = errors.New("drive unavailable")

// WarpState is the warp drive state machine position.
type WarpState uint8

const (
	WarpIdle WarpState = iota
	WarpStarting
	WarpActive
	WarpCooling
)

func (s WarpState) String() string {
	return [...]string{"idle", "starting", "active", "cooling"}[s]
}

// WarpDrive: Idle → Starting → Active → Cooling → Idle.
type WarpDrive struct {
	Module           ecs.EntityID
	State            WarpState
	WarpFactor       float64
	BaseSpeed        float64
	StartupTime      float64
	StartupProgress  float64 // counts down while Starting
	CooldownTime     float64
	CooldownProgress float64 // counts down while Cooling
	Active           bool
	Disabled         bool
}

// CanEngage reports whether a warp may be started now.
func (d *WarpDrive) CanEngage() bool {
	return !d.Disabled && d.State == WarpIdle
}

// Engage begins the startup countdown.
func (d *WarpDrive) Engage() error {
	if !d.CanEngage() {
		return ErrDriveUnavailable
	}
	d.State = WarpStarting
	d.StartupProgress = d.StartupTime
	return nil
}

// Disengage drops out of warp (or aborts startup) into cooldown. It reports
// whether the drive was warping.
func (d *WarpDrive) Disengage() (wasActive bool) {
	if d.State != WarpStarting && d.State != WarpActive {
		return false
	}
	wasActive = d.Active
	d.Active = false
	d.State = WarpCooling
	d.CooldownProgress = d.CooldownTime
	return wasActive
}

// Suppress disables the drive and forces it out of warp. It reports whether
// the drive was warping.
func (d *WarpDrive) Suppress() (wasActive bool) {
	d.Disabled = true
	return d.Disengage()
}

// Update advances the countdowns. It reports whether the drive entered
// Active during this step.
func (d *WarpDrive) Update(dt float64) (engaged bool) {
	switch d.State {
	case WarpStarting:
		d.StartupProgress -= dt
		if d.StartupProgress <= 0 {
			d.StartupProgress = 0
			d.State = WarpActive
			d.Active = true
			return true
		}
	case WarpCooling:
		d.CooldownProgress -= dt
		if d.CooldownProgress <= 0 {
			d.CooldownProgress = 0
			d.State = WarpIdle
		}
	}
	return false
}

// Speed is the warp cruise speed.
func (d *WarpDrive) Speed() float64 { return d.WarpFactor * d.BaseSpeed }

// JumpState is the jump drive state machine position.
type JumpState uint8

const (
	JumpIdle JumpState = iota
	JumpCharging
)

// JumpDrive: Idle → Charging → (teleport) → Idle with cooldown.
type JumpDrive struct {
	Module           ecs.EntityID
	State            JumpState
	ChargeTime       float64
	StartupProgress  float64 // counts down while Charging
	CooldownTime     float64
	CooldownProgress float64
	Destination      *r3.Vec
	Disabled         bool
}

// CanJump reports whether a jump may be charged now.
func (d *JumpDrive) CanJump() bool {
	return !d.Disabled && d.State == JumpIdle && d.CooldownProgress <= 0
}

// Charge starts charging toward dest.
func (d *JumpDrive) Charge(dest r3.Vec) error {
	if !d.CanJump() {
		return ErrDriveUnavailable
	}
	d.State = JumpCharging
	d.StartupProgress = d.ChargeTime
	d.Destination = &dest
	return nil
}

// Cancel aborts any charge and clears the destination. It reports whether a
// charge was in progress.
func (d *JumpDrive) Cancel() (wasCharging bool) {
	wasCharging = d.State == JumpCharging
	d.State = JumpIdle
	d.StartupProgress = 0
	d.Destination = nil
	return wasCharging
}

// Update advances charge and cooldown. When the charge completes it returns
// the destination with arrived=true; the drive is then Idle, cooling down,
// with no destination.
func (d *JumpDrive) Update(dt float64) (dest r3.Vec, arrived bool) {
	if d.CooldownProgress > 0 {
		d.CooldownProgress -= dt
		if d.CooldownProgress < 0 {
			d.CooldownProgress = 0
		}
	}
	if d.State != JumpCharging {
		return r3.Vec{}, false
	}
	d.StartupProgress -= dt
	if d.StartupProgress > 0 {
		return r3.Vec{}, false
	}
	if d.Destination != nil {
		dest = *d.Destination
	}
	d.State = JumpIdle
	d.StartupProgress = 0
	d.Destination = nil
	d.CooldownProgress = d.CooldownTime
	return dest, true
}
