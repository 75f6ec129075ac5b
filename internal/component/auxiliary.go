package component

import "errors"

var (
	ErrNotLimitedUse      = errors.New("module is not limited-use")
	ErrModuleInoperative  = errors.New("module inoperative")
	ErrModuleDestroyed    = errors.New("module destroyed")
	ErrNoChargesRemaining = errors.New("no charges remaining")
	ErrOnCooldown         = errors.New("module on cooldown")
	ErrAlreadyActive      = errors.New("module already active")
)

// Auxiliary effects understood by the engine (module stat "effect").
const (
	EffectThrustBoost = "thrust_boost" // thrust × (1 + magnitude) while active
	EffectShieldBoost = "shield_boost" // shield regen × (1 + magnitude) while active
)

// LimitedUse is the bookkeeping for modules with a finite number of charges.
type LimitedUse struct {
	MaxUses           int
	RemainingUses     int
	CooldownTime      float64
	CooldownRemaining float64
	ActiveDuration    float64
	ActiveRemaining   float64
	Active            bool
}

func NewLimitedUse(maxUses int, cooldown, duration float64) *LimitedUse {
	return &LimitedUse{
		MaxUses:        maxUses,
		RemainingUses:  maxUses,
		CooldownTime:   cooldown,
		ActiveDuration: duration,
	}
}

// Activate fires one charge of a limited-use module.
func (m *Module) Activate() error {
	l := m.Limited
	if l == nil {
		return ErrNotLimitedUse
	}
	if m.Destroyed() {
		return ErrModuleDestroyed
	}
	if !m.Operational {
		return ErrModuleInoperative
	}
	if l.RemainingUses <= 0 {
		return ErrNoChargesRemaining
	}
	if l.CooldownRemaining > 0 {
		return ErrOnCooldown
	}
	if l.Active {
		return ErrAlreadyActive
	}
	l.RemainingUses--
	l.CooldownRemaining = l.CooldownTime
	l.ActiveRemaining = l.ActiveDuration
	l.Active = l.ActiveDuration > 0
	return nil
}

// Tick advances the cooldown and activation timers. It reports whether the
// activation ended during this step.
func (l *LimitedUse) Tick(dt float64) (expired bool) {
	if l.CooldownRemaining > 0 {
		l.CooldownRemaining -= dt
		if l.CooldownRemaining < 0 {
			l.CooldownRemaining = 0
		}
	}
	if l.Active {
		l.ActiveRemaining -= dt
		if l.ActiveRemaining <= 0 {
			l.ActiveRemaining = 0
			l.Active = false
			return true
		}
	}
	return false
}

// Recharge restores all charges and clears timers. Triggered by docking.
func (l *LimitedUse) Recharge() {
	l.RemainingUses = l.MaxUses
	l.CooldownRemaining = 0
	l.ActiveRemaining = 0
	l.Active = false
}
