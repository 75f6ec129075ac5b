package component

import "github.com/helmsworks/bridgesim/internal/core/ecs"

// Module type ids the engine gives meaning to. Other type ids are carried
// through untouched.
const (
	ModulePowerCore       = "power_core"
	ModuleCooling         = "cooling"
	ModuleEngine          = "engine"
	ModuleShieldGenerator = "shield_generator"
	ModuleWarpDrive       = "warp_drive"
	ModuleJumpDrive       = "jump_drive"
	ModuleRepair          = "repair"
	ModuleAuxiliary       = "auxiliary"
)

// Stat keys read by the engine.
const (
	StatPowerGeneration   = "power_generation"
	StatCoolingGeneration = "cooling_generation"
	StatPowerDraw         = "power_draw"
	StatHeatGeneration    = "heat_generation"
	StatThrust            = "thrust"
	StatShieldRegen       = "shield_regen"
	StatWarpFactor        = "warp_factor"
	StatBaseSpeed         = "base_speed"
	StatStartupTime       = "startup_time"
	StatCooldownTime      = "cooldown_time"
	StatChargeTime        = "charge_time"
	StatRepairRate        = "repair_rate"
	StatMaxUses           = "max_uses"
	StatActiveDuration    = "active_duration"
	StatEffect            = "effect"
	StatMagnitude         = "magnitude"
)

// Heat curve constants.
const (
	OverheatThreshold = 1000.0 // heat above this marks a module overheated
	MeltdownHeat      = 2000.0 // heat factor bottoms out here
	MinHeatFactor     = 0.1
)

// Module is a compiled module instance plus its runtime state.
type Module struct {
	// static, resolved at compile time
	InstanceID string
	TypeID     string
	Stats      Stats
	MaxHealth  float64
	Ship       ecs.EntityID

	// runtime
	Health            float64
	Operational       bool
	PowerAllocation   float64 // 0..1
	CoolingAllocation float64 // 0..1
	Heat              float64
	Overheated        bool
	Efficiency        float64 // derived by UpdateEfficiency

	Limited *LimitedUse // nil unless the module is limited-use
}

// NewModule creates a module at full health with full power and cooling.
func NewModule(instanceID, typeID string, stats Stats, maxHealth float64) *Module {
	if maxHealth <= 0 {
		maxHealth = 1
	}
	m := &Module{
		InstanceID:        instanceID,
		TypeID:            typeID,
		Stats:             stats,
		MaxHealth:         maxHealth,
		Health:            maxHealth,
		Operational:       true,
		PowerAllocation:   1,
		CoolingAllocation: 1,
	}
	m.UpdateEfficiency()
	return m
}

// HealthFraction returns Health/MaxHealth clamped to [0, 1].
func (m *Module) HealthFraction() float64 {
	return clamp01(m.Health / m.MaxHealth)
}

// HeatFactor is 1 up to OverheatThreshold, falls linearly to MinHeatFactor
// at MeltdownHeat, and stays there beyond.
func (m *Module) HeatFactor() float64 {
	return HeatFactor(m.Heat)
}

// HeatFactor computes the heat output scale for a heat level.
func HeatFactor(heat float64) float64 {
	if heat <= OverheatThreshold {
		return 1
	}
	over := (heat - OverheatThreshold) / (MeltdownHeat - OverheatThreshold)
	f := 1 - over*(1-MinHeatFactor)
	if f < MinHeatFactor {
		return MinHeatFactor
	}
	return f
}

// UpdateEfficiency recomputes Efficiency = health × power × heat factor.
func (m *Module) UpdateEfficiency() float64 {
	if !m.Operational || m.Health <= 0 {
		m.Efficiency = 0
		return 0
	}
	m.Efficiency = m.HealthFraction() * clamp01(m.PowerAllocation) * m.HeatFactor()
	return m.Efficiency
}

// UpdateHeat adds generated heat scaled by power allocation, then removes
// cooling; both rates are per second.
func (m *Module) UpdateHeat(generationRate, cooling, dt float64) {
	m.Heat += generationRate * clamp01(m.PowerAllocation) * dt
	m.Heat -= cooling * dt
	if m.Heat < 0 {
		m.Heat = 0
	}
	m.Overheated = m.Heat > OverheatThreshold
}

// ApplyDamage reduces health. It reports whether the module went
// non-operational as a result.
func (m *Module) ApplyDamage(amount float64) (disabled bool) {
	if amount <= 0 {
		return false
	}
	m.Health -= amount
	if m.Health <= 0 {
		m.Health = 0
		wasOp := m.Operational
		m.Operational = false
		m.Efficiency = 0
		return wasOp
	}
	return false
}

// Repair increases health clamped to MaxHealth. It reports whether the module
// came back online.
func (m *Module) Repair(amount float64) (restored bool) {
	if amount <= 0 {
		return false
	}
	m.Health += amount
	if m.Health > m.MaxHealth {
		m.Health = m.MaxHealth
	}
	if m.Health > 0 && !m.Operational {
		m.Operational = true
		return true
	}
	return false
}

// Destroyed reports whether the module's health has reached zero.
func (m *Module) Destroyed() bool { return m.Health <= 0 }

// SetPowerAllocation clamps and stores the power fraction.
func (m *Module) SetPowerAllocation(f float64) { m.PowerAllocation = clamp01(f) }

// SetCoolingAllocation clamps and stores the cooling fraction.
func (m *Module) SetCoolingAllocation(f float64) { m.CoolingAllocation = clamp01(f) }

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
