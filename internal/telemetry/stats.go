package telemetry

import (
	"github.com/helmsworks/bridgesim/internal/core/event"
)

// TickStats is one row of ticks.csv.
type TickStats struct {
	Tick             uint64  `csv:"tick"`
	ElapsedMicros    int64   `csv:"elapsed_us"`
	Ships            int     `csv:"ships"`
	Projectiles      int     `csv:"projectiles"`
	Entities         int     `csv:"entities"`
	CommandsApplied  int     `csv:"commands_applied"`
	CommandsRejected int     `csv:"commands_rejected"`
	Events           int     `csv:"events"`
	ShotsFired       int     `csv:"shots_fired"`
	DamageDealt      float64 `csv:"damage_dealt"`
	ShipsDestroyed   int     `csv:"ships_destroyed"`
}

// ShipRow is one row of ships.csv.
type ShipRow struct {
	Tick      uint64  `csv:"tick"`
	ShipID    string  `csv:"ship_id"`
	Team      string  `csv:"team"`
	PosX      float64 `csv:"pos_x"`
	PosY      float64 `csv:"pos_y"`
	PosZ      float64 `csv:"pos_z"`
	Speed     float64 `csv:"speed"`
	HullPct   float64 `csv:"hull_pct"`
	ShieldPct float64 `csv:"shield_pct"`
	PowerGen  float64 `csv:"power_gen"`
	PowerUsed float64 `csv:"power_used"`
	PowerFree float64 `csv:"power_free"`
	CoolFree  float64 `csv:"cooling_free"`
	Weight    float64 `csv:"weight"`
	Effects   int     `csv:"effects"`
}

// Collector tallies outbound events between ticks.
type Collector struct {
	events    int
	shots     int
	damage    float64
	destroyed int
}

// Attach subscribes the collector to every event on bus.
func (c *Collector) Attach(bus *event.Bus) {
	bus.SubscribeAll(c.observe)
}

func (c *Collector) observe(ev any) {
	c.events++
	switch e := ev.(type) {
	case event.WeaponFired:
		c.shots += e.Count
	case event.DamageTaken:
		c.damage += e.Amount
	case event.ShipDestroyed:
		c.destroyed++
	}
}

// Fill copies the tallies into s and resets them.
func (c *Collector) Fill(s *TickStats) {
	s.Events = c.events
	s.ShotsFired = c.shots
	s.DamageDealt = c.damage
	s.ShipsDestroyed = c.destroyed
	*c = Collector{}
}
