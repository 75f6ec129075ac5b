package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ShipSnapshot is one ship's state at a tick.
type ShipSnapshot struct {
	Tick          uint64
	ShipID        string
	Team          string
	PosX          float64
	PosY          float64
	PosZ          float64
	VelX          float64
	VelY          float64
	VelZ          float64
	Hull          float64
	MaxHull       float64
	Shields       float64
	ShieldsRaised bool
	PowerGen      float64
	PowerUsed     float64
	Weight        float64
	Effects       []string
	Destroyed     bool
}

type SnapshotRepo struct {
	db    *DB
	runID int64
}

func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

// BeginRun registers a simulation run; snapshots saved afterwards belong to it.
func (r *SnapshotRepo) BeginRun(ctx context.Context, name string, seed int64, tickRate time.Duration) (int64, error) {
	var id int64
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO sim_runs (name, seed, tick_ms) VALUES ($1, $2, $3) RETURNING id`,
		name, seed, tickRate.Milliseconds(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("begin run: %w", err)
	}
	r.runID = id
	return id, nil
}

// RunID returns the active run, zero before BeginRun.
func (r *SnapshotRepo) RunID() int64 { return r.runID }

// SaveSnapshots writes a batch of snapshots in one round trip.
func (r *SnapshotRepo) SaveSnapshots(ctx context.Context, snaps []ShipSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	if r.runID == 0 {
		return fmt.Errorf("save snapshots: no active run")
	}
	batch := &pgx.Batch{}
	for _, s := range snaps {
		effects := s.Effects
		if effects == nil {
			effects = []string{}
		}
		batch.Queue(
			`INSERT INTO ship_snapshots (run_id, tick, ship_id, team,
			    pos_x, pos_y, pos_z, vel_x, vel_y, vel_z,
			    hull, max_hull, shields, shields_raised,
			    power_gen, power_used, weight, effects, destroyed)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
			 ON CONFLICT (run_id, tick, ship_id) DO NOTHING`,
			r.runID, int64(s.Tick), s.ShipID, s.Team,
			s.PosX, s.PosY, s.PosZ, s.VelX, s.VelY, s.VelZ,
			s.Hull, s.MaxHull, s.Shields, s.ShieldsRaised,
			s.PowerGen, s.PowerUsed, s.Weight, effects, s.Destroyed,
		)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	for range snaps {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("save snapshot: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("save snapshots: %w", err)
	}
	return nil
}

// LatestTick returns the newest tick saved for the active run.
func (r *SnapshotRepo) LatestTick(ctx context.Context) (uint64, error) {
	var tick *int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT MAX(tick) FROM ship_snapshots WHERE run_id = $1`, r.runID,
	).Scan(&tick)
	if err != nil {
		return 0, fmt.Errorf("latest tick: %w", err)
	}
	if tick == nil {
		return 0, nil
	}
	return uint64(*tick), nil
}
