package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// OutputManager writes tick and ship telemetry as CSV. A nil manager
// discards everything.
type OutputManager struct {
	dir      string
	tickFile *os.File
	shipFile *os.File

	tickHeaderWritten bool
	shipHeaderWritten bool
}

// NewOutputManager creates the output directory and its CSV files.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	f, err := os.Create(filepath.Join(dir, "ticks.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating ticks.csv: %w", err)
	}
	om.tickFile = f

	f, err = os.Create(filepath.Join(dir, "ships.csv"))
	if err != nil {
		om.tickFile.Close()
		return nil, fmt.Errorf("creating ships.csv: %w", err)
	}
	om.shipFile = f
	return om, nil
}

// WriteTick appends one row to ticks.csv.
func (om *OutputManager) WriteTick(stats TickStats) error {
	if om == nil {
		return nil
	}
	records := []TickStats{stats}
	if !om.tickHeaderWritten {
		if err := gocsv.Marshal(records, om.tickFile); err != nil {
			return fmt.Errorf("writing tick stats: %w", err)
		}
		om.tickHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.tickFile); err != nil {
		return fmt.Errorf("writing tick stats: %w", err)
	}
	return nil
}

// WriteShips appends rows to ships.csv.
func (om *OutputManager) WriteShips(rows []ShipRow) error {
	if om == nil || len(rows) == 0 {
		return nil
	}
	if !om.shipHeaderWritten {
		if err := gocsv.Marshal(rows, om.shipFile); err != nil {
			return fmt.Errorf("writing ship rows: %w", err)
		}
		om.shipHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(rows, om.shipFile); err != nil {
		return fmt.Errorf("writing ship rows: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	var firstErr error
	for _, f := range []*os.File{om.tickFile, om.shipFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
