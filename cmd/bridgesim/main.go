package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/helmsworks/bridgesim/internal/config"
	"github.com/helmsworks/bridgesim/internal/core/event"
	"github.com/helmsworks/bridgesim/internal/data"
	"github.com/helmsworks/bridgesim/internal/persist"
	"github.com/helmsworks/bridgesim/internal/scripting"
	"github.com/helmsworks/bridgesim/internal/sim"
	"github.com/helmsworks/bridgesim/internal/telemetry"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(name string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              bridgesim  v0.1.0            \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mrun:\033[0m %s\n\n", name)
}

func printSection(title string) {
	lineLen := max(46-len(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := max(42-len(label)-len(numStr), 3)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main loop ─────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/sim.toml"
	if p := os.Getenv("BRIDGESIM_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Simulation.Name)

	var deps sim.Deps

	// 3. Scripts
	if cfg.Scripting.Enabled {
		printSection("scripting")
		luaEngine, err := scripting.NewEngine(cfg.Scripting.Dir, log)
		if err != nil {
			return fmt.Errorf("lua engine: %w", err)
		}
		defer luaEngine.Close()
		deps.Modifiers = luaEngine.TagModifiers()
		deps.Formula = luaEngine
		printOK(fmt.Sprintf("Lua scripts loaded from %s", cfg.Scripting.Dir))
		fmt.Println()
	}

	// 4. Ship manifest
	printSection("data")
	manifest, err := data.LoadShipManifest(cfg.Data.ShipManifest)
	if err != nil {
		return fmt.Errorf("load ship manifest: %w", err)
	}
	ships, err := manifest.Compile()
	if err != nil {
		return fmt.Errorf("compile ship manifest: %w", err)
	}
	printStat("ships", manifest.Count())
	fmt.Println()

	// 5. Database
	var repo *persist.SnapshotRepo
	if cfg.Database.Enabled {
		printSection("database")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		if err := persist.RunMigrations(ctx, db.Pool); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("migrations applied")

		repo = persist.NewSnapshotRepo(db)
		runID, err := repo.BeginRun(ctx, cfg.Simulation.Name, cfg.Simulation.Seed, cfg.Simulation.TickRate)
		if err != nil {
			return fmt.Errorf("begin run: %w", err)
		}
		deps.Snapshots = repo
		printStat("run id", int(runID))
		fmt.Println()
	}

	// 6. Telemetry
	if cfg.Telemetry.OutputDir != "" {
		dir := filepath.Join(cfg.Telemetry.OutputDir, time.Now().Format("20060102-150405"))
		out, err := telemetry.NewOutputManager(dir)
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		defer out.Close()
		deps.Output = out
	}

	// 7. Engine
	engine := sim.NewEngine(cfg, deps, log)
	if err := engine.Spawn(ships...); err != nil {
		return fmt.Errorf("spawn: %w", err)
	}
	event.Subscribe(engine.Bus(), func(e event.ShipDestroyed) {
		log.Info("ship lost", zap.String("ship", e.ShipID), zap.String("team", e.Team))
	})

	// 8. Start tick loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Simulation.TickRate)
	defer ticker.Stop()

	printSection("ready")
	printReady(fmt.Sprintf("tick loop started (tick: %s)", cfg.Simulation.TickRate))
	if deps.Output != nil {
		printReady(fmt.Sprintf("telemetry to %s", deps.Output.Dir()))
	}
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			engine.Step(cfg.Simulation.TickRate)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()), zap.Uint64("tick", engine.Tick()))
			engine.Flush()
			if repo != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				last, err := repo.LatestTick(ctx)
				cancel()
				if err != nil {
					log.Warn("read last snapshot tick", zap.Error(err))
				} else {
					log.Info("snapshots saved", zap.Int64("run", repo.RunID()), zap.Uint64("last_tick", last))
				}
			}
			log.Info("simulation stopped")
			return nil
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
