package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/helmsworks/bridgesim/internal/combat"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM holding the balance formulas.
// Single-goroutine access only (tick loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads every script under the core and
// combat subdirectories of scriptsDir. Missing directories are skipped.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	for _, sub := range []string{"core", "combat"} {
		if err := e.loadDir(filepath.Join(scriptsDir, sub)); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return e, nil
}

// loadDir loads all .lua files in a directory, in name order.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// DoString runs a chunk of Lua in the engine's VM.
func (e *Engine) DoString(src string) error {
	return e.vm.DoString(src)
}

// TagModifiers reads the global weapon_tag_modifiers table and returns the
// overrides it declares, each merged over the built-in modifier for its tag.
// Unknown tag names are logged and ignored.
//
//	weapon_tag_modifiers = {
//	  plasma = { damage_mult = 1.1, shield_mult = 2.5 },
//	  ion    = { status = { duration = 12, chance = 0.75 } },
//	}
func (e *Engine) TagModifiers() combat.ModifierTable {
	out := combat.ModifierTable{}
	tbl, ok := e.vm.GetGlobal("weapon_tag_modifiers").(*lua.LTable)
	if !ok {
		return out
	}
	defaults := combat.DefaultTable()
	tbl.ForEach(func(k, v lua.LValue) {
		name := lua.LVAsString(k)
		tag, err := combat.ParseTag(name)
		if err != nil {
			e.log.Warn("unknown tag in weapon_tag_modifiers", zap.String("tag", name))
			return
		}
		row, ok := v.(*lua.LTable)
		if !ok {
			e.log.Warn("weapon_tag_modifiers entry is not a table", zap.String("tag", name))
			return
		}
		m, ok := defaults[tag]
		if !ok {
			m = combat.Identity
		}
		m.DamageMult = lNum(row, "damage_mult", m.DamageMult)
		m.ShieldMult = lNum(row, "shield_mult", m.ShieldMult)
		m.ShieldBypass = lNum(row, "shield_bypass", m.ShieldBypass)
		if st, ok := row.RawGetString("status").(*lua.LTable); ok && m.Status != nil {
			spec := *m.Status
			spec.Duration = lNum(st, "duration", spec.Duration)
			spec.Magnitude = lNum(st, "magnitude", spec.Magnitude)
			spec.Chance = lNum(st, "chance", spec.Chance)
			m.Status = &spec
		}
		out[tag] = m
	})
	return out
}

// ExplosionDamage calls calc_explosion_damage(ctx) and falls back to linear
// falloff when the function is missing or fails.
func (e *Engine) ExplosionDamage(base, distance, radius float64) float64 {
	fn := e.vm.GetGlobal("calc_explosion_damage")
	if fn == lua.LNil {
		return combat.LinearFalloff(base, distance, radius)
	}

	t := e.vm.NewTable()
	t.RawSetString("base", lua.LNumber(base))
	t.RawSetString("distance", lua.LNumber(distance))
	t.RawSetString("radius", lua.LNumber(radius))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua calc_explosion_damage error", zap.Error(err))
		return combat.LinearFalloff(base, distance, radius)
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)

	n, ok := result.(lua.LNumber)
	if !ok {
		e.log.Error("lua calc_explosion_damage returned non-number")
		return combat.LinearFalloff(base, distance, radius)
	}
	if n < 0 {
		return 0
	}
	return float64(n)
}

// lNum reads a number field from a Lua table, or fallback when absent.
func lNum(t *lua.LTable, key string, fallback float64) float64 {
	if n, ok := t.RawGetString(key).(lua.LNumber); ok {
		return float64(n)
	}
	return fallback
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
