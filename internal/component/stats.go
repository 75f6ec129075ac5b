package component

import "fmt"

// StatKind tags the type held by a StatValue.
type StatKind uint8

const (
	StatNumber StatKind = iota
	StatString
	StatBool
)

// StatValue is one resolved stat from a module's variant configuration.
type StatValue struct {
	Kind StatKind
	Num  float64
	Str  string
	Bool bool
}

// Stats is the resolved stat bag of a compiled module. Lookups of absent or
// mistyped keys report ok=false rather than failing.
type Stats map[string]StatValue

func Num(v float64) StatValue { return StatValue{Kind: StatNumber, Num: v} }
func Str(v string) StatValue  { return StatValue{Kind: StatString, Str: v} }
func Flag(v bool) StatValue   { return StatValue{Kind: StatBool, Bool: v} }

// Number returns the numeric stat for key.
func (s Stats) Number(key string) (float64, bool) {
	v, ok := s[key]
	if !ok || v.Kind != StatNumber {
		return 0, false
	}
	return v.Num, true
}

// NumberOr returns the numeric stat for key, or fallback when absent.
func (s Stats) NumberOr(key string, fallback float64) float64 {
	if v, ok := s.Number(key); ok {
		return v
	}
	return fallback
}

// String returns the string stat for key.
func (s Stats) String(key string) (string, bool) {
	v, ok := s[key]
	if !ok || v.Kind != StatString {
		return "", false
	}
	return v.Str, true
}

// Bool returns the boolean stat for key.
func (s Stats) Bool(key string) (bool, bool) {
	v, ok := s[key]
	if !ok || v.Kind != StatBool {
		return false, false
	}
	return v.Bool, true
}

// StatsFromMap converts decoded YAML/JSON scalars into a stat bag.
func StatsFromMap(raw map[string]any) (Stats, error) {
	out := make(Stats, len(raw))
	for k, v := range raw {
		switch x := v.(type) {
		case int:
			out[k] = Num(float64(x))
		case int64:
			out[k] = Num(float64(x))
		case uint64:
			out[k] = Num(float64(x))
		case float64:
			out[k] = Num(x)
		case float32:
			out[k] = Num(float64(x))
		case string:
			out[k] = Str(x)
		case bool:
			out[k] = Flag(x)
		default:
			return nil, fmt.Errorf("stat %q: unsupported value type %T", k, v)
		}
	}
	return out, nil
}
