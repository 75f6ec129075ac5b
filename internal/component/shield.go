package component

// Shield is a ship's energy shield.
type Shield struct {
	Current   float64
	Max       float64
	Raised    bool
	RegenRate float64 // points per second at full power supply
}

// ApplyDamage reduces shield strength by amount and returns the portion the
// shield could not absorb.
func (s *Shield) ApplyDamage(amount float64) (overflow float64) {
	if amount <= 0 {
		return 0
	}
	if amount <= s.Current {
		s.Current -= amount
		return 0
	}
	overflow = amount - s.Current
	s.Current = 0
	return overflow
}

// Regenerate adds amount while the shield is raised, clamped to Max. It
// reports whether the strength changed.
func (s *Shield) Regenerate(amount float64) bool {
	if !s.Raised || amount <= 0 || s.Current >= s.Max {
		return false
	}
	s.Current += amount
	if s.Current > s.Max {
		s.Current = s.Max
	}
	return true
}

// Fraction returns Current/Max, 0 when Max is 0.
func (s *Shield) Fraction() float64 {
	if s.Max <= 0 {
		return 0
	}
	return s.Current / s.Max
}
