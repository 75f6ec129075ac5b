package combat

// LinearFalloff is base at the epicenter, falling to zero at radius.
func LinearFalloff(base, dist, radius float64) float64 {
	if radius <= 0 || dist >= radius {
		return 0
	}
	return base * (1 - dist/radius)
}
