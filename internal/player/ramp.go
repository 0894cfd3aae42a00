package player

// easeInOutQuad is the symmetric quadratic fade curve: slow in, fast
// through the middle, slow out. At any progress p the two deck gains
// master*(1-curve) and master*curve sum exactly to master, so loudness
// stays continuous across the transition.
func easeInOutQuad(p float64) float64 {
	if p <= 0 {
		return 0
	}
	if p >= 1 {
		return 1
	}
	if p < 0.5 {
		return 2 * p * p
	}
	return 1 - 2*(1-p)*(1-p)
}
