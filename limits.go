package gorelay

const (
	MaxLimit     = 100
	DefaultLimit = 10
)

// normalizeLimitMax maps non-positive limits to DefaultLimit and clamps the
// rest to maxLimit. The flag reports whether limit was already in range.
func normalizeLimitMax(limit int, maxLimit int) (int, bool) {
	switch {
	case limit <= 0:
		return DefaultLimit, false
	case limit > maxLimit:
		return maxLimit, false
	default:
		return limit, true
	}
}

// NormalizeLimit is normalizeLimitMax bounded by MaxLimit.
func NormalizeLimit(limit int) int {
	ret, _ := normalizeLimitMax(limit, MaxLimit)
	return ret
}
