// Package risk ranks files by how much damage their decay is likely to do:
// frequently changed, complex, incohesive code first.
package risk

// Level is a coarse risk bucket.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Level boundaries; each is the inclusive lower bound of its bucket.
const (
	MediumThreshold   = 10.0
	HighThreshold     = 50.0
	CriticalThreshold = 200.0
)

// Score combines churn, total complexity and fragmentation:
// churn * totalCC * lcom4 / 100, where lcom4 is the inverse of cohesion.
func Score(churn int, totalCC, cohesion float64) float64 {
	if churn <= 0 || totalCC <= 0 {
		return 0
	}
	lcom4 := 1.0
	if cohesion > 0 {
		lcom4 = 1 / cohesion
	}
	return float64(churn) * totalCC * lcom4 / 100
}

// Adjusted applies a social risk multiplier. Multipliers below 1 are
// ignored.
func Adjusted(score, multiplier float64) float64 {
	if multiplier < 1 {
		return score
	}
	return score * multiplier
}

// LevelOf buckets a score.
func LevelOf(score float64) Level {
	switch {
	case score >= CriticalThreshold:
		return LevelCritical
	case score >= HighThreshold:
		return LevelHigh
	case score >= MediumThreshold:
		return LevelMedium
	default:
		return LevelLow
	}
}
