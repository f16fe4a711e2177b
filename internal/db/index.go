package db

import "strings"

// DistanceMetric used by FT.SEARCH vector similarity queries.
type DistanceMetric string

const (
	// DistanceL2 is Euclidean distance.
	DistanceL2 DistanceMetric = "L2"
	// DistanceIP is inner product distance.
	DistanceIP DistanceMetric = "IP"
	// DistanceCosine is cosine distance.
	DistanceCosine DistanceMetric = "COSINE"
)

// ParseDistance maps a config value (cosine, l2, ip) to a DistanceMetric. Unknown means cosine.
func ParseDistance(s string) DistanceMetric {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(DistanceL2):
		return DistanceL2
	case string(DistanceIP):
		return DistanceIP
	default:
		return DistanceCosine
	}
}

// Similarity converts a raw __vector_score distance into a higher-is-closer score.
// L2 scores stay in (0, 1]. COSINE and IP scores are 1 - distance and may be negative.
func (m DistanceMetric) Similarity(distance float64) float64 {
	switch m {
	case DistanceL2:
		return 1.0 / (1.0 + distance)
	default:
		// COSINE and IP report 1 - similarity
		return 1.0 - distance
	}
}

// IsValidIdentifier returns true if s matches [a-zA-Z0-9_:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == ':' || r == '-'
		if !isAlpha && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}
