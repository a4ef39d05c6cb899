package domain

import (
	"strings"

	"downfall/internal/constants"
)

// RankDelta returns the ranked rating gained or lost in one competitive update.
// Tier boundaries assume a flat 100 RR per tier, matching what the client displays.
func RankDelta(tierBefore, tierAfter, rrBefore, rrAfter int) int {
	switch {
	case tierAfter > tierBefore:
		return constants.RatingPerTier - rrBefore + rrAfter
	case tierAfter < tierBefore:
		return -(rrBefore + (constants.RatingPerTier - rrAfter))
	default:
		return rrAfter - rrBefore
	}
}

// ShardForRegion maps a deployment region onto the backend shard used in PD/GLZ hostnames.
func ShardForRegion(region string) string {
	switch region {
	case "latam", "br":
		return "na"
	case "eu":
		return "eu"
	case "ap":
		return "ap"
	case "kr":
		return "kr"
	default:
		return region
	}
}

var mapCodenames = map[string]string{
	"ascent":   "Ascent",
	"duality":  "Bind",
	"bonsai":   "Split",
	"triad":    "Haven",
	"port":     "Icebox",
	"foxtrot":  "Breeze",
	"canyon":   "Fracture",
	"pitt":     "Pearl",
	"jam":      "Lotus",
	"juliett":  "Sunset",
	"infinity": "Abyss",
	"rook":     "Corrode",
	"delta":    "Drift",
}

// MapName resolves a map asset path like "/Game/Maps/Duality/Duality" to its display name.
// Unknown codenames are returned as-is.
func MapName(mapPath string) string {
	codename := "Unknown"
	for _, seg := range strings.Split(mapPath, "/") {
		if seg != "" {
			codename = seg
		}
	}
	if name, ok := mapCodenames[strings.ToLower(codename)]; ok {
		return name
	}
	return codename
}
