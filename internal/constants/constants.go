package constants

import "time"

const (
	TickInterval  = 3 * time.Second
	MMRFetchDelay = 300 * time.Millisecond
	PresenceEvery = 10
)

const (
	ExternalAPITimeout = 10 * time.Second
	RequestTimeout     = 30 * time.Second
	CycleTimeout       = 20 * time.Second
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	// competitive updates window requested from PD; only the first
	// CompUpdateLimit entries with a match id are enriched
	CompUpdateWindow = 15
	CompUpdateLimit  = 10
	RatingPerTier    = 100
)

const (
	FallbackClientVersion = "release-09.06-shipping-17-2621129"
	AgentEntitlementType  = "01bb38e1-da47-4e6a-9b3d-945fe4655707"

	// base64 JSON describing a Windows PC client
	ClientPlatform = "ew0KCSJwbGF0Zm9ybVR5cGUiOiAiUEMiLA0KCSJwbGF0Zm9ybU9TIjogIldpbmRvd3MiLA0KCSJwbGF0Zm9ybU9TVmVyc2lvbiI6ICIxMC4wLjE5MDQyLjEuMjU2LjY0Yml0IiwNCgkicGxhdGZvcm1DaGlwc2V0IjogIlVua25vd24iDQp9"
)

// queues without teams; their rosters are returned as a single list
var FreeForAllQueues = map[string]bool{
	"deathmatch": true,
}
