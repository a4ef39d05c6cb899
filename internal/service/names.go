package service

import (
	"context"

	"github.com/rs/zerolog"

	"downfall/internal/api"
)

type displayName struct {
	gameName string
	tagLine  string
}

// resolveNames batch-resolves display names. A failed lookup yields an empty map.
func resolveNames(ctx context.Context, client *api.RegionalClient, puuids []string, logger zerolog.Logger) map[string]displayName {
	names := make(map[string]displayName, len(puuids))
	if len(puuids) == 0 {
		return names
	}

	entries, err := client.PlayerNames(ctx, puuids)
	if err != nil {
		logger.Warn().Err(err).Int("count", len(puuids)).Msg("failed to resolve player names")
		return names
	}
	for _, e := range entries {
		if e.Subject == "" {
			continue
		}
		names[e.Subject] = displayName{gameName: e.GameName, tagLine: e.TagLine}
	}
	return names
}
