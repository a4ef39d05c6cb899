package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"downfall/internal/domain"
	"downfall/internal/metrics"
)

type rankFetcher func(ctx context.Context, puuid string) (domain.RankSnapshot, bool)

// RankCache holds the ranks of one live match. It is keyed by match id and is
// either reused as a whole or rebuilt and replaced as a whole.
type RankCache struct {
	delay   time.Duration
	metrics *metrics.Metrics
	logger  zerolog.Logger

	mu      sync.Mutex
	matchID string
	ranks   map[string]domain.RankSnapshot

	rebuilds singleflight.Group

	// pause waits d or until ctx is done, reporting whether the rebuild may go on
	pause func(ctx context.Context, d time.Duration) bool
}

func NewRankCache(delay time.Duration, m *metrics.Metrics, logger zerolog.Logger) *RankCache {
	return &RankCache{delay: delay, metrics: m, logger: logger, pause: sleepCtx}
}

func (c *RankCache) lookup(matchID string) (map[string]domain.RankSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ranks == nil || c.matchID != matchID {
		return nil, false
	}
	return c.ranks, true
}

func (c *RankCache) store(matchID string, ranks map[string]domain.RankSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.matchID = matchID
	c.ranks = ranks
}

// Ranks returns the rank of every player in matchID. On a miss the ranks are
// fetched one by one, self first, pausing before every other player. The
// returned map is shared and must not be modified.
func (c *RankCache) Ranks(ctx context.Context, matchID, self string, puuids []string, fetch rankFetcher) map[string]domain.RankSnapshot {
	if ranks, ok := c.lookup(matchID); ok {
		c.metrics.RankCache(true)
		return ranks
	}
	c.metrics.RankCache(false)

	v, _, _ := c.rebuilds.Do(matchID, func() (any, error) {
		if ranks, ok := c.lookup(matchID); ok {
			return ranks, nil
		}
		ranks, complete := c.rebuild(ctx, self, puuids, fetch)
		if complete {
			c.store(matchID, ranks)
		}
		c.logger.Debug().
			Str("match_id", matchID).
			Int("players", len(puuids)).
			Int("ranked", len(ranks)).
			Bool("complete", complete).
			Msg("rank cache rebuilt")
		return ranks, nil
	})
	return v.(map[string]domain.RankSnapshot)
}

// rebuild reports complete=false when ctx ends before every player was tried;
// a partial result is returned but never cached.
func (c *RankCache) rebuild(ctx context.Context, self string, puuids []string, fetch rankFetcher) (map[string]domain.RankSnapshot, bool) {
	ranks := make(map[string]domain.RankSnapshot, len(puuids))

	if self != "" {
		if snap, ok := fetch(ctx, self); ok {
			ranks[self] = snap
		}
	}

	for _, puuid := range puuids {
		if puuid == self {
			continue
		}
		if !c.pause(ctx, c.delay) {
			return ranks, false
		}
		if snap, ok := fetch(ctx, puuid); ok {
			ranks[puuid] = snap
		}
	}

	return ranks, ctx.Err() == nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
