package service

import (
	"context"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"downfall/internal/api"
	"downfall/internal/constants"
	"downfall/internal/domain"
)

type PlayerService struct {
	gw      *api.Gateway
	session SessionSource
	logger  zerolog.Logger
}

func NewPlayerService(gw *api.Gateway, src SessionSource, logger zerolog.Logger) *PlayerService {
	return &PlayerService{gw: gw, session: src, logger: logger.With().Str("component", "player").Logger()}
}

// GetProfile assembles account level, rank and recent competitive history for the
// connected player. Each part is best-effort and left empty when its fetch fails.
func (s *PlayerService) GetProfile(ctx context.Context) (*domain.PlayerProfile, error) {
	t, err := resolveTarget(s.session, needPlayer|needShard|needTokens)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	client := t.regional(s.gw)
	profile := &domain.PlayerProfile{Info: t.player, CompUpdates: []domain.CompUpdate{}}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		profile.AccountXP = s.fetchAccountXP(gCtx, client, t.puuid())
		return nil
	})
	g.Go(func() error {
		profile.MMR = s.fetchMMR(gCtx, client, t.puuid())
		return nil
	})
	g.Go(func() error {
		profile.CompUpdates = s.fetchCompUpdates(gCtx, client, t.puuid())
		return nil
	})
	_ = g.Wait()

	s.logger.Debug().
		Str("puuid", t.puuid()).
		Bool("xp", profile.AccountXP != nil).
		Bool("mmr", profile.MMR != nil).
		Int("comp_updates", len(profile.CompUpdates)).
		Msg("profile assembled")

	return profile, nil
}

func (s *PlayerService) fetchAccountXP(ctx context.Context, client *api.RegionalClient, puuid string) *domain.AccountXP {
	resp, err := client.AccountXP(ctx, puuid)
	if err != nil {
		s.logger.Warn().Err(err).Str("puuid", puuid).Msg("failed to fetch account xp")
		return nil
	}
	if resp.Progress.Level == nil {
		return nil
	}
	return &domain.AccountXP{Level: *resp.Progress.Level, XP: resp.Progress.XP}
}

func (s *PlayerService) fetchMMR(ctx context.Context, client *api.RegionalClient, puuid string) *domain.PlayerMMR {
	resp, err := client.MMR(ctx, puuid)
	if err != nil {
		s.logger.Warn().Err(err).Str("puuid", puuid).Msg("failed to fetch mmr")
		return nil
	}
	mmr := toPlayerMMR(resp)
	return &mmr
}

// toPlayerMMR folds every competitive season into peak rank and lifetime totals.
// Seasons are visited in id order so ties on peak tier resolve the same way every time.
func toPlayerMMR(resp *api.MMRResponse) domain.PlayerMMR {
	latest := resp.LatestCompetitiveUpdate
	mmr := domain.PlayerMMR{
		Rank:            latest.TierAfterUpdate,
		RR:              latest.RankedRatingAfterUpdate,
		LeaderboardRank: latest.LeaderboardRank,
	}

	seasons := resp.QueueSkills["competitive"].SeasonalInfoBySeasonID
	for _, id := range sortedKeys(seasons) {
		season := seasons[id]
		if season.CompetitiveTier > mmr.PeakRank {
			mmr.PeakRank = season.CompetitiveTier
			mmr.PeakRankAct = id
		}
		mmr.Wins += season.NumberOfWins
		mmr.Games += season.NumberOfGames
	}
	return mmr
}

func (s *PlayerService) fetchCompUpdates(ctx context.Context, client *api.RegionalClient, puuid string) []domain.CompUpdate {
	resp, err := client.CompetitiveUpdates(ctx, puuid, 0, constants.CompUpdateWindow)
	if err != nil {
		s.logger.Warn().Err(err).Str("puuid", puuid).Msg("failed to fetch competitive updates")
		return []domain.CompUpdate{}
	}

	entries := make([]api.CompetitiveUpdate, 0, constants.CompUpdateLimit)
	for _, m := range resp.Matches {
		if m.MatchID == "" {
			continue
		}
		entries = append(entries, m)
		if len(entries) == constants.CompUpdateLimit {
			break
		}
	}

	updates := make([]domain.CompUpdate, len(entries))
	g, gCtx := errgroup.WithContext(ctx)
	for i, m := range entries {
		updates[i] = domain.CompUpdate{
			MatchID:    m.MatchID,
			MapID:      m.MapID,
			RankBefore: m.TierBeforeUpdate,
			RankAfter:  m.TierAfterUpdate,
			RRBefore:   m.RankedRatingBeforeUpdate,
			RRAfter:    m.RankedRatingAfterUpdate,
			RRChange:   domain.RankDelta(m.TierBeforeUpdate, m.TierAfterUpdate, m.RankedRatingBeforeUpdate, m.RankedRatingAfterUpdate),
			Timestamp:  m.MatchStartTime,
		}
		g.Go(func() error {
			s.applyMatchStats(gCtx, client, puuid, &updates[i])
			return nil
		})
	}
	_ = g.Wait()

	return updates
}

// applyMatchStats fills in KDA, score and rounds for one match; failures leave zeros.
func (s *PlayerService) applyMatchStats(ctx context.Context, client *api.RegionalClient, puuid string, u *domain.CompUpdate) {
	details, err := client.MatchDetails(ctx, u.MatchID)
	if err != nil {
		s.logger.Debug().Err(err).Str("match_id", u.MatchID).Msg("failed to fetch match details")
		return
	}

	idx := slices.IndexFunc(details.Players, func(p api.MatchDetailsPlayer) bool {
		return p.Subject == puuid
	})
	if idx < 0 {
		return
	}
	player := details.Players[idx]

	if player.Stats != nil {
		u.Kills = player.Stats.Kills
		u.Deaths = player.Stats.Deaths
		u.Assists = player.Stats.Assists
		u.Score = player.Stats.Score
	}

	for _, team := range details.Teams {
		if team.TeamID == player.TeamID {
			u.RoundsWon = team.RoundsWon
		} else {
			u.RoundsLost = team.RoundsWon
		}
	}
}

// GetAgents lists every playable agent with its unlock state for the connected player.
func (s *PlayerService) GetAgents(ctx context.Context) ([]domain.AgentInfo, error) {
	t, err := resolveTarget(s.session, needPlayer|needShard|needTokens)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	var (
		owned     map[string]bool
		catalogue []api.AgentEntry
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		owned = s.ownedAgents(gCtx, t.regional(s.gw), t.puuid())
		return nil
	})
	g.Go(func() error {
		catalogue = agentCatalogue(gCtx, s.gw, s.logger)
		return nil
	})
	_ = g.Wait()

	agents := make([]domain.AgentInfo, 0, len(catalogue))
	for _, a := range catalogue {
		if a.UUID == "" || a.DisplayName == "" {
			continue
		}
		info := domain.AgentInfo{
			UUID:     a.UUID,
			Name:     a.DisplayName,
			Icon:     a.DisplayIcon,
			Role:     "Unknown",
			Unlocked: a.IsBaseContent || owned[strings.ToLower(a.UUID)],
		}
		if a.Role != nil {
			if a.Role.DisplayName != "" {
				info.Role = a.Role.DisplayName
			}
			info.RoleIcon = a.Role.DisplayIcon
		}
		agents = append(agents, info)
	}

	slices.SortStableFunc(agents, func(a, b domain.AgentInfo) int {
		return strings.Compare(a.Name, b.Name)
	})
	return agents, nil
}

func (s *PlayerService) ownedAgents(ctx context.Context, client *api.RegionalClient, puuid string) map[string]bool {
	owned := make(map[string]bool)
	resp, err := client.Entitlements(ctx, puuid, constants.AgentEntitlementType)
	if err != nil {
		s.logger.Warn().Err(err).Str("puuid", puuid).Msg("failed to fetch agent entitlements")
		return owned
	}
	for _, e := range resp.Entitlements {
		owned[strings.ToLower(e.ItemID)] = true
	}
	return owned
}

// agentCatalogue fetches the public agent list; a failed fetch yields no agents.
func agentCatalogue(ctx context.Context, gw *api.Gateway, logger zerolog.Logger) []api.AgentEntry {
	agents, err := gw.AgentCatalogue(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to fetch agent catalogue")
		return nil
	}
	return agents
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
