package service

import (
	"context"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"downfall/internal/api"
	"downfall/internal/config"
	"downfall/internal/constants"
	"downfall/internal/domain"
	"downfall/internal/metrics"
)

// team assumed for self when the payload does not say otherwise
const defaultTeamID = "Blue"

type MatchService struct {
	gw      *api.Gateway
	session SessionSource
	ranks   *RankCache
	logger  zerolog.Logger
}

func NewMatchService(gw *api.Gateway, src SessionSource, cfg *config.Config, m *metrics.Metrics, logger zerolog.Logger) *MatchService {
	logger = logger.With().Str("component", "match").Logger()
	return &MatchService{
		gw:      gw,
		session: src,
		ranks:   NewRankCache(cfg.MMRFetchDelay, m, logger),
		logger:  logger,
	}
}

// ResolveMatch probes both match phases for puuid. Pregame wins when both report
// a match, since a player cannot be in agent select after the match has started.
func (s *MatchService) ResolveMatch(ctx context.Context, client *api.RegionalClient, puuid string) (domain.MatchContext, bool) {
	var pregame, ingame string

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if p, err := client.PregamePlayer(gCtx, puuid); err == nil {
			pregame = p.MatchID
		}
		return nil
	})
	g.Go(func() error {
		if p, err := client.CoreGamePlayer(gCtx, puuid); err == nil {
			ingame = p.MatchID
		}
		return nil
	})
	_ = g.Wait()

	switch {
	case pregame != "":
		return domain.MatchContext{MatchID: pregame, Phase: domain.PhasePregame}, true
	case ingame != "":
		return domain.MatchContext{MatchID: ingame, Phase: domain.PhaseIngame}, true
	default:
		return domain.MatchContext{}, false
	}
}

type rosterEntry struct {
	puuid     string
	agentID   string
	teamID    string
	incognito bool
	level     int
}

type matchInfo struct {
	mapID   string
	queueID string
	myTeam  string
	roster  []rosterEntry
}

func (s *MatchService) pregameInfo(ctx context.Context, client *api.RegionalClient, matchID string) (matchInfo, error) {
	resp, err := client.PregameMatch(ctx, matchID)
	if err != nil {
		return matchInfo{}, err
	}

	info := matchInfo{mapID: resp.MapID, queueID: resp.QueueID, myTeam: defaultTeamID}
	if resp.AllyTeam == nil {
		return info, nil
	}
	if resp.AllyTeam.TeamID != "" {
		info.myTeam = resp.AllyTeam.TeamID
	}
	for _, p := range resp.AllyTeam.Players {
		info.roster = append(info.roster, rosterEntry{
			puuid:     p.Subject,
			agentID:   p.CharacterID,
			teamID:    info.myTeam,
			incognito: p.PlayerIdentity.Incognito,
			level:     p.PlayerIdentity.AccountLevel,
		})
	}
	return info, nil
}

func (s *MatchService) ingameInfo(ctx context.Context, client *api.RegionalClient, matchID, self string) (matchInfo, error) {
	resp, err := client.CoreGameMatch(ctx, matchID)
	if err != nil {
		return matchInfo{}, err
	}

	info := matchInfo{mapID: resp.MapID, myTeam: defaultTeamID}
	if resp.MatchmakingData != nil {
		info.queueID = resp.MatchmakingData.QueueID
	}
	for _, p := range resp.Players {
		if p.Subject == self {
			info.myTeam = p.TeamID
		}
		info.roster = append(info.roster, rosterEntry{
			puuid:     p.Subject,
			agentID:   p.CharacterID,
			teamID:    p.TeamID,
			incognito: p.PlayerIdentity.Incognito,
			level:     p.PlayerIdentity.AccountLevel,
		})
	}
	return info, nil
}

// GetLiveMatch returns the enriched roster of the match the player is in, or nil
// when there is none.
func (s *MatchService) GetLiveMatch(ctx context.Context) (*domain.LiveMatch, error) {
	t, err := resolveTarget(s.session, needPlayer|needRegion|needShard|needTokens)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	client := t.regional(s.gw)
	self := t.puuid()

	mc, ok := s.ResolveMatch(ctx, client, self)
	if !ok {
		return nil, nil
	}
	log := s.logger.With().Str("match_id", mc.MatchID).Str("phase", string(mc.Phase)).Logger()

	var info matchInfo
	if mc.Phase == domain.PhasePregame {
		info, err = s.pregameInfo(ctx, client, mc.MatchID)
	} else {
		info, err = s.ingameInfo(ctx, client, mc.MatchID, self)
	}
	if err != nil {
		log.Warn().Err(err).Msg("failed to fetch live match")
		return nil, nil
	}

	puuids := make([]string, 0, len(info.roster))
	for _, p := range info.roster {
		puuids = append(puuids, p.puuid)
	}

	var (
		names  map[string]displayName
		agents map[string]api.AgentEntry
		ranks  map[string]domain.RankSnapshot
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		names = resolveNames(gCtx, client, puuids, log)
		return nil
	})
	g.Go(func() error {
		agents = agentsByID(agentCatalogue(gCtx, s.gw, log))
		return nil
	})
	g.Go(func() error {
		ranks = s.ranks.Ranks(gCtx, mc.MatchID, self, puuids, s.rankFetcher(client))
		return nil
	})
	_ = g.Wait()

	match := &domain.LiveMatch{
		MatchID:    mc.MatchID,
		MapID:      info.mapID,
		MapName:    domain.MapName(info.mapID),
		QueueID:    info.queueID,
		Phase:      mc.Phase,
		IsTeamMode: !constants.FreeForAllQueues[info.queueID],
		AllyTeam:   []domain.LiveMatchPlayer{},
		EnemyTeam:  []domain.LiveMatchPlayer{},
	}

	for _, p := range info.roster {
		player := domain.LiveMatchPlayer{
			Puuid:        p.puuid,
			GameName:     names[p.puuid].gameName,
			TagLine:      names[p.puuid].tagLine,
			TeamID:       p.teamID,
			AgentID:      p.agentID,
			AgentName:    "Unknown",
			AccountLevel: p.level,
			Incognito:    p.incognito,
			IsSelf:       p.puuid == self,
		}
		if agent, ok := agents[strings.ToLower(p.agentID)]; ok {
			player.AgentName = agent.DisplayName
			player.AgentIcon = agent.DisplayIcon
		}
		if rank, ok := ranks[p.puuid]; ok {
			player.Rank = rank.Tier
			player.RR = rank.RR
			player.PeakRank = rank.PeakTier
		}

		if !match.IsTeamMode || p.teamID == info.myTeam {
			match.AllyTeam = append(match.AllyTeam, player)
		} else {
			match.EnemyTeam = append(match.EnemyTeam, player)
		}
	}

	byRankDesc := func(a, b domain.LiveMatchPlayer) int { return b.Rank - a.Rank }
	slices.SortStableFunc(match.AllyTeam, byRankDesc)
	slices.SortStableFunc(match.EnemyTeam, byRankDesc)

	log.Debug().
		Int("allies", len(match.AllyTeam)).
		Int("enemies", len(match.EnemyTeam)).
		Msg("live match resolved")

	return match, nil
}

func (s *MatchService) rankFetcher(client *api.RegionalClient) rankFetcher {
	return func(ctx context.Context, puuid string) (domain.RankSnapshot, bool) {
		resp, err := client.MMR(ctx, puuid)
		if err != nil {
			s.logger.Debug().Err(err).Str("puuid", puuid).Msg("mmr lookup failed")
			return domain.RankSnapshot{}, false
		}
		mmr := toPlayerMMR(resp)
		return domain.RankSnapshot{Tier: mmr.Rank, RR: mmr.RR, PeakTier: mmr.PeakRank}, true
	}
}

func agentsByID(catalogue []api.AgentEntry) map[string]api.AgentEntry {
	agents := make(map[string]api.AgentEntry, len(catalogue))
	for _, a := range catalogue {
		agents[strings.ToLower(a.UUID)] = a
	}
	return agents
}

// GetPregame reports the agent select state of the player, or nil outside agent select.
func (s *MatchService) GetPregame(ctx context.Context) (*domain.PregameState, error) {
	t, err := resolveTarget(s.session, needPlayer|needRegion|needShard|needTokens)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	client := t.regional(s.gw)
	self := t.puuid()

	pointer, err := client.PregamePlayer(ctx, self)
	if err != nil || pointer.MatchID == "" {
		return nil, nil
	}

	resp, err := client.PregameMatch(ctx, pointer.MatchID)
	if err != nil {
		s.logger.Warn().Err(err).Str("match_id", pointer.MatchID).Msg("failed to fetch pregame match")
		return nil, nil
	}

	state := &domain.PregameState{
		MatchID: pointer.MatchID,
		MapID:   resp.MapID,
		MapName: domain.MapName(resp.MapID),
	}
	if resp.AllyTeam != nil {
		for _, p := range resp.AllyTeam.Players {
			if p.Subject != self {
				continue
			}
			if p.CharacterSelectionState == "locked" && p.CharacterID != "" {
				agent := p.CharacterID
				state.Locked = true
				state.LockedAgent = &agent
			}
			break
		}
	}
	return state, nil
}

// GetCurrentMatch reads map and queue from the player's own chat presence, which
// the client publishes in every phase including the match itself.
func (s *MatchService) GetCurrentMatch(ctx context.Context) (*domain.CurrentMatch, error) {
	t, err := resolveTarget(s.session, needPlayer|needLocal)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	resp, err := t.local.Presences(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to fetch presences")
		return nil, nil
	}

	idx := slices.IndexFunc(resp.Presences, func(p api.PresenceEntry) bool {
		return p.Puuid == t.puuid()
	})
	if idx < 0 {
		return nil, nil
	}

	private, ok := decodePresence(resp.Presences[idx].Private)
	if !ok || private.MatchMap == "" {
		return nil, nil
	}

	return &domain.CurrentMatch{
		MapID:    private.MatchMap,
		MapName:  domain.MapName(private.MatchMap),
		QueueID:  private.QueueID,
		IsRanked: private.CompetitiveTier > 0,
	}, nil
}
