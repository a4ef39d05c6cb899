package service

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"downfall/internal/api"
	"downfall/internal/constants"
	"downfall/internal/domain"
)

type PartyService struct {
	gw      *api.Gateway
	session SessionSource
	logger  zerolog.Logger
}

func NewPartyService(gw *api.Gateway, src SessionSource, logger zerolog.Logger) *PartyService {
	return &PartyService{gw: gw, session: src, logger: logger.With().Str("component", "party").Logger()}
}

// GetParty returns the player's party with members and pending invites named,
// or nil when the party cannot be resolved.
func (s *PartyService) GetParty(ctx context.Context) (*domain.PartyState, error) {
	t, err := resolveTarget(s.session, needPlayer|needRegion|needShard|needTokens)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	client := t.regional(s.gw)
	self := t.puuid()

	player, err := client.PartyPlayer(ctx, self)
	if err != nil || player.CurrentPartyID == "" {
		s.logger.Debug().Err(err).Msg("no current party")
		return nil, nil
	}

	party, err := client.Party(ctx, player.CurrentPartyID)
	if err != nil {
		s.logger.Warn().Err(err).Str("party_id", player.CurrentPartyID).Msg("failed to fetch party")
		return nil, nil
	}

	memberIDs := make([]string, 0, len(party.Members))
	for _, m := range party.Members {
		if m.Subject != "" {
			memberIDs = append(memberIDs, m.Subject)
		}
	}
	inviterIDs := make([]string, 0, len(player.Requests))
	for _, r := range player.Requests {
		if r.RequestedBySubject != "" {
			inviterIDs = append(inviterIDs, r.RequestedBySubject)
		}
	}

	var memberNames, inviterNames map[string]displayName
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		memberNames = resolveNames(gCtx, client, memberIDs, s.logger)
		return nil
	})
	g.Go(func() error {
		inviterNames = resolveNames(gCtx, client, inviterIDs, s.logger)
		return nil
	})
	_ = g.Wait()

	state := &domain.PartyState{
		PartyID:        player.CurrentPartyID,
		Members:        make([]domain.PartyMember, 0, len(party.Members)),
		State:          orDefault(party.State, "DEFAULT"),
		Accessibility:  orDefault(party.Accessibility, "CLOSED"),
		InviteCode:     party.InviteCode,
		EligibleQueues: party.EligibleQueues,
		Invites:        make([]domain.PartyInvite, 0, len(player.Requests)),
	}
	if state.EligibleQueues == nil {
		state.EligibleQueues = []string{}
	}
	if party.MatchmakingData != nil {
		state.QueueID = party.MatchmakingData.QueueID
	}

	for _, m := range party.Members {
		member := domain.PartyMember{
			Puuid:        m.Subject,
			GameName:     memberNames[m.Subject].gameName,
			TagLine:      memberNames[m.Subject].tagLine,
			Rank:         m.CompetitiveTier,
			AccountLevel: m.PlayerIdentity.AccountLevel,
			PlayerCardID: m.PlayerIdentity.PlayerCardID,
			IsOwner:      m.IsOwner,
			IsReady:      m.IsReady,
			IsModerator:  m.IsModerator,
		}
		if len(m.Pings) > 0 {
			member.Ping = m.Pings[0].Ping
		}
		if m.IsOwner && m.Subject == self {
			state.IsOwner = true
		}
		state.Members = append(state.Members, member)
	}

	for _, r := range player.Requests {
		state.Invites = append(state.Invites, domain.PartyInvite{
			RequestID: r.ID,
			PartyID:   r.PartyID,
			FromPuuid: r.RequestedBySubject,
			FromName:  inviterNames[r.RequestedBySubject].gameName,
			FromTag:   inviterNames[r.RequestedBySubject].tagLine,
		})
	}

	return state, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
