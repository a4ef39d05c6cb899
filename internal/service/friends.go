package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"downfall/internal/api"
	"downfall/internal/constants"
	"downfall/internal/domain"
)

const statusOffline = "offline"

type FriendService struct {
	session SessionSource
	logger  zerolog.Logger
}

func NewFriendService(src SessionSource, logger zerolog.Logger) *FriendService {
	return &FriendService{session: src, logger: logger.With().Str("component", "friends").Logger()}
}

// decodePresence unpacks the base64 JSON blob carried by a chat presence.
func decodePresence(private string) (api.PresencePrivate, bool) {
	var out api.PresencePrivate
	if private == "" {
		return out, false
	}
	raw, err := base64.StdEncoding.DecodeString(private)
	if err != nil {
		return out, false
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return api.PresencePrivate{}, false
	}
	return out, true
}

type friendPresence struct {
	status string
	cardID string
}

// GetFriends lists friends online first, then by name ignoring case.
func (s *FriendService) GetFriends(ctx context.Context) ([]domain.Friend, error) {
	t, err := resolveTarget(s.session, needLocal)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	var (
		friends   *api.FriendsResponse
		presences *api.PresencesResponse
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if friends, err = t.local.Friends(gCtx); err != nil {
			s.logger.Warn().Err(err).Msg("failed to fetch friends")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if presences, err = t.local.Presences(gCtx); err != nil {
			s.logger.Debug().Err(err).Msg("failed to fetch presences")
		}
		return nil
	})
	_ = g.Wait()

	out := []domain.Friend{}
	if friends == nil {
		return out, nil
	}

	online := make(map[string]bool)
	byPuuid := make(map[string]friendPresence)
	if presences != nil {
		for _, p := range presences.Presences {
			if p.Puuid == "" {
				continue
			}
			// a presence without a state still counts as online; only its label defaults
			if p.State != statusOffline {
				online[p.Puuid] = true
			}
			status := p.State
			if status == "" {
				status = statusOffline
			}
			fp := friendPresence{status: status}
			if private, ok := decodePresence(p.Private); ok {
				fp.cardID = private.PlayerCardID
			}
			byPuuid[p.Puuid] = fp
		}
	}

	for _, f := range friends.Friends {
		if f.GameName == "" {
			continue
		}
		friend := domain.Friend{
			Puuid:    f.Puuid,
			GameName: f.GameName,
			TagLine:  f.GameTag,
			IsOnline: online[f.Puuid],
			Status:   statusOffline,
		}
		if p, ok := byPuuid[f.Puuid]; ok {
			friend.Status = p.status
			friend.PlayerCardID = p.cardID
		}
		out = append(out, friend)
	}

	sortFriends(out)
	return out, nil
}

func sortFriends(friends []domain.Friend) {
	slices.SortStableFunc(friends, func(a, b domain.Friend) int {
		if a.IsOnline != b.IsOnline {
			if a.IsOnline {
				return -1
			}
			return 1
		}
		return strings.Compare(strings.ToLower(a.GameName), strings.ToLower(b.GameName))
	})
}
