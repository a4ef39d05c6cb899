package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"downfall/internal/api"
	"downfall/internal/constants"
)

// CommandService issues one-shot mutating calls against the regional services.
// Failures surface as errors and are never retried.
type CommandService struct {
	gw      *api.Gateway
	session SessionSource
	logger  zerolog.Logger
}

func NewCommandService(gw *api.Gateway, src SessionSource, logger zerolog.Logger) *CommandService {
	return &CommandService{gw: gw, session: src, logger: logger.With().Str("component", "commands").Logger()}
}

func (s *CommandService) client(required need) (*api.RegionalClient, target, error) {
	t, err := resolveTarget(s.session, required|needRegion|needShard|needTokens)
	if err != nil {
		return nil, target{}, err
	}
	return t.regional(s.gw), t, nil
}

func (s *CommandService) run(ctx context.Context, op string, required need, fn func(context.Context, *api.RegionalClient, target) error) error {
	client, t, err := s.client(required)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	if err := fn(ctx, client, t); err != nil {
		return err
	}
	s.logger.Info().Str("op", op).Msg("command succeeded")
	return nil
}

func requireArg(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidArgument, name)
	}
	return nil
}

// InstaLock hovers then locks agentID; the hover is best-effort.
func (s *CommandService) InstaLock(ctx context.Context, matchID, agentID string) error {
	if err := requireArg("match id", matchID); err != nil {
		return err
	}
	if err := requireArg("agent id", agentID); err != nil {
		return err
	}
	return s.run(ctx, "instalock", 0, func(ctx context.Context, c *api.RegionalClient, _ target) error {
		if err := c.SelectAgent(ctx, matchID, agentID); err != nil {
			s.logger.Debug().Err(err).Str("match_id", matchID).Msg("select before lock failed")
		}
		return c.LockAgent(ctx, matchID, agentID)
	})
}

func (s *CommandService) Dodge(ctx context.Context, matchID string) error {
	if err := requireArg("match id", matchID); err != nil {
		return err
	}
	return s.run(ctx, "dodge", 0, func(ctx context.Context, c *api.RegionalClient, _ target) error {
		return c.QuitPregame(ctx, matchID)
	})
}

func (s *CommandService) PartyInvite(ctx context.Context, partyID, name, tag string) error {
	if err := requireArg("party id", partyID); err != nil {
		return err
	}
	if err := requireArg("name", name); err != nil {
		return err
	}
	if err := requireArg("tag", tag); err != nil {
		return err
	}
	return s.run(ctx, "party invite", 0, func(ctx context.Context, c *api.RegionalClient, _ target) error {
		return c.PartyInvite(ctx, partyID, name, tag)
	})
}

func (s *CommandService) PartyKick(ctx context.Context, partyID, puuid string) error {
	if err := requireArg("party id", partyID); err != nil {
		return err
	}
	if err := requireArg("puuid", puuid); err != nil {
		return err
	}
	return s.run(ctx, "party kick", 0, func(ctx context.Context, c *api.RegionalClient, _ target) error {
		return c.PartyKick(ctx, partyID, puuid)
	})
}

func (s *CommandService) PartyPromote(ctx context.Context, partyID, puuid string) error {
	if err := requireArg("party id", partyID); err != nil {
		return err
	}
	if err := requireArg("puuid", puuid); err != nil {
		return err
	}
	return s.run(ctx, "party promote", 0, func(ctx context.Context, c *api.RegionalClient, _ target) error {
		return c.PartyPromote(ctx, partyID, puuid)
	})
}

func (s *CommandService) PartyAccept(ctx context.Context, partyID string) error {
	if err := requireArg("party id", partyID); err != nil {
		return err
	}
	return s.run(ctx, "party accept", needPlayer, func(ctx context.Context, c *api.RegionalClient, t target) error {
		return c.PartyJoin(ctx, t.puuid(), partyID)
	})
}

func (s *CommandService) PartyDecline(ctx context.Context, partyID, requestID string) error {
	if err := requireArg("party id", partyID); err != nil {
		return err
	}
	if err := requireArg("request id", requestID); err != nil {
		return err
	}
	return s.run(ctx, "party decline", 0, func(ctx context.Context, c *api.RegionalClient, _ target) error {
		return c.PartyDecline(ctx, partyID, requestID)
	})
}

func (s *CommandService) PartySetAccessibility(ctx context.Context, partyID string, open bool) error {
	if err := requireArg("party id", partyID); err != nil {
		return err
	}
	return s.run(ctx, "party accessibility", 0, func(ctx context.Context, c *api.RegionalClient, _ target) error {
		return c.PartySetAccessibility(ctx, partyID, open)
	})
}

func (s *CommandService) PartySetReady(ctx context.Context, partyID string, ready bool) error {
	if err := requireArg("party id", partyID); err != nil {
		return err
	}
	return s.run(ctx, "party ready", needPlayer, func(ctx context.Context, c *api.RegionalClient, t target) error {
		return c.PartySetReady(ctx, partyID, t.puuid(), ready)
	})
}

// PartyQueue enters matchmaking when start is true and leaves it otherwise.
func (s *CommandService) PartyQueue(ctx context.Context, partyID string, start bool) error {
	if err := requireArg("party id", partyID); err != nil {
		return err
	}
	return s.run(ctx, "party queue", 0, func(ctx context.Context, c *api.RegionalClient, _ target) error {
		if start {
			return c.PartyJoinQueue(ctx, partyID)
		}
		return c.PartyLeaveQueue(ctx, partyID)
	})
}

func (s *CommandService) PartySetQueue(ctx context.Context, partyID, queueID string) error {
	if err := requireArg("party id", partyID); err != nil {
		return err
	}
	if err := requireArg("queue id", queueID); err != nil {
		return err
	}
	return s.run(ctx, "party set queue", 0, func(ctx context.Context, c *api.RegionalClient, _ target) error {
		return c.PartySetQueue(ctx, partyID, queueID)
	})
}

func (s *CommandService) PartyGenerateCode(ctx context.Context, partyID string) (string, error) {
	if err := requireArg("party id", partyID); err != nil {
		return "", err
	}
	var code string
	err := s.run(ctx, "party generate code", 0, func(ctx context.Context, c *api.RegionalClient, _ target) error {
		var err error
		code, err = c.PartyGenerateCode(ctx, partyID)
		return err
	})
	return code, err
}

func (s *CommandService) PartyDisableCode(ctx context.Context, partyID string) error {
	if err := requireArg("party id", partyID); err != nil {
		return err
	}
	return s.run(ctx, "party disable code", 0, func(ctx context.Context, c *api.RegionalClient, _ target) error {
		return c.PartyDisableCode(ctx, partyID)
	})
}
