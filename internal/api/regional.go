package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/valyala/fasthttp"

	"downfall/internal/constants"
	"downfall/internal/domain"
)

var ErrNoPlayerCard = errors.New("loadout has no player card")

// RegionalClient carries the token headers shared by the PD and GLZ families.
type RegionalClient struct {
	gw      *Gateway
	headers map[string]string
	pdBase  string
	glzBase string
}

func (gw *Gateway) Regional(tokens domain.AuthTokens, region, shard string) *RegionalClient {
	return &RegionalClient{
		gw: gw,
		headers: map[string]string{
			"Authorization":           "Bearer " + tokens.AccessToken,
			"X-Riot-Entitlements-JWT": tokens.Entitlements,
			"X-Riot-ClientPlatform":   constants.ClientPlatform,
			"X-Riot-ClientVersion":    tokens.ClientVersion,
		},
		pdBase:  gw.endpoints.PD(shard),
		glzBase: gw.endpoints.GLZ(region, shard),
	}
}

func (c *RegionalClient) pd(op, method, path string, body any) call {
	return call{op: op, family: familyPD, method: method, url: c.pdBase + path, headers: c.headers, body: body}
}

func (c *RegionalClient) glz(op, method, path string, body any) call {
	return call{op: op, family: familyGLZ, method: method, url: c.glzBase + path, headers: c.headers, body: body}
}

// PD

func (c *RegionalClient) AccountXP(ctx context.Context, puuid string) (*AccountXPResponse, error) {
	return doRequest[AccountXPResponse](ctx, c.gw, c.gw.remote,
		c.pd("account xp", fasthttp.MethodGet, "/account-xp/v1/players/"+url.PathEscape(puuid), nil))
}

func (c *RegionalClient) MMR(ctx context.Context, puuid string) (*MMRResponse, error) {
	return doRequest[MMRResponse](ctx, c.gw, c.gw.remote,
		c.pd("mmr", fasthttp.MethodGet, "/mmr/v1/players/"+url.PathEscape(puuid), nil))
}

func (c *RegionalClient) CompetitiveUpdates(ctx context.Context, puuid string, start, end int) (*CompetitiveUpdatesResponse, error) {
	path := fmt.Sprintf("/mmr/v1/players/%s/competitiveupdates?startIndex=%d&endIndex=%d", url.PathEscape(puuid), start, end)
	return doRequest[CompetitiveUpdatesResponse](ctx, c.gw, c.gw.remote,
		c.pd("competitive updates", fasthttp.MethodGet, path, nil))
}

func (c *RegionalClient) MatchDetails(ctx context.Context, matchID string) (*MatchDetailsResponse, error) {
	return doRequest[MatchDetailsResponse](ctx, c.gw, c.gw.remote,
		c.pd("match details", fasthttp.MethodGet, "/match-details/v1/matches/"+url.PathEscape(matchID), nil))
}

func (c *RegionalClient) Entitlements(ctx context.Context, puuid, itemType string) (*EntitlementsResponse, error) {
	return doRequest[EntitlementsResponse](ctx, c.gw, c.gw.remote,
		c.pd("entitlements", fasthttp.MethodGet, "/store/v1/entitlements/"+url.PathEscape(puuid)+"/"+url.PathEscape(itemType), nil))
}

func (c *RegionalClient) PlayerNames(ctx context.Context, puuids []string) ([]NameServiceEntry, error) {
	resp, err := doRequest[[]NameServiceEntry](ctx, c.gw, c.gw.remote,
		c.pd("name service", fasthttp.MethodPut, "/name-service/v2/players", puuids))
	if err != nil {
		return nil, err
	}
	return *resp, nil
}

func (c *RegionalClient) PlayerLoadout(ctx context.Context, puuid string) (*PlayerLoadoutResponse, error) {
	return doRequest[PlayerLoadoutResponse](ctx, c.gw, c.gw.remote,
		c.pd("player loadout", fasthttp.MethodGet, "/personalization/v2/players/"+url.PathEscape(puuid)+"/playerloadout", nil))
}

func (c *RegionalClient) PlayerCardID(ctx context.Context, puuid string) (string, error) {
	loadout, err := c.PlayerLoadout(ctx, puuid)
	if err != nil {
		return "", err
	}
	if loadout.Identity.PlayerCardID == "" {
		return "", ErrNoPlayerCard
	}
	return loadout.Identity.PlayerCardID, nil
}

// GLZ: pregame

func (c *RegionalClient) PregamePlayer(ctx context.Context, puuid string) (*MatchPointer, error) {
	return doRequest[MatchPointer](ctx, c.gw, c.gw.remote,
		c.glz("pregame player", fasthttp.MethodGet, "/pregame/v1/players/"+url.PathEscape(puuid), nil))
}

func (c *RegionalClient) PregameMatch(ctx context.Context, matchID string) (*PregameMatchResponse, error) {
	return doRequest[PregameMatchResponse](ctx, c.gw, c.gw.remote,
		c.glz("pregame match", fasthttp.MethodGet, "/pregame/v1/matches/"+url.PathEscape(matchID), nil))
}

func (c *RegionalClient) SelectAgent(ctx context.Context, matchID, agentID string) error {
	return doCommand(ctx, c.gw, c.gw.remote,
		c.glz("select", fasthttp.MethodPost, "/pregame/v1/matches/"+url.PathEscape(matchID)+"/select/"+url.PathEscape(agentID), nil))
}

func (c *RegionalClient) LockAgent(ctx context.Context, matchID, agentID string) error {
	return doCommand(ctx, c.gw, c.gw.remote,
		c.glz("lock", fasthttp.MethodPost, "/pregame/v1/matches/"+url.PathEscape(matchID)+"/lock/"+url.PathEscape(agentID), nil))
}

func (c *RegionalClient) QuitPregame(ctx context.Context, matchID string) error {
	return doCommand(ctx, c.gw, c.gw.remote,
		c.glz("quit", fasthttp.MethodPost, "/pregame/v1/matches/"+url.PathEscape(matchID)+"/quit", nil))
}

// GLZ: core game

func (c *RegionalClient) CoreGamePlayer(ctx context.Context, puuid string) (*MatchPointer, error) {
	return doRequest[MatchPointer](ctx, c.gw, c.gw.remote,
		c.glz("core-game player", fasthttp.MethodGet, "/core-game/v1/players/"+url.PathEscape(puuid), nil))
}

func (c *RegionalClient) CoreGameMatch(ctx context.Context, matchID string) (*CoreGameMatchResponse, error) {
	return doRequest[CoreGameMatchResponse](ctx, c.gw, c.gw.remote,
		c.glz("core-game match", fasthttp.MethodGet, "/core-game/v1/matches/"+url.PathEscape(matchID), nil))
}

// GLZ: parties

func (c *RegionalClient) PartyPlayer(ctx context.Context, puuid string) (*PartyPlayerResponse, error) {
	return doRequest[PartyPlayerResponse](ctx, c.gw, c.gw.remote,
		c.glz("party player", fasthttp.MethodGet, "/parties/v1/players/"+url.PathEscape(puuid), nil))
}

func (c *RegionalClient) Party(ctx context.Context, partyID string) (*PartyResponse, error) {
	return doRequest[PartyResponse](ctx, c.gw, c.gw.remote,
		c.glz("party", fasthttp.MethodGet, "/parties/v1/parties/"+url.PathEscape(partyID), nil))
}

func (c *RegionalClient) PartyInvite(ctx context.Context, partyID, name, tag string) error {
	path := fmt.Sprintf("/parties/v1/parties/%s/invites/name/%s/tag/%s", url.PathEscape(partyID), url.PathEscape(name), url.PathEscape(tag))
	return doCommand(ctx, c.gw, c.gw.remote, c.glz("invite", fasthttp.MethodPost, path, nil))
}

func (c *RegionalClient) PartyKick(ctx context.Context, partyID, puuid string) error {
	return doCommand(ctx, c.gw, c.gw.remote,
		c.glz("kick", fasthttp.MethodDelete, "/parties/v1/parties/"+url.PathEscape(partyID)+"/members/"+url.PathEscape(puuid), nil))
}

func (c *RegionalClient) PartyPromote(ctx context.Context, partyID, puuid string) error {
	return doCommand(ctx, c.gw, c.gw.remote,
		c.glz("promote", fasthttp.MethodPost, "/parties/v1/parties/"+url.PathEscape(partyID)+"/members/"+url.PathEscape(puuid)+"/owner", nil))
}

func (c *RegionalClient) PartyJoin(ctx context.Context, puuid, partyID string) error {
	return doCommand(ctx, c.gw, c.gw.remote,
		c.glz("accept", fasthttp.MethodPost, "/parties/v1/players/"+url.PathEscape(puuid)+"/joinparty/"+url.PathEscape(partyID), nil))
}

func (c *RegionalClient) PartyDecline(ctx context.Context, partyID, requestID string) error {
	return doCommand(ctx, c.gw, c.gw.remote,
		c.glz("decline", fasthttp.MethodPost, "/parties/v1/parties/"+url.PathEscape(partyID)+"/request/"+url.PathEscape(requestID)+"/decline", nil))
}

func (c *RegionalClient) PartySetAccessibility(ctx context.Context, partyID string, open bool) error {
	accessibility := "CLOSED"
	if open {
		accessibility = "OPEN"
	}
	return doCommand(ctx, c.gw, c.gw.remote,
		c.glz("accessibility", fasthttp.MethodPost, "/parties/v1/parties/"+url.PathEscape(partyID)+"/accessibility",
			map[string]string{"accessibility": accessibility}))
}

func (c *RegionalClient) PartySetReady(ctx context.Context, partyID, puuid string, ready bool) error {
	return doCommand(ctx, c.gw, c.gw.remote,
		c.glz("ready", fasthttp.MethodPost, "/parties/v1/parties/"+url.PathEscape(partyID)+"/members/"+url.PathEscape(puuid)+"/setReady",
			map[string]bool{"ready": ready}))
}

func (c *RegionalClient) PartyJoinQueue(ctx context.Context, partyID string) error {
	return doCommand(ctx, c.gw, c.gw.remote,
		c.glz("queue", fasthttp.MethodPost, "/parties/v1/parties/"+url.PathEscape(partyID)+"/matchmaking/join", nil))
}

func (c *RegionalClient) PartyLeaveQueue(ctx context.Context, partyID string) error {
	return doCommand(ctx, c.gw, c.gw.remote,
		c.glz("leave queue", fasthttp.MethodPost, "/parties/v1/parties/"+url.PathEscape(partyID)+"/matchmaking/leave", nil))
}

func (c *RegionalClient) PartySetQueue(ctx context.Context, partyID, queueID string) error {
	return doCommand(ctx, c.gw, c.gw.remote,
		c.glz("set queue", fasthttp.MethodPost, "/parties/v1/parties/"+url.PathEscape(partyID)+"/queue",
			map[string]string{"queueID": queueID}))
}

func (c *RegionalClient) PartyGenerateCode(ctx context.Context, partyID string) (string, error) {
	resp, err := doRequest[InviteCodeResponse](ctx, c.gw, c.gw.remote,
		c.glz("generate code", fasthttp.MethodPost, "/parties/v1/parties/"+url.PathEscape(partyID)+"/invitecode", nil))
	if err != nil {
		return "", err
	}
	return resp.InviteCode, nil
}

func (c *RegionalClient) PartyDisableCode(ctx context.Context, partyID string) error {
	return doCommand(ctx, c.gw, c.gw.remote,
		c.glz("disable code", fasthttp.MethodDelete, "/parties/v1/parties/"+url.PathEscape(partyID)+"/invitecode", nil))
}
