package api

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/valyala/fasthttp"

	"downfall/internal/constants"
	"downfall/internal/domain"
)

var (
	ErrNoPuuid         = errors.New("chat session has no puuid")
	ErrMissingToken    = errors.New("entitlements response is missing a token")
	ErrInvalidLockfile = errors.New("lockfile has no usable port or password")
)

// LocalClient talks to the game client's loopback API with basic auth.
type LocalClient struct {
	gw      *Gateway
	baseURL string
	auth    string
}

func (gw *Gateway) Local(port int, password string) (*LocalClient, error) {
	if port <= 0 || port > 65535 || password == "" {
		return nil, ErrInvalidLockfile
	}
	return &LocalClient{
		gw:      gw,
		baseURL: gw.endpoints.Local(port),
		auth:    "Basic " + base64.StdEncoding.EncodeToString([]byte("riot:"+password)),
	}, nil
}

func (c *LocalClient) get(op, path string) call {
	return call{
		op:      op,
		family:  familyLocal,
		method:  fasthttp.MethodGet,
		url:     c.baseURL + path,
		headers: map[string]string{"Authorization": c.auth},
	}
}

func (c *LocalClient) ChatSession(ctx context.Context) (*ChatSessionResponse, error) {
	return doRequest[ChatSessionResponse](ctx, c.gw, c.gw.local, c.get("chat session", "/chat/v1/session"))
}

func (c *LocalClient) ExternalSessions(ctx context.Context) (map[string]ExternalSession, error) {
	resp, err := doRequest[map[string]ExternalSession](ctx, c.gw, c.gw.local, c.get("external sessions", "/product-session/v1/external-sessions"))
	if err != nil {
		return nil, err
	}
	return *resp, nil
}

func (c *LocalClient) RegionLocale(ctx context.Context) (*RegionLocaleResponse, error) {
	return doRequest[RegionLocaleResponse](ctx, c.gw, c.gw.local, c.get("region locale", "/riotclient/region-locale"))
}

func (c *LocalClient) EntitlementsToken(ctx context.Context) (*EntitlementsTokenResponse, error) {
	return doRequest[EntitlementsTokenResponse](ctx, c.gw, c.gw.local, c.get("entitlements token", "/entitlements/v1/token"))
}

func (c *LocalClient) Friends(ctx context.Context) (*FriendsResponse, error) {
	return doRequest[FriendsResponse](ctx, c.gw, c.gw.local, c.get("friends", "/chat/v4/friends"))
}

func (c *LocalClient) Presences(ctx context.Context) (*PresencesResponse, error) {
	return doRequest[PresencesResponse](ctx, c.gw, c.gw.local, c.get("presences", "/chat/v4/presences"))
}

func (c *LocalClient) Identity(ctx context.Context) (domain.PlayerIdentity, error) {
	resp, err := c.ChatSession(ctx)
	if err != nil {
		return domain.PlayerIdentity{}, err
	}
	if resp.Puuid == "" {
		return domain.PlayerIdentity{}, ErrNoPuuid
	}
	return domain.PlayerIdentity{
		Puuid:    resp.Puuid,
		GameName: resp.GameName,
		TagLine:  resp.GameTag,
	}, nil
}

// Region prefers the deployment flag of a running product session and falls back
// to the client's region-locale setting.
func (c *LocalClient) Region(ctx context.Context) (domain.RegionInfo, error) {
	region := ""

	sessions, err := c.ExternalSessions(ctx)
	if err != nil {
		c.gw.logger.Debug().Err(err).Msg("external sessions unavailable, falling back to region-locale")
	}
	for _, key := range sortedKeys(sessions) {
		if r := sessions[key].DeploymentRegion(); r != "" {
			region = r
		}
	}

	if region == "" {
		locale, err := c.RegionLocale(ctx)
		if err != nil {
			return domain.RegionInfo{}, fmt.Errorf("failed to resolve region: %w", err)
		}
		region = strings.ToLower(locale.Region)
		if region == "" {
			region = "na"
		}
	}

	return domain.RegionInfo{Region: region, Shard: domain.ShardForRegion(region)}, nil
}

// AuthTokens fetches bearer and entitlement tokens; the client version is best-effort.
func (gw *Gateway) AuthTokens(ctx context.Context, local *LocalClient) (domain.AuthTokens, error) {
	resp, err := local.EntitlementsToken(ctx)
	if err != nil {
		return domain.AuthTokens{}, err
	}
	if resp.AccessToken == "" || resp.Token == "" {
		return domain.AuthTokens{}, ErrMissingToken
	}

	return domain.AuthTokens{
		AccessToken:   resp.AccessToken,
		Entitlements:  resp.Token,
		ClientVersion: gw.resolveClientVersion(ctx, local),
		ExpiresAt:     tokenExpiry(resp.AccessToken),
	}, nil
}

func (gw *Gateway) resolveClientVersion(ctx context.Context, local *LocalClient) string {
	version, err := gw.ClientVersion(ctx)
	if err == nil && version != "" {
		return version
	}
	gw.logger.Debug().Err(err).Msg("metadata version lookup failed, trying external sessions")

	sessions, err := local.ExternalSessions(ctx)
	if err != nil {
		gw.logger.Debug().Err(err).Msg("external sessions version lookup failed")
	}
	for _, key := range sortedKeys(sessions) {
		if v := sessions[key].Version; v != "" {
			return v
		}
	}

	return constants.FallbackClientVersion
}

// tokenExpiry reads the exp claim without verifying the signature; the token is
// only forwarded upstream, never trusted locally.
func tokenExpiry(accessToken string) time.Time {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
