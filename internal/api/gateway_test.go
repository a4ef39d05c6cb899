package api_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"downfall/internal/api"
	"downfall/internal/api/apitest"
	"downfall/internal/constants"
	"downfall/internal/domain"
	"downfall/internal/metrics"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test"))
	require.NoError(t, err)
	return token
}

func TestLocalClientRejectsBadCredentials(t *testing.T) {
	gw := apitest.New(t).Gateway()

	_, err := gw.Local(0, "pw")
	assert.ErrorIs(t, err, api.ErrInvalidLockfile)

	_, err = gw.Local(1234, "")
	assert.ErrorIs(t, err, api.ErrInvalidLockfile)
}

func TestLocalClientSendsBasicAuth(t *testing.T) {
	srv := apitest.New(t)
	var gotAuth string
	srv.Handle(http.MethodGet, "/chat/v1/session", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]string{"puuid": "self", "game_name": "Neo", "game_tag": "EUW"})
	})

	local, err := srv.Gateway().Local(5000, "hunter2")
	require.NoError(t, err)

	identity, err := local.Identity(context.Background())
	require.NoError(t, err)

	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("riot:hunter2"))
	assert.Equal(t, want, gotAuth)
	assert.Equal(t, domain.PlayerIdentity{Puuid: "self", GameName: "Neo", TagLine: "EUW"}, identity)
}

func TestIdentityRequiresPuuid(t *testing.T) {
	srv := apitest.New(t)
	srv.JSON(http.MethodGet, "/chat/v1/session", http.StatusOK, map[string]string{"game_name": "Neo"})

	local, err := srv.Gateway().Local(5000, "pw")
	require.NoError(t, err)

	_, err = local.Identity(context.Background())
	assert.ErrorIs(t, err, api.ErrNoPuuid)
}

func TestRegionFromDeploymentFlag(t *testing.T) {
	srv := apitest.New(t)
	srv.JSON(http.MethodGet, "/product-session/v1/external-sessions", http.StatusOK, map[string]any{
		"host_app": map[string]any{"launchConfiguration": map[string]any{"arguments": []any{"-foo", 3}}},
		"valorant": map[string]any{"launchConfiguration": map[string]any{"arguments": []any{"-ares-deployment=latam"}}},
	})

	local, err := srv.Gateway().Local(5000, "pw")
	require.NoError(t, err)

	info, err := local.Region(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RegionInfo{Region: "latam", Shard: "na"}, info)
	assert.Zero(t, srv.Hits(http.MethodGet, "/riotclient/region-locale"))
}

func TestRegionFallsBackToLocale(t *testing.T) {
	srv := apitest.New(t)
	srv.Status(http.MethodGet, "/product-session/v1/external-sessions", http.StatusInternalServerError)
	srv.JSON(http.MethodGet, "/riotclient/region-locale", http.StatusOK, map[string]string{"region": "EU"})

	local, err := srv.Gateway().Local(5000, "pw")
	require.NoError(t, err)

	info, err := local.Region(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RegionInfo{Region: "eu", Shard: "eu"}, info)
}

func TestRegionFailsWhenNothingResolves(t *testing.T) {
	srv := apitest.New(t)
	srv.JSON(http.MethodGet, "/product-session/v1/external-sessions", http.StatusOK, map[string]any{})

	local, err := srv.Gateway().Local(5000, "pw")
	require.NoError(t, err)

	_, err = local.Region(context.Background())
	assert.Error(t, err)
}

func TestAuthTokensVersionFallbacks(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	setup := func(t *testing.T) *apitest.Server {
		srv := apitest.New(t)
		srv.JSON(http.MethodGet, "/entitlements/v1/token", http.StatusOK, map[string]string{
			"accessToken": signedToken(t, exp),
			"token":       "entitlement",
		})
		return srv
	}

	t.Run("metadata mirror", func(t *testing.T) {
		srv := setup(t)
		srv.JSON(http.MethodGet, "/v1/version", http.StatusOK, map[string]any{
			"data": map[string]string{"riotClientVersion": "release-10.00"},
		})
		gw := srv.Gateway()
		local, _ := gw.Local(1, "pw")

		tokens, err := gw.AuthTokens(context.Background(), local)
		require.NoError(t, err)
		assert.Equal(t, "release-10.00", tokens.ClientVersion)
		assert.Equal(t, "entitlement", tokens.Entitlements)
		assert.True(t, exp.Equal(tokens.ExpiresAt))
		assert.Zero(t, srv.Hits(http.MethodGet, "/product-session/v1/external-sessions"))
	})

	t.Run("external sessions", func(t *testing.T) {
		srv := setup(t)
		srv.Status(http.MethodGet, "/v1/version", http.StatusBadGateway)
		srv.JSON(http.MethodGet, "/product-session/v1/external-sessions", http.StatusOK, map[string]any{
			"a": map[string]any{"version": ""},
			"b": map[string]any{"version": "release-09.99"},
		})
		gw := srv.Gateway()
		local, _ := gw.Local(1, "pw")

		tokens, err := gw.AuthTokens(context.Background(), local)
		require.NoError(t, err)
		assert.Equal(t, "release-09.99", tokens.ClientVersion)
	})

	t.Run("hardcoded default", func(t *testing.T) {
		srv := setup(t)
		gw := srv.Gateway()
		local, _ := gw.Local(1, "pw")

		tokens, err := gw.AuthTokens(context.Background(), local)
		require.NoError(t, err)
		assert.Equal(t, constants.FallbackClientVersion, tokens.ClientVersion)
	})
}

func TestAuthTokensRequiresBothTokens(t *testing.T) {
	srv := apitest.New(t)
	srv.JSON(http.MethodGet, "/entitlements/v1/token", http.StatusOK, map[string]string{"accessToken": "abc"})
	gw := srv.Gateway()
	local, _ := gw.Local(1, "pw")

	_, err := gw.AuthTokens(context.Background(), local)
	assert.ErrorIs(t, err, api.ErrMissingToken)
}

func TestAuthTokensOpaqueAccessToken(t *testing.T) {
	srv := apitest.New(t)
	srv.JSON(http.MethodGet, "/entitlements/v1/token", http.StatusOK, map[string]string{"accessToken": "opaque", "token": "ent"})
	gw := srv.Gateway()
	local, _ := gw.Local(1, "pw")

	tokens, err := gw.AuthTokens(context.Background(), local)
	require.NoError(t, err)
	assert.True(t, tokens.ExpiresAt.IsZero())
}

func TestRegionalHeaders(t *testing.T) {
	srv := apitest.New(t)
	var got http.Header
	srv.Handle(http.MethodGet, "/personalization/v2/players/self/playerloadout", func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_ = json.NewEncoder(w).Encode(map[string]any{"Identity": map[string]string{"PlayerCardID": "card-9"}})
	})

	tokens := domain.AuthTokens{AccessToken: "access", Entitlements: "ent", ClientVersion: "v1"}
	card, err := srv.Gateway().Regional(tokens, "na", "na").PlayerCardID(context.Background(), "self")
	require.NoError(t, err)

	assert.Equal(t, "card-9", card)
	assert.Equal(t, "Bearer access", got.Get("Authorization"))
	assert.Equal(t, "ent", got.Get("X-Riot-Entitlements-JWT"))
	assert.Equal(t, constants.ClientPlatform, got.Get("X-Riot-ClientPlatform"))
	assert.Equal(t, "v1", got.Get("X-Riot-ClientVersion"))
}

func TestPlayerCardIDEmpty(t *testing.T) {
	srv := apitest.New(t)
	srv.JSON(http.MethodGet, "/personalization/v2/players/self/playerloadout", http.StatusOK, map[string]any{"Identity": map[string]string{}})

	_, err := srv.Gateway().Regional(domain.AuthTokens{}, "na", "na").PlayerCardID(context.Background(), "self")
	assert.ErrorIs(t, err, api.ErrNoPlayerCard)
}

func TestPlayerNamesSendsPuuidBody(t *testing.T) {
	srv := apitest.New(t)
	var body []string
	srv.Handle(http.MethodPut, "/name-service/v2/players", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_ = json.NewEncoder(w).Encode([]map[string]string{
			{"Subject": "a", "GameName": "Alpha", "TagLine": "1"},
		})
	})

	names, err := srv.Gateway().Regional(domain.AuthTokens{}, "na", "na").PlayerNames(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, body)
	assert.Equal(t, []api.NameServiceEntry{{Subject: "a", GameName: "Alpha", TagLine: "1"}}, names)
}

func TestCommandStatusError(t *testing.T) {
	srv := apitest.New(t)
	srv.Status(http.MethodPost, "/pregame/v1/matches/m1/lock/agent", http.StatusConflict)

	err := srv.Gateway().Regional(domain.AuthTokens{}, "na", "na").LockAgent(context.Background(), "m1", "agent")
	var statusErr *api.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusConflict, statusErr.Code)
	assert.Equal(t, "lock failed: 409", err.Error())
}

func TestCommandBodies(t *testing.T) {
	srv := apitest.New(t)
	var got map[string]any
	capture := func(w http.ResponseWriter, r *http.Request) {
		got = nil
		_ = json.NewDecoder(r.Body).Decode(&got)
	}
	srv.Handle(http.MethodPost, "/parties/v1/parties/p1/accessibility", capture)
	srv.Handle(http.MethodPost, "/parties/v1/parties/p1/members/self/setReady", capture)
	srv.Handle(http.MethodPost, "/parties/v1/parties/p1/queue", capture)

	c := srv.Gateway().Regional(domain.AuthTokens{}, "na", "na")
	ctx := context.Background()

	require.NoError(t, c.PartySetAccessibility(ctx, "p1", true))
	assert.Equal(t, map[string]any{"accessibility": "OPEN"}, got)

	require.NoError(t, c.PartySetReady(ctx, "p1", "self", false))
	assert.Equal(t, map[string]any{"ready": false}, got)

	require.NoError(t, c.PartySetQueue(ctx, "p1", "competitive"))
	assert.Equal(t, map[string]any{"queueID": "competitive"}, got)
}

func TestUpstreamMetricsRecorded(t *testing.T) {
	srv := apitest.New(t)
	srv.JSON(http.MethodGet, "/mmr/v1/players/self", http.StatusOK, map[string]any{})

	m := metrics.New()
	gw := api.NewGatewayWithEndpoints(srv.Endpoints(), m, zerolog.Nop())
	_, err := gw.Regional(domain.AuthTokens{}, "na", "na").MMR(context.Background(), "self")
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(m.Registry(), "downfall_upstream_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCanceledContextSkipsCall(t *testing.T) {
	srv := apitest.New(t)
	srv.JSON(http.MethodGet, "/mmr/v1/players/self", http.StatusOK, map[string]any{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := srv.Gateway().Regional(domain.AuthTokens{}, "na", "na").MMR(ctx, "self")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, srv.Hits(http.MethodGet, "/mmr/v1/players/self"))
}

func TestRegionalPathsEscapeIDs(t *testing.T) {
	srv := apitest.New(t)
	var escaped string
	srv.Handle(http.MethodDelete, "/parties/v1/parties/p 1/members/a/b", func(w http.ResponseWriter, r *http.Request) {
		escaped = r.URL.EscapedPath()
	})

	err := srv.Gateway().Regional(domain.AuthTokens{}, "na", "na").PartyKick(context.Background(), "p 1", "a/b")
	require.NoError(t, err)
	assert.Equal(t, "/parties/v1/parties/p%201/members/a%2Fb", escaped)
}
