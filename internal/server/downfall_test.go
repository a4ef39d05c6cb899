package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"downfall/internal/api"
	"downfall/internal/api/apitest"
	"downfall/internal/config"
	"downfall/internal/domain"
	"downfall/internal/service"
	"downfall/internal/session"
)

type fakeSource struct {
	snap      session.Snapshot
	refreshes int
}

func (f *fakeSource) Snapshot() session.Snapshot { return f.snap }

func (f *fakeSource) State() domain.Session { return f.snap.Session.Clone() }

func (f *fakeSource) Refresh(context.Context) domain.Session {
	f.refreshes++
	return f.State()
}

func newTestServer(t *testing.T, upstream *apitest.Server, src *fakeSource) string {
	t.Helper()
	gw := upstream.Gateway()
	logger := zerolog.Nop()

	s := NewDownfallServer(
		src,
		service.NewPlayerService(gw, src, logger),
		service.NewMatchService(gw, src, &config.Config{}, nil, logger),
		service.NewPartyService(gw, src, logger),
		service.NewFriendService(src, logger),
		service.NewCommandService(gw, src, logger),
	)
	path, handler := NewHandler(s, logger)
	mux := http.NewServeMux()
	mux.Handle(path, handler)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv.URL
}

func client[Req, Res any](base, method string) *connect.Client[Req, Res] {
	return connect.NewClient[Req, Res](http.DefaultClient, base+ServicePath+method, connect.WithCodec(jsonCodec{}))
}

func connectedSource(t *testing.T, gw *api.Gateway) *fakeSource {
	t.Helper()
	local, err := gw.Local(5000, "pw")
	require.NoError(t, err)
	region, shard := "eu", "eu"
	return &fakeSource{snap: session.Snapshot{
		Session: domain.Session{
			Status:     domain.StatusConnected,
			PlayerInfo: &domain.PlayerIdentity{Puuid: "self", GameName: "Neo", TagLine: "EUW"},
			Region:     &region,
			Shard:      &shard,
		},
		Tokens: &domain.AuthTokens{AccessToken: "a", Entitlements: "e"},
		Local:  local,
	}}
}

func TestGetStateAndReconnect(t *testing.T) {
	upstream := apitest.New(t)
	src := connectedSource(t, upstream.Gateway())
	base := newTestServer(t, upstream, src)

	resp, err := client[Empty, StateResponse](base, "GetState").CallUnary(context.Background(), connect.NewRequest(&Empty{}))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConnected, resp.Msg.Session.Status)
	assert.Equal(t, "Neo", resp.Msg.Session.PlayerInfo.GameName)

	_, err = client[Empty, StateResponse](base, "Reconnect").CallUnary(context.Background(), connect.NewRequest(&Empty{}))
	require.NoError(t, err)
	assert.Equal(t, 1, src.refreshes)
}

func TestPreconditionErrors(t *testing.T) {
	upstream := apitest.New(t)
	base := newTestServer(t, upstream, &fakeSource{snap: session.Snapshot{Session: domain.Session{Status: domain.StatusDisconnected}}})

	_, err := client[Empty, ProfileResponse](base, "GetProfile").CallUnary(context.Background(), connect.NewRequest(&Empty{}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))
	assert.Contains(t, err.Error(), "not connected")
}

func TestCommandErrorsSurfaceUpstreamStatus(t *testing.T) {
	upstream := apitest.New(t)
	upstream.Status(http.MethodPost, "/pregame/v1/matches/pm/quit", http.StatusNotFound)
	base := newTestServer(t, upstream, connectedSource(t, upstream.Gateway()))

	_, err := client[DodgeRequest, Empty](base, "Dodge").CallUnary(context.Background(), connect.NewRequest(&DodgeRequest{MatchID: "pm"}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeUnavailable, connect.CodeOf(err))
	assert.Contains(t, err.Error(), "quit failed: 404")

	_, err = client[DodgeRequest, Empty](base, "Dodge").CallUnary(context.Background(), connect.NewRequest(&DodgeRequest{}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestGetLiveMatchNoneIsNull(t *testing.T) {
	upstream := apitest.New(t)
	base := newTestServer(t, upstream, connectedSource(t, upstream.Gateway()))

	resp, err := client[Empty, LiveMatchResponse](base, "GetLiveMatch").CallUnary(context.Background(), connect.NewRequest(&Empty{}))
	require.NoError(t, err)
	assert.Nil(t, resp.Msg.Match)
}

func TestPlainJSONRequest(t *testing.T) {
	upstream := apitest.New(t)
	upstream.JSON(http.MethodPost, "/parties/v1/parties/p1/invitecode", http.StatusOK, map[string]string{"InviteCode": "XYZ"})
	base := newTestServer(t, upstream, connectedSource(t, upstream.Gateway()))

	resp, err := http.Post(base+ServicePath+"PartyGenerateCode", "application/json", strings.NewReader(`{"partyId":"p1"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"inviteCode":"XYZ"}`, readAll(t, resp))
}

func TestToConnectError(t *testing.T) {
	cases := []struct {
		err  error
		code connect.Code
	}{
		{service.ErrNoShard, connect.CodeFailedPrecondition},
		{fmt.Errorf("wrapped: %w", service.ErrNoTokens), connect.CodeFailedPrecondition},
		{fmt.Errorf("%w: x", service.ErrInvalidArgument), connect.CodeInvalidArgument},
		{&api.StatusError{Op: "lock", Code: 409}, connect.CodeUnavailable},
		{context.DeadlineExceeded, connect.CodeDeadlineExceeded},
		{errors.New("boom"), connect.CodeInternal},
	}
	for _, c := range cases {
		assert.Equal(t, c.code, connect.CodeOf(toConnectError(c.err)), c.err.Error())
	}
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}
