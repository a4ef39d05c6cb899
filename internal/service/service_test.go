package service

import (
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"downfall/internal/api"
	"downfall/internal/api/apitest"
	"downfall/internal/domain"
	"downfall/internal/session"
)

const namesPath = "/name-service/v2/players"

type fakeSession struct {
	snap session.Snapshot
}

func (f *fakeSession) Snapshot() session.Snapshot {
	return f.snap
}

func connectedSession(t *testing.T, gw *api.Gateway) *fakeSession {
	t.Helper()
	local, err := gw.Local(5000, "pw")
	require.NoError(t, err)

	region, shard := "na", "na"
	return &fakeSession{snap: session.Snapshot{
		Session: domain.Session{
			Status:     domain.StatusConnected,
			PlayerInfo: &domain.PlayerIdentity{Puuid: "self", GameName: "Neo", TagLine: "NA1"},
			Region:     &region,
			Shard:      &shard,
		},
		Tokens: &domain.AuthTokens{AccessToken: "access", Entitlements: "ent", ClientVersion: "v1"},
		Local:  local,
	}}
}

type nameBatches struct {
	mu      sync.Mutex
	batches [][]string
}

func (n *nameBatches) all() [][]string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([][]string(nil), n.batches...)
}

// echoNames answers the name service with "<puuid>-name" for every requested puuid
// and records each batch it was asked for.
func echoNames(t *testing.T, srv *apitest.Server) *nameBatches {
	t.Helper()
	batches := &nameBatches{}
	srv.Handle(http.MethodPut, namesPath, func(w http.ResponseWriter, r *http.Request) {
		var puuids []string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&puuids))
		batches.mu.Lock()
		batches.batches = append(batches.batches, puuids)
		batches.mu.Unlock()

		entries := make([]api.NameServiceEntry, 0, len(puuids))
		for _, p := range puuids {
			entries = append(entries, api.NameServiceEntry{Subject: p, GameName: p + "-name", TagLine: "T"})
		}
		_ = json.NewEncoder(w).Encode(entries)
	})
	return batches
}

func mmrFor(srv *apitest.Server, puuid string, tier, rr int) {
	srv.JSON(http.MethodGet, "/mmr/v1/players/"+puuid, http.StatusOK, map[string]any{
		"LatestCompetitiveUpdate": map[string]int{"TierAfterUpdate": tier, "RankedRatingAfterUpdate": rr},
	})
}

func agentCatalogueRoute(srv *apitest.Server) {
	srv.JSON(http.MethodGet, "/v1/agents", http.StatusOK, map[string]any{
		"data": []map[string]any{
			{"uuid": "AGENT-JETT", "displayName": "Jett", "displayIcon": "jett.png", "isBaseContent": true,
				"role": map[string]string{"displayName": "Duelist", "displayIcon": "duelist.png"}},
			{"uuid": "agent-sova", "displayName": "Sova", "displayIcon": "sova.png", "isBaseContent": false,
				"role": map[string]string{"displayName": "Initiator"}},
			{"uuid": "agent-brim", "displayName": "Brimstone", "displayIcon": "brim.png", "isBaseContent": false},
		},
	})
}

func TestResolveTargetPreconditions(t *testing.T) {
	gw := apitest.New(t).Gateway()

	_, err := resolveTarget(&fakeSession{}, needPlayer)
	assert.ErrorIs(t, err, ErrNotConnected)

	src := connectedSession(t, gw)
	src.snap.Session.Region = nil
	_, err = resolveTarget(src, needPlayer|needRegion)
	assert.ErrorIs(t, err, ErrNoRegion)

	src = connectedSession(t, gw)
	src.snap.Session.Shard = nil
	_, err = resolveTarget(src, needShard)
	assert.ErrorIs(t, err, ErrNoShard)

	src = connectedSession(t, gw)
	src.snap.Tokens = nil
	_, err = resolveTarget(src, needPlayer|needTokens)
	assert.ErrorIs(t, err, ErrNoTokens)

	src = connectedSession(t, gw)
	src.snap.Local = nil
	_, err = resolveTarget(src, needLocal)
	assert.ErrorIs(t, err, ErrNotConnected)

	tgt, err := resolveTarget(connectedSession(t, gw), needPlayer|needRegion|needShard|needTokens|needLocal)
	require.NoError(t, err)
	assert.Equal(t, "self", tgt.puuid())
	assert.Equal(t, "na", tgt.region)
}

func TestResolveTargetTreatsExpiredTokensAsAbsent(t *testing.T) {
	gw := apitest.New(t).Gateway()

	src := connectedSession(t, gw)
	src.snap.Tokens.ExpiresAt = time.Now().Add(-time.Minute)
	_, err := resolveTarget(src, needPlayer|needTokens)
	assert.ErrorIs(t, err, ErrNoTokens)

	tgt, err := resolveTarget(src, needPlayer)
	require.NoError(t, err)
	assert.Empty(t, tgt.tokens.AccessToken)

	src.snap.Tokens.ExpiresAt = time.Now().Add(time.Hour)
	tgt, err = resolveTarget(src, needPlayer|needTokens)
	require.NoError(t, err)
	assert.NotEmpty(t, tgt.tokens.AccessToken)
}

func nop() zerolog.Logger {
	return zerolog.Nop()
}
