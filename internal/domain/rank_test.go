package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRankDelta(t *testing.T) {
	tests := []struct {
		name                                     string
		tierBefore, tierAfter, rrBefore, rrAfter int
		want                                     int
	}{
		{"promotion carries rating", 12, 13, 80, 20, 40},
		{"promotion from zero", 12, 13, 0, 0, 100},
		{"demotion", 13, 12, 10, 85, -25},
		{"demotion from zero to top", 13, 12, 0, 100, 0},
		{"same tier gain", 15, 15, 40, 62, 22},
		{"same tier loss", 15, 15, 40, 21, -19},
		{"same tier draw", 15, 15, 40, 40, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RankDelta(tt.tierBefore, tt.tierAfter, tt.rrBefore, tt.rrAfter))
		})
	}
}

func TestShardForRegion(t *testing.T) {
	cases := map[string]string{
		"latam": "na",
		"br":    "na",
		"na":    "na",
		"eu":    "eu",
		"ap":    "ap",
		"kr":    "kr",
		"xx":    "xx",
		"":      "",
	}
	for region, shard := range cases {
		assert.Equal(t, shard, ShardForRegion(region), "region %q", region)
	}
}

func TestMapName(t *testing.T) {
	assert.Equal(t, "Bind", MapName("/Game/Maps/Duality/Duality"))
	assert.Equal(t, "Icebox", MapName("/Game/Maps/Port/Port/"))
	assert.Equal(t, "Kasbah", MapName("/Game/Maps/Kasbah"))
	assert.Equal(t, "Unknown", MapName(""))
}

func TestSessionCloneIsDeep(t *testing.T) {
	card := "card-1"
	region := "eu"
	shard := "eu"
	s := Session{
		Status:     StatusConnected,
		PlayerInfo: &PlayerIdentity{Puuid: "p1", PlayerCardID: &card},
		Region:     &region,
		Shard:      &shard,
	}

	c := s.Clone()
	*c.PlayerInfo.PlayerCardID = "changed"
	*c.Region = "na"
	c.PlayerInfo.GameName = "other"

	assert.Equal(t, "card-1", *s.PlayerInfo.PlayerCardID)
	assert.Equal(t, "eu", *s.Region)
	assert.Empty(t, s.PlayerInfo.GameName)
}

func TestAuthTokensExpired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	assert.False(t, AuthTokens{}.Expired(now))
	assert.False(t, AuthTokens{ExpiresAt: now.Add(time.Second)}.Expired(now))
	assert.True(t, AuthTokens{ExpiresAt: now}.Expired(now))
	assert.True(t, AuthTokens{ExpiresAt: now.Add(-time.Second)}.Expired(now))
}
