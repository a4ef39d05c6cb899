package service

import (
	"errors"
	"time"

	"downfall/internal/api"
	"downfall/internal/domain"
	"downfall/internal/session"
)

var (
	ErrNotConnected = errors.New("not connected")
	ErrNoRegion     = errors.New("no region")
	ErrNoShard      = errors.New("no shard")
	ErrNoTokens     = errors.New("no auth tokens")

	ErrInvalidArgument = errors.New("invalid argument")
)

// SessionSource hands out consistent copies of the current session.
type SessionSource interface {
	Snapshot() session.Snapshot
}

type need uint8

const (
	needPlayer need = 1 << iota
	needRegion
	needShard
	needTokens
	needLocal
)

// target is everything one aggregation or command needs, copied out of the session.
type target struct {
	player domain.PlayerIdentity
	region string
	shard  string
	tokens domain.AuthTokens
	local  *api.LocalClient
}

func (t target) puuid() string {
	return t.player.Puuid
}

func resolveTarget(src SessionSource, required need) (target, error) {
	snap := src.Snapshot()
	var t target

	if snap.Session.PlayerInfo != nil {
		t.player = *snap.Session.PlayerInfo
	} else if required&needPlayer != 0 {
		return target{}, ErrNotConnected
	}

	if snap.Local != nil {
		t.local = snap.Local
	} else if required&needLocal != 0 {
		return target{}, ErrNotConnected
	}

	if snap.Session.Region != nil {
		t.region = *snap.Session.Region
	} else if required&needRegion != 0 {
		return target{}, ErrNoRegion
	}

	if snap.Session.Shard != nil {
		t.shard = *snap.Session.Shard
	} else if required&needShard != 0 {
		return target{}, ErrNoShard
	}

	// an expired token would only earn a 400 upstream, so it counts as absent
	if snap.Tokens != nil && !snap.Tokens.Expired(time.Now()) {
		t.tokens = *snap.Tokens
	} else if required&needTokens != 0 {
		return target{}, ErrNoTokens
	}

	return t, nil
}

func (t target) regional(gw *api.Gateway) *api.RegionalClient {
	return gw.Regional(t.tokens, t.region, t.shard)
}
