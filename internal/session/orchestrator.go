// Package session owns the connection to the local game client: credentials,
// identity, region routing and the short-lived regional tokens.
package session

import (
	"context"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"downfall/internal/api"
	"downfall/internal/config"
	"downfall/internal/constants"
	"downfall/internal/domain"
	"downfall/internal/lockfile"
	"downfall/internal/metrics"
	"downfall/internal/presence"
)

type CredentialSource interface {
	Read() (lockfile.Lockfile, error)
}

// Snapshot is a consistent copy of everything the aggregation layer needs from one session.
type Snapshot struct {
	Session domain.Session
	Tokens  *domain.AuthTokens
	Local   *api.LocalClient
}

type Orchestrator struct {
	creds     CredentialSource
	gw        *api.Gateway
	cfg       *config.Config
	metrics   *metrics.Metrics
	publisher presence.Publisher
	logger    zerolog.Logger

	// mu guards the fields below and is never held across an upstream call
	mu      sync.RWMutex
	session domain.Session
	tokens  *domain.AuthTokens
	local   *api.LocalClient

	cycles singleflight.Group
	ticks  int
}

func NewOrchestrator(
	creds CredentialSource,
	gw *api.Gateway,
	cfg *config.Config,
	m *metrics.Metrics,
	publisher presence.Publisher,
	logger zerolog.Logger,
) *Orchestrator {
	m.SetStatus(domain.StatusDisconnected)
	return &Orchestrator{
		creds:     creds,
		gw:        gw,
		cfg:       cfg,
		metrics:   m,
		publisher: publisher,
		logger:    logger.With().Str("component", "session").Logger(),
		session:   domain.Session{Status: domain.StatusDisconnected},
	}
}

func (o *Orchestrator) log(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &o.logger
}

func (o *Orchestrator) setStatus(status domain.ConnectionStatus) {
	o.mu.Lock()
	o.session.Status = status
	o.mu.Unlock()
	o.metrics.SetStatus(status)
}

// TryConnect resolves a fresh session from the credential file. Any hard failure
// leaves the orchestrator Disconnected; tokens and the player card are optional.
func (o *Orchestrator) TryConnect(ctx context.Context) bool {
	log := o.log(ctx)
	o.setStatus(domain.StatusConnecting)

	creds, err := o.creds.Read()
	if err != nil {
		log.Debug().Err(err).Msg("credentials unavailable")
		o.Disconnect()
		return false
	}

	local, err := o.gw.Local(creds.Port, creds.Password)
	if err != nil {
		log.Warn().Err(err).Msg("failed to build local client")
		o.Disconnect()
		return false
	}

	identity, err := local.Identity(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("failed to fetch player identity")
		o.Disconnect()
		return false
	}

	region, err := local.Region(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to resolve region")
		o.Disconnect()
		return false
	}

	var tokens *domain.AuthTokens
	if t, err := o.gw.AuthTokens(ctx, local); err != nil {
		log.Warn().Err(err).Msg("connected without auth tokens")
	} else {
		tokens = &t
		if card, err := o.gw.Regional(t, region.Region, region.Shard).PlayerCardID(ctx, identity.Puuid); err != nil {
			log.Debug().Err(err).Msg("player card lookup failed, will retry on health check")
		} else {
			identity.PlayerCardID = &card
		}
	}

	o.mu.Lock()
	o.session = domain.Session{
		Status:     domain.StatusConnected,
		PlayerInfo: &identity,
		Region:     &region.Region,
		Shard:      &region.Shard,
	}
	o.tokens = tokens
	o.local = local
	o.mu.Unlock()
	o.metrics.SetStatus(domain.StatusConnected)

	log.Info().
		Str("puuid", identity.Puuid).
		Str("region", region.Region).
		Str("shard", region.Shard).
		Bool("tokens", tokens != nil).
		Time("tokens_expire_at", tokenExpiry(tokens)).
		Msg("connected")
	return true
}

// HealthCheck confirms the local session is still live and refreshes tokens.
// A false result means the caller should Disconnect.
func (o *Orchestrator) HealthCheck(ctx context.Context) bool {
	log := o.log(ctx)
	snap := o.Snapshot()
	if snap.Local == nil || snap.Session.PlayerInfo == nil {
		return false
	}
	puuid := snap.Session.PlayerInfo.Puuid

	identity, err := snap.Local.Identity(ctx)
	if err != nil {
		log.Info().Err(err).Msg("local session lost")
		return false
	}
	if identity.Puuid != puuid {
		log.Info().Str("puuid", identity.Puuid).Msg("account changed, reconnecting")
		return false
	}

	tokens := snap.Tokens
	if t, err := o.gw.AuthTokens(ctx, snap.Local); err != nil {
		event := log.Debug()
		if tokens != nil && tokens.Expired(time.Now()) {
			event = log.Warn().Time("expired_at", tokens.ExpiresAt)
		}
		event.Err(err).Msg("token refresh failed, keeping previous tokens")
	} else {
		tokens = &t
		o.mu.Lock()
		o.tokens = &t
		o.mu.Unlock()
	}

	if snap.Session.PlayerInfo.PlayerCardID == nil && tokens != nil && snap.Session.Region != nil && snap.Session.Shard != nil {
		card, err := o.gw.Regional(*tokens, *snap.Session.Region, *snap.Session.Shard).PlayerCardID(ctx, puuid)
		if err != nil {
			log.Debug().Err(err).Msg("player card retry failed")
			return true
		}
		o.mu.Lock()
		if info := o.session.PlayerInfo; info != nil && info.Puuid == puuid && info.PlayerCardID == nil {
			info.PlayerCardID = &card
		}
		o.mu.Unlock()
	}

	return true
}

func tokenExpiry(tokens *domain.AuthTokens) time.Time {
	if tokens == nil {
		return time.Time{}
	}
	return tokens.ExpiresAt
}

// Disconnect clears every derived field. Safe to call repeatedly.
func (o *Orchestrator) Disconnect() {
	o.mu.Lock()
	was := o.session.Status
	o.session = domain.Session{Status: domain.StatusDisconnected}
	o.tokens = nil
	o.local = nil
	o.mu.Unlock()
	o.metrics.SetStatus(domain.StatusDisconnected)

	if was == domain.StatusConnected {
		o.logger.Info().Msg("disconnected")
	}
}

func (o *Orchestrator) State() domain.Session {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.session.Clone()
}

func (o *Orchestrator) currentTokens() (domain.AuthTokens, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.tokens == nil {
		return domain.AuthTokens{}, false
	}
	return *o.tokens, true
}

func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	snap := Snapshot{Session: o.session.Clone(), Local: o.local}
	if o.tokens != nil {
		tokens := *o.tokens
		snap.Tokens = &tokens
	}
	return snap
}

const cycleKey = "cycle"

// Refresh runs one connect or health cycle now. Concurrent callers, including
// the background loop, share a single in-flight cycle. The cycle is detached
// from ctx, so a caller that gives up only stops waiting for it.
func (o *Orchestrator) Refresh(ctx context.Context) domain.Session {
	done := o.cycles.DoChan(cycleKey, func() (any, error) {
		o.cycle(context.WithoutCancel(ctx))
		return nil, nil
	})
	select {
	case <-done:
	case <-ctx.Done():
	}
	return o.State()
}

func (o *Orchestrator) loopCycle(ctx context.Context) {
	_, _, _ = o.cycles.Do(cycleKey, func() (any, error) {
		o.cycle(ctx)
		return nil, nil
	})
}

func (o *Orchestrator) cycle(base context.Context) {
	cycleID, err := gonanoid.New()
	if err != nil {
		cycleID = "unknown"
	}
	log := o.logger.With().Str("cycle_id", cycleID).Logger()

	ctx, cancel := context.WithTimeout(base, constants.CycleTimeout)
	defer cancel()
	ctx = log.WithContext(ctx)

	if o.State().Status == domain.StatusConnected {
		ok := o.HealthCheck(ctx)
		if !ok && base.Err() != nil {
			// the owner went away mid-check; that says nothing about the client
			log.Debug().Err(base.Err()).Msg("health check interrupted, keeping session")
			return
		}
		o.metrics.Cycle("health", ok)
		if !ok {
			o.Disconnect()
		}
		return
	}

	ok := o.TryConnect(ctx)
	o.metrics.Cycle("connect", ok)
}

// Run drives the reconnect and health loop until ctx is done.
func (o *Orchestrator) Run(ctx context.Context) {
	interval := o.cfg.TickInterval
	if interval <= 0 {
		interval = constants.TickInterval
	}

	o.logger.Info().Dur("interval", interval).Msg("session loop started")
	defer o.logger.Info().Msg("session loop stopped")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		o.loopCycle(ctx)
		o.tickPresence()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (o *Orchestrator) tickPresence() {
	if o.publisher == nil {
		return
	}

	every := o.cfg.Presence.Every
	if every <= 0 {
		every = constants.PresenceEvery
	}

	o.ticks++
	if o.ticks%every != 0 {
		return
	}

	var err error
	if o.cfg.Presence.Enabled {
		err = o.publisher.Update(o.cfg.Presence.Details, o.cfg.Presence.State)
	} else {
		err = o.publisher.Clear()
	}
	if err != nil {
		o.logger.Warn().Err(err).Msg("presence update failed")
	}
}
