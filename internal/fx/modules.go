package fx

import (
	"downfall/internal/api"
	"downfall/internal/config"
	"downfall/internal/lockfile"
	"downfall/internal/logger"
	"downfall/internal/metrics"
	"downfall/internal/presence"
	"downfall/internal/server"
	"downfall/internal/service"
	"downfall/internal/session"

	"go.uber.org/fx"
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	metrics.Module,
	// upstream
	fx.Provide(api.NewGateway),
	fx.Provide(fx.Annotate(lockfile.NewReader, fx.As(new(session.CredentialSource)))),
	fx.Provide(fx.Annotate(presence.NewLogPublisher, fx.As(new(presence.Publisher)))),
	// session
	fx.Provide(fx.Annotate(
		session.NewOrchestrator,
		fx.As(fx.Self()),
		fx.As(new(service.SessionSource)),
		fx.As(new(server.StateSource)),
	)),
	// svc
	fx.Provide(service.NewPlayerService),
	fx.Provide(service.NewMatchService),
	fx.Provide(service.NewPartyService),
	fx.Provide(service.NewFriendService),
	fx.Provide(service.NewCommandService),
	// server
	fx.Provide(server.NewDownfallServer),
)
