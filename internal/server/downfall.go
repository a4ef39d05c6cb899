package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"

	"downfall/internal/api"
	"downfall/internal/domain"
	"downfall/internal/service"
)

const ServicePath = "/downfall.v1.Downfall/"

// StateSource is the session orchestrator as seen by the RPC layer.
type StateSource interface {
	State() domain.Session
	Refresh(ctx context.Context) domain.Session
}

type DownfallServer struct {
	state    StateSource
	players  *service.PlayerService
	matches  *service.MatchService
	parties  *service.PartyService
	friends  *service.FriendService
	commands *service.CommandService
}

func NewDownfallServer(
	state StateSource,
	players *service.PlayerService,
	matches *service.MatchService,
	parties *service.PartyService,
	friends *service.FriendService,
	commands *service.CommandService,
) *DownfallServer {
	return &DownfallServer{
		state:    state,
		players:  players,
		matches:  matches,
		parties:  parties,
		friends:  friends,
		commands: commands,
	}
}

// toConnectError maps service errors onto connect codes so the UI can tell a
// missing session apart from an upstream rejection.
func toConnectError(err error) error {
	var statusErr *api.StatusError
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, service.ErrNotConnected),
		errors.Is(err, service.ErrNoRegion),
		errors.Is(err, service.ErrNoShard),
		errors.Is(err, service.ErrNoTokens):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.As(err, &statusErr):
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

func reply[T any](msg *T, err error) (*connect.Response[T], error) {
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(msg), nil
}

func (s *DownfallServer) GetState(_ context.Context, _ *connect.Request[Empty]) (*connect.Response[StateResponse], error) {
	return reply(&StateResponse{Session: s.state.State()}, nil)
}

func (s *DownfallServer) Reconnect(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[StateResponse], error) {
	return reply(&StateResponse{Session: s.state.Refresh(ctx)}, nil)
}

func (s *DownfallServer) GetProfile(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[ProfileResponse], error) {
	profile, err := s.players.GetProfile(ctx)
	return reply(&ProfileResponse{Profile: profile}, err)
}

func (s *DownfallServer) GetAgents(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[AgentsResponse], error) {
	agents, err := s.players.GetAgents(ctx)
	return reply(&AgentsResponse{Agents: agents}, err)
}

func (s *DownfallServer) GetPregame(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[PregameResponse], error) {
	pregame, err := s.matches.GetPregame(ctx)
	return reply(&PregameResponse{Pregame: pregame}, err)
}

func (s *DownfallServer) GetLiveMatch(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[LiveMatchResponse], error) {
	match, err := s.matches.GetLiveMatch(ctx)
	return reply(&LiveMatchResponse{Match: match}, err)
}

func (s *DownfallServer) GetCurrentMatch(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[CurrentMatchResponse], error) {
	match, err := s.matches.GetCurrentMatch(ctx)
	return reply(&CurrentMatchResponse{Match: match}, err)
}

func (s *DownfallServer) GetParty(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[PartyResponse], error) {
	party, err := s.parties.GetParty(ctx)
	return reply(&PartyResponse{Party: party}, err)
}

func (s *DownfallServer) GetFriends(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[FriendsResponse], error) {
	friends, err := s.friends.GetFriends(ctx)
	return reply(&FriendsResponse{Friends: friends}, err)
}

func (s *DownfallServer) InstaLock(ctx context.Context, req *connect.Request[InstaLockRequest]) (*connect.Response[Empty], error) {
	return reply(&Empty{}, s.commands.InstaLock(ctx, req.Msg.MatchID, req.Msg.AgentID))
}

func (s *DownfallServer) Dodge(ctx context.Context, req *connect.Request[DodgeRequest]) (*connect.Response[Empty], error) {
	return reply(&Empty{}, s.commands.Dodge(ctx, req.Msg.MatchID))
}

func (s *DownfallServer) PartyInvite(ctx context.Context, req *connect.Request[PartyInviteRequest]) (*connect.Response[Empty], error) {
	return reply(&Empty{}, s.commands.PartyInvite(ctx, req.Msg.PartyID, req.Msg.Name, req.Msg.Tag))
}

func (s *DownfallServer) PartyKick(ctx context.Context, req *connect.Request[PartyMemberRequest]) (*connect.Response[Empty], error) {
	return reply(&Empty{}, s.commands.PartyKick(ctx, req.Msg.PartyID, req.Msg.Puuid))
}

func (s *DownfallServer) PartyPromote(ctx context.Context, req *connect.Request[PartyMemberRequest]) (*connect.Response[Empty], error) {
	return reply(&Empty{}, s.commands.PartyPromote(ctx, req.Msg.PartyID, req.Msg.Puuid))
}

func (s *DownfallServer) PartyAccept(ctx context.Context, req *connect.Request[PartyRequest]) (*connect.Response[Empty], error) {
	return reply(&Empty{}, s.commands.PartyAccept(ctx, req.Msg.PartyID))
}

func (s *DownfallServer) PartyDecline(ctx context.Context, req *connect.Request[PartyDeclineRequest]) (*connect.Response[Empty], error) {
	return reply(&Empty{}, s.commands.PartyDecline(ctx, req.Msg.PartyID, req.Msg.RequestID))
}

func (s *DownfallServer) PartySetAccessibility(ctx context.Context, req *connect.Request[PartyAccessibilityRequest]) (*connect.Response[Empty], error) {
	return reply(&Empty{}, s.commands.PartySetAccessibility(ctx, req.Msg.PartyID, req.Msg.Open))
}

func (s *DownfallServer) PartySetReady(ctx context.Context, req *connect.Request[PartyReadyRequest]) (*connect.Response[Empty], error) {
	return reply(&Empty{}, s.commands.PartySetReady(ctx, req.Msg.PartyID, req.Msg.Ready))
}

func (s *DownfallServer) PartyQueue(ctx context.Context, req *connect.Request[PartyQueueRequest]) (*connect.Response[Empty], error) {
	return reply(&Empty{}, s.commands.PartyQueue(ctx, req.Msg.PartyID, req.Msg.Start))
}

func (s *DownfallServer) PartySetQueue(ctx context.Context, req *connect.Request[PartySetQueueRequest]) (*connect.Response[Empty], error) {
	return reply(&Empty{}, s.commands.PartySetQueue(ctx, req.Msg.PartyID, req.Msg.QueueID))
}

func (s *DownfallServer) PartyGenerateCode(ctx context.Context, req *connect.Request[PartyRequest]) (*connect.Response[InviteCodeResponse], error) {
	code, err := s.commands.PartyGenerateCode(ctx, req.Msg.PartyID)
	return reply(&InviteCodeResponse{InviteCode: code}, err)
}

func (s *DownfallServer) PartyDisableCode(ctx context.Context, req *connect.Request[PartyRequest]) (*connect.Response[Empty], error) {
	return reply(&Empty{}, s.commands.PartyDisableCode(ctx, req.Msg.PartyID))
}

func route[Req, Res any](mux *http.ServeMux, method string, fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error), opts []connect.HandlerOption) {
	procedure := ServicePath + method
	mux.Handle(procedure, connect.NewUnaryHandler(procedure, fn, opts...))
}

// NewHandler mounts every procedure under ServicePath, mirroring what generated
// connect code returns.
func NewHandler(s *DownfallServer, logger zerolog.Logger, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{
		connect.WithCodec(jsonCodec{}),
		connect.WithInterceptors(loggingInterceptor(logger)),
	}, opts...)

	mux := http.NewServeMux()
	route(mux, "GetState", s.GetState, opts)
	route(mux, "Reconnect", s.Reconnect, opts)
	route(mux, "GetProfile", s.GetProfile, opts)
	route(mux, "GetAgents", s.GetAgents, opts)
	route(mux, "GetPregame", s.GetPregame, opts)
	route(mux, "GetLiveMatch", s.GetLiveMatch, opts)
	route(mux, "GetCurrentMatch", s.GetCurrentMatch, opts)
	route(mux, "GetParty", s.GetParty, opts)
	route(mux, "GetFriends", s.GetFriends, opts)
	route(mux, "InstaLock", s.InstaLock, opts)
	route(mux, "Dodge", s.Dodge, opts)
	route(mux, "PartyInvite", s.PartyInvite, opts)
	route(mux, "PartyKick", s.PartyKick, opts)
	route(mux, "PartyPromote", s.PartyPromote, opts)
	route(mux, "PartyAccept", s.PartyAccept, opts)
	route(mux, "PartyDecline", s.PartyDecline, opts)
	route(mux, "PartySetAccessibility", s.PartySetAccessibility, opts)
	route(mux, "PartySetReady", s.PartySetReady, opts)
	route(mux, "PartyQueue", s.PartyQueue, opts)
	route(mux, "PartySetQueue", s.PartySetQueue, opts)
	route(mux, "PartyGenerateCode", s.PartyGenerateCode, opts)
	route(mux, "PartyDisableCode", s.PartyDisableCode, opts)

	return ServicePath, mux
}

func loggingInterceptor(logger zerolog.Logger) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			log := zerolog.Ctx(ctx)
			if log.GetLevel() == zerolog.Disabled {
				log = &logger
			}
			event := log.Debug()
			if err != nil {
				event = log.Warn().Err(err).Str("code", connect.CodeOf(err).String())
			}
			event.
				Str("procedure", req.Spec().Procedure).
				Dur("took", time.Since(start)).
				Msg("rpc")

			return resp, err
		}
	}
}
