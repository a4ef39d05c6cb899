package domain

import (
	"time"
)

type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusConnecting   ConnectionStatus = "connecting"
	StatusConnected    ConnectionStatus = "connected"
)

type Session struct {
	Status     ConnectionStatus `json:"status"`
	PlayerInfo *PlayerIdentity  `json:"playerInfo"`
	Region     *string          `json:"region"`
	Shard      *string          `json:"shard"`
}

// Clone returns a deep copy safe to hand out past the orchestrator lock.
func (s Session) Clone() Session {
	out := Session{Status: s.Status}
	if s.PlayerInfo != nil {
		info := s.PlayerInfo.Clone()
		out.PlayerInfo = &info
	}
	if s.Region != nil {
		region := *s.Region
		out.Region = &region
	}
	if s.Shard != nil {
		shard := *s.Shard
		out.Shard = &shard
	}
	return out
}

type PlayerIdentity struct {
	Puuid        string  `json:"puuid"`
	GameName     string  `json:"gameName"`
	TagLine      string  `json:"tagLine"`
	PlayerCardID *string `json:"playerCardId"`
}

func (p PlayerIdentity) Clone() PlayerIdentity {
	out := p
	if p.PlayerCardID != nil {
		card := *p.PlayerCardID
		out.PlayerCardID = &card
	}
	return out
}

type RegionInfo struct {
	Region string `json:"region"`
	Shard  string `json:"shard"`
}

type AuthTokens struct {
	AccessToken   string
	Entitlements  string
	ClientVersion string
	ExpiresAt     time.Time
}

// Expired reports whether the access token is past its exp claim at now.
// Tokens without a readable expiry never expire locally.
func (t AuthTokens) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

type AccountXP struct {
	Level int `json:"level"`
	XP    int `json:"xp"`
}

type PlayerMMR struct {
	Rank            int    `json:"rank"`
	RR              int    `json:"rr"`
	LeaderboardRank int    `json:"leaderboardRank"`
	PeakRank        int    `json:"peakRank"`
	PeakRankAct     string `json:"peakRankAct"`
	Wins            int    `json:"wins"`
	Games           int    `json:"games"`
}

type CompUpdate struct {
	MatchID    string `json:"matchId"`
	MapID      string `json:"mapId"`
	RankBefore int    `json:"rankBefore"`
	RankAfter  int    `json:"rankAfter"`
	RRBefore   int    `json:"rrBefore"`
	RRAfter    int    `json:"rrAfter"`
	RRChange   int    `json:"rrChange"`
	Timestamp  int64  `json:"timestamp"`
	Kills      int    `json:"kills"`
	Deaths     int    `json:"deaths"`
	Assists    int    `json:"assists"`
	Score      int    `json:"score"`
	RoundsWon  int    `json:"roundsWon"`
	RoundsLost int    `json:"roundsLost"`
}

type PlayerProfile struct {
	Info        PlayerIdentity `json:"info"`
	AccountXP   *AccountXP     `json:"accountXp"`
	MMR         *PlayerMMR     `json:"mmr"`
	CompUpdates []CompUpdate   `json:"compUpdates"`
}

type AgentInfo struct {
	UUID     string `json:"uuid"`
	Name     string `json:"name"`
	Icon     string `json:"icon"`
	Role     string `json:"role"`
	RoleIcon string `json:"roleIcon"`
	Unlocked bool   `json:"unlocked"`
}

type PregameState struct {
	MatchID     string  `json:"matchId"`
	MapID       string  `json:"mapId"`
	MapName     string  `json:"mapName"`
	Locked      bool    `json:"locked"`
	LockedAgent *string `json:"lockedAgent"`
}

type CurrentMatch struct {
	MapID    string `json:"mapId"`
	MapName  string `json:"mapName"`
	QueueID  string `json:"queueId"`
	IsRanked bool   `json:"isRanked"`
}

type MatchPhase string

const (
	PhasePregame MatchPhase = "pregame"
	PhaseIngame  MatchPhase = "ingame"
)

type MatchContext struct {
	MatchID string
	Phase   MatchPhase
}

type LiveMatchPlayer struct {
	Puuid        string `json:"puuid"`
	GameName     string `json:"gameName"`
	TagLine      string `json:"tagLine"`
	TeamID       string `json:"teamId"`
	AgentID      string `json:"agentId"`
	AgentName    string `json:"agentName"`
	AgentIcon    string `json:"agentIcon"`
	Rank         int    `json:"rank"`
	RR           int    `json:"rr"`
	PeakRank     int    `json:"peakRank"`
	AccountLevel int    `json:"accountLevel"`
	Incognito    bool   `json:"incognito"`
	IsSelf       bool   `json:"isSelf"`
}

type LiveMatch struct {
	MatchID    string            `json:"matchId"`
	MapID      string            `json:"mapId"`
	MapName    string            `json:"mapName"`
	QueueID    string            `json:"queueId"`
	Phase      MatchPhase        `json:"phase"`
	IsTeamMode bool              `json:"isTeamMode"`
	AllyTeam   []LiveMatchPlayer `json:"allyTeam"`
	EnemyTeam  []LiveMatchPlayer `json:"enemyTeam"`
}

// RankSnapshot is one cached MMR lookup inside a live match.
type RankSnapshot struct {
	Tier     int
	RR       int
	PeakTier int
}

type PartyMember struct {
	Puuid        string `json:"puuid"`
	GameName     string `json:"gameName"`
	TagLine      string `json:"tagLine"`
	Rank         int    `json:"rank"`
	AccountLevel int    `json:"accountLevel"`
	PlayerCardID string `json:"playerCardId"`
	IsOwner      bool   `json:"isOwner"`
	IsReady      bool   `json:"isReady"`
	IsModerator  bool   `json:"isModerator"`
	Ping         int    `json:"ping"`
}

type PartyInvite struct {
	RequestID string `json:"requestId"`
	PartyID   string `json:"partyId"`
	FromPuuid string `json:"fromPuuid"`
	FromName  string `json:"fromName"`
	FromTag   string `json:"fromTag"`
}

type PartyState struct {
	PartyID        string        `json:"partyId"`
	Members        []PartyMember `json:"members"`
	State          string        `json:"state"`
	Accessibility  string        `json:"accessibility"`
	QueueID        string        `json:"queueId"`
	InviteCode     string        `json:"inviteCode"`
	IsOwner        bool          `json:"isOwner"`
	EligibleQueues []string      `json:"eligibleQueues"`
	Invites        []PartyInvite `json:"invites"`
}

type Friend struct {
	Puuid        string `json:"puuid"`
	GameName     string `json:"gameName"`
	TagLine      string `json:"tagLine"`
	IsOnline     bool   `json:"isOnline"`
	Status       string `json:"status"`
	PlayerCardID string `json:"playerCardId"`
}
