package api

import "strings"

// local client

type ChatSessionResponse struct {
	Puuid    string `json:"puuid"`
	GameName string `json:"game_name"`
	GameTag  string `json:"game_tag"`
}

type ExternalSession struct {
	Version             string `json:"version"`
	LaunchConfiguration struct {
		Arguments []any `json:"arguments"`
	} `json:"launchConfiguration"`
}

const deploymentFlag = "-ares-deployment="

// DeploymentRegion returns the region named by the -ares-deployment launch flag, if any.
func (s ExternalSession) DeploymentRegion() string {
	region := ""
	for _, arg := range s.LaunchConfiguration.Arguments {
		str, ok := arg.(string)
		if ok && strings.HasPrefix(str, deploymentFlag) {
			region = strings.TrimPrefix(str, deploymentFlag)
		}
	}
	return region
}

type RegionLocaleResponse struct {
	Region string `json:"region"`
	Locale string `json:"locale"`
}

type EntitlementsTokenResponse struct {
	AccessToken string `json:"accessToken"`
	Token       string `json:"token"`
	Subject     string `json:"subject"`
}

type FriendsResponse struct {
	Friends []FriendEntry `json:"friends"`
}

type FriendEntry struct {
	Puuid    string `json:"puuid"`
	GameName string `json:"game_name"`
	GameTag  string `json:"game_tag"`
}

type PresencesResponse struct {
	Presences []PresenceEntry `json:"presences"`
}

type PresenceEntry struct {
	Puuid string `json:"puuid"`
	State string `json:"state"`

	// base64 encoded JSON, see PresencePrivate
	Private string `json:"private"`
}

type PresencePrivate struct {
	PlayerCardID    string `json:"playerCardId"`
	MatchMap        string `json:"matchMap"`
	QueueID         string `json:"queueId"`
	CompetitiveTier int    `json:"competitiveTier"`
}

// public metadata

type VersionResponse struct {
	Data struct {
		RiotClientVersion string `json:"riotClientVersion"`
	} `json:"data"`
}

type AgentsResponse struct {
	Data []AgentEntry `json:"data"`
}

type AgentEntry struct {
	UUID          string `json:"uuid"`
	DisplayName   string `json:"displayName"`
	DisplayIcon   string `json:"displayIcon"`
	IsBaseContent bool   `json:"isBaseContent"`
	Role          *struct {
		DisplayName string `json:"displayName"`
		DisplayIcon string `json:"displayIcon"`
	} `json:"role"`
}

// PD

type AccountXPResponse struct {
	Progress struct {
		Level *int `json:"Level"`
		XP    int  `json:"XP"`
	} `json:"Progress"`
}

type MMRResponse struct {
	LatestCompetitiveUpdate struct {
		TierAfterUpdate         int `json:"TierAfterUpdate"`
		RankedRatingAfterUpdate int `json:"RankedRatingAfterUpdate"`
		LeaderboardRank         int `json:"LeaderboardRank"`
	} `json:"LatestCompetitiveUpdate"`
	QueueSkills map[string]QueueSkill `json:"QueueSkills"`
}

type QueueSkill struct {
	SeasonalInfoBySeasonID map[string]SeasonalInfo `json:"SeasonalInfoBySeasonID"`
}

type SeasonalInfo struct {
	CompetitiveTier int `json:"CompetitiveTier"`
	NumberOfWins    int `json:"NumberOfWins"`
	NumberOfGames   int `json:"NumberOfGames"`
}

type CompetitiveUpdatesResponse struct {
	Matches []CompetitiveUpdate `json:"Matches"`
}

type CompetitiveUpdate struct {
	MatchID                  string `json:"MatchID"`
	MapID                    string `json:"MapID"`
	TierBeforeUpdate         int    `json:"TierBeforeUpdate"`
	TierAfterUpdate          int    `json:"TierAfterUpdate"`
	RankedRatingBeforeUpdate int    `json:"RankedRatingBeforeUpdate"`
	RankedRatingAfterUpdate  int    `json:"RankedRatingAfterUpdate"`
	MatchStartTime           int64  `json:"MatchStartTime"`
}

type MatchDetailsResponse struct {
	Players []MatchDetailsPlayer `json:"players"`
	Teams   []MatchDetailsTeam   `json:"teams"`
}

type MatchDetailsPlayer struct {
	Subject string `json:"subject"`
	TeamID  string `json:"teamId"`
	Stats   *struct {
		Kills   int `json:"kills"`
		Deaths  int `json:"deaths"`
		Assists int `json:"assists"`
		Score   int `json:"score"`
	} `json:"stats"`
}

type MatchDetailsTeam struct {
	TeamID    string `json:"teamId"`
	RoundsWon int    `json:"roundsWon"`
}

type EntitlementsResponse struct {
	Entitlements []struct {
		ItemID string `json:"ItemID"`
	} `json:"Entitlements"`
}

type NameServiceEntry struct {
	Subject  string `json:"Subject"`
	GameName string `json:"GameName"`
	TagLine  string `json:"TagLine"`
}

type PlayerLoadoutResponse struct {
	Identity struct {
		PlayerCardID string `json:"PlayerCardID"`
	} `json:"Identity"`
}

// GLZ

type MatchPointer struct {
	MatchID string `json:"MatchID"`
}

type PlayerIdentityBlock struct {
	Incognito    bool   `json:"Incognito"`
	AccountLevel int    `json:"AccountLevel"`
	PlayerCardID string `json:"PlayerCardID"`
}

type PregameMatchResponse struct {
	ID       string `json:"ID"`
	MapID    string `json:"MapID"`
	QueueID  string `json:"QueueID"`
	AllyTeam *struct {
		TeamID  string              `json:"TeamID"`
		Players []PregameTeamPlayer `json:"Players"`
	} `json:"AllyTeam"`
}

type PregameTeamPlayer struct {
	Subject                 string              `json:"Subject"`
	CharacterID             string              `json:"CharacterID"`
	CharacterSelectionState string              `json:"CharacterSelectionState"`
	CompetitiveTier         int                 `json:"CompetitiveTier"`
	PlayerIdentity          PlayerIdentityBlock `json:"PlayerIdentity"`
}

type CoreGameMatchResponse struct {
	MatchID         string `json:"MatchID"`
	MapID           string `json:"MapID"`
	MatchmakingData *struct {
		QueueID string `json:"QueueID"`
	} `json:"MatchmakingData"`
	Players []CoreGamePlayer `json:"Players"`
}

type CoreGamePlayer struct {
	Subject        string              `json:"Subject"`
	TeamID         string              `json:"TeamID"`
	CharacterID    string              `json:"CharacterID"`
	PlayerIdentity PlayerIdentityBlock `json:"PlayerIdentity"`
}

type PartyPlayerResponse struct {
	Subject        string         `json:"Subject"`
	CurrentPartyID string         `json:"CurrentPartyID"`
	Requests       []PartyRequest `json:"Requests"`
}

type PartyRequest struct {
	ID                 string `json:"ID"`
	PartyID            string `json:"PartyID"`
	RequestedBySubject string `json:"RequestedBySubject"`
}

type PartyResponse struct {
	ID              string        `json:"ID"`
	Members         []PartyMember `json:"Members"`
	State           string        `json:"State"`
	Accessibility   string        `json:"Accessibility"`
	InviteCode      string        `json:"InviteCode"`
	EligibleQueues  []string      `json:"EligibleQueues"`
	MatchmakingData *struct {
		QueueID string `json:"QueueID"`
	} `json:"MatchmakingData"`
}

type PartyMember struct {
	Subject         string              `json:"Subject"`
	CompetitiveTier int                 `json:"CompetitiveTier"`
	PlayerIdentity  PlayerIdentityBlock `json:"PlayerIdentity"`
	IsOwner         bool                `json:"IsOwner"`
	IsReady         bool                `json:"IsReady"`
	IsModerator     bool                `json:"IsModerator"`
	Pings           []struct {
		Ping int `json:"Ping"`
	} `json:"Pings"`
}

type InviteCodeResponse struct {
	InviteCode string `json:"InviteCode"`
}
