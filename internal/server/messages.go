package server

import "downfall/internal/domain"

type Empty struct{}

type StateResponse struct {
	Session domain.Session `json:"session"`
}

type ProfileResponse struct {
	Profile *domain.PlayerProfile `json:"profile"`
}

type AgentsResponse struct {
	Agents []domain.AgentInfo `json:"agents"`
}

type PregameResponse struct {
	Pregame *domain.PregameState `json:"pregame"`
}

type LiveMatchResponse struct {
	Match *domain.LiveMatch `json:"match"`
}

type CurrentMatchResponse struct {
	Match *domain.CurrentMatch `json:"match"`
}

type PartyResponse struct {
	Party *domain.PartyState `json:"party"`
}

type FriendsResponse struct {
	Friends []domain.Friend `json:"friends"`
}

type InstaLockRequest struct {
	MatchID string `json:"matchId"`
	AgentID string `json:"agentId"`
}

type DodgeRequest struct {
	MatchID string `json:"matchId"`
}

type PartyRequest struct {
	PartyID string `json:"partyId"`
}

type PartyInviteRequest struct {
	PartyID string `json:"partyId"`
	Name    string `json:"name"`
	Tag     string `json:"tag"`
}

type PartyMemberRequest struct {
	PartyID string `json:"partyId"`
	Puuid   string `json:"puuid"`
}

type PartyDeclineRequest struct {
	PartyID   string `json:"partyId"`
	RequestID string `json:"requestId"`
}

type PartyAccessibilityRequest struct {
	PartyID string `json:"partyId"`
	Open    bool   `json:"open"`
}

type PartyReadyRequest struct {
	PartyID string `json:"partyId"`
	Ready   bool   `json:"ready"`
}

type PartyQueueRequest struct {
	PartyID string `json:"partyId"`
	Start   bool   `json:"start"`
}

type PartySetQueueRequest struct {
	PartyID string `json:"partyId"`
	QueueID string `json:"queueId"`
}

type InviteCodeResponse struct {
	InviteCode string `json:"inviteCode"`
}
