package server

import (
	"crystal-ball/internal/game"
	"crystal-ball/internal/storage"
)

type gameURI struct {
	Code string `uri:"code" binding:"required,gamecode"`
}

type createGameRequest struct {
	Question string `json:"question" binding:"required,safetext"`
	Capacity int    `json:"capacity"`
}

// joinRequest may omit displayName when the session token rejoins.
type joinRequest struct {
	DisplayName  string `json:"displayName"`
	SessionToken string `json:"sessionToken"`
}

type predictionRequest struct {
	ParticipantID string `json:"participantId"`
	Content       string `json:"content"`
}

type createGameResponse struct {
	Code     string        `json:"code"`
	Snapshot game.Snapshot `json:"snapshot"`
}

type joinResponse struct {
	ParticipantID string        `json:"participantId"`
	DisplayName   string        `json:"displayName"`
	ColorTag      string        `json:"colorTag"`
	SessionToken  string        `json:"sessionToken,omitempty"`
	HasSubmitted  bool          `json:"hasSubmitted"`
	Rejoined      bool          `json:"rejoined"`
	Snapshot      game.Snapshot `json:"snapshot"`
}

type predictionResponse struct {
	SubmissionCount  int  `json:"submissionCount"`
	ParticipantCount int  `json:"participantCount"`
	Revealed         bool `json:"revealed"`
}

type revealResponse struct {
	Code  string            `json:"code"`
	Pairs []game.RevealPair `json:"pairs"`
}

type eventsResponse struct {
	Code   string          `json:"code"`
	Events []storage.Entry `json:"events"`
}

var createGameMessages = bindMessages{
	"Question": {
		"required": "question is required",
		"safetext": "question contains unsupported characters",
	},
}
