package game

// Event names delivered to room subscribers.
const (
	EventParticipantUpdate = "participant_update"
	EventSubmissionUpdate  = "submission_update"
	EventRevealed          = "revealed"
	EventGameState         = "game_state"
)

// Notification is an event the caller must fan out to the game's room.
type Notification struct {
	Name    string
	Payload any
}

type CountUpdate struct {
	Count int `json:"count"`
	Total int `json:"total"`
}

type RevealPayload struct {
	Pairs []RevealPair `json:"pairs"`
}

type GameState struct {
	ParticipantCount int  `json:"participantCount"`
	Capacity         int  `json:"capacity"`
	SubmissionCount  int  `json:"submissionCount"`
	Revealed         bool `json:"revealed"`
}

// Dispatch groups the notifications produced by one committed mutation.
// Version is the game version that mutation produced.
type Dispatch struct {
	Code          string
	Version       int64
	Notifications []Notification
}

func (d Dispatch) Empty() bool {
	return len(d.Notifications) == 0
}

func gameStateOf(g *Game) GameState {
	return GameState{
		ParticipantCount: len(g.Participants),
		Capacity:         g.Capacity,
		SubmissionCount:  len(g.Submissions),
		Revealed:         g.Revealed,
	}
}

// SubscribeEvents returns the events a freshly subscribed connection receives
// before any live notification: the current game_state and, once revealed,
// the full reveal payload.
func SubscribeEvents(g *Game) []Notification {
	events := []Notification{{Name: EventGameState, Payload: gameStateOf(g)}}
	if g.Revealed {
		events = append(events, Notification{Name: EventRevealed, Payload: RevealPayload{Pairs: revealPairs(g)}})
	}
	return events
}
