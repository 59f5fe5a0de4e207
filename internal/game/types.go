package game

import (
	"fmt"
	"time"
)

const (
	StateFilling  = "filling"
	StateRevealed = "revealed"
)

type Game struct {
	Code         string
	Question     string
	Capacity     int
	Participants []Participant
	Submissions  map[string]Submission
	Revealed     bool
	CreatedAt    time.Time
	Version      int64
}

type Participant struct {
	ID          string
	DisplayName string
	ColorTag    string
	JoinedAt    time.Time
}

type Submission struct {
	Owner       string
	Content     string
	SubmittedAt time.Time
}

func (g *Game) State() string {
	if g.Revealed {
		return StateRevealed
	}
	return StateFilling
}

func (g *Game) Participant(id string) (Participant, bool) {
	for _, p := range g.Participants {
		if p.ID == id {
			return p, true
		}
	}
	return Participant{}, false
}

func (g *Game) HasSubmitted(id string) bool {
	_, ok := g.Submissions[id]
	return ok
}

func (g *Game) Full() bool {
	return len(g.Participants) >= g.Capacity
}

// Clone returns a deep copy; stores hand clones to update functions so a
// rejected update never leaks into the stored record.
func (g *Game) Clone() *Game {
	out := *g
	out.Participants = append([]Participant(nil), g.Participants...)
	out.Submissions = make(map[string]Submission, len(g.Submissions))
	for id, sub := range g.Submissions {
		out.Submissions[id] = sub
	}
	return &out
}

func (g *Game) checkInvariants() error {
	if len(g.Participants) > g.Capacity {
		return fmt.Errorf("%d participants exceed capacity %d", len(g.Participants), g.Capacity)
	}
	seen := make(map[string]struct{}, len(g.Participants))
	for _, p := range g.Participants {
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("participant %s present twice", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	for id, sub := range g.Submissions {
		if _, ok := seen[id]; !ok {
			return fmt.Errorf("submission owner %s is not a participant", id)
		}
		if sub.Owner != id {
			return fmt.Errorf("submission keyed %s owned by %s", id, sub.Owner)
		}
	}
	return nil
}

// Snapshot is the public view of a game. Submission content is never part of it.
type Snapshot struct {
	Code             string              `json:"code"`
	Question         string              `json:"question"`
	State            string              `json:"state"`
	ParticipantCount int                 `json:"participantCount"`
	Capacity         int                 `json:"capacity"`
	SubmissionCount  int                 `json:"submissionCount"`
	Revealed         bool                `json:"revealed"`
	CanJoin          bool                `json:"canJoin"`
	Participants     []PublicParticipant `json:"participants"`
	CreatedAt        time.Time           `json:"createdAt"`
	Version          int64               `json:"version"`
}

// PublicParticipant omits the participant id, which doubles as the
// credential for submitting.
type PublicParticipant struct {
	DisplayName  string `json:"displayName"`
	ColorTag     string `json:"colorTag"`
	HasSubmitted bool   `json:"hasSubmitted"`
}

func snapshotOf(g *Game) Snapshot {
	participants := make([]PublicParticipant, 0, len(g.Participants))
	for _, p := range g.Participants {
		participants = append(participants, PublicParticipant{
			DisplayName:  p.DisplayName,
			ColorTag:     p.ColorTag,
			HasSubmitted: g.HasSubmitted(p.ID),
		})
	}
	return Snapshot{
		Code:             g.Code,
		Question:         g.Question,
		State:            g.State(),
		ParticipantCount: len(g.Participants),
		Capacity:         g.Capacity,
		SubmissionCount:  len(g.Submissions),
		Revealed:         g.Revealed,
		CanJoin:          !g.Revealed && !g.Full(),
		Participants:     participants,
		CreatedAt:        g.CreatedAt,
		Version:          g.Version,
	}
}

type RevealPair struct {
	Participant RevealedParticipant `json:"participant"`
	Submission  RevealedSubmission  `json:"submission"`
}

type RevealedParticipant struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	ColorTag    string    `json:"colorTag"`
	JoinedAt    time.Time `json:"joinedAt"`
}

type RevealedSubmission struct {
	Content     string    `json:"content"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// revealPairs pairs submissions with their owners in join order. Submissions
// whose owner does not resolve are skipped.
func revealPairs(g *Game) []RevealPair {
	pairs := make([]RevealPair, 0, len(g.Submissions))
	for _, p := range g.Participants {
		sub, ok := g.Submissions[p.ID]
		if !ok {
			continue
		}
		pairs = append(pairs, RevealPair{
			Participant: RevealedParticipant{
				ID:          p.ID,
				DisplayName: p.DisplayName,
				ColorTag:    p.ColorTag,
				JoinedAt:    p.JoinedAt,
			},
			Submission: RevealedSubmission{
				Content:     sub.Content,
				SubmittedAt: sub.SubmittedAt,
			},
		})
	}
	return pairs
}
