package db

import (
	"time"

	"gorm.io/datatypes"
)

type Game struct {
	ID           uint                                      `gorm:"primaryKey"`
	Code         string                                    `gorm:"size:12;uniqueIndex;not null"`
	Question     string                                    `gorm:"type:text;not null"`
	Capacity     int                                       `gorm:"not null"`
	Participants datatypes.JSONType[[]Participant]         `gorm:"type:jsonb;not null"`
	Submissions  datatypes.JSONType[map[string]Submission] `gorm:"type:jsonb;not null"`
	Revealed     bool                                      `gorm:"not null;default:false"`
	Version      int64                                     `gorm:"not null;default:1"`
	CreatedAt    time.Time                                 `gorm:"not null"`
	UpdatedAt    time.Time                                 `gorm:"not null"`
}

// Participant is the jsonb element stored in games.participants, in join order.
type Participant struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	ColorTag    string    `json:"color_tag"`
	JoinedAt    time.Time `json:"joined_at"`
}

type Submission struct {
	Owner       string    `json:"owner"`
	Content     string    `json:"content"`
	SubmittedAt time.Time `json:"submitted_at"`
}
