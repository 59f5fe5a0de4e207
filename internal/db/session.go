package db

import "time"

type Session struct {
	Token         string    `gorm:"primaryKey;size:64"`
	GameCode      string    `gorm:"primaryKey;size:12"`
	ParticipantID string    `gorm:"size:64;not null"`
	DisplayName   string    `gorm:"size:256;not null"`
	ExpiresAt     time.Time `gorm:"index;not null"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}
