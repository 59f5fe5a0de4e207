package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crystal-ball/internal/db"
	"crystal-ball/internal/game"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionBinder keeps session bindings in the sessions table. Expired rows
// are removed when they are resolved.
type SessionBinder struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSessionBinder(conn *gorm.DB) *SessionBinder {
	return &SessionBinder{
		db:  conn,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (b *SessionBinder) Bind(ctx context.Context, binding game.Binding) error {
	now := b.now()
	record := db.Session{
		Token:         binding.Token,
		GameCode:      binding.Code,
		ParticipantID: binding.ParticipantID,
		DisplayName:   binding.DisplayName,
		ExpiresAt:     binding.ExpiresAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := b.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}, {Name: "game_code"}},
		DoUpdates: clause.AssignmentColumns([]string{"participant_id", "display_name", "expires_at", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("bind session: %w", err)
	}
	return nil
}

func (b *SessionBinder) Resolve(ctx context.Context, token, code string) (game.Binding, bool, error) {
	var record db.Session
	err := b.db.WithContext(ctx).
		Where("token = ? AND game_code = ?", token, code).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return game.Binding{}, false, nil
	}
	if err != nil {
		return game.Binding{}, false, fmt.Errorf("resolve session: %w", err)
	}
	binding := game.Binding{
		Token:         record.Token,
		Code:          record.GameCode,
		ParticipantID: record.ParticipantID,
		DisplayName:   record.DisplayName,
		ExpiresAt:     record.ExpiresAt.UTC(),
	}
	if binding.Expired(b.now()) {
		if err := b.db.WithContext(ctx).
			Where("token = ? AND game_code = ?", token, code).
			Delete(&db.Session{}).Error; err != nil {
			return game.Binding{}, false, fmt.Errorf("expire session: %w", err)
		}
		return game.Binding{}, false, nil
	}
	return binding, true, nil
}
