package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"crystal-ball/internal/db"
	"crystal-ball/internal/game"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Entry is one journaled notification.
type Entry struct {
	ID        uint           `json:"id"`
	Type      string         `json:"type"`
	Version   int64          `json:"version"`
	Payload   datatypes.JSON `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}

// Journal appends every notification of a committed mutation to the events
// table, stamped with the game version that produced it.
type Journal struct {
	db  *gorm.DB
	now func() time.Time
}

func NewJournal(conn *gorm.DB) *Journal {
	return &Journal{
		db:  conn,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (j *Journal) Record(ctx context.Context, dispatch game.Dispatch) error {
	if dispatch.Empty() {
		return nil
	}
	now := j.now()
	records := make([]db.Event, 0, len(dispatch.Notifications))
	for _, n := range dispatch.Notifications {
		data, err := json.Marshal(n.Payload)
		if err != nil {
			return fmt.Errorf("encode %s payload: %w", n.Name, err)
		}
		records = append(records, db.Event{
			GameCode:  dispatch.Code,
			Version:   dispatch.Version,
			Type:      n.Name,
			Payload:   datatypes.JSON(data),
			CreatedAt: now,
		})
	}
	return j.db.WithContext(ctx).Create(&records).Error
}

func (j *Journal) List(ctx context.Context, code string) ([]Entry, error) {
	var records []db.Event
	if err := j.db.WithContext(ctx).
		Where("game_code = ?", code).
		Order("version asc, id asc").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("%w: %w", game.ErrPersistence, err)
	}
	entries := make([]Entry, 0, len(records))
	for _, record := range records {
		entries = append(entries, Entry{
			ID:        record.ID,
			Type:      record.Type,
			Version:   record.Version,
			Payload:   record.Payload,
			CreatedAt: record.CreatedAt.UTC(),
		})
	}
	return entries, nil
}
