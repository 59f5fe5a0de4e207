package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crystal-ball/internal/db"
	"crystal-ball/internal/game"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

// GameStore keeps games in Postgres. Updates are optimistic: a write only
// lands when the row still carries the version it was read at.
type GameStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGameStore(conn *gorm.DB) *GameStore {
	return &GameStore{
		db:  conn,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *GameStore) Create(ctx context.Context, g *game.Game) error {
	record := toRecord(g)
	record.Version = 1
	record.CreatedAt = g.CreatedAt
	if record.CreatedAt.IsZero() {
		record.CreatedAt = s.now()
	}
	record.UpdatedAt = record.CreatedAt
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return game.ErrCodeTaken
		}
		return fmt.Errorf("%w: %w", game.ErrPersistence, err)
	}
	g.Version = record.Version
	return nil
}

func (s *GameStore) Get(ctx context.Context, code string) (*game.Game, error) {
	record, err := s.load(ctx, code)
	if err != nil {
		return nil, err
	}
	return fromRecord(record), nil
}

func (s *GameStore) Update(ctx context.Context, code string, fn func(g *game.Game) error) (*game.Game, error) {
	record, err := s.load(ctx, code)
	if err != nil {
		return nil, err
	}
	next := fromRecord(record)
	if err := fn(next); err != nil {
		return nil, err
	}
	updated := toRecord(next)
	result := s.db.WithContext(ctx).
		Model(&db.Game{}).
		Where("code = ? AND version = ?", code, record.Version).
		Updates(map[string]any{
			"participants": updated.Participants,
			"submissions":  updated.Submissions,
			"revealed":     updated.Revealed,
			"version":      record.Version + 1,
			"updated_at":   s.now(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("%w: %w", game.ErrPersistence, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, game.ErrConflict
	}
	next.Version = record.Version + 1
	return next, nil
}

func (s *GameStore) load(ctx context.Context, code string) (db.Game, error) {
	var record db.Game
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Game{}, game.ErrNotFound
	}
	if err != nil {
		return db.Game{}, fmt.Errorf("%w: %w", game.ErrPersistence, err)
	}
	return record, nil
}

func toRecord(g *game.Game) db.Game {
	participants := make([]db.Participant, 0, len(g.Participants))
	for _, p := range g.Participants {
		participants = append(participants, db.Participant{
			ID:          p.ID,
			DisplayName: p.DisplayName,
			ColorTag:    p.ColorTag,
			JoinedAt:    p.JoinedAt,
		})
	}
	submissions := make(map[string]db.Submission, len(g.Submissions))
	for id, sub := range g.Submissions {
		submissions[id] = db.Submission{
			Owner:       sub.Owner,
			Content:     sub.Content,
			SubmittedAt: sub.SubmittedAt,
		}
	}
	return db.Game{
		Code:         g.Code,
		Question:     g.Question,
		Capacity:     g.Capacity,
		Participants: datatypes.NewJSONType(participants),
		Submissions:  datatypes.NewJSONType(submissions),
		Revealed:     g.Revealed,
		Version:      g.Version,
	}
}

func fromRecord(record db.Game) *game.Game {
	g := &game.Game{
		Code:         record.Code,
		Question:     record.Question,
		Capacity:     record.Capacity,
		Participants: make([]game.Participant, 0, len(record.Participants.Data())),
		Submissions:  make(map[string]game.Submission, len(record.Submissions.Data())),
		Revealed:     record.Revealed,
		CreatedAt:    record.CreatedAt.UTC(),
		Version:      record.Version,
	}
	for _, p := range record.Participants.Data() {
		g.Participants = append(g.Participants, game.Participant{
			ID:          p.ID,
			DisplayName: p.DisplayName,
			ColorTag:    p.ColorTag,
			JoinedAt:    p.JoinedAt.UTC(),
		})
	}
	for id, sub := range record.Submissions.Data() {
		g.Submissions[id] = game.Submission{
			Owner:       sub.Owner,
			Content:     sub.Content,
			SubmittedAt: sub.SubmittedAt.UTC(),
		}
	}
	return g
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
