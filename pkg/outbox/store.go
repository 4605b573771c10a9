package outbox

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Store reads and updates outbox rows for the relay.
type Store struct {
	db *gorm.DB
}

// NewStore creates a Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func insert(tx *gorm.DB, msgs []Message) error {
	if len(msgs) == 0 {
		return nil
	}
	rows := make([]Record, 0, len(msgs))
	for _, m := range msgs {
		rows = append(rows, recordFromMessage(m))
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to write outbox: %w", err)
	}
	return nil
}

// Poll returns up to limit unprocessed rows, oldest first.
func (s *Store) Poll(ctx context.Context, limit int) ([]Record, error) {
	var rows []Record
	err := s.db.WithContext(ctx).
		Where("processed_at IS NULL").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to poll outbox: %w", err)
	}
	return rows, nil
}

// MarkProcessed stamps the row so it is never polled again. gaveUp records
// that the row was abandoned after too many failures.
func (s *Store) MarkProcessed(ctx context.Context, id int64, gaveUp bool) error {
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Model(&Record{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"processed_at": now, "gave_up": gaveUp}).Error
}

// MarkFailed records a failed publish attempt.
func (s *Store) MarkFailed(ctx context.Context, id int64, cause error) error {
	return s.db.WithContext(ctx).Model(&Record{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"retry_count": gorm.Expr("retry_count + 1"),
			"last_error":  cause.Error(),
		}).Error
}

// Cleanup deletes rows processed more than age ago.
func (s *Store) Cleanup(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-age)
	res := s.db.WithContext(ctx).
		Where("processed_at IS NOT NULL AND processed_at < ?", cutoff).
		Delete(&Record{})
	return res.RowsAffected, res.Error
}

// Stats returns the number of pending rows and the creation time of the
// oldest one.
func (s *Store) Stats(ctx context.Context) (int64, time.Time, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Record{}).Where("processed_at IS NULL").Count(&count).Error; err != nil {
		return 0, time.Time{}, err
	}
	if count == 0 {
		return 0, time.Time{}, nil
	}

	var oldest []Record
	err := s.db.WithContext(ctx).
		Where("processed_at IS NULL").
		Order("id ASC").
		Limit(1).
		Find(&oldest).Error
	if err != nil || len(oldest) == 0 {
		return count, time.Time{}, err
	}
	return count, oldest[0].CreatedAt, nil
}
