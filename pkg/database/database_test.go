package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type pairModel struct {
	ID     uint  `gorm:"primaryKey;autoIncrement"`
	UserID int64 `gorm:"uniqueIndex:uidx_pair;not null"`
	PostID int64 `gorm:"uniqueIndex:uidx_pair;not null"`
}

func TestUniqueViolationIsTranslated(t *testing.T) {
	db, err := OpenInMemory(t.Name(), &pairModel{})
	require.NoError(t, err)

	require.NoError(t, db.Create(&pairModel{UserID: 1, PostID: 2}).Error)
	err = db.Create(&pairModel{UserID: 1, PostID: 2}).Error

	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
}

func TestIsUniqueViolationMatchesDriverMessages(t *testing.T) {
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsUniqueViolation(errors.New(`ERROR: duplicate key value violates unique constraint "uidx_like"`)))
	assert.True(t, IsUniqueViolation(errors.New("Error 1062: Duplicate entry '1-2' for key 'uidx_like'")))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", errors.New("UNIQUE constraint failed: likes.user_id"))))
	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(gorm.ErrRecordNotFound))
}

func TestIsNotFound(t *testing.T) {
	db, err := OpenInMemory(t.Name(), &pairModel{})
	require.NoError(t, err)

	var m pairModel
	err = db.First(&m, "user_id = ?", 99).Error
	assert.True(t, IsNotFound(err))
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(&Config{Driver: "oracle"})
	assert.ErrorContains(t, err, "unsupported database driver")
}
