package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"homeview/internal/model"
)

// ChoreRepository handles the chores table.
type ChoreRepository struct {
	db *gorm.DB
}

func NewChoreRepository(db *gorm.DB) *ChoreRepository {
	return &ChoreRepository{db: db}
}

func (r *ChoreRepository) ListAll(ctx context.Context) ([]model.Chore, error) {
	var chores []model.Chore
	if err := r.db.WithContext(ctx).Order("sheet_row ASC, id ASC").Find(&chores).Error; err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	return chores, nil
}

// ReplaceAll swaps the whole table for a new generation in a single
// transaction. A failure rolls everything back, so readers either see
// the prior generation or the new one, never an empty or partial table.
func (r *ChoreRepository) ReplaceAll(ctx context.Context, chores []model.Chore) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.Chore{}).Error; err != nil {
			return fmt.Errorf("clear chores: %w", err)
		}
		if len(chores) == 0 {
			return nil
		}
		if err := tx.Create(&chores).Error; err != nil {
			return fmt.Errorf("insert chores: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace chores: %w", err)
	}
	return nil
}

func (r *ChoreRepository) FindByID(ctx context.Context, id uint) (*model.Chore, error) {
	var chore model.Chore
	if err := r.db.WithContext(ctx).First(&chore, id).Error; err != nil {
		return nil, err
	}
	return &chore, nil
}

func (r *ChoreRepository) MarkCompleted(ctx context.Context, chore *model.Chore, completedAt time.Time) error {
	chore.Completed = true
	chore.CompletedDate = &completedAt
	if err := r.db.WithContext(ctx).Save(chore).Error; err != nil {
		return fmt.Errorf("complete chore: %w", err)
	}
	return nil
}

func (r *ChoreRepository) ResetCompletion(ctx context.Context, chore *model.Chore, resetAt time.Time) error {
	updates := map[string]interface{}{
		"completed":      false,
		"completed_date": nil,
		"last_reset":     resetAt,
	}
	if err := r.db.WithContext(ctx).Model(chore).Updates(updates).Error; err != nil {
		return fmt.Errorf("reset chore: %w", err)
	}
	chore.Completed = false
	chore.CompletedDate = nil
	chore.LastReset = resetAt
	return nil
}

// ListDueForReset returns chores whose completion should roll over today:
// all daily chores plus weekly/monthly chores whose day-of-week code
// matches dayCode (Su, M, Tu, W, Th, F, Sa).
func (r *ChoreRepository) ListDueForReset(ctx context.Context, dayCode string) ([]model.Chore, error) {
	var chores []model.Chore
	err := r.db.WithContext(ctx).
		Where("frequency = ?", model.FrequencyDaily).
		Or("frequency IN ? AND day_of_week = ?", []string{model.FrequencyWeekly, model.FrequencyMonthly}, dayCode).
		Find(&chores).Error
	if err != nil {
		return nil, fmt.Errorf("list chores due for reset: %w", err)
	}
	return chores, nil
}
