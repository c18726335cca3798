package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"homeview/internal/model"
)

// TodoRepository handles the todos table.
type TodoRepository struct {
	db *gorm.DB
}

func NewTodoRepository(db *gorm.DB) *TodoRepository {
	return &TodoRepository{db: db}
}

func (r *TodoRepository) ListAll(ctx context.Context) ([]model.Todo, error) {
	var todos []model.Todo
	if err := r.db.WithContext(ctx).
		Order("priority DESC, created_date ASC").
		Find(&todos).Error; err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}

// ReplaceAll swaps the whole table for a new generation in a single
// transaction; same contract as ChoreRepository.ReplaceAll.
func (r *TodoRepository) ReplaceAll(ctx context.Context, todos []model.Todo) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.Todo{}).Error; err != nil {
			return fmt.Errorf("clear todos: %w", err)
		}
		if len(todos) == 0 {
			return nil
		}
		if err := tx.Create(&todos).Error; err != nil {
			return fmt.Errorf("insert todos: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace todos: %w", err)
	}
	return nil
}

func (r *TodoRepository) Create(ctx context.Context, todo *model.Todo) error {
	if err := r.db.WithContext(ctx).Create(todo).Error; err != nil {
		return fmt.Errorf("create todo: %w", err)
	}
	return nil
}

func (r *TodoRepository) FindByID(ctx context.Context, id uint) (*model.Todo, error) {
	var todo model.Todo
	if err := r.db.WithContext(ctx).First(&todo, id).Error; err != nil {
		return nil, err
	}
	return &todo, nil
}

func (r *TodoRepository) Update(ctx context.Context, todo *model.Todo) error {
	if err := r.db.WithContext(ctx).Save(todo).Error; err != nil {
		return fmt.Errorf("update todo: %w", err)
	}
	return nil
}

func (r *TodoRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&model.Todo{}, id).Error; err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	return nil
}

func (r *TodoRepository) MarkCompleted(ctx context.Context, todo *model.Todo, completedAt time.Time) error {
	todo.Completed = true
	todo.CompletedDate = &completedAt
	if err := r.db.WithContext(ctx).Save(todo).Error; err != nil {
		return fmt.Errorf("complete todo: %w", err)
	}
	return nil
}
