package service

import (
	"context"
	"fmt"
	"time"

	"homeview/internal/model"
	"homeview/internal/repository"
)

// TodoInput carries the fields a caller may set on a todo.
type TodoInput struct {
	Title      string
	Priority   int
	AssignedTo string
	DueDate    *time.Time
}

// TodoService wraps direct todo CRUD that bypasses the spreadsheet.
// Rows created here survive a later sheet sync only if the sheet
// carries a row with the same title.
type TodoService struct {
	repo *repository.TodoRepository
}

func NewTodoService(repo *repository.TodoRepository) *TodoService {
	return &TodoService{repo: repo}
}

func (s *TodoService) List(ctx context.Context) ([]model.Todo, error) {
	return s.repo.ListAll(ctx)
}

func (s *TodoService) Create(ctx context.Context, input TodoInput) (*model.Todo, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	priority := input.Priority
	if priority < 1 || priority > 10 {
		priority = model.DefaultTodoPriority
	}

	todo := model.Todo{
		Title:       input.Title,
		Priority:    priority,
		AssignedTo:  input.AssignedTo,
		DueDate:     input.DueDate,
		CreatedDate: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

func (s *TodoService) Update(ctx context.Context, id uint, input TodoInput) (*model.Todo, error) {
	todo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Title != "" {
		todo.Title = input.Title
	}
	if input.Priority >= 1 && input.Priority <= 10 {
		todo.Priority = input.Priority
	}
	if input.AssignedTo != "" {
		todo.AssignedTo = input.AssignedTo
	}
	if input.DueDate != nil {
		todo.DueDate = input.DueDate
	}
	if err := s.repo.Update(ctx, todo); err != nil {
		return nil, err
	}
	return todo, nil
}

func (s *TodoService) Delete(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

func (s *TodoService) Complete(ctx context.Context, id uint) (*model.Todo, error) {
	todo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.MarkCompleted(ctx, todo, time.Now().UTC()); err != nil {
		return nil, err
	}
	return todo, nil
}
