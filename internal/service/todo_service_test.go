package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"homeview/internal/model"
	"homeview/internal/repository"
)

func newTodoService(t *testing.T) *TodoService {
	t.Helper()
	return NewTodoService(repository.NewTodoRepository(newTestDB(t)))
}

func TestTodoCreateValidation(t *testing.T) {
	svc := newTodoService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, TodoInput{Priority: 5})
	require.Error(t, err)

	todo, err := svc.Create(ctx, TodoInput{Title: "Buy paint", Priority: 42})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultTodoPriority, todo.Priority)

	todo, err = svc.Create(ctx, TodoInput{Title: "Call plumber", Priority: 9, AssignedTo: "Sam"})
	require.NoError(t, err)
	assert.Equal(t, 9, todo.Priority)
	assert.Equal(t, "Sam", todo.AssignedTo)
	assert.NotZero(t, todo.ID)
}

func TestTodoUpdatePartialFields(t *testing.T) {
	svc := newTodoService(t)
	ctx := context.Background()

	todo, err := svc.Create(ctx, TodoInput{Title: "Buy paint", Priority: 3, AssignedTo: "Sam"})
	require.NoError(t, err)

	due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	updated, err := svc.Update(ctx, todo.ID, TodoInput{Priority: 8, DueDate: &due})
	require.NoError(t, err)
	assert.Equal(t, "Buy paint", updated.Title)
	assert.Equal(t, 8, updated.Priority)
	assert.Equal(t, "Sam", updated.AssignedTo)
	require.NotNil(t, updated.DueDate)

	// Out-of-range priority leaves the stored value alone.
	updated, err = svc.Update(ctx, todo.ID, TodoInput{Priority: 0, Title: "Buy primer"})
	require.NoError(t, err)
	assert.Equal(t, "Buy primer", updated.Title)
	assert.Equal(t, 8, updated.Priority)
}

func TestTodoDeleteAndCompleteMissing(t *testing.T) {
	svc := newTodoService(t)
	ctx := context.Background()

	todo, err := svc.Create(ctx, TodoInput{Title: "Buy paint"})
	require.NoError(t, err)

	done, err := svc.Complete(ctx, todo.ID)
	require.NoError(t, err)
	assert.True(t, done.Completed)

	require.NoError(t, svc.Delete(ctx, todo.ID))

	_, err = svc.Complete(ctx, todo.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
