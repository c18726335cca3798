package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeview/internal/model"
	"homeview/internal/repository"
)

type fakeSheetAPI struct {
	rows map[string][][]string
	err  error
}

func (f *fakeSheetAPI) ReadRange(ctx context.Context, spreadsheetID, rangeSpec string) ([][]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[rangeSpec], nil
}

func newTaskSync(t *testing.T, sheets SheetAPI) (*TaskSyncService, *repository.ChoreRepository, *repository.TodoRepository) {
	t.Helper()
	db := newTestDB(t)
	choreRepo := repository.NewChoreRepository(db)
	todoRepo := repository.NewTodoRepository(db)
	svc := NewTaskSyncService(sheets, nil, choreRepo, todoRepo, "sheet-id", "Chores", "Todos", "")
	return svc, choreRepo, todoRepo
}

func choreSheet(rows ...[]string) map[string][][]string {
	all := [][]string{{"Name", "Assigned To", "Frequency", "Day", "Icon"}}
	all = append(all, rows...)
	return map[string][][]string{"Chores!A:F": all}
}

func todoSheet(rows ...[]string) map[string][][]string {
	all := [][]string{{"Title", "Priority", "Assigned To", "Due Date"}}
	all = append(all, rows...)
	return map[string][][]string{"Todos!A:E": all}
}

func TestSyncChoresIsIdempotent(t *testing.T) {
	sheets := &fakeSheetAPI{rows: choreSheet(
		[]string{"Dishes", "Sam", model.FrequencyDaily, "", "plate"},
		[]string{"Trash", "Alex", model.FrequencyWeekly, "M", "bin"},
	)}
	svc, _, _ := newTaskSync(t, sheets)
	ctx := context.Background()

	first := svc.SyncChores(ctx)
	second := svc.SyncChores(ctx)

	require.Len(t, first, 2)
	require.Len(t, second, 2)
	for i := range first {
		assert.Equal(t, first[i].Name, second[i].Name)
		assert.Equal(t, first[i].SheetRow, second[i].SheetRow)
		assert.Equal(t, first[i].IconName, second[i].IconName)
	}
	assert.Equal(t, 2, first[0].SheetRow)
	assert.Equal(t, 3, first[1].SheetRow)
}

func TestSyncChoresCarriesCompletionForward(t *testing.T) {
	sheets := &fakeSheetAPI{rows: choreSheet(
		[]string{"Dishes", "Sam", model.FrequencyDaily, ""},
		[]string{"Trash", "Alex", model.FrequencyWeekly, "M"},
	)}
	svc, choreRepo, _ := newTaskSync(t, sheets)
	ctx := context.Background()

	chores := svc.SyncChores(ctx)
	require.Len(t, chores, 2)

	var dishes *model.Chore
	for i := range chores {
		if chores[i].Name == "Dishes" {
			dishes = &chores[i]
		}
	}
	require.NotNil(t, dishes)

	completed, err := choreRepo.FindByID(ctx, dishes.ID)
	require.NoError(t, err)
	require.NoError(t, choreRepo.MarkCompleted(ctx, completed, completed.CreatedDate))

	resynced := svc.SyncChores(ctx)
	require.Len(t, resynced, 2)
	for _, chore := range resynced {
		if chore.Name == "Dishes" {
			assert.True(t, chore.Completed)
			assert.NotNil(t, chore.CompletedDate)
		} else {
			assert.False(t, chore.Completed)
		}
	}
}

func TestSyncChoresDropsRemovedRows(t *testing.T) {
	sheets := &fakeSheetAPI{rows: choreSheet(
		[]string{"Dishes", "Sam", model.FrequencyDaily, ""},
		[]string{"Trash", "Alex", model.FrequencyWeekly, "M"},
	)}
	svc, _, _ := newTaskSync(t, sheets)
	ctx := context.Background()

	require.Len(t, svc.SyncChores(ctx), 2)

	sheets.rows = choreSheet([]string{"Dishes", "Sam", model.FrequencyDaily, ""})
	chores := svc.SyncChores(ctx)
	require.Len(t, chores, 1)
	assert.Equal(t, "Dishes", chores[0].Name)
}

func TestSyncChoresSkipsMalformedRows(t *testing.T) {
	sheets := &fakeSheetAPI{rows: choreSheet(
		[]string{"Dishes", "Sam", model.FrequencyDaily, ""},
		[]string{"Trash", "Alex"}, // missing frequency and day
		[]string{"Vacuum", "Sam", model.FrequencyWeekly, "Sa"},
	)}
	svc, _, _ := newTaskSync(t, sheets)

	chores := svc.SyncChores(context.Background())
	require.Len(t, chores, 2)
	assert.Equal(t, "Dishes", chores[0].Name)
	assert.Equal(t, "Vacuum", chores[1].Name)
	// Row numbers keep their sheet positions even across skipped rows.
	assert.Equal(t, 2, chores[0].SheetRow)
	assert.Equal(t, 4, chores[1].SheetRow)
}

func TestSyncChoresKeepsTableOnReadFailure(t *testing.T) {
	sheets := &fakeSheetAPI{rows: choreSheet(
		[]string{"Dishes", "Sam", model.FrequencyDaily, ""},
	)}
	svc, _, _ := newTaskSync(t, sheets)
	ctx := context.Background()

	require.Len(t, svc.SyncChores(ctx), 1)

	sheets.err = errors.New("quota exceeded")
	chores := svc.SyncChores(ctx)
	require.Len(t, chores, 1)
	assert.Equal(t, "Dishes", chores[0].Name)
}

func TestSyncChoresHeaderOnlySheetWritesNothing(t *testing.T) {
	sheets := &fakeSheetAPI{rows: choreSheet(
		[]string{"Dishes", "Sam", model.FrequencyDaily, ""},
	)}
	svc, choreRepo, _ := newTaskSync(t, sheets)
	ctx := context.Background()

	require.Len(t, svc.SyncChores(ctx), 1)

	sheets.rows = choreSheet()
	assert.Empty(t, svc.SyncChores(ctx))

	// The stored generation is untouched.
	stored, err := choreRepo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestSyncChoresUnconfiguredReturnsCurrentTable(t *testing.T) {
	db := newTestDB(t)
	choreRepo := repository.NewChoreRepository(db)
	todoRepo := repository.NewTodoRepository(db)
	ctx := context.Background()

	require.NoError(t, choreRepo.ReplaceAll(ctx, []model.Chore{
		{Name: "Dishes", AssignedTo: "Sam", Frequency: model.FrequencyDaily},
	}))

	svc := NewTaskSyncService(nil, nil, choreRepo, todoRepo, "", "Chores", "Todos", "")
	chores := svc.SyncChores(ctx)
	require.Len(t, chores, 1)
	assert.Equal(t, "Dishes", chores[0].Name)
}

func TestSyncTodosParsesCells(t *testing.T) {
	sheets := &fakeSheetAPI{rows: todoSheet(
		[]string{"Buy paint", "8", "Sam", "2026-03-10"},
		[]string{"Call plumber", "not a number"},
		[]string{"Fix fence", "99", "Alex", "someday"},
	)}
	svc, _, _ := newTaskSync(t, sheets)

	todos := svc.SyncTodos(context.Background())
	require.Len(t, todos, 3)

	byTitle := make(map[string]model.Todo, len(todos))
	for _, todo := range todos {
		byTitle[todo.Title] = todo
	}

	paint := byTitle["Buy paint"]
	assert.Equal(t, 8, paint.Priority)
	assert.Equal(t, "Sam", paint.AssignedTo)
	require.NotNil(t, paint.DueDate)
	assert.Equal(t, "2026-03-10", paint.DueDate.Format("2006-01-02"))
	assert.Equal(t, 2, paint.SheetRow)

	assert.Equal(t, model.DefaultTodoPriority, byTitle["Call plumber"].Priority)
	assert.Equal(t, model.DefaultTodoPriority, byTitle["Fix fence"].Priority)
	assert.Nil(t, byTitle["Fix fence"].DueDate)
}

func TestSyncTodosCarriesCompletionForward(t *testing.T) {
	sheets := &fakeSheetAPI{rows: todoSheet(
		[]string{"Buy paint", "8"},
		[]string{"Call plumber", "5"},
	)}
	svc, _, todoRepo := newTaskSync(t, sheets)
	ctx := context.Background()

	todos := svc.SyncTodos(ctx)
	require.Len(t, todos, 2)

	for i := range todos {
		if todos[i].Title == "Call plumber" {
			stored, err := todoRepo.FindByID(ctx, todos[i].ID)
			require.NoError(t, err)
			require.NoError(t, todoRepo.MarkCompleted(ctx, stored, stored.CreatedDate))
		}
	}

	resynced := svc.SyncTodos(ctx)
	require.Len(t, resynced, 2)
	for _, todo := range resynced {
		assert.Equal(t, todo.Title == "Call plumber", todo.Completed, "title %q", todo.Title)
	}
}
