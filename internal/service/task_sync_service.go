package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"homeview/internal/model"
	"homeview/internal/repository"
)

// SheetAPI reads the spreadsheet range backing a task table.
type SheetAPI interface {
	ReadRange(ctx context.Context, spreadsheetID, rangeSpec string) ([][]string, error)
}

// IconMirror mirrors chore icon assets to a local directory.
type IconMirror interface {
	SyncIconsToLocal(ctx context.Context, dir string) (downloaded, skipped int, err error)
}

const (
	// sheetHeaderOffset converts a 0-based data-row index into the
	// spreadsheet's 1-based row number with its header row.
	sheetHeaderOffset = 2

	choresRangeColumns = "A:F"
	todosRangeColumns  = "A:E"

	minChoreColumns = 4
	minTodoColumns  = 2

	iconMirrorTimeout = 2 * time.Minute
)

// completionState carries the locally-owned fields across a
// full-table replace.
type completionState struct {
	completed     bool
	completedDate *time.Time
}

// TaskSyncService replaces the chore and todo tables from their
// spreadsheet sources, carrying completion state forward across the
// replace by name/title correlation. Syncs are serialized per entity
// kind; each replace runs as one transaction against the store, so a
// failed sync leaves the prior generation intact.
type TaskSyncService struct {
	sheets    SheetAPI
	icons     IconMirror
	choreRepo *repository.ChoreRepository
	todoRepo  *repository.TodoRepository

	spreadsheetID   string
	choresSheetName string
	todosSheetName  string
	iconsDir        string

	choreMu sync.Mutex
	todoMu  sync.Mutex
}

func NewTaskSyncService(
	sheets SheetAPI,
	icons IconMirror,
	choreRepo *repository.ChoreRepository,
	todoRepo *repository.TodoRepository,
	spreadsheetID, choresSheetName, todosSheetName, iconsDir string,
) *TaskSyncService {
	return &TaskSyncService{
		sheets:          sheets,
		icons:           icons,
		choreRepo:       choreRepo,
		todoRepo:        todoRepo,
		spreadsheetID:   spreadsheetID,
		choresSheetName: choresSheetName,
		todosSheetName:  todosSheetName,
		iconsDir:        iconsDir,
	}
}

// SyncChores replaces the chore table from the sheet. On any failure
// the prior generation is returned unchanged. After a successful
// commit the chore icons are mirrored asynchronously, best effort.
func (s *TaskSyncService) SyncChores(ctx context.Context) []model.Chore {
	s.choreMu.Lock()
	defer s.choreMu.Unlock()

	gen := uuid.NewString()

	if s.sheets == nil || s.spreadsheetID == "" {
		slog.Warn("chore sync skipped: sheet source not configured", "generation", gen)
		return s.currentChores(ctx)
	}

	rangeSpec := fmt.Sprintf("%s!%s", s.choresSheetName, choresRangeColumns)
	rows, err := s.sheets.ReadRange(ctx, s.spreadsheetID, rangeSpec)
	if err != nil {
		slog.Error("chore sheet read failed, keeping current table", "generation", gen, "err", err)
		return s.currentChores(ctx)
	}
	if len(rows) <= 1 {
		return []model.Chore{}
	}

	existing, err := s.choreRepo.ListAll(ctx)
	if err != nil {
		slog.Error("chore snapshot read failed, keeping current table", "generation", gen, "err", err)
		return s.currentChores(ctx)
	}
	carried := make(map[string]completionState, len(existing))
	for _, chore := range existing {
		carried[chore.Name] = completionState{chore.Completed, chore.CompletedDate}
	}

	now := time.Now().UTC()
	chores := make([]model.Chore, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) < minChoreColumns {
			// Malformed row; skip it, keep the batch going.
			continue
		}
		chore := model.Chore{
			Name:        row[0],
			AssignedTo:  row[1],
			Frequency:   row[2],
			DayOfWeek:   row[3],
			SheetRow:    i + sheetHeaderOffset,
			LastReset:   now,
			CreatedDate: now,
		}
		if len(row) > 4 {
			chore.IconName = row[4]
		}
		if state, ok := carried[chore.Name]; ok {
			chore.Completed = state.completed
			chore.CompletedDate = state.completedDate
		}
		chores = append(chores, chore)
	}

	if err := s.choreRepo.ReplaceAll(ctx, chores); err != nil {
		slog.Error("chore replace failed, prior generation kept", "generation", gen, "err", err)
		return s.currentChores(ctx)
	}
	slog.Info("chores synced", "generation", gen, "count", len(chores))

	s.mirrorIconsAsync(gen)

	result, err := s.choreRepo.ListAll(ctx)
	if err != nil {
		slog.Error("chore readback failed", "generation", gen, "err", err)
		return chores
	}
	return result
}

// SyncTodos replaces the todo table from the sheet; same contract as
// SyncChores, without the icon mirror.
func (s *TaskSyncService) SyncTodos(ctx context.Context) []model.Todo {
	s.todoMu.Lock()
	defer s.todoMu.Unlock()

	gen := uuid.NewString()

	if s.sheets == nil || s.spreadsheetID == "" {
		slog.Warn("todo sync skipped: sheet source not configured", "generation", gen)
		return s.currentTodos(ctx)
	}

	rangeSpec := fmt.Sprintf("%s!%s", s.todosSheetName, todosRangeColumns)
	rows, err := s.sheets.ReadRange(ctx, s.spreadsheetID, rangeSpec)
	if err != nil {
		slog.Error("todo sheet read failed, keeping current table", "generation", gen, "err", err)
		return s.currentTodos(ctx)
	}
	if len(rows) <= 1 {
		return []model.Todo{}
	}

	existing, err := s.todoRepo.ListAll(ctx)
	if err != nil {
		slog.Error("todo snapshot read failed, keeping current table", "generation", gen, "err", err)
		return s.currentTodos(ctx)
	}
	carried := make(map[string]completionState, len(existing))
	for _, todo := range existing {
		carried[todo.Title] = completionState{todo.Completed, todo.CompletedDate}
	}

	now := time.Now().UTC()
	todos := make([]model.Todo, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) < minTodoColumns {
			continue
		}
		todo := model.Todo{
			Title:       row[0],
			Priority:    parsePriority(row[1]),
			SheetRow:    i + sheetHeaderOffset,
			CreatedDate: now,
		}
		if len(row) > 2 {
			todo.AssignedTo = row[2]
		}
		if len(row) > 3 {
			todo.DueDate = parseDueDate(row[3])
		}
		if state, ok := carried[todo.Title]; ok {
			todo.Completed = state.completed
			todo.CompletedDate = state.completedDate
		}
		todos = append(todos, todo)
	}

	if err := s.todoRepo.ReplaceAll(ctx, todos); err != nil {
		slog.Error("todo replace failed, prior generation kept", "generation", gen, "err", err)
		return s.currentTodos(ctx)
	}
	slog.Info("todos synced", "generation", gen, "count", len(todos))

	result, err := s.todoRepo.ListAll(ctx)
	if err != nil {
		slog.Error("todo readback failed", "generation", gen, "err", err)
		return todos
	}
	return result
}

func (s *TaskSyncService) currentChores(ctx context.Context) []model.Chore {
	chores, err := s.choreRepo.ListAll(ctx)
	if err != nil {
		slog.Error("read chores failed", "err", err)
		return nil
	}
	return chores
}

func (s *TaskSyncService) currentTodos(ctx context.Context) []model.Todo {
	todos, err := s.todoRepo.ListAll(ctx)
	if err != nil {
		slog.Error("read todos failed", "err", err)
		return nil
	}
	return todos
}

// mirrorIconsAsync kicks off a best-effort icon mirror; its failure
// never fails the sync that triggered it.
func (s *TaskSyncService) mirrorIconsAsync(gen string) {
	if s.icons == nil || s.iconsDir == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), iconMirrorTimeout)
		defer cancel()
		downloaded, skipped, err := s.icons.SyncIconsToLocal(ctx, s.iconsDir)
		if err != nil {
			slog.Warn("icon mirror failed", "generation", gen, "err", err)
			return
		}
		slog.Info("icons mirrored", "generation", gen, "downloaded", downloaded, "skipped", skipped)
	}()
}

// parsePriority parses a 1-10 priority cell, defaulting when the cell
// is missing or not numeric.
func parsePriority(raw string) int {
	p, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || p < 1 || p > 10 {
		return model.DefaultTodoPriority
	}
	return p
}

// parseDueDate parses a YYYY-MM-DD cell; unparseable values are absent.
func parseDueDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	return &t
}
