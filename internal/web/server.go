// Package web exposes the engines over a small JSON API for the
// display device. Handlers are thin: every response uses the uniform
// success envelope and no engine error surfaces raw.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"gorm.io/gorm"

	"homeview/internal/service"
)

// Server wires the engines to HTTP routes.
type Server struct {
	calendar *service.CalendarService
	taskSync *service.TaskSyncService
	chores   *service.ChoreService
	todos    *service.TodoService
	weather  *service.WeatherService
	loc      *time.Location
	mux      *http.ServeMux
}

func NewServer(
	calendar *service.CalendarService,
	taskSync *service.TaskSyncService,
	chores *service.ChoreService,
	todos *service.TodoService,
	weather *service.WeatherService,
	loc *time.Location,
) *Server {
	if loc == nil {
		loc = time.Local
	}
	s := &Server{
		calendar: calendar,
		taskSync: taskSync,
		chores:   chores,
		todos:    todos,
		weather:  weather,
		loc:      loc,
		mux:      http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/events", s.handleEvents)
	s.mux.HandleFunc("GET /api/calendars", s.handleCalendars)

	s.mux.HandleFunc("GET /api/chores", s.handleListChores)
	s.mux.HandleFunc("POST /api/chores/sync", s.handleSyncChores)
	s.mux.HandleFunc("POST /api/chores/{id}/complete", s.handleCompleteChore)
	s.mux.HandleFunc("POST /api/chores/reset", s.handleResetChores)

	s.mux.HandleFunc("GET /api/todos", s.handleListTodos)
	s.mux.HandleFunc("POST /api/todos", s.handleCreateTodo)
	s.mux.HandleFunc("POST /api/todos/sync", s.handleSyncTodos)
	s.mux.HandleFunc("POST /api/todos/{id}/complete", s.handleCompleteTodo)
	s.mux.HandleFunc("PUT /api/todos/{id}", s.handleUpdateTodo)
	s.mux.HandleFunc("DELETE /api/todos/{id}", s.handleDeleteTodo)

	s.mux.HandleFunc("GET /api/weather", s.handleAllWeather)
	s.mux.HandleFunc("GET /api/weather/current", s.handleCurrentWeather)
	s.mux.HandleFunc("GET /api/weather/forecast", s.handleForecast)
	s.mux.HandleFunc("GET /api/weather/alerts", s.handleAlerts)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "status": "ok"})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	weekOffset := 0
	if raw := r.URL.Query().Get("week"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "week must be an integer")
			return
		}
		weekOffset = n
	}

	start, end := weekWindow(time.Now().In(s.loc), weekOffset)
	events := s.calendar.GetEventsFromAllCalendars(r.Context(), start, end)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"events":     events,
		"week_start": start.Format(time.RFC3339),
		"week_end":   end.Format(time.RFC3339),
	})
}

func (s *Server) handleCalendars(w http.ResponseWriter, r *http.Request) {
	calendars := s.calendar.GetCalendars(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "calendars": calendars})
}

func (s *Server) handleListChores(w http.ResponseWriter, r *http.Request) {
	chores, err := s.chores.List(r.Context())
	if err != nil {
		slog.Error("list chores failed", "err", err)
		writeError(w, http.StatusInternalServerError, "could not load chores")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "chores": chores})
}

func (s *Server) handleSyncChores(w http.ResponseWriter, r *http.Request) {
	chores := s.taskSync.SyncChores(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "chores": chores})
}

func (s *Server) handleCompleteChore(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	chore, err := s.chores.Complete(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "chore not found")
			return
		}
		slog.Error("complete chore failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "could not complete chore")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "chore": chore})
}

func (s *Server) handleResetChores(w http.ResponseWriter, r *http.Request) {
	reset, err := s.chores.ResetDue(r.Context(), time.Now())
	if err != nil {
		slog.Error("reset chores failed", "err", err)
		writeError(w, http.StatusInternalServerError, "could not reset chores")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "chores": reset})
}

func (s *Server) handleListTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := s.todos.List(r.Context())
	if err != nil {
		slog.Error("list todos failed", "err", err)
		writeError(w, http.StatusInternalServerError, "could not load todos")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "todos": todos})
}

func (s *Server) handleSyncTodos(w http.ResponseWriter, r *http.Request) {
	todos := s.taskSync.SyncTodos(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "todos": todos})
}

type todoRequest struct {
	Title      string `json:"title"`
	Priority   int    `json:"priority"`
	AssignedTo string `json:"assigned_to"`
	DueDate    string `json:"due_date"`
}

func (req todoRequest) toInput() (service.TodoInput, error) {
	input := service.TodoInput{
		Title:      req.Title,
		Priority:   req.Priority,
		AssignedTo: req.AssignedTo,
	}
	if req.DueDate != "" {
		due, err := time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			return input, errors.New("due_date must be YYYY-MM-DD")
		}
		input.DueDate = &due
	}
	return input, nil
}

func (s *Server) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	var req todoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	input, err := req.toInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	todo, err := s.todos.Create(r.Context(), input)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "todo": todo})
}

func (s *Server) handleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req todoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	input, err := req.toInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	todo, err := s.todos.Update(r.Context(), id, input)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "todo not found")
			return
		}
		slog.Error("update todo failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "could not update todo")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "todo": todo})
}

func (s *Server) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.todos.Delete(r.Context(), id); err != nil {
		slog.Error("delete todo failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "could not delete todo")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) handleCompleteTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	todo, err := s.todos.Complete(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "todo not found")
			return
		}
		slog.Error("complete todo failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "could not complete todo")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "todo": todo})
}

func (s *Server) handleAllWeather(w http.ResponseWriter, r *http.Request) {
	bundle := s.weather.GetAllWeatherData(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "weather": bundle})
}

func (s *Server) handleCurrentWeather(w http.ResponseWriter, r *http.Request) {
	current := s.weather.GetCurrentWeather(r.Context())
	if current == nil {
		writeError(w, http.StatusServiceUnavailable, "no weather data available")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "weather": current})
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	forecast := s.weather.GetForecast(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "forecast": forecast})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := s.weather.GetWeatherAlerts(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "alerts": alerts})
}

// weekWindow returns the [start, end) bounds of the week containing
// now plus offset weeks, starting Monday.
func weekWindow(now time.Time, offset int) (time.Time, time.Time) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	daysSinceMonday := (int(midnight.Weekday()) + 6) % 7
	start := midnight.AddDate(0, 0, -daysSinceMonday+offset*7)
	return start, start.AddDate(0, 0, 7)
}

func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return uint(id), true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("encode response failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{"success": false, "error": msg})
}
