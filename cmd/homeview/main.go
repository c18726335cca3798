package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homeview/internal/config"
	"homeview/internal/google"
	"homeview/internal/notify"
	"homeview/internal/repository"
	"homeview/internal/service"
	"homeview/internal/weatherapi"
	"homeview/internal/web"
)

const refreshJobTimeout = 2 * time.Minute

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config failed", "path", *configPath, "err", err)
		os.Exit(1)
	}
	loc := cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewDB(cfg.DatabasePath)
	if err != nil {
		slog.Error("open database failed", "err", err)
		os.Exit(1)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	eventRepo := repository.NewEventRepository(db)
	choreRepo := repository.NewChoreRepository(db)
	todoRepo := repository.NewTodoRepository(db)
	weatherRepo := repository.NewWeatherRepository(db)

	// Adapters degrade to nil when unconfigured; the engines then serve
	// cached data instead of failing.
	creds := google.NewCredentialProvider(cfg.Google.CredentialsFile, cfg.Google.TokenFile)

	var calendarAPI service.CalendarAPI
	if client, err := google.NewCalendarClient(ctx, creds); err != nil {
		slog.Warn("calendar adapter unavailable", "err", err)
	} else {
		calendarAPI = client
	}

	var sheetAPI service.SheetAPI
	if client, err := google.NewSheetsClient(ctx, creds); err != nil {
		slog.Warn("sheets adapter unavailable", "err", err)
	} else {
		sheetAPI = client
	}

	var iconMirror service.IconMirror
	if cfg.Google.IconsFolderID != "" {
		if client, err := google.NewDriveClient(ctx, creds, cfg.Google.IconsFolderID); err != nil {
			slog.Warn("drive adapter unavailable", "err", err)
		} else {
			iconMirror = client
		}
	}

	var weatherAPI service.WeatherAPI
	if cfg.Weather.APIKey != "" {
		weatherAPI = weatherapi.NewClient(
			cfg.Weather.BaseURL, cfg.Weather.APIKey,
			cfg.Weather.Lat, cfg.Weather.Lon, cfg.Weather.Units,
		)
	} else {
		slog.Warn("weather adapter unavailable: api key not configured")
	}

	var notifier service.AlertNotifier
	if cfg.Telegram != nil && cfg.Telegram.Token != "" {
		if tn, err := notify.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID); err != nil {
			slog.Warn("telegram notifier unavailable", "err", err)
		} else {
			notifier = tn
		}
	}

	calendarSvc := service.NewCalendarService(calendarAPI, eventRepo)
	taskSyncSvc := service.NewTaskSyncService(
		sheetAPI, iconMirror, choreRepo, todoRepo,
		cfg.Google.SpreadsheetID, cfg.Google.ChoresSheetName, cfg.Google.TodosSheetName,
		cfg.Google.IconsDir,
	)
	choreSvc := service.NewChoreService(choreRepo, loc)
	todoSvc := service.NewTodoService(todoRepo)
	weatherSvc := service.NewWeatherService(weatherAPI, weatherRepo, notifier, cfg.WeatherTTL(), loc)

	scheduler := service.NewSchedulerService(loc)
	if _, err := scheduler.ScheduleCron(cfg.RefreshCron, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), refreshJobTimeout)
		defer cancel()
		refresh(jobCtx, loc, calendarSvc, taskSyncSvc, weatherSvc)
	}); err != nil {
		slog.Error("schedule refresh failed", "spec", cfg.RefreshCron, "err", err)
		os.Exit(1)
	}
	// Roll chore completion over shortly after midnight.
	if _, err := scheduler.ScheduleDaily(0, 5, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), refreshJobTimeout)
		defer cancel()
		if _, err := choreSvc.ResetDue(jobCtx, time.Now()); err != nil {
			slog.Error("chore reset job failed", "err", err)
		}
	}); err != nil {
		slog.Error("schedule chore reset failed", "err", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	server := web.NewServer(calendarSvc, taskSyncSvc, choreSvc, todoSvc, weatherSvc, loc)
	httpServer := &http.Server{
		Addr:    cfg.Listen,
		Handler: server.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("http shutdown failed", "err", err)
		}
	}()

	slog.Info("homeview started", "listen", cfg.Listen)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("http server stopped", "err", err)
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

// refresh runs one background sync pass over every source.
func refresh(ctx context.Context, loc *time.Location, calendarSvc *service.CalendarService, taskSyncSvc *service.TaskSyncService, weatherSvc *service.WeatherService) {
	now := time.Now().In(loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 7)

	events := calendarSvc.GetEventsFromAllCalendars(ctx, start, end)
	chores := taskSyncSvc.SyncChores(ctx)
	todos := taskSyncSvc.SyncTodos(ctx)
	weatherSvc.GetAllWeatherData(ctx)

	slog.Info("refresh complete", "events", len(events), "chores", len(chores), "todos", len(todos))
}
