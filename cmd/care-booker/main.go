package main

import (
	"careBooker/internal/bot"
	"careBooker/internal/config"
	"careBooker/internal/http-server/handlers/event/cancelBooking"
	"careBooker/internal/http-server/handlers/event/confirmBooking"
	"careBooker/internal/http-server/handlers/event/createBooking"
	"careBooker/internal/http-server/handlers/event/createEvent"
	"careBooker/internal/http-server/handlers/event/getAllEvents"
	"careBooker/internal/http-server/handlers/event/getEventInfo"
	"careBooker/internal/http-server/middleware/adminauth"
	"careBooker/internal/http-server/middleware/mwlogger"
	"careBooker/internal/lib/logger/handlers/slogpretty"
	"careBooker/internal/lib/logger/sl"
	"careBooker/internal/services/booking"
	"careBooker/internal/services/catalog"
	"careBooker/internal/services/profiles"
	"careBooker/internal/storage/sqlite"
	"context"
	"errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting care booker", slog.String("env", cfg.Env))
	log.Debug("Debug messages are enabled")

	storage, err := sqlite.New(cfg.StoragePath)
	if err != nil {
		log.Error("failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, os.Interrupt)
	defer stop()

	events := catalog.New(log, storage, cfg.Location())
	people := profiles.New(log, storage)

	if cfg.SeedDemo {
		if err = events.SeedDemo(ctx, time.Now()); err != nil {
			log.Error("failed to seed demo activities", sl.Err(err))
		}
	}

	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		log.Error("failed to connect to telegram", sl.Err(err))
		os.Exit(1)
	}
	api.Debug = cfg.Telegram.Debug

	log.Info("authorized on telegram", slog.String("account", api.Self.UserName))

	notifier := bot.NewNotifier(log, api, people, cfg.Location())
	engine := booking.New(log, storage, notifier)
	b := bot.New(log, api, events, people, engine, bot.Options{
		AdminSecret:            cfg.AdminSecret,
		AdminAttemptsPerMinute: cfg.AdminAttemptsPerMinute,
	})

	u := tgbotapi.NewUpdate(0)
	u.Timeout = cfg.PollTimeout

	botDone := make(chan struct{})
	go func() {
		defer close(botDone)
		b.Run(ctx, api.GetUpdatesChan(u))
	}()

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwlogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	eventInfo := struct {
		*catalog.Catalog
		*profiles.Registry
	}{events, people}

	router.Group(func(r chi.Router) {
		r.Use(adminauth.New(log, cfg.AdminSecret))

		r.Post("/events", createEvent.New(log, events))
		r.Post("/events/{id}/book", createBooking.New(log, engine))
		r.Post("/events/{id}/confirm", confirmBooking.New(log, engine))
		r.Post("/events/{id}/cancel", cancelBooking.New(log, engine))
		r.Get("/events/{id}", getEventInfo.New(log, eventInfo))
		r.Get("/events", getAllEvents.New(log, events))
	})

	log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", sl.Err(err))
			stop()
		}
	}()

	<-ctx.Done()

	log.Info("application stopping")

	api.StopReceivingUpdates()
	<-botDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown server", sl.Err(err))
	}

	log.Info("application stopped")

	if err = storage.Close(); err != nil {
		log.Error("failed to close sqlite database", sl.Err(err))
	}

	log.Info("sqlite database closed")
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	h := opts.NewPrettyHandler(os.Stdout)

	return slog.New(h)
}
