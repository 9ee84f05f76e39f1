package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"acadease/internal/api"
	"acadease/internal/assistant"
	"acadease/internal/config"
	"acadease/internal/desktop"
	"acadease/internal/metrics"
	"acadease/internal/reminders"
	"acadease/internal/session"
	"acadease/internal/sound"
	"acadease/internal/storage"
	"acadease/internal/timetable"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	cfg, err := config.Load(os.Getenv("ACADEASE_CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	if err := cfg.EnsureDataDir(); err != nil {
		logger.Fatal().Err(err).Msg("failed to create data directory")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := openStore(ctx, cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open storage error")
	}
	defer kv.Close()
	repo := storage.NewRepository(kv)

	if cfg.Storage.Backup.Enabled {
		go storage.NewBackupService(cfg.Storage.SQLitePath, cfg.Storage.Backup, &logger).Start(ctx)
	}

	backend, closeBackend := newNotificationBackend(cfg, logger)
	defer closeBackend()

	permission, err := repo.GetPermission(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to load notification permission")
		permission = desktop.PermissionDefault
	}
	gate := desktop.NewGate(permission, backend, repo.SavePermission, logger)

	player := sound.NewPlayer(newSoundOutput(cfg), cfg.SampleRate(), logger)

	sessions := session.NewManager(session.Options{
		Store:    repo,
		Gate:     gate,
		Notifier: backend,
		Player:   player,
		Config: reminders.Config{
			CheckInterval:  cfg.CheckInterval(),
			SnoozeDuration: cfg.SnoozeDuration(),
		},
		Logger: logger,
	})

	tt := timetable.NewService(repo, logger)
	if err := tt.Load(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to load timetable, starting empty")
	}

	var responder assistant.Responder
	if cfg.Assistant.APIKey != "" {
		gemini, err := assistant.NewGeminiClient(ctx, assistant.GeminiConfig{
			BaseURL:           cfg.AssistantBaseURL(),
			APIKey:            cfg.Assistant.APIKey,
			Model:             cfg.AssistantModel(),
			Timeout:           cfg.AssistantTimeout(),
			RequestsPerMinute: cfg.AssistantRequestsPerMinute(),
		})
		if err != nil {
			logger.Error().Err(err).Msg("failed to create assistant client, chat replies are canned")
		} else {
			responder = gemini
		}
	} else {
		logger.Warn().Msg("assistant.api_key not set, chat replies are canned")
	}

	if resumed, err := sessions.Resume(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to resume session")
	} else if !resumed {
		logger.Info().Msg("no remembered user, waiting for login")
	}

	go startHealthServer(ctx, cfg.HealthCheckPort(), repo, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(ctx, cfg.PrometheusPort(), &logger)
	}

	server := api.NewHTTPServer(cfg.HTTPPort(), api.Deps{
		Sessions:  sessions,
		Timetable: tt,
		Assistant: assistant.New(responder, repo, logger),
		Gate:      gate,
		Logger:    logger,
	})
	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("api server error")
			stop()
		}
	}()

	logger.Info().Msg("AcadEase started")
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api shutdown error")
	}
	sessions.Close()
	gate.Wait()
	player.Wait()
	logger.Info().Msg("AcadEase stopped")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.PrettyLogs() {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// openStore opens the sqlite file and, when redis is configured, puts redis
// in front of it with sqlite as the fallback.
func openStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (storage.KV, error) {
	sqlite, err := storage.OpenSQLite(cfg.Storage.SQLitePath)
	if err != nil {
		return nil, err
	}
	if cfg.Storage.Redis.Address == "" {
		return sqlite, nil
	}

	rdb, err := storage.DialRedis(ctx, cfg.Storage.Redis.Address, cfg.Storage.Redis.Password, cfg.Storage.Redis.DB)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, using sqlite only")
		return sqlite, nil
	}
	logger.Info().Str("addr", cfg.Storage.Redis.Address).Msg("using redis with sqlite fallback")
	return storage.NewFailoverKV(rdb, sqlite, logger), nil
}

func newNotificationBackend(cfg *config.Config, logger zerolog.Logger) (desktop.Backend, func()) {
	switch cfg.NotificationBackend() {
	case "none":
		return desktop.Disabled{}, func() {}
	case "log":
		return desktop.NewLogNotifier(logger), func() {}
	}

	n, err := desktop.NewDBusNotifier(cfg.AppName())
	if err != nil {
		logger.Warn().Err(err).Msg("dbus notifications unavailable, logging instead")
		return desktop.NewLogNotifier(logger), func() {}
	}
	return n, func() { _ = n.Close() }
}

func newSoundOutput(cfg *config.Config) sound.Output {
	switch cfg.AudioOutput() {
	case "command":
		return sound.CommandOutput{Command: cfg.AudioCommand()}
	case "wav":
		dir := cfg.Audio.WAVDir
		if dir == "" {
			dir = filepath.Join(filepath.Dir(cfg.Storage.SQLitePath), "sounds")
		}
		return sound.WAVFileOutput{Dir: dir}
	default:
		return sound.NoOutput{}
	}
}

func startHealthServer(ctx context.Context, port int, repo *storage.Repository, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := repo.Ping(ctxPing); err != nil {
			http.Error(w, "storage not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
