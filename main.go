package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/Rishi-0007/tm-assignment/config"
	"github.com/Rishi-0007/tm-assignment/modules/api"
	"github.com/Rishi-0007/tm-assignment/modules/auth"
	"github.com/Rishi-0007/tm-assignment/modules/ratelimit"
	"github.com/Rishi-0007/tm-assignment/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("TASKMANAGER_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	setupLogging(cfg.Log)

	frameworkLevel := mono.LogLevelInfo
	if strings.EqualFold(cfg.Log.Level, "error") {
		frameworkLevel = mono.LogLevelError
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(frameworkLevel),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	tokens := auth.NewTokenService(auth.TokenConfig{
		AccessSecret:  cfg.JWT.AccessSecret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		Issuer:        cfg.JWT.Issuer,
	})

	// The API module must see a nil interface when rate limiting is off.
	var limiter api.Limiter
	if cfg.Redis.Addr != "" {
		rl := ratelimit.NewModule(ratelimit.Config{
			RedisAddr:     cfg.Redis.Addr,
			RedisPassword: cfg.Redis.Password,
			RedisDB:       cfg.Redis.DB,
			Requests:      cfg.RateLimit.Requests,
			Window:        cfg.RateLimit.Window,
		})
		app.Register(rl)
		limiter = rl
	} else {
		slog.Warn("REDIS_ADDR not set, auth endpoints are not rate limited")
	}

	// Independent modules first, then the API that depends on them.
	app.Register(auth.NewModule(cfg.DB.Path, cfg.DB.Debug, tokens))
	app.Register(task.NewModule(cfg.DB.Path, cfg.DB.Debug))
	app.Register(api.NewModule(api.Config{
		Addr:        cfg.HTTP.Addr,
		CORSOrigins: cfg.HTTP.CORSOrigins,
	}, tokens, limiter))

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	slog.Info("task manager started",
		"addr", cfg.HTTP.Addr,
		"database", cfg.DB.Path,
		"access_ttl", cfg.JWT.AccessTTL,
		"refresh_ttl", cfg.JWT.RefreshTTL,
	)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				slog.Info("graceful shutdown initiated")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	slog.Info("application exited", "code", exitCode)
	os.Exit(exitCode)
}

// setupLogging installs the default slog handler every module derives from.
func setupLogging(cfg config.LogConfig) {
	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		log.Printf("unknown log level %q, using info", cfg.Level)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
