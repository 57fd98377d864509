package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-guard-bot/cmd/bot/config"
	"telegram-guard-bot/internal/bot"
	"telegram-guard-bot/internal/log"
	"telegram-guard-bot/internal/moderation"
	"telegram-guard-bot/internal/ports"
	"telegram-guard-bot/internal/server"
	"telegram-guard-bot/internal/telegram"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load("guard_config.yml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to validate config: %v\n", err)
		os.Exit(1)
	}

	// Инициализация логгера с маскировкой токенов и настройками из конфига
	var level slog.Level
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	switch cfg.Logging.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	default:
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	logger := log.NewMaskedLogger(handler)
	slog.SetDefault(logger)

	// Клиент Bot API с таймаутом: методы tgbotapi не принимают context,
	// предел по времени обеспечивает HTTP-клиент.
	httpClient := &http.Client{Timeout: time.Duration(cfg.Bot.HTTPTimeoutSeconds) * time.Second}
	api, err := tgbotapi.NewBotAPIWithClient(cfg.Bot.Token, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		slog.Error("failed to create bot api client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("Authorized on telegram", slog.String("username", api.Self.UserName))

	// Ожидание сигналов для graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Сборка компонентов модерации
	chat := bot.NewAPIAdapter(api)
	scope := moderation.NewGroupScope(cfg.Bot.GroupID)
	links := moderation.NewAllowlist(cfg.Bot.AllowedLinks...)
	ledger := moderation.NewWarningLedger(cfg.Bot.WarnLimit)
	auth := moderation.NewAuthorizer(chat, cfg.Bot.OwnerID, logger.With(slog.String("component", "auth")))
	engine := moderation.NewEngine(chat, auth, scope, links, ledger, cfg.Bot.WordLimit,
		logger.With(slog.String("component", "engine")))

	// Опциональный MTProto-резолвер юзернеймов
	var resolver ports.HandleResolver
	if cfg.Resolver.Enable {
		r := telegram.NewResolver(telegram.Config{
			APIID:       cfg.Resolver.APIID,
			APIHash:     cfg.Resolver.APIHash,
			PhoneNumber: cfg.Resolver.PhoneNumber,
			SessionPath: cfg.Resolver.SessionFile,
		}, telegram.WithLogger(logger.With(slog.String("component", "resolver"))))
		r.Start(ctx)
		resolver = r
	} else {
		slog.Info("Username resolver disabled, commands accept numeric ids only")
	}

	b := bot.New(bot.Deps{
		API:      api,
		Chat:     chat,
		Engine:   engine,
		Auth:     auth,
		Scope:    scope,
		Links:    links,
		Resolver: resolver,
		Logger:   logger.With(slog.String("component", "bot")),
	})

	// Опциональный HTTP-сервер статуса
	var statusServer *server.Server
	if cfg.StatusServer.Enable {
		statusServer = server.New(cfg.StatusAddress(), server.Deps{
			Scope:  scope,
			Links:  links,
			Ledger: ledger,
			Logger: logger.With(slog.String("component", "status_server")),
		})
		go func() {
			if err := statusServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("status server failed", slog.String("error", err.Error()))
			}
		}()
	}

	slog.Info("Bot created successfully, starting...")

	// Запуск бота в отдельной goroutine, чтобы не блокировать graceful shutdown
	go b.Start(ctx)

	<-ctx.Done() // Ожидаем сигнал завершения

	slog.Info("Shutting down bot...")

	if statusServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.StatusServer.ShutdownTimeoutSeconds)*time.Second)
		defer cancel()
		if err := statusServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("status server shutdown failed", slog.String("error", err.Error()))
		}
	}

	slog.Info("Bot stopped gracefully")
}
