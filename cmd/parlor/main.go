// Package main provides the parlor bot binary: it connects to the chat
// server and runs the game orchestration engine over it.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/parlorbot/parlor/internal/chat"
	"github.com/parlorbot/parlor/internal/chat/ws"
	"github.com/parlorbot/parlor/internal/config"
	"github.com/parlorbot/parlor/internal/game/command"
	"github.com/parlorbot/parlor/internal/game/orchestrator"
	"github.com/parlorbot/parlor/internal/game/player"
	"github.com/parlorbot/parlor/internal/game/random"
	"github.com/parlorbot/parlor/internal/game/rules"
	"github.com/parlorbot/parlor/internal/game/tictactoe"
	"github.com/parlorbot/parlor/internal/observability"
	"github.com/parlorbot/parlor/internal/server"
	"github.com/parlorbot/parlor/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting parlor bot",
		zap.String("bot", cfg.Bot.Name),
		zap.String("chat_url", cfg.Chat.URL),
	)

	// Connect to PostgreSQL for the player directory
	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	defer pool.Close()
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)

	directory := player.NewDirectory(postgres.NewBlobStore(pool.DB()), observability.Component(logger, "directory"))
	if err := directory.Load(ctx); err != nil {
		logger.Fatal("loading player directory", zap.Error(err))
	}

	game := tictactoe.New()
	contents, err := rules.LoadContentFromDir(cfg.Bot.ContentDir)
	if err != nil {
		logger.Fatal("loading game content", zap.Error(err))
	}
	content, ok := contents[game.Name()]
	if !ok {
		logger.Fatal("no content for game", zap.String("game", game.Name()))
	}

	// The transport is wired in after the client is built: the client
	// needs the handler and the orchestrator needs the client.
	client := ws.NewClient(cfg.Chat, nil, observability.Component(logger, "chat"))

	orch, err := orchestrator.New(orchestrator.Config{
		Game:       game,
		Content:    content,
		Transport:  client,
		Directory:  directory,
		Registry:   command.DefaultRegistry(),
		Logger:     observability.Component(logger, "orchestrator"),
		Random:     random.NewCryptoSource(),
		BotName:    cfg.Bot.Name,
		BotAddress: chat.Address(cfg.Bot.Address),
	})
	if err != nil {
		logger.Fatal("creating orchestrator", zap.Error(err))
	}
	client.SetHandler(orch)

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("chat-client", client)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("bot exited", zap.Error(err))
	}
	logger.Info("bot stopped", zap.Duration("uptime", time.Since(start)))
}
