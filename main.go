package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"bollywoodgo/internal/config"
	"bollywoodgo/internal/database/db_client"
	"bollywoodgo/internal/http/http_server"
	"bollywoodgo/internal/redis/redis_client"
	"bollywoodgo/internal/redis/redis_functions"
	"bollywoodgo/internal/redis/turnclock"
	"bollywoodgo/internal/redis/watcher/turnwatcher"
	"bollywoodgo/internal/services/game"
	"bollywoodgo/internal/services/results"
	"bollywoodgo/internal/syncrounds"
	"bollywoodgo/internal/syncstats"
	"bollywoodgo/internal/ws"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

//go:generate go tool swag init --output api_specs --outputTypes json,yaml

var (
	Log, _ = zap.NewDevelopment()
)

//	@title			Bollywood rooms API
//	@version		1.0
//	@description	Live rooms, round archive and leaderboard of the team word-guessing server.
//	@BasePath		/
func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	var err error
	var cfg *config.Config
	var redisClient *redis.Client

	// 1. Load configuration
	cfg, err = config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Redis
	redisClient, err = redis_client.NewRedisClient(cfg.RedisHost, int(cfg.RedisPort), cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		Log.Fatal("Failed to create Redis client", zap.Error(err))
	}
	defer redisClient.Close()
	Log.Debug("Redis client created successfully")

	// Load the Redis Functions lua
	if err := redis_functions.LoadAll(ctx, redisClient); err != nil {
		Log.Fatal("load-redis-funcs", zap.Error(err))
	}

	// 4. Postgres db client
	pgDb, err := db_client.Open(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDb)
	if err != nil {
		Log.Fatal("pg-open", zap.Error(err))
	}
	defer pgDb.Close()
	if err := db_client.Migrate(ctx, pgDb); err != nil {
		Log.Fatal("pg-migrate", zap.Error(err))
	}

	// 5. Round archive: Redis stream + counters -> Postgres
	resultsService := results.NewResultsService(redisClient, pgDb, cfg.StatsTTL)
	syncrounds.Run(ctx, redisClient, pgDb)
	syncstats.Run(ctx, redisClient, pgDb)

	// 6. Turn clock, disabled when TURN_TIMEOUT is 0
	var clock game.TurnClock = game.NopClock{}
	if cfg.TurnTimeout > 0 {
		clock = turnclock.New(redisClient, cfg.TurnTimeout)
	}

	// 7. WebSockets hub + game service
	hub := ws.NewHub()
	gameService := game.NewGameService(hub, resultsService, clock, game.Options{
		Rules: game.Rules{
			WrongGuessLimit: cfg.WrongGuessLimit,
			WinPoints:       cfg.WinPoints,
		},
		CreatorTeam: game.TeamID(cfg.CreatorTeam),
	})

	// Background: key-expiry watcher -> timeout strikes
	if cfg.TurnTimeout > 0 {
		go turnwatcher.Run(ctx, redisClient, gameService)
	}

	// 8. Initialize the WS server
	wsSrv := ws.NewWsServer(hub, gameService, cfg.CorsAllowOrigins)

	// 9. HTTP + WS server
	httpServer := http_server.NewHttpServer(cfg.HttpServerPort, cfg.CorsAllowOrigins, wsSrv, gameService, resultsService)
	go func() {
		<-ctx.Done()
		Log.Info("shutting down")
		_ = httpServer.Dispose()
	}()
	if err := httpServer.Start(); err != nil {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}
}
