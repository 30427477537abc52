package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/judgegodwins/chess-relay/api"
	"github.com/judgegodwins/chess-relay/game"
	"github.com/judgegodwins/chess-relay/rules"
	"github.com/judgegodwins/chess-relay/snapshot"
	"github.com/judgegodwins/chess-relay/tokens"
	"github.com/judgegodwins/chess-relay/util"
	"github.com/judgegodwins/chess-relay/ws"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	config, err := util.LoadConfig()

	if err != nil {
		log.Fatal(err)
	}

	logger, err := util.NewLogger(config.LogLevel, config.LogFormat)

	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if config.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	maker, err := tokens.NewMaker(config)

	if err != nil {
		logger.Fatal("creating token maker", zap.Error(err))
	}

	var mirror snapshot.Mirror = snapshot.Nop{}

	if config.RedisAddress != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     config.RedisAddress,
			Password: config.RedisPassword,
			DB:       0,
		})
		defer rdb.Close()

		// check redis connection status
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("connecting to redis", zap.String("addr", config.RedisAddress), zap.Error(err))
		}

		redisMirror := snapshot.NewRedisMirror(rdb, config.RedisTTL, logger)
		go redisMirror.Run(ctx)
		mirror = redisMirror
	}

	registry := game.NewRegistry(rules.NewChessEngine(), game.WithStartingClock(config.ClockSeconds))
	manager := ws.NewManager(config, registry, mirror, maker, logger)

	go manager.Run(ctx)

	server := api.NewServer(config, manager, maker, logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.Error("http server", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
}
