package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/BrianBNeal/DistributedDemo/internal/config"
	"github.com/BrianBNeal/DistributedDemo/internal/handler"
	"github.com/BrianBNeal/DistributedDemo/internal/history"
	"github.com/BrianBNeal/DistributedDemo/internal/hub"
	"github.com/BrianBNeal/DistributedDemo/internal/log"
	"github.com/BrianBNeal/DistributedDemo/internal/presence"
	"github.com/BrianBNeal/DistributedDemo/internal/service"
	"github.com/BrianBNeal/DistributedDemo/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := log.L()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Init(log.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, ServiceName: "chat-server"})
	logger := log.L()

	logger.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting chat server")

	redisClient, err := store.NewClient(cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	logger.Info().Str("address", cfg.Redis.Address).Msg("connected to redis")

	registry := presence.NewRedisRegistry(redisClient, presence.Config{TTL: cfg.Chat.PresenceTTL})
	messageLog := history.NewRedisLog(redisClient, cfg.Chat.MaxMessagesInHistory)

	wsHub := hub.NewHub(cfg.WebSocket)
	go wsHub.Run()

	chatSvc := service.NewChatService(wsHub, registry, messageLog, service.Config{
		MaxUsernameLength: cfg.Chat.MaxUsernameLength,
		MaxMessageLength:  cfg.Chat.MaxMessageLength,
		OpTimeout:         cfg.Redis.OpTimeout,
	})

	wsHandler := handler.NewWSHandler(wsHub, chatSvc, cfg.WebSocket)

	router := mux.NewRouter()
	wsHandler.RegisterRoutes(router)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("chat server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down chat server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("chat server stopped")
}
