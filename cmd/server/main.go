package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/codemonkey/colab/internal/config"
	"github.com/codemonkey/colab/internal/logger"
	"github.com/codemonkey/colab/internal/server"
	"github.com/codemonkey/colab/internal/session"
	"github.com/codemonkey/colab/internal/storage"
	"github.com/codemonkey/colab/internal/storage/memory"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	storageType := flag.String("storage", "demo", "storage type: demo or memory")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	l, err := logger.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer l.Sync()

	var store storage.Storage
	switch *storageType {
	case "demo":
		l.Info("initializing demo storage")
		store = memory.NewDemo(time.Now())
	case "memory":
		l.Info("initializing empty memory storage")
		store = memory.New()
	default:
		l.Fatal("unknown storage type", zap.String("storage", *storageType))
	}
	defer store.Close()

	// Tokens for the seeded users, so a client can log in against the fake.
	if *storageType == "demo" {
		users, err := store.ListUsers(context.Background(), nil)
		if err != nil {
			l.Fatal("failed to list users", zap.Error(err))
		}
		for _, u := range users {
			tok, err := session.Issue(cfg.Server.JWTSecret, u.ID, u.Username, cfg.Server.TokenTTL, time.Now())
			if err != nil {
				l.Fatal("failed to issue token", zap.Error(err))
			}
			l.Info("demo token", zap.String("username", u.Username), zap.String("token", tok))
		}
	}

	srv := server.New(cfg.Server, store, l)
	if err := srv.Run(); err != nil {
		l.Fatal("server stopped", zap.Error(err))
	}
}
