package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codemonkey/colab/internal/actions"
	"github.com/codemonkey/colab/internal/cli"
	"github.com/codemonkey/colab/internal/config"
	"github.com/codemonkey/colab/internal/linkname"
	"github.com/codemonkey/colab/internal/logger"
	"github.com/codemonkey/colab/internal/paginator"
	"github.com/codemonkey/colab/internal/server"
	"github.com/codemonkey/colab/internal/session"
	"github.com/codemonkey/colab/internal/storage/memory"
	"github.com/codemonkey/colab/internal/storage/remote"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	demo := flag.Bool("demo", false, "run against a local fake API with seeded questions")
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	baseURL := cfg.API.BaseURL
	groupID := cfg.GroupID()
	sess := session.Unauthenticated()
	if cfg.Session.Token != "" {
		sess, err = session.FromToken(cfg.Session.Token, time.Now())
		if err != nil {
			l.Warn("ignoring configured session token", zap.Error(err))
			sess = session.Unauthenticated()
		}
	}

	if *demo {
		url, demoSess, err := startDemo(cfg, l)
		if err != nil {
			l.Fatal("failed to start demo server", zap.Error(err))
		}
		baseURL, sess = url, demoSess
		id := memory.DemoGroupID
		groupID = &id
	}

	client, err := remote.New(baseURL,
		remote.WithTimeout(cfg.API.Timeout),
		remote.WithUserAgent(cfg.API.UserAgent),
		remote.WithLogger(l),
	)
	if err != nil {
		l.Fatal("failed to create api client", zap.Error(err))
	}
	defer client.Close()

	namer := linkname.NewResolver(linkname.WithUserAgent(cfg.API.UserAgent), linkname.WithLogger(l))
	svc := actions.New(client, actions.WithNamer(namer), actions.WithLogger(l))

	popts := []paginator.Option{
		paginator.WithPageSize(cfg.Paginator.PageSize),
		paginator.WithLogger(l),
	}
	if groupID != nil {
		popts = append(popts, paginator.WithGroup(*groupID))
	}
	pag := paginator.New(client, sess, popts...)

	app := cli.New(client, sess, os.Stdout,
		cli.WithGroup(groupID),
		cli.WithActions(svc),
		cli.WithPaginator(pag),
		cli.WithLogger(l),
	)
	if err := app.Run(ctx, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
		l.Fatal("cli stopped", zap.Error(err))
	}
}

// startDemo serves a seeded memory store on a loopback port and returns its
// URL with a session for the first demo user.
func startDemo(cfg *config.Config, l *zap.Logger) (string, session.Session, error) {
	now := time.Now()
	store := memory.NewDemo(now)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", session.Session{}, err
	}
	srv := server.New(cfg.Server, store, l.Named("server"))
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("demo server stopped", zap.Error(err))
		}
	}()

	token, err := session.Issue(cfg.Server.JWTSecret, 1, "alice", cfg.Server.TokenTTL, now)
	if err != nil {
		return "", session.Session{}, err
	}
	sess, err := session.FromToken(token, now)
	if err != nil {
		return "", session.Session{}, err
	}
	l.Info("demo server listening", zap.String("addr", ln.Addr().String()), zap.String("user", sess.Username))
	return "http://" + ln.Addr().String(), sess, nil
}
