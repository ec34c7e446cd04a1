package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/darts-backend/internal/config"
	"github.com/rocketscienceinc/darts-backend/internal/repository"
	"github.com/rocketscienceinc/darts-backend/internal/repository/storage"
	"github.com/rocketscienceinc/darts-backend/internal/service"
	"github.com/rocketscienceinc/darts-backend/internal/transport/rest"
	"github.com/rocketscienceinc/darts-backend/internal/transport/websocket"
	"github.com/rocketscienceinc/darts-backend/internal/usecase"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	mirror, closeMirror, err := newRoomMirror(ctx, log, conf)
	if err != nil {
		return err
	}
	defer closeMirror()

	connections := service.NewConnections(logger)
	hub := usecase.NewHub(logger, 0)
	rooms := usecase.NewRoomManager(logger, connections, mirror, hub, usecase.RoomSettings{
		Seats:       conf.Room.Seats,
		DeleteGrace: conf.Room.DeleteGrace,
		StartScore:  conf.Room.StartScore,
		UndoDepth:   conf.Room.UndoDepth,
	})
	session := usecase.NewSession(logger, connections, rooms)

	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		hub.Run(ctx, session)
	}()

	router := rest.NewRouter(logger, hub, websocket.New(logger, hub, conf.Socket))

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		httpErrCh <- rest.Start(ctx, conf.HTTPPort, router)
	}()

	select {
	case err = <-httpErrCh:
		cancel()
		<-hubDone
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		<-hubDone
		if err = <-httpErrCh; err != nil {
			log.Error("HTTP server shutdown error", "error", err)
		}
		return nil
	}
}

// newRoomMirror connects the Redis mirror when enabled and falls back to a no-op one.
func newRoomMirror(ctx context.Context, log *slog.Logger, conf *config.Config) (repository.RoomMirror, func(), error) {
	if !conf.Redis.Enabled {
		log.Info("Redis mirror disabled")
		return repository.NopRoomMirror{}, func() {}, nil
	}

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return nil, nil, ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedis(ctx, redisAddrString)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	log.Info("Redis mirror enabled", "addr", redisAddrString)

	return repository.NewRoomMirror(redisStorage, conf.Redis.SnapshotTTL), func() {
		if err := redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}, nil
}
