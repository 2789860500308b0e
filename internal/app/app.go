package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cinesync/server/internal/controller"
	"github.com/cinesync/server/internal/repository/connection/inmemory"
	roomRedis "github.com/cinesync/server/internal/repository/room/redis"
	"github.com/cinesync/server/internal/service/recommend"
	"github.com/cinesync/server/internal/service/room"
	"github.com/cinesync/server/pkg/ctxlogger"
	"github.com/cinesync/server/pkg/redisclient"
	"github.com/cinesync/server/pkg/scenedata"
)

type AppConfig struct {
	Host          string `json:"host"`
	Port          int    `json:"port"`
	LogLevel      string `json:"log_level"`
	ScenesDir     string `json:"scenes_dir"`
	RedisPort     int    `json:"redis_port"`
	RedisHost     string `json:"redis_host"`
	RedisPassword string `json:"-"`
	LLMBaseURL    string `json:"llm_base_url"`
	LLMAPIKey     string `json:"-"`
	LLMModel      string `json:"llm_model"`
}

func Run(ctx context.Context, cfg *AppConfig) error {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		log.Fatal(err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	logger := slog.New(&h)

	rc, err := redisclient.NewRedisClient(&redisclient.Config{
		Port:     cfg.RedisPort,
		Host:     cfg.RedisHost,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rc.Close()

	sceneStore, err := scenedata.LoadDir(cfg.ScenesDir)
	if err != nil {
		// a room server without scene content still syncs playback and chat
		logger.WarnContext(ctx, "failed to load scene content, interactions disabled", "error", err)
		sceneStore = scenedata.NewStore(nil)
	} else {
		logger.InfoContext(ctx, "scene content loaded", "titles", sceneStore.Len())
	}

	roomRepo := roomRedis.NewRepo(rc, logger, 24*time.Hour)
	connectionRepo := inmemory.NewRepo(logger)
	roomService := room.NewService(roomRepo, connectionRepo, sceneStore, logger)
	recommendService := recommend.NewService(&recommend.Config{
		BaseURL: cfg.LLMBaseURL,
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMModel,
	}, logger)

	controller := controller.NewController(roomService, recommendService, connectionRepo, logger)
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: controller.GetMux()}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
