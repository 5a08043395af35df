package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"speakexam/internal/adapter"
	"speakexam/internal/cache"
	"speakexam/internal/config"
	"speakexam/internal/flow"
	"speakexam/internal/logger"
	"speakexam/internal/repository"
	"speakexam/internal/scoring"
	"speakexam/internal/service"
	"speakexam/internal/transport/rest"
	"speakexam/internal/transport/ws"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST and WebSocket API",
		Long: `Start the REST and WebSocket API.

Sessions live in Redis, finished runs (transcripts and score reports) are
archived in MongoDB. Settings come from the environment or a .env file:
PORT, MONGO_URI, MONGO_DB, REDIS_URI, JWT_SECRET, OPENAI_API_KEY and
EXAM_PROFILE for a YAML override of the exam configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if port != "" {
				cfg.Port = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Port to listen on (overrides PORT)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.Log

	profile, err := config.LoadExamProfile(cfg.ExamProfilePath)
	if err != nil {
		return err
	}

	aiConfig := config.DefaultAIConfig()
	log.WithFields(logrus.Fields{
		"examiner":      aiConfig.Models.Examiner,
		"scorer":        aiConfig.Models.Scorer,
		"speech":        aiConfig.Models.Speech,
		"transcription": aiConfig.Models.Transcription,
		"enabled":       aiConfig.IsEnabled(),
	}).Info("AI config")
	if !aiConfig.IsEnabled() {
		log.Warn("OPENAI_API_KEY not set, every examiner call will use its fallback")
	}

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	defer mongoClient.Disconnect(context.Background())

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	log.Info("connected to MongoDB")
	db := mongoClient.Database(cfg.MongoDatabase)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer rdb.Close()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	log.Info("connected to Redis")

	client := adapter.NewOpenAIClient(aiConfig)
	engine := flow.NewEngine(profile, client, scoring.NewAggregator(client, aiConfig.Models.Scorer))

	authSvc := service.NewAuthService(cfg.JWTSecret, cfg.SessionTTL)
	examSvc := service.NewExamService(
		engine,
		cache.NewSessionStore(rdb, cfg.SessionTTL),
		cache.NewSpeechCache(rdb),
		repository.NewTranscriptRepo(db),
		repository.NewReportRepo(db),
		client,
		client,
		authSvc,
		aiConfig.Models.Voice,
	)

	wsHub := ws.NewHub()
	examSvc.SetBroadcaster(wsHub)

	router := rest.NewRouter(&rest.Container{
		AuthService: authSvc,
		ExamService: examSvc,
		WSHub:       wsHub,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return wsHub.Run(gctx)
	})
	g.Go(func() error {
		log.WithField("port", cfg.Port).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("server exited")
	return nil
}
