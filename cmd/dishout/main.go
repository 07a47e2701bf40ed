package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/vbonduro/dishout/internal/accounts"
	"github.com/vbonduro/dishout/internal/auth"
	"github.com/vbonduro/dishout/internal/config"
	"github.com/vbonduro/dishout/internal/db"
	"github.com/vbonduro/dishout/internal/domain"
	"github.com/vbonduro/dishout/internal/events"
	"github.com/vbonduro/dishout/internal/kv"
	"github.com/vbonduro/dishout/internal/kv/postgres"
	"github.com/vbonduro/dishout/internal/kv/redis"
	"github.com/vbonduro/dishout/internal/logging"
	"github.com/vbonduro/dishout/internal/oracle"
	"github.com/vbonduro/dishout/internal/oracle/claude"
	"github.com/vbonduro/dishout/internal/oracle/gemini"
	"github.com/vbonduro/dishout/internal/oracle/ollama"
	"github.com/vbonduro/dishout/internal/oracle/rekognition"
	"github.com/vbonduro/dishout/internal/photostore"
	"github.com/vbonduro/dishout/internal/photostore/local"
	"github.com/vbonduro/dishout/internal/photostore/s3"
	"github.com/vbonduro/dishout/internal/service"
	"github.com/vbonduro/dishout/internal/session"
	"github.com/vbonduro/dishout/internal/store"
	"github.com/vbonduro/dishout/internal/web"
)

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer closeWithLog(database, "database", logger)

	kvStore, closeKV, err := newKVStore(ctx, cfg, database, logger)
	if err != nil {
		return err
	}
	defer closeKV()

	photoStg, err := newPhotoStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	o, err := newOracle(ctx, cfg, logger)
	if err != nil {
		return err
	}

	publisher, closePublisher := newPublisher(cfg, logger)
	defer closePublisher()

	tokens, err := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return err
	}

	sessions := session.NewRegistry(kvStore, session.NewReducer(cfg.LeadPrice), logger, session.WithIdleTTL(cfg.SessionIdleTTL))
	go sessions.Run(ctx, time.Minute)
	directory := accounts.New(kvStore)
	defaultNear := domain.LatLng{Lat: cfg.DefaultLat, Lng: cfg.DefaultLng}

	svc := web.Services{
		Accounts:  service.NewAccountService(directory, sessions, logger),
		Scans:     service.NewScanService(sessions, o, store.NewPhotoStore(database), photoStg, publisher, defaultNear, logger),
		Chats:     service.NewChatService(sessions, o, publisher, logger),
		Dashboard: service.NewDashboardService(sessions, o, directory, service.DefaultQRGenerator{BaseURL: cfg.PublicURL}, logger),
	}
	server := web.NewServer(svc, sessions, tokens, splitList(cfg.CORSOrigins), logger)
	return server.ListenAndServe(ctx, cfg.ListenAddr)
}

func newKVStore(ctx context.Context, cfg *config.Config, database *sql.DB, logger *slog.Logger) (kv.Store, func(), error) {
	switch cfg.KVBackend {
	case "redis":
		client, err := redis.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using redis kv backend", "addr", cfg.RedisAddr)
		return redis.New(client, "", 0), func() { closeWithLog(client, "redis", logger) }, nil
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, nil, errors.New("POSTGRES_DSN is required when KV_BACKEND=postgres")
		}
		pg, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using postgres kv backend")
		return pg, func() { closeWithLog(pg, "postgres", logger) }, nil
	case "memory":
		logger.Warn("using in-memory kv backend; sessions are lost on restart")
		return kv.NewMemory(), func() {}, nil
	default:
		logger.Info("using sqlite kv backend", "path", cfg.DBPath)
		return store.NewKVStore(database), func() {}, nil
	}
}

func newPhotoStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (photostore.PhotoStore, error) {
	switch cfg.PhotoBackend {
	case "s3":
		st, err := s3.Connect(ctx, s3.Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.AWSRegion,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize photo store: %w", err)
		}
		logger.Info("using s3 photo store", "bucket", cfg.S3Bucket)
		return st, nil
	default:
		st, err := local.New(cfg.PhotoPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize photo store: %w", err)
		}
		logger.Info("using local photo store", "path", cfg.PhotoPath)
		return st, nil
	}
}

func newOracle(ctx context.Context, cfg *config.Config, logger *slog.Logger) (oracle.Oracle, error) {
	var gen oracle.Generator
	switch cfg.OracleBackend {
	case "claude":
		if cfg.ClaudeAPIKey == "" {
			return nil, errors.New("CLAUDE_API_KEY is required when ORACLE_BACKEND=claude")
		}
		logger.Info("using Claude oracle backend", "model", cfg.ClaudeModel)
		gen = claude.New(cfg.ClaudeAPIKey, cfg.ClaudeModel, "")
	case "ollama":
		logger.Info("using Ollama oracle backend", "model", cfg.OllamaModel)
		gen = ollama.New(cfg.OllamaHost, cfg.OllamaModel)
	default:
		if cfg.GeminiAPIKey == "" {
			return nil, errors.New("GEMINI_API_KEY is required when ORACLE_BACKEND=gemini")
		}
		logger.Info("using Gemini oracle backend", "model", cfg.GeminiModel, "search_model", cfg.GeminiSearchModel)
		g, err := gemini.New(ctx, gemini.Options{
			APIKey:      cfg.GeminiAPIKey,
			Model:       cfg.GeminiModel,
			SearchModel: cfg.GeminiSearchModel,
		})
		if err != nil {
			return nil, err
		}
		gen = g
	}

	model := oracle.New(gen)
	if cfg.IdentifyBackend == "rekognition" {
		id, err := rekognition.NewFromRegion(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, err
		}
		logger.Info("using Rekognition for dish identification", "region", cfg.AWSRegion)
		model = model.WithIdentifier(id)
	}
	return oracle.NewBestEffort(model, logger), nil
}

func newPublisher(cfg *config.Config, logger *slog.Logger) (events.Publisher, func()) {
	if cfg.KafkaBroker == "" {
		return events.Nop{}, func() {}
	}
	logger.Info("publishing events to kafka", "broker", cfg.KafkaBroker, "topic", cfg.KafkaTopic)
	k := events.NewKafka(events.NewKafkaWriter(cfg.KafkaBroker, cfg.KafkaTopic))
	return k, func() { closeWithLog(k, "kafka writer", logger) }
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
