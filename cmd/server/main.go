package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/eloinsight/chessd/internal/config"
	"github.com/eloinsight/chessd/internal/review"
	"github.com/eloinsight/chessd/internal/rpcservice"
	"github.com/eloinsight/chessd/internal/session"
	"github.com/eloinsight/chessd/internal/storage/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	defer logger.Sync()

	logger.Info("starting chessd",
		zap.String("grpcPort", cfg.GRPCPort),
		zap.Int("workers", cfg.WorkerPoolSize))

	db, err := sqlite.Open(cfg.Storage.Path, logger)
	if err != nil {
		logger.Fatal("failed to open storage", zap.Error(err))
	}
	defer db.Close()

	sessionRepo := sqlite.NewSessionRepo(db)
	positionRepo := sqlite.NewPositionRepo(db)
	gameRepo := sqlite.NewGameRepo(db)
	reviewRepo := sqlite.NewReviewRepo(db)
	advancedRepo := sqlite.NewAdvancedRepo(db)

	engineBinary := resolveEngineBinary(cfg.Stockfish)

	sessions := session.NewManager(engineBinary, cfg.EngineHandshakeTimeout, logger)

	reviewManager := review.NewManager(gameRepo, cfg.WorkerPoolSize*2, logger)
	pool := review.NewPool(review.Config{
		WorkerCount:     cfg.WorkerPoolSize,
		AnalysisDepth:   cfg.DefaultAnalysisDepth,
		EngineBinary:    engineBinary,
		ComputeAdvanced: cfg.ComputeAdvanced,
	}, reviewManager, reviewRepo, advancedRepo, logger)
	pool.Start()

	svc := rpcservice.New(sessions, reviewManager, positionRepo, sessionRepo, gameRepo, reviewRepo, advancedRepo, logger)

	grpcServer := grpc.NewServer(
		grpc.MaxRecvMsgSize(10*1024*1024),
		grpc.MaxSendMsgSize(10*1024*1024),
	)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	_ = svc // wired into a generated service registration once the wire layer exists

	listener, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		logger.Fatal("failed to listen", zap.String("port", cfg.GRPCPort), zap.Error(err))
	}

	go func() {
		logger.Info("grpc server listening", zap.String("address", listener.Addr().String()))
		if err := grpcServer.Serve(listener); err != nil {
			logger.Error("grpc server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-ctx.Done():
		logger.Warn("shutdown timeout, forcing exit")
		grpcServer.Stop()
	case <-stopped:
		logger.Info("graceful shutdown complete")
	}
}

// resolveEngineBinary returns the configured Stockfish path, falling back
// to the first existing non-directory path among cfg.SearchPaths and
// finally to the bare name "stockfish" for a PATH lookup (spec.md §4.3's
// engine binary resolution is left to the deployment environment).
func resolveEngineBinary(cfg config.StockfishConfig) string {
	if cfg.BinaryPath != "" {
		return cfg.BinaryPath
	}
	for _, path := range cfg.SearchPaths {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return "stockfish"
}

func setupLogger(level string, format string) *zap.Logger {
	var logLevel zapcore.Level
	switch level {
	case "debug":
		logLevel = zapcore.DebugLevel
	case "warn":
		logLevel = zapcore.WarnLevel
	case "error":
		logLevel = zapcore.ErrorLevel
	default:
		logLevel = zapcore.InfoLevel
	}

	var zcfg zap.Config
	if format == "json" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zcfg.Level = zap.NewAtomicLevelAt(logLevel)

	logger, err := zcfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
