package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Neighbor_Board/internal/config"
	"Neighbor_Board/internal/handler"
	"Neighbor_Board/internal/middleware"
	"Neighbor_Board/internal/pkg"
	"Neighbor_Board/internal/repository"
	"Neighbor_Board/internal/repository/memory"
	"Neighbor_Board/internal/repository/mysql"
	"Neighbor_Board/internal/repository/redis"
	"Neighbor_Board/internal/router"
	"Neighbor_Board/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// 配置错误直接退出
		panic(err)
	}

	log, err := newLogger(cfg.AppEnv)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg, log)
	if err != nil {
		log.Fatal("open storage failed", zap.String("storage", cfg.Storage), zap.Error(err))
	}

	// 连接redis
	rdb, err := redis.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal("connect redis failed", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	defer func() { _ = rdb.Close() }()

	reports, err := service.NewReportService(store, cfg.Moderation, log)
	if err != nil {
		log.Fatal("invalid moderation config", zap.Error(err))
	}
	ads := service.NewAdService(store, log)
	communities := service.NewCommunityService(store, service.NewAdminElector(log), pkg.NewAccessCodeGenerator(nil), log)

	sender := service.LogSender(log)
	if cfg.KafkaEnabled() {
		producer := pkg.NewKafkaProducer(pkg.KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
		defer func() { _ = producer.Close() }()
		sender = service.KafkaSender(producer, log)
	}
	relayer := service.NewOutboxRelayer(store.Outbox(), sender, cfg.OutboxBatchSize, cfg.OutboxInterval, log)
	go relayer.Run(ctx)

	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	auth := middleware.AuthMiddleware(pkg.NewTokenCodec(cfg.JWTAccessSecret), redis.NewTokenRepository(rdb), log)
	engine := router.InitRouter(router.Handlers{
		Ads:         handler.NewAdHandler(ads, log),
		Reports:     handler.NewReportHandler(reports, log),
		Communities: handler.NewCommunityHandler(communities, log),
	}, auth, log)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: engine, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// openStore STORAGE=memory 用于本地调试，重启即丢失
func openStore(cfg *config.Config, log *zap.Logger) (repository.Store, error) {
	if cfg.Storage == "memory" {
		log.Warn("using in-memory storage")
		return memory.NewStore(), nil
	}
	if err := mysql.InitDB(cfg.MySQLDSN); err != nil {
		return nil, err
	}
	// 自动建表（开发阶段 OK）
	if err := mysql.Migrate(mysql.DB); err != nil {
		return nil, err
	}
	return mysql.NewStore(mysql.DB), nil
}
