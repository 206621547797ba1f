package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/flicky/go-shop-api/internal/config"
	"github.com/flicky/go-shop-api/internal/handler"
	"github.com/flicky/go-shop-api/internal/migrate"
	"github.com/flicky/go-shop-api/internal/repository"
	"github.com/flicky/go-shop-api/internal/service"
	"github.com/flicky/go-shop-api/internal/worker"
)

var autoMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server and the order event worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().BoolVar(&autoMigrate, "migrate", true, "apply pending migrations before serving")
}

func serve(parent context.Context) error {
	log := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// PostgreSQL
	poolCfg, err := pgxpool.ParseConfig(cfg.DB.DSN())
	if err != nil {
		return fmt.Errorf("parse db config: %w", err)
	}
	poolCfg.MaxConns = cfg.DB.MaxConns

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	log.Info("connected to PostgreSQL")

	if autoMigrate {
		if err := migrate.Up(ctx, dbPool, log); err != nil {
			return err
		}
	}

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to Redis: %w", err)
	}
	log.Info("connected to Redis")

	// RabbitMQ
	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		return fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	defer amqpConn.Close()

	consumeCh, err := amqpConn.Channel()
	if err != nil {
		return fmt.Errorf("open RabbitMQ channel: %w", err)
	}
	defer consumeCh.Close()

	if err := worker.SetupRabbitMQ(consumeCh); err != nil {
		return fmt.Errorf("setup RabbitMQ: %w", err)
	}

	publishCh, err := amqpConn.Channel()
	if err != nil {
		return fmt.Errorf("open RabbitMQ publish channel: %w", err)
	}
	defer publishCh.Close()
	log.Info("connected to RabbitMQ")

	// Repositories
	userRepo := repository.NewUserRepository(dbPool)
	categoryRepo := repository.NewCategoryRepository(dbPool)
	productRepo := repository.NewProductRepository(dbPool)
	reviewRepo := repository.NewReviewRepository(dbPool)
	relationRepo := repository.NewRelationRepository(dbPool)
	orderRepo := repository.NewOrderRepository(dbPool)

	// Services
	cache := service.NewProductCache(redisClient, cfg.Cache.ProductTTL, log)
	authSvc := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	categorySvc := service.NewCategoryService(categoryRepo)
	productSvc := service.NewProductService(productRepo, reviewRepo, relationRepo, cache)
	reviewSvc := service.NewReviewService(reviewRepo, productRepo, cache)
	relationSvc := service.NewRelationService(relationRepo, productRepo, cache)
	orderSvc := service.NewOrderService(orderRepo, worker.NewOrderPublisher(publishCh), log)

	router := newRouter(cfg.JWT.Secret, cfg.Server.AllowOrigins, routes{
		auth:     handler.NewAuthHandler(authSvc),
		category: handler.NewCategoryHandler(categorySvc),
		product:  handler.NewProductHandler(productSvc),
		review:   handler.NewReviewHandler(reviewSvc),
		relation: handler.NewRelationHandler(relationSvc),
		order:    handler.NewOrderHandler(orderSvc),
		health:   handler.NewHealthHandler(dbPool, redisClient, amqpConn),
	})

	// Worker
	orderWorker := worker.NewOrderEventWorker(consumeCh, worker.NewRedisOrderFeed(redisClient), worker.NewRedisProcessedSet(redisClient), log)
	if err := orderWorker.Start(ctx); err != nil {
		return fmt.Errorf("start order event worker: %w", err)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		orderWorker.Stop()
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	orderWorker.Stop()
	time.Sleep(500 * time.Millisecond)
	log.Info("server stopped")
	return nil
}
