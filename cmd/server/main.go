package main // Entry point package

import (
	"context"
	"errors"
	"io"
	"log" // Logging library
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4" // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware"
	glog "github.com/labstack/gommon/log"

	"github.com/hackathon-range/shop-backend/internal/broadcast"
	"github.com/hackathon-range/shop-backend/internal/config" // Internal config loader
	"github.com/hackathon-range/shop-backend/internal/database"
	"github.com/hackathon-range/shop-backend/internal/handler"
	"github.com/hackathon-range/shop-backend/internal/middleware"
	"github.com/hackathon-range/shop-backend/internal/queue"
	"github.com/hackathon-range/shop-backend/internal/repository"
	"github.com/hackathon-range/shop-backend/internal/router" // Internal router setup
	"github.com/hackathon-range/shop-backend/internal/service"
	"github.com/hackathon-range/shop-backend/internal/utils"
)

func main() {
	cfg := config.Load() // Load environment config

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	if cfg.SeedOnStart {
		if err := database.Seed(ctx, db, cfg); err != nil {
			log.Fatalf("seed: %v", err)
		}
	}

	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		log.Fatalf("log dir: %v", err)
	}
	accessLog, err := os.OpenFile(filepath.Join(cfg.LogDir, "access.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Fatalf("access log: %v", err)
	}
	defer accessLog.Close()

	rdb := config.NewRedisClient() // nil when Redis is unreachable; cache and limiter then pass through
	if rdb != nil {
		defer rdb.Close()
	}

	users := repository.NewUserRepo(db)
	products := repository.NewProductRepo(db)
	orders := repository.NewOrderRepo(db)
	answers := repository.NewAnswerRepo(db)
	forum := repository.NewForumRepo(db)
	tokens := utils.NewTokenService(cfg.AccessSecret, cfg.RefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)

	publisher := service.NewPublisher(cfg.AMQPURL, 256)
	go publisher.Run(ctx)
	go func() {
		if err := queue.StartScoringConsumer(ctx, cfg.AMQPURL, cfg.LogDir); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("scoring consumer stopped: %v", err)
		}
	}()

	hub := broadcast.NewHub()
	go hub.Run(ctx)

	engine := service.NewEngine(cfg.Scoring, users, orders, products, answers, publisher)
	sched, err := engine.StartSnapshotScheduler(cfg.SnapshotEvery)
	if err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	defer func() { _ = sched.Shutdown() }()

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Logger.SetLevel(logLevel(cfg.LogLevel))
	e.Use(echomw.Recover())
	e.Use(echomw.LoggerWithConfig(echomw.LoggerConfig{Output: io.MultiWriter(os.Stdout, accessLog)}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e) // Register application routes
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), tokens)
	router.RegisterUsers(e, handler.NewUserHandler(cfg, users), tokens)
	router.RegisterCatalog(e, handler.NewProductHandler(products, users, cfg.AdminUsername), tokens, middleware.NewResponseCache(config.LoadCacheConfig(), rdb))
	router.RegisterOrders(e, handler.NewOrderHandler(orders, products), tokens)
	router.RegisterScoring(e, handler.NewScoreHandler(engine, users, answers), tokens)
	router.RegisterCommunity(e, handler.NewForumHandler(forum), handler.NewBotActivityHandler(hub), tokens)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) { // Start HTTP server
			log.Fatal(err) // Log and exit if server fails
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func logLevel(s string) glog.Lvl {
	switch s {
	case "DEBUG":
		return glog.DEBUG
	case "WARN":
		return glog.WARN
	case "ERROR":
		return glog.ERROR
	case "OFF":
		return glog.OFF
	}
	return glog.INFO
}
