package main // Entry point package

import (
	"log"  // Logging library
	"time" // Cache TTL conversion

	"github.com/joho/godotenv"    // .env loading for local development
	"github.com/labstack/echo/v4" // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/openrange/contest-service/internal/config"
	"github.com/openrange/contest-service/internal/database"
	"github.com/openrange/contest-service/internal/handler"
	"github.com/openrange/contest-service/internal/middleware"
	"github.com/openrange/contest-service/internal/queue"
	"github.com/openrange/contest-service/internal/repository"
	"github.com/openrange/contest-service/internal/router"
	queue_publisher "github.com/openrange/contest-service/internal/service"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("mysql connect failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	// The blacklist lives in Redis and is load-bearing for logout, so a
	// missing Redis is fatal rather than a degraded mode.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Fatal("redis connect failed")
	}

	users := repository.NewUserRepo(db)
	contests := repository.NewContestRepo(db)
	tokens := repository.NewTokenRepo(rdb)

	authHandler := handler.NewAuthHandler(cfg, users, tokens)
	userHandler := handler.NewUserHandler(cfg, users)
	userHandler.Audit = queue_publisher.PublishPasswordReset
	contestHandler := handler.NewContestHandler(cfg, contests, users)

	// Background audit trail consumer; reconnects on broker failures.
	go func() {
		if err := queue.StartAuditConsumer(); err != nil {
			log.Printf("audit consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.Use(echomw.Logger())  // request logging
	e.Use(echomw.Recover()) // turn panics into 500s

	authn := middleware.Authenticate(cfg.JWTSecret, users, tokens)
	var listCache echo.MiddlewareFunc
	if cfg.CacheTTLSec > 0 {
		listCache = middleware.CacheList(rdb, time.Duration(cfg.CacheTTLSec)*time.Second)
	}
	router.RegisterRoutes(e, authHandler, userHandler, contestHandler, authn, listCache)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
