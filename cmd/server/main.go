package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/playmatatu/carrom/internal/admin"
	"github.com/playmatatu/carrom/internal/api"
	"github.com/playmatatu/carrom/internal/config"
	"github.com/playmatatu/carrom/internal/database"
	"github.com/playmatatu/carrom/internal/game"
	"github.com/playmatatu/carrom/internal/migrations"
	"github.com/playmatatu/carrom/internal/redis"
	"github.com/playmatatu/carrom/internal/ws"
	goredis "github.com/redis/go-redis/v9"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database is optional: without it there is no launch log and no admin API
	var db *sqlx.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if cfg.MigrateOnStart {
			log.Println("↗ Running DB migrations on startup...")
			if err := migrations.RunMigrations(cfg.DatabaseURL, ""); err != nil {
				log.Fatalf("Failed to run migrations: %v", err)
			}
		}

		if err := admin.ApplyRuntimeConfigToConfig(db, cfg); err != nil {
			log.Printf("[CONFIG] Runtime config not applied: %v", err)
		}
	} else {
		log.Println("[DB] DATABASE_URL not set, launch log and admin API disabled")
	}

	// Redis is optional: without it there is no presence and no cross-instance close
	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		var err error
		rdb, err = redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rdb.Close()
	} else {
		log.Println("[REDIS] REDIS_URL not set, board events stay local")
	}

	layout, err := game.LoadLayoutFile(cfg.LayoutFile)
	if err != nil {
		log.Fatalf("Failed to load board layout: %v", err)
	}
	log.Printf("[BOARD] Using layout %q with %d pucks", layout.Name, len(layout.Pucks))

	hub := ws.NewHub(rdb, time.Duration(cfg.PresenceTTLSecs)*time.Second)
	go hub.Run(ctx)

	manager := game.NewBoardManager(db, rdb, cfg, hub, layout)
	manager.StartExpiryChecker(ctx)
	ws.StartBoardEventSubscriber(ctx, rdb, manager)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupRoutes(router, db, cfg, manager, hub)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: ":" + port, Handler: router}

	go func() {
		log.Printf("Starting carrom board server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	manager.Shutdown()
}
