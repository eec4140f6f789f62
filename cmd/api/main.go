package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/averel/dayloop/internal/adapters/cache"
	adapterHTTP "github.com/averel/dayloop/internal/adapters/handler/http"
	"github.com/averel/dayloop/internal/adapters/repository"
	"github.com/averel/dayloop/internal/core/domain"
	"github.com/averel/dayloop/internal/core/services"
	"github.com/averel/dayloop/internal/core/workers"
	"github.com/averel/dayloop/internal/offline"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	startTime := time.Now()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment as-is")
	}

	serverPort := envOr("PORT", "8080")
	boltPath := envOr("BOLT_PATH", "dayloop.db")
	upstreamOrigin := envOr("UPSTREAM_ORIGIN", "http://localhost:3000")
	appVersion := envOr("APP_VERSION", "dev")
	jwtSecret := envOr("JWT_SECRET", "dev-secret-change-me")
	jwtIssuer := envOr("JWT_ISSUER", "dayloop")

	db, err := repository.OpenBolt(boltPath)
	if err != nil {
		log.Fatalf("Critical: Failed to open tracker database: %v", err)
	}
	defer db.Close()

	trackerRepo := repository.NewBoltTrackerRepository(db)
	catalog := repository.NewBoltHabitCatalog(db)

	// The Postgres mirror is optional backup; the bolt document stays the
	// source of truth either way.
	var mirrorDB *sqlx.DB
	var mirror domain.ValidationMirror
	var adminDirectory domain.AdminDirectory

	if dbName := os.Getenv("DB_NAME"); dbName != "" {
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"),
			envOr("DB_HOST", "localhost"), envOr("DB_PORT", "5432"), dbName)

		mirrorDB, err = sqlx.Connect("pgx", dsn)
		if err != nil {
			log.Printf("Mirror database unreachable, running local-only: %v", err)
			mirrorDB = nil
		} else {
			defer mirrorDB.Close()
			mirrorDB.SetMaxOpenConns(25)
			mirrorDB.SetMaxIdleConns(25)
			mirrorDB.SetConnMaxLifetime(5 * time.Minute)
			mirror = repository.NewPostgresValidationMirror(mirrorDB)
			adminDirectory = repository.NewPostgresAdminDirectory(mirrorDB)
			log.Println("Validation mirror connected.")
		}
	}

	if adminDirectory == nil {
		var adminIDs []string
		if raw := os.Getenv("ADMIN_IDS"); raw != "" {
			adminIDs = strings.Split(raw, ",")
		}
		adminDirectory = repository.NewStaticAdminDirectory(adminIDs)
	}

	var bucketStore offline.BucketStore = offline.NewMemoryBucketStore()
	var redisClient *redis.Client

	if redisHost := os.Getenv("REDIS_HOST"); redisHost != "" {
		rdb, err := cache.NewRedisClient(redisHost, envOr("REDIS_PORT", "6379"), os.Getenv("REDIS_PASSWORD"), 0)
		if err != nil {
			log.Printf("Redis unreachable, offline cache kept in memory: %v", err)
		} else {
			defer rdb.Close()
			bucketStore = cache.NewRedisBucketStore(rdb)
			redisClient = rdb
			log.Println("Redis connected.")
		}
	}

	upstream := &http.Client{Timeout: 15 * time.Second}
	manager := offline.NewManager(bucketStore, upstream, upstreamOrigin, appVersion, offline.DefaultManifest())

	ctx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	installCtx, cancelInstall := context.WithTimeout(ctx, 2*time.Minute)
	if err := manager.Install(installCtx); err != nil {
		// A failed install leaves the previous bucket serving fallbacks.
		log.Printf("Offline cache install failed: %v", err)
	} else if err := manager.Activate(installCtx); err != nil {
		log.Printf("Offline cache activation failed: %v", err)
	}
	cancelInstall()

	gateway := offline.NewGateway(manager, bucketStore, upstream, upstreamOrigin)
	pushService := offline.NewPushService(noopRegistry{}, logDisplayer{}, "/")

	worker := workers.NewBestStreakWorker(trackerRepo, catalog)
	worker.Start(ctx)

	trackerService := services.NewTrackerService(trackerRepo, mirror, worker)
	tokenService := services.NewTokenService(jwtSecret, jwtIssuer, 24*time.Hour)
	adminService := services.NewAdminService(adminDirectory, 5*time.Minute)

	trackerHandler := adapterHTTP.NewTrackerHandler(trackerService, catalog)
	adminHandler := adapterHTTP.NewAdminHandler(trackerRepo, adminService, pushService)

	router := adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		TrackerHandler: trackerHandler,
		AdminHandler:   adminHandler,
		TokenService:   tokenService,
		AdminService:   adminService,
		Gateway:        gateway,
		MirrorDB:       mirrorDB,
		Redis:          redisClient,
		StartTime:      startTime,
	})

	srv := &http.Server{
		Addr:         ":" + serverPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Dayloop running on http://localhost:%s", serverPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Critical server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Stop signal received. Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Forced shutdown error:", err)
	}

	log.Println("Server stopped gracefully.")
}
