package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/devblog-app/devblog-api/config"
	"github.com/devblog-app/devblog-api/internal/application"
	"github.com/devblog-app/devblog-api/internal/container"
	"github.com/devblog-app/devblog-api/internal/gateway"
	gwpg "github.com/devblog-app/devblog-api/internal/gateway/postgres"
	gwrest "github.com/devblog-app/devblog-api/internal/gateway/rest"
	"github.com/devblog-app/devblog-api/internal/interface/middleware"
	"github.com/devblog-app/devblog-api/internal/router"
	"github.com/devblog-app/devblog-api/internal/session"
	"github.com/devblog-app/devblog-api/pkg/helpers"
	"github.com/devblog-app/devblog-api/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	cfg.MustValidate()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()

	// Redis
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()

	// Gateway client: auth always speaks to the hosted service over REST; the
	// data subsystem uses a direct Postgres connection when DB_DSN is set and
	// the REST adapter otherwise.
	broker := gateway.NewBroker()
	inspector := helpers.NewTokenInspector(cfg.GatewayJWTSecret)
	restCfg := gwrest.Config{BaseURL: cfg.GatewayURL, AnonKey: cfg.GatewayAnonKey, Logger: logger}
	gwAuth := gwrest.NewAuth(restCfg, broker, inspector)

	var gwData gateway.Data
	if cfg.DBDSN != "" {
		pool, err := gwpg.NewPool(ctx, cfg.DBDSN, cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		defer pool.Close()

		if err := runMigrations(cfg.DBDSN, cfg.MigrationsDir, logger); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("migration failed: %v", err)
		}
		gwData = gwpg.NewData(pool, logger)
	} else {
		gwData = gwrest.NewData(restCfg)
	}

	client := gateway.NewClient(gwAuth, gwData, broker, logger)
	startCtx, cancelStart := context.WithTimeout(ctx, 15*time.Second)
	if err := client.Start(startCtx); err != nil {
		cancelStart()
		log.Fatalf("gateway client start failed: %v", err)
	}
	cancelStart()
	defer client.Stop()

	// Session stores and the auth service that writes them
	sessions := session.NewManager(rdb, logger)
	authSvc := application.NewAuthService(client.Auth, client.Data, sessions, logger)
	authSvc.Start()
	defer authSvc.Close()

	// GCS (post images); optional
	if cfg.GCSBucket != "" {
		gcsClient, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			log.Fatalf("failed to init GCS client: %v", err)
		}
		defer func() { _ = gcsClient.Close() }()
		container.SetGCS(gcsClient)
	}

	// Elasticsearch (post search); optional
	if len(cfg.ESAddrs()) > 0 {
		es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			logger.WithError(err).Warn("elasticsearch unavailable, search disabled")
		} else {
			container.SetES(es)
		}
	}

	// RabbitMQ publisher (post-published events); optional
	if cfg.RabbitMQURL != "" {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQPostQueue)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unavailable, publish events disabled")
		} else {
			defer pub.Close()
			container.SetRabbitPub(pub)
		}
	}

	cookies := helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure)

	// Provide singletons to the container for registry wiring
	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetRedis(rdb)
	container.SetGateway(client)
	container.SetCookies(cookies)
	container.SetAuthService(authSvc)

	// Gin engine and global middleware
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP())
	r.Use(middleware.Session(authSvc, inspector, cookies, logger))
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsCfg.AllowOrigins) > 0 {
		r.Use(cors.New(corsCfg))
	}
	if cfg.HTTPLogEnabled || cfg.Env == "development" {
		r.Use(gin.Logger())
	}

	reg := router.NewRegistry(r)
	router.InitModules(reg)
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}

func runMigrations(dsn string, migrationsDir string, logger *logrus.Logger) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		return err
	}
	logger.Info("running migrations...")
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to run")
		return nil
	}
	return err
}
