package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/philling1/house-marketplace/internal/adapter/geocode"
	natsAdapter "github.com/philling1/house-marketplace/internal/adapter/messaging/nats"
	"github.com/philling1/house-marketplace/internal/adapter/oauth"
	"github.com/philling1/house-marketplace/internal/adapter/repository/cache"
	mongoRepo "github.com/philling1/house-marketplace/internal/adapter/repository/mongodb"
	"github.com/philling1/house-marketplace/internal/adapter/storage/s3"
	"github.com/philling1/house-marketplace/internal/config"
	"github.com/philling1/house-marketplace/internal/handler"
	listingUsecase "github.com/philling1/house-marketplace/internal/listing/usecase"
	"github.com/philling1/house-marketplace/internal/mailer"
	appMiddleware "github.com/philling1/house-marketplace/internal/middleware"
	"github.com/philling1/house-marketplace/internal/platform/logger"
	"github.com/philling1/house-marketplace/internal/platform/metrics"
	"github.com/philling1/house-marketplace/internal/platform/tracer"
	"github.com/philling1/house-marketplace/internal/router"
	userUsecase "github.com/philling1/house-marketplace/internal/user/usecase"
)

const serviceName = "house_marketplace"

func main() {
	// Load .env file (optional, for local development)
	if err := godotenv.Load(); err != nil {
		fmt.Printf("INFO: .env file not found or error loading: %v. Relying on OS environment variables.\n", err)
	}

	appLogger := logger.NewLogger()
	appLogger.Info("Application starting...", zap.String("service_name", serviceName))

	cfg, err := config.LoadConfig()
	if err != nil {
		appLogger.Fatal("Failed to load configuration", zap.Error(err))
	}
	appLogger.Info("Configuration loaded successfully",
		zap.String("http_port", cfg.HTTPPort),
		zap.Bool("mongo_uri_set", cfg.MongoURI != ""),
		zap.String("nats_url", cfg.NATSURL),
		zap.String("prometheus_port", cfg.PrometheusMetricsPort),
	)

	var tp *sdktrace.TracerProvider
	if cfg.OTLPEndpoint != "" {
		tp, err = tracer.InitTracer(serviceName, cfg.OTLPEndpoint, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			if err := tp.Shutdown(ctxShutdown); err != nil {
				appLogger.Error("Failed to shutdown tracer provider", zap.Error(err))
			}
		}()
		appLogger.Info("OpenTelemetry Tracer initialized.")
	} else {
		appLogger.Info("OpenTelemetry Tracer not initialized (OTEL_EXPORTER_OTLP_ENDPOINT not set).")
	}

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		appLogger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err = mongoClient.Disconnect(context.Background()); err != nil {
			appLogger.Error("Error disconnecting from MongoDB", zap.Error(err))
		}
	}()
	ctxPingMongo, cancelPingMongo := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPingMongo()
	if err = mongoClient.Ping(ctxPingMongo, nil); err != nil {
		appLogger.Fatal("Failed to ping MongoDB", zap.Error(err))
	}
	appLogger.Info("Successfully connected and pinged MongoDB.")
	db := mongoClient.Database(cfg.MongoDatabase)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis.", zap.String("addr", cfg.RedisAddr))

	imageStorage, err := s3.NewImageStorage(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOBucket, cfg.MinIOUseSSL, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize image storage", zap.Error(err))
	}
	appLogger.Info("Image storage initialized.", zap.String("bucket", cfg.MinIOBucket))

	natsPublisher, err := natsAdapter.NewPublisher(cfg.NATSURL)
	if err != nil {
		appLogger.Fatal("Failed to initialize NATS publisher", zap.Error(err))
	}
	defer natsPublisher.Close()
	appLogger.Info("NATS Publisher initialized.")

	metricsManager := metrics.NewMetricsManager(serviceName)
	go func() {
		if err := metrics.StartMetricsServer(cfg.PrometheusMetricsPort, appLogger, metricsManager.Registry); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Metrics server failed", zap.Error(err))
		}
	}()

	listingRepo := mongoRepo.NewListingRepository(db, appLogger)
	favoriteRepo := mongoRepo.NewFavoriteRepository(db, appLogger)
	userRepo := mongoRepo.NewUserRepository(db, appLogger)

	listingCache := cache.NewListingCache(redisClient)
	sessionCache := cache.NewSessionCache(redisClient)

	geocoder := geocode.NewClient(cfg.GeocodingEndpoint, cfg.GeocodingAPIKey, appLogger)
	googleProvider := oauth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, appLogger)
	smtpMailer := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPEmail, cfg.SMTPPassword)

	userUC := userUsecase.NewUserUsecase(userRepo, sessionCache, googleProvider, cfg.JWTSecret, appLogger)
	listingUC := listingUsecase.NewListingUsecase(listingRepo, listingCache, imageStorage, geocoder, natsPublisher, smtpMailer, userUC, metricsManager, appLogger)
	favoriteUC := listingUsecase.NewFavoriteUsecase(favoriteRepo, appLogger)

	userHandler := handler.NewUserHandler(userUC, appLogger)
	listingHandler := handler.NewListingHandler(listingUC, favoriteUC, appLogger)

	mux := chi.NewRouter()
	mux.Use(chimiddleware.RequestID)
	mux.Use(chimiddleware.Recoverer)
	mux.Use(appMiddleware.RequestLogger(appLogger))
	mux.Use(appMiddleware.Metrics(metricsManager))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.SetupUserRoutes(mux, userHandler, cfg.JWTSecret)
	router.SetupListingRoutes(mux, listingHandler, cfg.JWTSecret)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  90 * time.Second,
	}

	go func() {
		appLogger.Info("HTTP server starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutdown signal received, stopping HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server shutdown error", zap.Error(err))
	}
	appLogger.Info("Application stopped.")
}
