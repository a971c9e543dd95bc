package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"outletchat/internal/adapter/api"
	"outletchat/internal/adapter/api/handler"
	apimiddleware "outletchat/internal/adapter/api/middleware"
	"outletchat/internal/adapter/api/router"
	"outletchat/internal/adapter/repository"
	"outletchat/internal/infrastructure/firebase"
	"outletchat/internal/infrastructure/metrics"
	"outletchat/internal/infrastructure/rabbitmq"
	"outletchat/internal/infrastructure/ratelimit"
	"outletchat/internal/infrastructure/storage"
	"outletchat/internal/infrastructure/websocket"
	"outletchat/internal/usecase"
	"outletchat/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opt option.ClientOption
	if cfg.ServiceAccountJSON != "" {
		log.Printf("Using Firebase service account from environment variable")
		opt = option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON))
	} else {
		if cfg.ServiceAccountPath == "" {
			log.Fatalf("FIREBASE_SERVICE_ACCOUNT_JSON or FIREBASE_SERVICE_ACCOUNT_PATH must be set")
		}
		if _, err := os.Stat(cfg.ServiceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", cfg.ServiceAccountPath)
		}
		log.Printf("Using Firebase service account from file: %s", cfg.ServiceAccountPath)
		opt = option.WithCredentialsFile(cfg.ServiceAccountPath)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Cloud Storage: %v", err)
	}
	defer storageClient.Close()

	chatRepo := repository.NewFirestoreChatRepository(firestoreClient)
	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	fileMetadataRepo := repository.NewFirestoreFileMetadataRepository(firestoreClient)
	pushTokenRepo := repository.NewFirestorePushTokenRepository(firestoreClient)

	firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient)
	pushGateway := firebase.NewMessagingGateway(config.PushCredentialsFromEnv)
	if !pushGateway.Enabled() {
		log.Printf("Push credentials incomplete; push delivery disabled until they are set")
	}

	bus := rabbitmq.NewBus(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	defer bus.Close()

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	rateLimiter := ratelimit.NewRateLimiter(int(cfg.SendRatePerMinute))
	rateLimiter.StartCleanupRoutine(ctx)

	chatUseCase := usecase.NewChatUseCase(chatRepo, userRepo, wsManager, bus, rateLimiter)
	uploadUseCase := usecase.NewUploadUseCase(storageClient, fileMetadataRepo, chatRepo, cfg.MaxUploadBytes)
	notificationUseCase := usecase.NewNotificationUseCase(chatRepo, userRepo, pushTokenRepo, pushGateway, wsManager)

	wsManager.SetInboundHandler(chatUseCase)

	if err := bus.Consume(ctx, notificationUseCase.HandleMessageCreated); err != nil {
		log.Fatalf("Failed to start push consumer: %v", err)
	}

	handler.Setup(chatUseCase, uploadUseCase, notificationUseCase)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: corsOrigins(cfg.AllowedOrigins),
	}))
	e.Use(middleware.BodyLimit(bodyLimit(uploadUseCase.MaxSize())))
	e.Use(metrics.HTTPMetricsMiddleware())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(firebaseAuthClient)
	wsHandler := handler.NewWebSocketHandler(wsManager, cfg.AllowedOrigins)
	healthHandler := handler.NewHealthHandler(pushGateway.Enabled, wsManager.ConnectionCount, rabbitmq.Mode(bus))

	router.Setup(e, authMiddleware, rateLimiter)
	router.SetupWebSocketRouter(e, wsHandler, authMiddleware)
	router.SetupHealthRouter(e, healthHandler)

	go func() {
		log.Printf("Starting server on port %s...", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil {
			log.Printf("Server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

func corsOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// bodyLimit leaves headroom for multipart framing around the largest upload.
func bodyLimit(maxUpload int64) string {
	return strconv.FormatInt(maxUpload/1024+64, 10) + "K"
}
