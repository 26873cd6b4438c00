package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"

	"flamematch_server/config"
	"flamematch_server/controllers"
	"flamematch_server/pubsub"
	"flamematch_server/routes"
	"flamematch_server/services"
	"flamematch_server/socket"
	"flamematch_server/storage"
	"flamematch_server/storage/dynamo"
	"flamematch_server/storage/memory"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("⚠️ Failed to load .env: %v", err)
	}
	cfg := config.MustLoad(*configPath)
	log.Printf("✅ Config loaded (env=%s, storage=%s, broker=%s)", cfg.Env, cfg.Storage.Driver, cfg.Broker.Driver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Failed to open storage: %v", err)
	}
	defer store.Close()

	broker, err := openBroker(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Failed to open broker: %v", err)
	}
	defer broker.Close()

	presigner, err := services.NewS3Presigner(ctx, cfg.Storage.Region)
	if err != nil {
		log.Fatalf("❌ Failed to create S3 presigner: %v", err)
	}
	faces, err := services.NewRekognitionClient(ctx, cfg.Storage.Region)
	if err != nil {
		log.Fatalf("❌ Failed to create Rekognition client: %v", err)
	}

	// Initialize Services
	metrics := services.NewMetrics(prometheus.DefaultRegisterer)
	quota := services.QuotaPolicy{
		DailyLikes:         cfg.Quota.DailyLikes,
		DailySuperLikes:    cfg.Quota.DailySuperLikes,
		GoldSuperLikes:     cfg.Quota.GoldSuperLikes,
		PlatinumSuperLikes: cfg.Quota.PlatinumSuperLikes,
	}
	auth := services.NewAuthenticator(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.Audience, cfg.Auth.TokenTTL)
	sessions := services.NewSessionManager(auth)

	profileService := &services.UserProfileService{Profiles: store, Quota: quota}
	discoveryService := &services.DiscoveryService{Profiles: store, Interactions: store, MaxLimit: cfg.Limits.MaxFeed}
	matchService := &services.MatchService{Profiles: store, Matches: store, Broker: broker, Metrics: metrics}
	interactionService := &services.InteractionService{
		Profiles:     store,
		Interactions: store,
		Matches:      matchService,
		Quota:        quota,
		Metrics:      metrics,
	}
	chatService := &services.ChatService{
		Matches:  store,
		Messages: store,
		Broker:   broker,
		Metrics:  metrics,
		PageSize: cfg.Limits.MessagesPage,
	}
	mediaService := &services.MediaService{Presigner: presigner, Bucket: cfg.Media.Bucket, TTL: cfg.Media.PresignTTL}
	verificationService := &services.VerificationService{
		Faces:     faces,
		Profiles:  profileService,
		Bucket:    cfg.Media.Bucket,
		Threshold: cfg.Verification.SimilarityThreshold,
	}

	// Register routes
	r := mux.NewRouter()
	authMW := mux.MiddlewareFunc(controllers.Authenticated(sessions))
	routes.RegisterRoutes(r)
	if cfg.IsLocal() {
		routes.RegisterAuthRoutes(r, auth)
		log.Println("⚠️ Dev token endpoint enabled")
	}
	routes.RegisterUserProfileRoutes(r, authMW, profileService, verificationService)
	routes.RegisterMatchRoutes(r, authMW, discoveryService, matchService, cfg.Limits.DefaultFeed)
	routes.RegisterInteractionRoutes(r, authMW, interactionService)
	routes.RegisterChatRoutes(r, authMW, chatService)
	routes.RegisterS3Routes(r, authMW, mediaService)

	socketServer := socket.NewSocketServer(sessions, chatService, matchService, cfg.Timeouts.Request)
	go func() {
		if err := socketServer.Serve(); err != nil {
			log.Printf("❌ Socket server stopped: %v", err)
		}
	}()
	defer socketServer.Close()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.HTTP.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", controllers.RequestIDHeader},
		AllowCredentials: true,
	})

	// socket connections are long-lived, so only the REST API gets the request timeout
	root := http.NewServeMux()
	root.Handle("/socket.io/", corsHandler.Handler(socketServer))
	root.Handle("/", http.TimeoutHandler(corsHandler.Handler(controllers.RequestID(r)), cfg.Timeouts.Request, `{"error":{"code":"unavailable","message":"request timed out"}}`))

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           root,
		ReadHeaderTimeout: cfg.Timeouts.Request,
	}

	go func() {
		log.Printf("🚀 Starting server on %s...", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("🔄 Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.Shutdown)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Graceful shutdown failed: %v", err)
	}
}

func openStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	if cfg.Storage.Driver == config.DriverMemory {
		log.Println("⚠️ Using in-memory storage; data is lost on restart")
		return memory.New(), nil
	}

	log.Println("Initializing DynamoDB client...")
	client, err := dynamo.NewClient(ctx, cfg.Storage.Region, cfg.Storage.Endpoint)
	if err != nil {
		return nil, err
	}
	store := dynamo.New(client, dynamo.Tables{
		Users:        cfg.Storage.Tables.Users,
		Interactions: cfg.Storage.Tables.Interactions,
		Matches:      cfg.Storage.Tables.Matches,
		Messages:     cfg.Storage.Tables.Messages,
	})
	if cfg.Storage.CreateTables {
		if err := store.CreateTables(ctx); err != nil {
			return nil, err
		}
	}
	log.Println("✅ DynamoDB client initialized.")
	return store, nil
}

func openBroker(ctx context.Context, cfg *config.Config) (pubsub.Broker, error) {
	if cfg.Broker.Driver == config.DriverRedis {
		return pubsub.NewRedis(ctx, cfg.Broker.RedisAddr, cfg.Broker.RedisPassword)
	}
	return pubsub.NewMemory(), nil
}
