package main

import (
	"log"
	"net/http"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"

	"github.com/layer-3/liaison/adapters/events"
	"github.com/layer-3/liaison/adapters/provider"
	"github.com/layer-3/liaison/adapters/store"
	"github.com/layer-3/liaison/internal/config"
	"github.com/layer-3/liaison/ports"
	"github.com/layer-3/liaison/service"
	transport "github.com/layer-3/liaison/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var (
		keyStore        ports.KeyStore
		checkpointStore ports.CheckpointStore
		accountStore    ports.AccountStore
		eventPub        ports.EventPublisher
	)

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient := redis.NewClient(opts)

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: redisClient},
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			log.Fatalf("Failed to create Redis publisher: %v", err)
		}

		keyStore = store.NewRedisKeyStore(redisClient)
		checkpointStore = store.NewRedisCheckpointStore(redisClient)
		accountStore = store.NewRedisAccountStore(redisClient)
		eventPub = events.NewWatermillPublisher(publisher)
	} else {
		log.Println("REDIS_URL not set, using in-memory stores")
		keyStore = store.NewMemoryKeyStore()
		checkpointStore = store.NewMemoryCheckpointStore()
		accountStore = store.NewMemoryAccountStore()
	}

	providerClient := provider.NewClient(
		&http.Client{Timeout: cfg.ProviderTimeout},
		provider.Config{
			AuthBaseURL: cfg.ProviderAuthURL,
			APIBaseURL:  cfg.ProviderAPIURL,
		},
	)

	authService := service.NewAuthService(
		providerClient,
		checkpointStore,
		accountStore,
		eventPub,
		service.WithMaxAttempts(cfg.MaxCheckpointAttempts),
		service.WithCheckpointTTL(cfg.CheckpointTTL),
		service.WithProviderTimeout(cfg.ProviderTimeout),
	)
	keyService := service.NewKeyService(keyStore, eventPub)

	router := transport.SetupRouter(authService, keyService, []byte(cfg.UserTokenSecret))

	if err := router.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
