/**
 * @description
 * This is the main entry point for the ledger service. It is responsible for
 * initializing all components of the service: configuration, the Aerospike
 * repository and its secondary indexes, the RabbitMQ producer, the optional
 * Redis rate limiter, the core application service, and the HTTP server. It
 * wires everything together and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/go-chi/chi/v5: For HTTP routing (via internal/api).
 * - github.com/redis/go-redis/v9: Rate limiter backend.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages.
 * - pkg/rabbitmq: Event producer.
 */

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

	"github.com/redis/go-redis/v9"
	"github.com/VladislavRybnikov/onlinebanking/internal/api"
	"github.com/VladislavRybnikov/onlinebanking/internal/app"
	"github.com/VladislavRybnikov/onlinebanking/internal/config"
	"github.com/VladislavRybnikov/onlinebanking/internal/store"
	"github.com/VladislavRybnikov/onlinebanking/pkg/rabbitmq"
)

func main() {
	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}

	log.Printf("level=info component=bootstrap msg=\"starting ledger service\" port=%s", cfg.ServerPort)

	// Connect to Aerospike and make sure the transaction history indexes
	// exist before accepting traffic.
	repository, err := store.NewAerospikeRepository(store.AerospikeConfig{
		Host:            cfg.AerospikeHost,
		Port:            cfg.AerospikePort,
		Namespace:       cfg.AerospikeNamespace,
		UsersSet:        cfg.AerospikeUsersSet,
		TransactionsSet: cfg.AerospikeTransactionsSet,
	})
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"aerospike connection failed\" err=%v", err)
	}
	defer repository.Close()
	log.Println("level=info component=bootstrap msg=\"aerospike connected\"")

	setupCtx, cancelSetup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelSetup()
	if err := repository.EnsureIndexes(setupCtx); err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"aerospike index setup failed\" host=%s port=%d err=%v", cfg.AerospikeHost, cfg.AerospikePort, err)
	}
	log.Println("level=info component=bootstrap msg=\"aerospike indexes ready\"")

	// Initialize the RabbitMQ producer to publish status events. The broker
	// is optional; without it the service falls back to a no-op publisher.
	var producer rabbitmq.Publisher
	if strings.TrimSpace(cfg.RabbitMQURL) == "" {
		log.Println("level=warn component=bootstrap msg=\"rabbitmq url missing; status events disabled\" env=RABBITMQ_URL")
		producer = &rabbitmq.EventProducerFallback{}
	} else if eventProducer, prodErr := rabbitmq.NewEventProducer(cfg.RabbitMQURL); prodErr != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", prodErr)
		producer = &rabbitmq.EventProducerFallback{}
	} else {
		defer eventProducer.Close()
		producer = eventProducer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Initialize the core application service with its dependencies.
	ledgerService := app.NewService(repository, producer)

	// Optional Redis-backed rate limiting of lifecycle calls.
	if cfg.LifecycleRateLimitPerMinute > 0 {
		if strings.TrimSpace(cfg.RedisURL) == "" {
			log.Println("level=warn component=bootstrap msg=\"redis url missing; lifecycle rate limiting disabled\" env=REDIS_URL")
		} else if redisOptions, parseErr := redis.ParseURL(cfg.RedisURL); parseErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; lifecycle rate limiting disabled\" err=%v", parseErr)
		} else {
			redisClient := redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelPing()
			if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis ping failed; lifecycle rate limiting disabled\" err=%v", pingErr)
				redisClient.Close()
			} else {
				defer redisClient.Close()
				ledgerService.SetLifecycleRateLimiter(
					app.NewRedisRateLimiter(redisClient, cfg.RedisRateLimitPrefix),
					cfg.LifecycleRateLimitPerMinute,
				)
				log.Println("level=info component=bootstrap msg=\"redis connected\"")
			}
		}
	}

	// Initialize the API handlers and set up the HTTP router.
	handlers := api.NewHandlers(ledgerService)
	router := api.Routes(handlers)

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
