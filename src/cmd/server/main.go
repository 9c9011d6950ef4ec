package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/fx"

	"chatstatus/src/adapters/http"
	"chatstatus/src/adapters/kafka/consumers"
	"chatstatus/src/helper/env"
	"chatstatus/src/infra/crmapi"
	"chatstatus/src/infra/eventbus"
	"chatstatus/src/infra/kafka"
	"chatstatus/src/infra/redis"
	"chatstatus/src/repositories"
	"chatstatus/src/services/events"
	"chatstatus/src/services/resolver"
)

func main() {
	log.SetOutput(os.Stdout)
	log.Println("Starting chat status server with Uber Fx...")

	app := fx.New(
		// Providers
		fx.Provide(
			newLogger,
			newCRMClient,
			newRedisClient,
			newKafkaClient,
			newEventBus,
			newLookupRepository,
			newKanbanRepository,
			newCachedStatusRepository,
			newResolverService,
			newDispatcher,
			newEventSink,
			newCRMEventsConsumer,
			newServer,
		),

		// Invocations
		fx.Invoke(registerInfraHooks, registerConsumerHooks, registerServerHooks),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	// Wait for interrupt signal to gracefully shutdown
	<-app.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := app.Stop(stopCtx); err != nil {
		log.Printf("Failed to stop application gracefully: %v", err)
	}
}

func newLogger() *slog.Logger {
	logLevel := env.GetString("LOG_LEVEL", "info")
	level := slog.LevelInfo

	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

func newCRMClient(logger *slog.Logger) (*crmapi.Client, error) {
	return crmapi.NewClient(logger, crmapi.Config{
		BaseURL:      env.MustGetString("CRM_API_BASE_URL"),
		Token:        env.GetString("CRM_API_TOKEN"),
		Timeout:      env.GetDuration("CRM_API_TIMEOUT", 10*time.Second),
		RateLimitQPS: env.GetFloat("CRM_API_RATE_LIMIT_QPS", 0),
		Burst:        env.GetInt("CRM_API_RATE_LIMIT_BURST", 10),
	})
}

// newRedisClient retorna nil sem REDIS_HOSTS; o cache fica desligado.
func newRedisClient(logger *slog.Logger) *redis.RedisClient {
	redisHosts := env.GetString("REDIS_HOSTS")
	if redisHosts == "" {
		logger.Info("REDIS_HOSTS not set, status cache disabled")
		return nil
	}

	redisPoolSize := env.GetInt("REDIS_POOL_SIZE", 50)
	redisDefaultTTLSeconds := env.GetInt("REDIS_DEFAULT_TTL_SECONDS", 120)
	redisDefaultTTL := time.Duration(redisDefaultTTLSeconds) * time.Second

	return redis.NewRedisClient(redisHosts, redisPoolSize, redisDefaultTTL)
}

// newKafkaClient retorna nil sem KAFKA_BROKERS; eventos ficam só no processo.
func newKafkaClient(logger *slog.Logger) (*kafka.KafkaClient, error) {
	brokers := env.GetString("KAFKA_BROKERS")
	if brokers == "" {
		logger.Info("KAFKA_BROKERS not set, domain events stay in process")
		return nil, nil
	}

	// Cada réplica precisa de todos os eventos para invalidar as próprias sessões
	groupID := env.GetString("KAFKA_GROUP_ID", "chatstatus-"+uuid.NewString())
	batchSize := env.GetInt("KAFKA_BATCH_SIZE", 50)

	return kafka.NewKafkaClient(logger, brokers, groupID, batchSize)
}

func newEventBus() *eventbus.Bus {
	return eventbus.New()
}

func newLookupRepository(logger *slog.Logger, client *crmapi.Client) *repositories.LookupRepository {
	return repositories.NewLookupRepository(logger, client)
}

func newKanbanRepository(logger *slog.Logger, client *crmapi.Client) *repositories.KanbanRepository {
	return repositories.NewKanbanRepository(logger, client)
}

func newCachedStatusRepository(logger *slog.Logger, redisClient *redis.RedisClient) *repositories.CachedStatusRepository {
	return repositories.NewCachedStatusRepository(logger, redisClient)
}

func newResolverService(
	logger *slog.Logger,
	lookupRepository *repositories.LookupRepository,
	kanbanRepository *repositories.KanbanRepository,
	cachedStatusRepository *repositories.CachedStatusRepository,
) *resolver.ResolverService {
	return resolver.NewResolverService(
		logger,
		lookupRepository,
		kanbanRepository,
		cachedStatusRepository,
		env.GetInt("RESOLVE_CONCURRENCY", 6),
	)
}

func newDispatcher(
	logger *slog.Logger,
	cachedStatusRepository *repositories.CachedStatusRepository,
	bus *eventbus.Bus,
) *events.Dispatcher {
	return events.NewDispatcher(logger, cachedStatusRepository, bus)
}

// newEventSink publica no Kafka quando configurado; o consumer de cada réplica
// faz o despacho local. Sem Kafka o despacho é direto.
func newEventSink(logger *slog.Logger, kafkaClient *kafka.KafkaClient, dispatcher *events.Dispatcher) events.EventSink {
	if kafkaClient == nil {
		return dispatcher
	}
	return events.NewDomainEventPublisher(logger, kafkaClient, eventsTopic())
}

func newCRMEventsConsumer(logger *slog.Logger, dispatcher *events.Dispatcher) *consumers.CRMEventsConsumer {
	return consumers.NewCRMEventsConsumer(logger, dispatcher)
}

func newServer(
	logger *slog.Logger,
	resolverService *resolver.ResolverService,
	eventSink events.EventSink,
	bus *eventbus.Bus,
	redisClient *redis.RedisClient,
) *http.Server {
	var health http.HealthChecker
	if redisClient != nil {
		health = redisClient
	}

	cfg := http.ServerConfig{
		Addr:           env.GetString("SERVER_ADDR", ":8080"),
		AllowedOrigins: env.GetStrings("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}

	return http.NewServer(logger, cfg, resolverService, eventSink, bus, health)
}

func eventsTopic() string {
	return env.GetString("KAFKA_EVENTS_TOPIC", "crm-domain-events")
}

func registerInfraHooks(lc fx.Lifecycle, logger *slog.Logger, redisClient *redis.RedisClient) {
	if redisClient == nil {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// Redis fora do ar não impede o start; as leituras viram MISS
			if err := redisClient.HealthCheck(ctx); err != nil {
				logger.Warn("Redis health check failed at startup", "error", err)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return redisClient.Close()
		},
	})
}

// registerConsumerHooks registers lifecycle hooks for the Kafka consumer
func registerConsumerHooks(
	lc fx.Lifecycle,
	logger *slog.Logger,
	kafkaClient *kafka.KafkaClient,
	consumer *consumers.CRMEventsConsumer,
) {
	if kafkaClient == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				if err := consumer.Start(ctx, kafkaClient, eventsTopic()); err != nil {
					logger.Error("CRM events consumer stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return kafkaClient.Close()
		},
	})
}

// registerServerHooks registers lifecycle hooks for the HTTP server
func registerServerHooks(lc fx.Lifecycle, logger *slog.Logger, srv *http.Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// Start server in a separate goroutine
			go func() {
				if err := srv.Start(); err != nil {
					log.Fatalf("Server failed: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// Create timeout context for graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Server forced to shutdown", "error", err)
				return err
			}
			logger.Info("Server exited gracefully")
			return nil
		},
	})
}
