package container

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"library-backend/internal/config"
	loanHandler "library-backend/internal/domains/loan/handler"
	loanRepo "library-backend/internal/domains/loan/repository"
	loanService "library-backend/internal/domains/loan/service"
	"library-backend/internal/domains/realtime"
	realtimeHandler "library-backend/internal/domains/realtime/handler"
	titleHandler "library-backend/internal/domains/title/handler"
	titleRepo "library-backend/internal/domains/title/repository"
	titleService "library-backend/internal/domains/title/service"
	infraCache "library-backend/internal/infrastructure/cache"
	"library-backend/internal/infrastructure/database"
	"library-backend/internal/infrastructure/queue"
	"library-backend/pkg/cache"
	"library-backend/pkg/jwt"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container holds every dependency of the application.
// Build order: config, infrastructure, repositories, services, handlers.
type Container struct {
	// Infrastructure
	Config      *config.Config
	DB          *database.PostgresDB    // nil when STORE_DRIVER=memory
	Redis       *infraCache.RedisClient // nil when REDIS_ENABLED=false
	Cache       cache.Cache             // nil without Redis
	JWTManager  *jwt.Manager
	AsynqClient *asynq.Client // nil without Redis
	Enqueuer    *queue.Enqueuer

	// Realtime
	Hub       *realtime.Hub
	Publisher realtime.Publisher
	relay     *realtime.RedisRelay

	// Repositories
	TitleRepo titleRepo.RepositoryInterface
	LoanRepo  loanRepo.RepositoryInterface

	// Services
	TitleService titleService.ServiceInterface
	Ledger       loanService.ServiceInterface

	// Handlers
	TitleHandler    *titleHandler.Handler
	LoanHandler     *loanHandler.Handler
	RealtimeHandler *realtimeHandler.Handler

	stopBackground context.CancelFunc
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

func NewContainer() (*Container, error) {
	log.Println("Initializing DI Container...")

	c := &Container{}

	// STEP 1: CONFIGURATION
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Printf("Config loaded (Environment: %s, Store: %s, Broker: %s)",
		cfg.App.Environment, cfg.Ledger.StoreDriver, cfg.Realtime.Broker)

	// STEP 2: DATABASE
	if err := c.initDatabase(); err != nil {
		return nil, err
	}

	// STEP 3: REDIS, CACHE, QUEUE
	if err := c.initRedis(); err != nil {
		return nil, err
	}

	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL())

	// STEP 4: REALTIME
	c.initRealtime()

	// STEP 5: REPOSITORIES
	c.initRepositories()
	log.Println("Repositories initialized")

	// STEP 6: SERVICES
	c.initServices()
	log.Println("Services initialized")

	// STEP 7: HANDLERS
	c.initHandlers()
	log.Println("Handlers initialized")

	log.Println("DI Container initialized successfully")
	return c, nil
}

func (c *Container) initDatabase() error {
	if c.Config.Ledger.StoreDriver != config.StoreDriverPostgres {
		log.Println("Using in-memory store, PostgreSQL skipped")
		return nil
	}

	log.Println("Connecting to PostgreSQL...")
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(context.Background()); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	c.DB = db
	log.Println("Database connected")
	return nil
}

func (c *Container) initRedis() error {
	cfg := c.Config.Redis
	if !cfg.Enabled {
		log.Println("Redis disabled: no cache, no background jobs")
		return nil
	}

	log.Println("Connecting to Redis...")
	rc := infraCache.NewRedisClient(cfg)
	if err := rc.Connect(context.Background()); err != nil {
		// a redis broker cannot work without it; the cache and queue can
		if c.Config.Realtime.Broker == config.BrokerRedis {
			return fmt.Errorf("redis broker unavailable: %w", err)
		}
		log.Printf("Redis connection failed (non-critical): %v", err)
	}

	c.Redis = rc
	c.Cache = infraCache.NewRedisCache(rc.Client)
	c.AsynqClient = asynq.NewClient(c.RedisClientOpt())
	c.Enqueuer = queue.NewEnqueuer(c.AsynqClient)
	return nil
}

// RedisClientOpt is the asynq connection shared by the API and the worker
func (c *Container) RedisClientOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     c.Config.Redis.Host,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	}
}

func (c *Container) initRealtime() {
	c.Hub = realtime.NewHub(c.Config.Realtime.BufferSize)
	c.Publisher = c.Hub

	if c.Config.Realtime.Broker == config.BrokerRedis {
		// every instance publishes to the channel and relays it into its own hub
		c.Publisher = realtime.NewRedisBroadcaster(c.Redis.Client, c.Config.Realtime.Channel)
		c.relay = realtime.NewRedisRelay(c.Redis.Client, c.Config.Realtime.Channel, c.Hub)
	}
}

func (c *Container) initRepositories() {
	if c.DB == nil {
		c.TitleRepo = titleRepo.NewMemoryRepository()
		c.LoanRepo = loanRepo.NewMemoryRepository()
		return
	}

	c.TitleRepo = titleRepo.NewPostgresRepository(c.DB.Pool)
	c.LoanRepo = loanRepo.NewPostgresRepository(c.DB.Pool)
}

func (c *Container) initServices() {
	opts := []loanService.Option{loanService.WithLoanPeriod(c.Config.Ledger.LoanPeriod)}

	// interfaces must stay untyped nil when there is no queue
	var syncer titleService.AvailabilitySyncer
	if c.Enqueuer != nil {
		syncer = c.Enqueuer
		opts = append(opts, loanService.WithSyncer(c.Enqueuer))
	}

	c.TitleService = titleService.NewService(c.TitleRepo, c.LoanRepo, c.Publisher, syncer)
	c.Ledger = loanService.NewLedger(c.LoanRepo, c.TitleRepo, c.Publisher, opts...)
}

func (c *Container) initHandlers() {
	c.TitleHandler = titleHandler.NewHandler(c.TitleService)
	c.LoanHandler = loanHandler.NewHandler(c.Ledger)
	c.RealtimeHandler = realtimeHandler.NewHandler(c.Hub, c.Config.Realtime.Heartbeat)
}

// StartBackground launches the long-running goroutines the API needs:
// the redis relay and the database pool monitor.
func (c *Container) StartBackground() {
	ctx, cancel := context.WithCancel(context.Background())
	c.stopBackground = cancel

	if c.relay != nil {
		go func() {
			for ctx.Err() == nil {
				if err := c.relay.Run(ctx); err != nil {
					log.Printf("Realtime relay stopped, resubscribing: %v", err)
				}
				select {
				case <-ctx.Done():
				case <-time.After(2 * time.Second):
				}
			}
		}()
	}

	if c.DB != nil {
		go c.DB.MonitorPoolHealth(ctx, time.Minute)
	}
}

func (c *Container) Cleanup() {
	log.Println("Cleaning up container resources...")

	if c.stopBackground != nil {
		c.stopBackground()
	}

	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			log.Printf("Failed to close asynq client: %v", err)
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Printf("Failed to close Redis: %v", err)
		} else {
			log.Println("Redis connections closed")
		}
	}

	if c.DB != nil {
		_ = c.DB.Close()
	}

	log.Println("Container cleanup completed")
}
