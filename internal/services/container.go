package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/zipcase/internal/alerting"
	"github.com/nexconsult/zipcase/internal/config"
	"github.com/nexconsult/zipcase/internal/cryptutil"
	"github.com/nexconsult/zipcase/internal/portal"
	"github.com/nexconsult/zipcase/internal/queue"
	"github.com/nexconsult/zipcase/internal/search"
	"github.com/nexconsult/zipcase/internal/statusapi"
	"github.com/nexconsult/zipcase/internal/store"
	"github.com/nexconsult/zipcase/internal/worker"
)

// Container holds every dependency the HTTP server and the background
// worker pools are built from, wired once at process startup.
type Container struct {
	config      *config.Config
	logger      *logrus.Logger
	redisClient *redis.Client

	CSS *store.CredentialStore
	CS  *store.CaseStore
	NSS *store.NameSearchStore

	PortalClient *portal.Client
	Auth         *portal.Authenticator

	SearchQueue   *queue.SearchQueue
	CaseDataQueue *queue.CaseDataQueue

	Alerts *alerting.Notifier

	CSP *search.CaseSearchProcessor
	NSP *search.NameSearchProcessor

	StatusAPI *statusapi.StatusAPI

	SearchWorker    *worker.SearchWorker
	CaseDataWorker  *worker.CaseDataWorker
	SearchReclaimer *queue.Reclaimer
	CaseReclaimer   *queue.Reclaimer
}

// NewContainer wires every component described in spec.md §2 on top of
// a single Redis client, then builds the worker pools and their
// staleness reclaimers so the caller only needs to Start/Stop them.
func NewContainer(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	c := &Container{config: cfg, logger: logger}

	c.redisClient = redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err := c.redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	keyProvider, err := cryptutil.NewStaticKeyProvider(cfg.Crypto.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize encryption key: %w", err)
	}
	sealer := cryptutil.NewSealer(cfg.Crypto.KeyID, keyProvider)

	c.CSS = store.NewCredentialStore(c.redisClient, sealer)
	c.CS = store.NewCaseStore(c.redisClient)
	c.NSS = store.NewNameSearchStore(c.redisClient)

	c.PortalClient = portal.NewClient(cfg.Portal, logger)
	c.Auth = portal.NewAuthenticator(c.PortalClient, c.CSS, cfg.Portal, logger)

	c.SearchQueue, err = queue.NewSearchQueue(ctx, c.redisClient, cfg.Queue.SearchStreamKey, cfg.Queue.VisibilityTimeout, cfg.Queue.MaxDeliveries, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize search queue: %w", err)
	}
	c.CaseDataQueue, err = queue.NewCaseDataQueue(ctx, c.redisClient, cfg.Queue.CaseDataStreamKey, cfg.Queue.VisibilityTimeout, cfg.Queue.MaxDeliveries, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize case-data queue: %w", err)
	}

	c.Alerts = alerting.New(c.redisClient, logger)

	c.CSP = search.NewCaseSearchProcessor(c.CS, c.SearchQueue, cfg.Portal.RefreshWindow, logger)
	c.NSP = search.NewNameSearchProcessor(c.NSS, c.Auth, c.SearchQueue, logger)

	c.StatusAPI = statusapi.New(c.CS, c.NSS, c.CaseDataQueue, c.Alerts, logger)

	deps := &worker.Deps{
		CS:            c.CS,
		NSS:           c.NSS,
		Auth:          c.Auth,
		Client:        c.PortalClient,
		SearchQueue:   c.SearchQueue,
		CaseDataQueue: c.CaseDataQueue,
		Alerts:        c.Alerts,
		MaxDeliveries: cfg.Queue.MaxDeliveries,
		Logger:        logger,
	}
	c.SearchWorker = worker.NewSearchWorker(poolSize, deps)
	c.CaseDataWorker = worker.NewCaseDataWorker(poolSize, deps)

	staleBound := time.Duration(cfg.Queue.StalenessMultiple) * cfg.Queue.VisibilityTimeout
	c.SearchReclaimer = worker.NewSearchReclaimer(c.SearchWorker, staleBound, logger)
	c.CaseReclaimer = worker.NewCaseDataReclaimer(c.CaseDataWorker, staleBound, logger)

	return c, nil
}

// poolSize is the number of goroutines each worker pool runs. Resolve,
// name-search, and case-data fetches are all single HTTP round trips
// against the same upstream portal, so a modest fixed pool (rather than
// a configurable one) is enough to keep it saturated without a
// per-deployment knob nothing in spec.md calls for.
const poolSize = 4

// Start launches both worker pools and their staleness reclaimers.
func (c *Container) Start() {
	c.SearchWorker.Start()
	c.CaseDataWorker.Start()
	c.SearchReclaimer.Start()
	c.CaseReclaimer.Start()
}

// Stop drains both worker pools and reclaimers before returning,
// completing any in-flight handler call.
func (c *Container) Stop() {
	c.SearchReclaimer.Stop()
	c.CaseReclaimer.Stop()
	c.SearchWorker.Stop()
	c.CaseDataWorker.Stop()
}

// Close releases the Redis connection. Call after Stop.
func (c *Container) Close() error {
	if c.redisClient == nil {
		return nil
	}
	return c.redisClient.Close()
}

// Health reports the health of every backing dependency, for the
// /health/ready endpoint.
func (c *Container) Health(ctx context.Context) map[string]interface{} {
	health := make(map[string]interface{})
	if err := c.redisClient.Ping(ctx).Err(); err != nil {
		health["redis"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
	} else {
		health["redis"] = map[string]interface{}{"status": "healthy"}
	}
	return health
}

// Config returns the process configuration.
func (c *Container) Config() *config.Config { return c.config }

// Logger returns the process-wide structured logger.
func (c *Container) Logger() *logrus.Logger { return c.logger }
