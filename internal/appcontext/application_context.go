package appcontext

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/EventStore/EventStore-Client-Go/v4/esdb"
	"github.com/RoyceAzure/lab/grocery/internal/config"
	"github.com/RoyceAzure/lab/grocery/internal/constants"
	"github.com/RoyceAzure/lab/grocery/internal/infra/producer"
	"github.com/RoyceAzure/lab/grocery/internal/infra/repository/eventdb"
	"github.com/RoyceAzure/lab/grocery/internal/infra/repository/kv_repo"
	"github.com/RoyceAzure/lab/grocery/internal/infra/storage"
	"github.com/RoyceAzure/lab/grocery/internal/notify"
	"github.com/RoyceAzure/lab/grocery/internal/pkg/limiter"
	"github.com/RoyceAzure/lab/grocery/internal/pkg/logger"
	"github.com/RoyceAzure/lab/grocery/internal/service"
	"github.com/RoyceAzure/lab/grocery/internal/service/seed"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type ApplicationContext struct {
	Cf     *config.Config
	Logger zerolog.Logger

	logWriter     *logger.KafkaLogWriter
	RedisClient   *redis.Client
	Store         storage.Store
	Repo          *kv_repo.KVRepo
	EventClient   *esdb.Client
	OrderProducer *producer.OrderEventProducer
	TrackingHub   *notify.TrackingHub
	Publisher     *service.MultiPublisher

	TokenMaker      service.ITokenMaker
	IdentityService *service.IdentityService
	CartService     *service.CartService
	OrderService    *service.OrderService
	CatalogService  *service.CatalogService
	CheckoutService *service.CheckoutService
	RegisterLimiter limiter.ILimiter
}

func NewApplicationContext(ctx context.Context, cf *config.Config) (*ApplicationContext, error) {
	app := ApplicationContext{
		Cf: cf,
	}
	if err := app.Init(ctx); err != nil {
		// 已建立的連線仍要釋放
		_ = app.closeResources()
		return nil, err
	}
	return &app, nil
}

func (app *ApplicationContext) Init(ctx context.Context) error {
	steps := []func(context.Context) error{
		app.setUpLogger,
		app.setUpStore,
		app.setUpPublisher,
		app.setUpTokenMaker,
		app.setUpIdentityService,
		app.setUpCartService,
		app.setUpOrderService,
		app.setUpCatalogService,
		app.setUpCheckoutService,
		app.setUpRegisterLimiter,
		app.seedDemoData,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (app *ApplicationContext) setUpLogger(ctx context.Context) error {
	log.Printf("Start setup logger")
	var extra []io.Writer
	brokers := app.Cf.KafkaBrokerList()
	if len(brokers) > 0 && app.Cf.KafkaLogTopic != "" {
		app.logWriter = logger.NewKafkaLogWriter(brokers, app.Cf.KafkaLogTopic)
		extra = append(extra, app.logWriter)
	}
	app.Logger = logger.NewLogger(app.Cf.LogLevel, app.Cf.Env, extra...)
	log.Printf("Finish setup logger")
	return nil
}

func (app *ApplicationContext) redisClient() *redis.Client {
	if app.RedisClient == nil {
		app.RedisClient = storage.GetRedisClient(app.Cf.RedisAddr,
			storage.WithRedisPassword(app.Cf.RedisPas),
			storage.WithRedisDB(app.Cf.RedisDB),
		)
	}
	return app.RedisClient
}

func (app *ApplicationContext) setUpStore(ctx context.Context) error {
	log.Printf("Start setup store, driver: %s", app.Cf.StoreDriver)
	store, err := app.openStore()
	if err != nil {
		return err
	}
	app.Store = store
	if err := app.Store.Ping(ctx); err != nil {
		return err
	}
	app.Repo = kv_repo.NewKVRepo(app.Store)
	log.Printf("Finish setup store")
	return nil
}

func (app *ApplicationContext) openStore() (storage.Store, error) {
	cf := app.Cf
	switch constants.StoreDriver(strings.ToLower(cf.StoreDriver)) {
	case constants.StoreDriverMemory, "":
		return storage.NewMemoryStore(), nil
	case constants.StoreDriverRedis:
		return storage.NewRedisStore(app.redisClient(), cf.StorePrefix), nil
	case constants.StoreDriverPostgres:
		if err := storage.RunMigration(storage.PostgresURL(cf.DbName, cf.DbHost, cf.DbPort, cf.DbUser, cf.DbPas)); err != nil {
			return nil, err
		}
		conn, err := storage.GetPostgresConn(cf.DbName, cf.DbHost, cf.DbPort, cf.DbUser, cf.DbPas)
		if err != nil {
			return nil, err
		}
		return storage.NewDBStore(storage.NewDbDao(conn)), nil
	case constants.StoreDriverMysql:
		conn, err := storage.GetMysqlConn(cf.MysqlDsn)
		if err != nil {
			return nil, err
		}
		dao := storage.NewDbDao(conn)
		if err := dao.InitMigrate(); err != nil {
			return nil, fmt.Errorf("mysql migrate: %w", err)
		}
		return storage.NewDBStore(dao), nil
	default:
		return nil, fmt.Errorf("%w: %s", storage.ErrUnsupportedDriver, cf.StoreDriver)
	}
}

// setUpPublisher 事件一律寫 log 並推給追蹤頁, kafka 與 eventstore 有設定才啟用
func (app *ApplicationContext) setUpPublisher(ctx context.Context) error {
	log.Printf("Start setup event publisher")
	app.TrackingHub = notify.NewTrackingHub(app.Logger)
	publishers := []service.EventPublisher{
		service.NewLogPublisher(app.Logger),
		app.TrackingHub,
	}

	if brokers := app.Cf.KafkaBrokerList(); len(brokers) > 0 {
		topic := app.Cf.KafkaOrderTopic
		if topic == "" {
			topic = constants.DefaultKafkaTopic
		}
		app.OrderProducer = producer.NewOrderEventProducer(brokers, topic)
		publishers = append(publishers, app.OrderProducer)
	}

	if app.Cf.EventStoreUrl != "" {
		client, err := eventdb.NewEventStoreClient(app.Cf.EventStoreUrl)
		if err != nil {
			return fmt.Errorf("eventstore client: %w", err)
		}
		app.EventClient = client
		publishers = append(publishers, eventdb.NewEventStorePublisher(eventdb.NewEventDao(client)))
	}

	app.Publisher = service.NewMultiPublisher(publishers...)
	log.Printf("Finish setup event publisher")
	return nil
}

func (app *ApplicationContext) setUpTokenMaker(ctx context.Context) error {
	log.Printf("Start setup token maker")
	maker, err := service.NewJWTMaker(app.Cf.TokenSecret)
	if err != nil {
		return err
	}
	app.TokenMaker = maker
	log.Printf("Finish setup token maker")
	return nil
}

func (app *ApplicationContext) setUpIdentityService(ctx context.Context) error {
	log.Printf("Start setup identity service")
	app.IdentityService = service.NewIdentityService(ctx, app.Repo,
		service.NewPasswordHasher(app.Cf.PasswordHasher),
		app.TokenMaker,
		service.WithIdentityLatency(app.Cf.LoginLatency()),
		service.WithIdentityLogger(app.Logger),
		service.WithIdentityPublisher(app.Publisher),
	)
	log.Printf("Finish setup identity service")
	return nil
}

func (app *ApplicationContext) setUpCartService(ctx context.Context) error {
	log.Printf("Start setup cart service")
	app.CartService = service.NewCartService(ctx, app.Repo, service.WithCartLogger(app.Logger))
	log.Printf("Finish setup cart service")
	return nil
}

func (app *ApplicationContext) setUpOrderService(ctx context.Context) error {
	log.Printf("Start setup order service")
	app.OrderService = service.NewOrderService(ctx, app.Repo, app.IdentityService,
		service.WithOrderLatency(app.Cf.OrderLatency()),
		service.WithOrderLogger(app.Logger),
		service.WithOrderPublisher(app.Publisher),
		service.WithStrictTransitions(app.Cf.OrderStrictTransitions),
	)
	log.Printf("Finish setup order service")
	return nil
}

func (app *ApplicationContext) setUpCatalogService(ctx context.Context) error {
	log.Printf("Start setup catalog service")
	catalog, err := seed.LoadCatalog(app.Cf.CatalogPath)
	if err != nil {
		return err
	}
	app.CatalogService = service.NewCatalogService(catalog)
	log.Printf("Finish setup catalog service")
	return nil
}

func (app *ApplicationContext) setUpCheckoutService(ctx context.Context) error {
	log.Printf("Start setup checkout service")
	app.CheckoutService = service.NewCheckoutService(app.CartService, app.OrderService, app.IdentityService, app.Logger)
	log.Printf("Finish setup checkout service")
	return nil
}

func (app *ApplicationContext) setUpRegisterLimiter(ctx context.Context) error {
	log.Printf("Start setup register limiter")
	cfg := limiter.GetDefaultLimiterConfig()
	if app.Cf.RateLimitCapacity > 0 {
		cfg.Capacity = app.Cf.RateLimitCapacity
	}
	if refill := app.Cf.RateLimitRefill(); refill > 0 {
		cfg.RefillRate = refill
	}

	switch limiter.RateLimitType(strings.ToLower(app.Cf.RateLimitDriver)) {
	case limiter.RedisBucketType:
		app.RegisterLimiter = limiter.NewRsBucketToken(app.redisClient(), app.Cf.StorePrefix, &cfg)
	default:
		app.RegisterLimiter = limiter.NewTokenBucket(&cfg)
	}
	log.Printf("Finish setup register limiter")
	return nil
}

func (app *ApplicationContext) seedDemoData(ctx context.Context) error {
	if !app.Cf.SeedDemoData {
		return nil
	}
	log.Printf("Start seed demo users")
	if err := app.IdentityService.SeedDemoUsers(ctx); err != nil {
		return err
	}
	log.Printf("Finish seed demo users")
	return nil
}

func (app *ApplicationContext) Shutdown(ctx context.Context) error {
	log.Printf("Start application shutdown")

	done := make(chan error, 1)
	go func() {
		done <- app.closeResources()
	}()

	select {
	case err := <-done:
		log.Printf("Application shutdown complete")
		return err
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout: %v", ctx.Err())
	}
}

// closeResources 依建立的反向順序關閉, 有錯誤不中斷流程
func (app *ApplicationContext) closeResources() error {
	var errs []error
	if app.TrackingHub != nil {
		log.Printf("Closing tracking hub...")
		app.TrackingHub.Close()
	}
	if app.OrderProducer != nil {
		log.Printf("Closing order event producer...")
		errs = append(errs, app.OrderProducer.Close())
	}
	if app.EventClient != nil {
		log.Printf("Closing eventstore client...")
		errs = append(errs, app.EventClient.Close())
	}
	if app.Store != nil {
		log.Printf("Closing store...")
		errs = append(errs, app.Store.Close())
	}
	// redis store 與 limiter 共用同一個 client
	if app.RedisClient != nil {
		log.Printf("Closing redis client...")
		errs = append(errs, app.RedisClient.Close())
	}
	if app.logWriter != nil {
		log.Printf("Shutting down kafka log writer...")
		errs = append(errs, app.logWriter.Close())
	}
	return errors.Join(errs...)
}
