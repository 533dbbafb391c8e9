package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"pdfmark/internal/app"
	"pdfmark/internal/cache"
	"pdfmark/internal/config"
	"pdfmark/internal/logging"
	"pdfmark/internal/metrics"
	mongoClient "pdfmark/internal/platform/mongo"
	mysqlClient "pdfmark/internal/platform/mysql"
	rabbitmqClient "pdfmark/internal/platform/rabbitmq"
	redisClient "pdfmark/internal/platform/redis"
	"pdfmark/internal/repository"
	"pdfmark/internal/repository/memory"
	mongorepo "pdfmark/internal/repository/mongo"
	"pdfmark/internal/storage"
	"pdfmark/internal/worker"
)

type App struct {
	Config  *config.Config
	Log     logging.Logger
	Metrics *metrics.Metrics

	MySQL  *gorm.DB
	Mongo  *mongodriver.Database
	Memory *memory.DB
	Redis  *redis.Client
	MQConn *amqp.Connection

	// LocalFiles is the directory served under /files when objects are kept
	// on local disk. It is empty for remote object stores.
	LocalFiles string

	Documents   *app.DocumentService
	Markups     *app.MarkupService
	EventWorker *worker.UploadEventWorker

	StartedAt time.Time
}

type stores struct {
	docs    app.DocumentStore
	markups app.MarkupStore
	events  worker.EventStore
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	return NewWithConfig(ctx, cfg)
}

// NewWithConfig connects every configured backend. Resources opened before
// a failure are closed again.
func NewWithConfig(ctx context.Context, cfg *config.Config) (_ *App, err error) {
	if err := logging.SetLogLevel(cfg.Log.Level); err != nil {
		return nil, err
	}
	a := &App{
		Config:    cfg,
		Log:       logging.New("server"),
		StartedAt: time.Now(),
	}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	if a.Metrics, err = metrics.New(); err != nil {
		return nil, err
	}

	st, err := a.openStores(ctx)
	if err != nil {
		return nil, err
	}

	objects, err := a.openObjectStore(ctx)
	if err != nil {
		return nil, err
	}

	var markupCache app.MarkupCache
	if cfg.Redis.Enabled {
		if a.Redis, err = redisClient.New(ctx, cfg.Redis); err != nil {
			return nil, err
		}
		markupCache = cache.NewMarkupCache(a.Redis, cfg.MarkupTTL())
	}

	var publisher app.UploadEventPublisher
	if cfg.RabbitMQ.Enabled {
		if a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, a.Log.Named("rabbitmq")); err != nil {
			return nil, err
		}
		publisher = rabbitmqClient.NewUploadEventPublisher(a.MQConn, cfg.RabbitMQ.UploadEventQueue)

		a.EventWorker = worker.NewUploadEventWorker(a.MQConn, st.events, cfg.RabbitMQ.UploadEventQueue, a.Metrics, a.Log.Named("worker"))
		if err := a.EventWorker.Start(ctx); err != nil {
			return nil, fmt.Errorf("start upload event worker failed: %w", err)
		}
	}

	a.Documents = app.NewDocumentService(st.docs, objects, publisher, a.Metrics, a.Log, cfg.MaxUploadBytes())
	a.Markups = app.NewMarkupService(st.docs, st.markups, markupCache, a.Metrics, a.Log)

	a.Log.Infow("app.ready",
		"storage", cfg.Storage.Driver,
		"object_store", cfg.ObjectStore.Driver,
		"redis", cfg.Redis.Enabled,
		"rabbitmq", cfg.RabbitMQ.Enabled,
	)
	return a, nil
}

func (a *App) openStores(ctx context.Context) (stores, error) {
	cfg := a.Config
	switch cfg.Storage.Driver {
	case config.StorageMySQL:
		db, err := mysqlClient.New(ctx, cfg.MySQLDSN(), a.Log.Named("gorm"))
		if err != nil {
			return stores{}, err
		}
		a.MySQL = db
		if err := mysqlClient.Migrate(db); err != nil {
			return stores{}, err
		}
		return stores{
			docs:    repository.NewDocumentRepository(db),
			markups: repository.NewMarkupRepository(db),
			events:  repository.NewUploadEventRepository(db),
		}, nil

	case config.StorageMongo:
		timeout := time.Duration(cfg.Mongo.ConnectTimeoutSeconds) * time.Second
		db, err := mongoClient.New(ctx, cfg.Mongo.URI, cfg.Mongo.Database, timeout)
		if err != nil {
			return stores{}, err
		}
		a.Mongo = db
		return stores{
			docs:    mongorepo.NewDocumentRepository(db),
			markups: mongorepo.NewMarkupRepository(db),
			events:  mongorepo.NewUploadEventRepository(db),
		}, nil

	default:
		db, err := memory.New()
		if err != nil {
			return stores{}, err
		}
		a.Memory = db
		return stores{
			docs:    memory.NewDocumentRepository(db),
			markups: memory.NewMarkupRepository(db),
			events:  memory.NewUploadEventRepository(db),
		}, nil
	}
}

func (a *App) openObjectStore(ctx context.Context) (app.ObjectStore, error) {
	cfg := a.Config.ObjectStore
	if cfg.Driver == config.ObjectStoreS3 {
		return storage.NewS3Store(ctx, storage.S3Config{
			Endpoint:      cfg.Endpoint,
			Bucket:        cfg.Bucket,
			Region:        cfg.Region,
			AccessKey:     cfg.AccessKey,
			SecretKey:     cfg.SecretKey,
			UseSSL:        cfg.UseSSL,
			Prefix:        cfg.Prefix,
			PublicBaseURL: cfg.PublicBaseURL,
		})
	}

	local, err := storage.NewLocalStore(cfg.Dir, cfg.PublicBaseURL)
	if err != nil {
		return nil, err
	}
	a.LocalFiles = local.Dir()
	return local, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.EventWorker != nil {
		a.EventWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	if a.Mongo != nil {
		if err := a.Mongo.Client().Disconnect(context.Background()); err != nil {
			closeErr = err
		}
	}
	if a.Memory != nil {
		if err := a.Memory.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Log != nil {
		_ = a.Log.Sync()
	}
	return closeErr
}
