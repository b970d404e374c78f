package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/issuetracker/issue-tracker/config"
	"github.com/issuetracker/issue-tracker/internal/issues/repository"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DBOptions struct {
	ConnectTO time.Duration
	PingTO    time.Duration
}

func (o *DBOptions) defaults() {
	if o.ConnectTO == 0 {
		o.ConnectTO = 5 * time.Second
	}
	if o.PingTO == 0 {
		o.PingTO = 2 * time.Second
	}
}

// OpenStore connects the configured issue store. The returned close func
// releases the underlying connection and is never nil.
func OpenStore(ctx context.Context, cfg config.StoreConfig, opt DBOptions) (repository.Store, func(), error) {
	opt.defaults()

	switch cfg.Driver {
	case config.DriverMongo:
		client, err := OpenMongo(ctx, cfg.MongoURI, opt)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			dctx, cancel := context.WithTimeout(context.Background(), opt.ConnectTO)
			defer cancel()
			_ = client.Disconnect(dctx)
		}
		return repository.NewMongoStore(client, cfg.MongoDB), closeFn, nil

	case config.DriverRedis:
		client, err := OpenRedis(ctx, cfg, opt)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisStore(client), func() { _ = client.Close() }, nil

	case config.DriverPostgres:
		db, err := OpenPostgres(ctx, cfg.PostgresDSN, opt)
		if err != nil {
			return nil, nil, err
		}
		store := repository.NewPostgresStore(db)
		sctx, cancel := context.WithTimeout(ctx, opt.ConnectTO)
		defer cancel()
		if err := store.EnsureSchema(sctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, func() { _ = db.Close() }, nil

	case config.DriverMemory:
		return repository.NewMemoryStore(), func() {}, nil
	}

	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

func OpenMongo(ctx context.Context, uri string, opt DBOptions) (*mongo.Client, error) {
	if uri == "" {
		return nil, fmt.Errorf("MONGO_URI is not set")
	}

	cctx, cancel := context.WithTimeout(ctx, opt.ConnectTO)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pctx, pcancel := context.WithTimeout(ctx, opt.PingTO)
	defer pcancel()

	if err := client.Ping(pctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, nil
}

func OpenRedis(ctx context.Context, cfg config.StoreConfig, opt DBOptions) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: opt.ConnectTO,
	})

	pctx, cancel := context.WithTimeout(ctx, opt.PingTO)
	defer cancel()

	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}

func OpenPostgres(ctx context.Context, dsn string, opt DBOptions) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DB_DSN is not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, opt.PingTO)
	defer cancel()

	if err := db.PingContext(pctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
