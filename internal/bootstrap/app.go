package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"certify-backend/internal/analytics"
	"certify-backend/internal/certificates"
	"certify-backend/internal/queue"
	"certify-backend/internal/seed"
	"certify-backend/internal/services/health"
	"certify-backend/internal/shared/config"
	"certify-backend/internal/shared/server"
	"certify-backend/internal/shared/server/middleware"
	"certify-backend/internal/shared/storage/db"
	"certify-backend/internal/shared/storage/mongodb"
	"certify-backend/internal/shared/storage/object"
	gridfsstore "certify-backend/internal/shared/storage/object/gridfs"
	localstore "certify-backend/internal/shared/storage/object/local"
	s3store "certify-backend/internal/shared/storage/object/s3"
	"certify-backend/internal/shared/telemetry"
	"certify-backend/internal/workerproc"
)

// App holds shared dependencies.
type App struct {
	Config              config.Config
	Router              *gin.Engine
	DB                  *sql.DB
	Mongo               *mongo.Database
	Store               object.ObjectStore
	Queue               queue.Client
	CertificatesRepo    certificates.Repo
	CertificatesService *certificates.Service
	AnalyticsService    *analytics.Service
	Health              *health.Service
	Cleaner             *workerproc.BlobCleaner
}

// Build wires stores, services and the router from cfg.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = config.ObjectStoreLocal
	}
	if strings.TrimSpace(cfg.RecordStoreType) == "" {
		cfg.RecordStoreType = config.RecordStoreMemory
	}
	ctx := context.Background()

	app := &App{Config: cfg}

	if err := buildRecords(ctx, app); err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, app)
	if err != nil {
		return nil, err
	}
	app.Store = store

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Queue = queueClient

	app.CertificatesService = &certificates.Service{
		Repo:     app.CertificatesRepo,
		Store:    app.Store,
		Provider: app.Config.ObjectStoreType,
		Scope:    certificates.ParseScope(cfg.RetrievalScope),
		Cleanup:  app.Queue,
	}
	app.AnalyticsService = &analytics.Service{Repo: app.CertificatesRepo}
	app.Health = health.NewService(app.CertificatesRepo, app.Config.RecordStoreType, app.Config.ObjectStoreType)
	app.Cleaner = &workerproc.BlobCleaner{Store: app.Store, Provider: app.Config.ObjectStoreType}

	if cfg.SeedSampleData {
		if _, err := seed.Run(ctx, app.CertificatesRepo, time.Now()); err != nil {
			telemetry.Warn("bootstrap.seed_failed", map[string]any{"error": err.Error()})
		}
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:       app.Config,
		Certificates: certificates.NewHandler(app.CertificatesService),
		Analytics:    analytics.NewHandler(app.AnalyticsService),
		Health:       app.Health,
		Limiter:      middleware.NewRateLimiter(nil),
	})

	return app, nil
}

// Close releases database connections held by the app.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	if a.Mongo != nil {
		errs = append(errs, mongodb.Disconnect(ctx, a.Mongo))
	}
	return errors.Join(errs...)
}

func buildRecords(ctx context.Context, app *App) error {
	cfg := app.Config
	switch cfg.RecordStoreType {
	case config.RecordStorePostgres:
		sqlDB, err := buildDB(ctx, cfg)
		if err != nil {
			return err
		}
		if sqlDB != nil {
			app.DB = sqlDB
			app.CertificatesRepo = &certificates.PGRepo{DB: sqlDB}
			return nil
		}
	case config.RecordStoreMongo:
		database, err := mongoDatabase(ctx, app)
		if err != nil {
			return err
		}
		if database != nil {
			repo := certificates.NewMongoRepo(database)
			if err := repo.EnsureIndexes(ctx); err != nil {
				return fmt.Errorf("ensure mongo indexes: %w", err)
			}
			app.CertificatesRepo = repo
			return nil
		}
	}

	telemetry.Info("bootstrap.memory_records", map[string]any{"record_store": cfg.RecordStoreType})
	app.Config.RecordStoreType = config.RecordStoreMemory
	app.CertificatesRepo = certificates.NewMemoryRepo()
	return nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.ForRuntime(ctx, cfg.DatabaseURL)
	if err == nil {
		err = db.RunMigrations(ctx, sqlDB)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.db_fallback", map[string]any{"error": err.Error()})
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

// mongoDatabase connects once and is shared by the record store and GridFS.
func mongoDatabase(ctx context.Context, app *App) (*mongo.Database, error) {
	if app.Mongo != nil {
		return app.Mongo, nil
	}
	cfg := app.Config
	database, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		if isDevLike(cfg.Env) && cfg.ObjectStoreType != config.ObjectStoreGridFS {
			telemetry.Warn("bootstrap.mongo_fallback", map[string]any{"error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	app.Mongo = database
	return database, nil
}

func buildStore(ctx context.Context, app *App) (object.ObjectStore, error) {
	cfg := app.Config
	switch cfg.ObjectStoreType {
	case config.ObjectStoreS3:
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case config.ObjectStoreGridFS:
		database, err := mongoDatabase(ctx, app)
		if err != nil {
			return nil, err
		}
		return gridfsstore.New(database, gridfsstore.DefaultBucket)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.CleanupQueueURL) == "" {
		return nil, nil
	}
	client, err := queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.CleanupQueueURL)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
