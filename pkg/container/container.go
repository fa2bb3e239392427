package container

import (
	"context"
	"fmt"

	"barcatalog-backend/internal/config"
	"barcatalog-backend/internal/domains/catalog"
	"barcatalog-backend/internal/domains/catalog/fetcher"
	catalogRepo "barcatalog-backend/internal/domains/catalog/repository"
	"barcatalog-backend/internal/domains/snapshot"
	"barcatalog-backend/internal/domains/snapshot/builder"
	snapshotHandler "barcatalog-backend/internal/domains/snapshot/handler"
	snapshotRepo "barcatalog-backend/internal/domains/snapshot/repository"
	snapshotService "barcatalog-backend/internal/domains/snapshot/service"
	"barcatalog-backend/internal/infrastructure/database"
	"barcatalog-backend/internal/infrastructure/storage"
	"barcatalog-backend/internal/shared"
	"barcatalog-backend/pkg/logger"
)

// Container is the root of the dependency graph. Everything is an
// explicitly constructed singleton with an Open/Cleanup lifecycle,
// so tests can substitute fakes and several instances can coexist
// in one process.
type Container struct {
	Config  *config.Config
	DB      *database.PostgresDB
	Storage *storage.MinIOStorage

	CatalogRepo  catalog.Repository
	SnapshotRepo snapshot.Repository

	Fetcher   *fetcher.Client
	Builder   builder.Builder
	Publisher snapshot.Publisher
	Pipeline  snapshot.Pipeline

	SnapshotService snapshot.Service
	SnapshotHandler *snapshotHandler.SnapshotHandler
}

// NewContainer initialises the whole dependency graph in order:
// config → infrastructure → repositories → services → handlers.
func NewContainer() (*Container, error) {
	c := &Container{}
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg

	logger.Init(cfg.App.Environment)

	db, err := database.NewPostgresDB(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}
	c.DB = db

	minioStorage, err := storage.NewMinIOStorage(cfg.MinIO)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init object storage: %w", err)
	}
	c.Storage = minioStorage

	c.CatalogRepo = catalogRepo.NewPostgresRepository(db.Pool)
	c.SnapshotRepo = snapshotRepo.NewPostgresRepository(db.Pool)

	format := shared.SnapshotFormat(cfg.Snapshot.Format)
	c.Fetcher = fetcher.NewClient(cfg.Source)
	c.Builder = builder.New(format, c.CatalogRepo)
	c.Publisher = snapshotService.NewPublisher(c.Storage, format)
	c.Pipeline = snapshotService.NewPipeline(
		c.Fetcher,
		c.CatalogRepo,
		c.Builder,
		c.Publisher,
		c.SnapshotRepo,
		cfg.Snapshot.SchemaVersion,
	)

	c.SnapshotService = snapshotService.NewService(c.SnapshotRepo, c.Storage, cfg.Snapshot.SignedURLTTL)
	c.SnapshotHandler = snapshotHandler.NewSnapshotHandler(c.SnapshotService)

	logger.Info("container initialised", map[string]interface{}{
		"environment":     cfg.App.Environment,
		"snapshot_format": cfg.Snapshot.Format,
	})
	return c, nil
}

// Cleanup releases held resources, in reverse order of creation
func (c *Container) Cleanup() {
	if c.DB != nil {
		c.DB.Close()
	}
}
