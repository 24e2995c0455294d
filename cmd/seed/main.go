package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/subcover-api/internal/models"
	"github.com/noah-isme/subcover-api/internal/repository"
	"github.com/noah-isme/subcover-api/internal/service"
	"github.com/noah-isme/subcover-api/pkg/cache"
	"github.com/noah-isme/subcover-api/pkg/config"
	"github.com/noah-isme/subcover-api/pkg/database"
	"github.com/noah-isme/subcover-api/pkg/logger"
)

func main() {
	path := flag.String("catalog", "cmd/seed/catalog.yaml", "path to catalog YAML")
	migrate := flag.Bool("migrate", true, "apply migrations before seeding")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := run(ctx, cfg, logr, *path, *migrate); err != nil {
		logr.Fatal("seed failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger, path string, migrate bool) error {
	catalog, err := loadCatalog(path)
	if err != nil {
		return err
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	if migrate {
		if err := database.Migrate(ctx, db.DB, logr); err != nil {
			return err
		}
	}

	catalogRepo := repository.NewCatalogRepository(db)
	if err := catalogRepo.Seed(ctx, catalog); err != nil {
		return err
	}

	// Running APIs would otherwise serve stale names until the TTL lapses.
	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, catalog cache not invalidated", zap.Error(err))
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	if cacheRepo.Enabled() {
		cacheSvc := service.NewCacheService(cacheRepo, nil, cfg.Catalog.CacheTTL, logr, true)
		service.NewCatalogService(catalogRepo, cacheSvc, cfg.Catalog.CacheTTL, logr).Invalidate(ctx)
	}
	logr.Info("catalog seeded",
		zap.Int("tenants", len(catalog.Tenants)),
		zap.Int("sites", len(catalog.Sites)),
		zap.Int("grades", len(catalog.Grades)),
		zap.Int("subjects", len(catalog.Subjects)))
	return nil
}

func loadCatalog(path string) (models.Catalog, error) {
	var catalog models.Catalog
	raw, err := os.ReadFile(path)
	if err != nil {
		return catalog, fmt.Errorf("read catalog: %w", err)
	}
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return catalog, fmt.Errorf("parse catalog: %w", err)
	}
	return catalog, nil
}
