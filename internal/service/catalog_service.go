package service

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/subcover-api/internal/models"
	"github.com/noah-isme/subcover-api/pkg/cache"
)

type catalogRepository interface {
	ListGrades(ctx context.Context) ([]models.Grade, error)
	ListSubjects(ctx context.Context) ([]models.Subject, error)
	SitesByIDs(ctx context.Context, ids []int64) ([]models.Site, error)
}

var (
	gradeNamesKey   = cache.Key("catalog", "grades")
	subjectNamesKey = cache.Key("catalog", "subjects")
)

// CatalogService resolves catalog ids to display values. Lookup failures
// degrade to empty names.
type CatalogService struct {
	repo   catalogRepository
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewCatalogService constructs the service.
func NewCatalogService(repo catalogRepository, cacheSvc *CacheService, ttl time.Duration, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, cache: cacheSvc, ttl: ttl, logger: logger}
}

// GradeName returns the grade's name, or "" when unknown.
func (s *CatalogService) GradeName(ctx context.Context, id *int64) string {
	if id == nil {
		return ""
	}
	return s.names(ctx, gradeNamesKey, func(ctx context.Context) (map[int64]string, error) {
		grades, err := s.repo.ListGrades(ctx)
		if err != nil {
			return nil, err
		}
		out := make(map[int64]string, len(grades))
		for _, g := range grades {
			out[g.ID] = g.Name
		}
		return out, nil
	})[*id]
}

// SubjectName returns the subject's name, or "" when unknown.
func (s *CatalogService) SubjectName(ctx context.Context, id *int64) string {
	if id == nil {
		return ""
	}
	return s.names(ctx, subjectNamesKey, func(ctx context.Context) (map[int64]string, error) {
		subjects, err := s.repo.ListSubjects(ctx)
		if err != nil {
			return nil, err
		}
		out := make(map[int64]string, len(subjects))
		for _, sub := range subjects {
			out[sub.ID] = sub.Name
		}
		return out, nil
	})[*id]
}

// SiteCodes returns the short codes of the given sites in id order.
func (s *CatalogService) SiteCodes(ctx context.Context, ids []int64) []string {
	sites, err := s.repo.SitesByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("failed to load sites", zap.Error(err))
		return nil
	}
	codes := make([]string, 0, len(sites))
	for _, site := range sites {
		code := site.Code
		if code == "" {
			code = strconv.FormatInt(site.ID, 10)
		}
		codes = append(codes, code)
	}
	return codes
}

// Invalidate drops cached catalog names.
func (s *CatalogService) Invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx, gradeNamesKey, subjectNamesKey)
}

func (s *CatalogService) names(ctx context.Context, key string, load func(context.Context) (map[int64]string, error)) map[int64]string {
	var cached map[int64]string
	if s.cache.Get(ctx, key, &cached) {
		return cached
	}
	fresh, err := load(ctx)
	if err != nil {
		s.logger.Warn("failed to load catalog names", zap.String("key", key), zap.Error(err))
		return map[int64]string{}
	}
	s.cache.Set(ctx, key, fresh, s.ttl)
	return fresh
}
