package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/subcover-api/internal/models"
	appErrors "github.com/noah-isme/subcover-api/pkg/errors"
)

type stubCatalogRepo struct {
	gradeCalls int
	err        error
}

func (r *stubCatalogRepo) ListGrades(ctx context.Context) ([]models.Grade, error) {
	r.gradeCalls++
	if r.err != nil {
		return nil, r.err
	}
	return []models.Grade{{ID: 3, Name: "Third"}, {ID: 9, Name: "Any grade"}}, nil
}

func (r *stubCatalogRepo) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	return []models.Subject{{ID: 2, Name: "Math"}}, r.err
}

func (r *stubCatalogRepo) SitesByIDs(ctx context.Context, ids []int64) ([]models.Site, error) {
	return []models.Site{{ID: 10, Code: "PAHS"}, {ID: 11}}, r.err
}

type memoryCache struct {
	data map[string][]byte
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return jsonUnmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := jsonMarshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func TestCatalogServiceCachesNames(t *testing.T) {
	repo := &stubCatalogRepo{}
	metrics := NewMetricsService()
	cacheSvc := NewCacheService(&memoryCache{data: map[string][]byte{}}, metrics, time.Minute, nil, true)
	svc := NewCatalogService(repo, cacheSvc, time.Minute, nil)
	ctx := context.Background()

	assert.Equal(t, "Third", svc.GradeName(ctx, ptr(int64(3))))
	assert.Equal(t, "", svc.GradeName(ctx, ptr(int64(7))))
	assert.Equal(t, "", svc.GradeName(ctx, nil))
	assert.Equal(t, 1, repo.gradeCalls)
	assert.Equal(t, uint64(1), metrics.Snapshot().CacheHits)

	svc.Invalidate(ctx)
	svc.GradeName(ctx, ptr(int64(3)))
	assert.Equal(t, 2, repo.gradeCalls)

	assert.Equal(t, "Math", svc.SubjectName(ctx, ptr(int64(2))))
	assert.Equal(t, []string{"PAHS", "11"}, svc.SiteCodes(ctx, []int64{10, 11}))
}

func TestCatalogServiceDegradesOnErrors(t *testing.T) {
	svc := NewCatalogService(&stubCatalogRepo{err: errors.New("down")}, nil, time.Minute, nil)
	ctx := context.Background()

	assert.Equal(t, "", svc.GradeName(ctx, ptr(int64(3))))
	assert.Nil(t, svc.SiteCodes(ctx, []int64{10}))
}
