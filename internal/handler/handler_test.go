package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/subcover-api/internal/middleware"
	"github.com/noah-isme/subcover-api/internal/models"
	appErrors "github.com/noah-isme/subcover-api/pkg/errors"
)

type testEnvelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *appErrors.Error       `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) testEnvelope {
	var env testEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func testContext(method, target string, body []byte, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, rec
}

type fakeCoverageService struct {
	createResult *models.CoverageResult
	acceptErr    error
	lastActor    models.Actor
	lastFilter   models.CoverageRequestFilter
	lastPayload  models.CreateCoverageRequest
}

func (f *fakeCoverageService) Create(ctx context.Context, actor models.Actor, payload models.CreateCoverageRequest) (*models.CoverageResult, error) {
	f.lastActor = actor
	f.lastPayload = payload
	return f.createResult, nil
}

func (f *fakeCoverageService) Accept(ctx context.Context, actor models.Actor, token string) (*models.CoverageResult, error) {
	if f.acceptErr != nil {
		return nil, f.acceptErr
	}
	return &models.CoverageResult{Request: &models.CoverageRequest{Token: token, Status: models.CoverageStatusFilled}}, nil
}

func (f *fakeCoverageService) Get(ctx context.Context, actor models.Actor, token string) (*models.CoverageRequest, error) {
	return nil, appErrors.ErrNotFound
}

func (f *fakeCoverageService) List(ctx context.Context, actor models.Actor, filter models.CoverageRequestFilter) ([]models.CoverageRequest, *models.Pagination, error) {
	f.lastFilter = filter
	return []models.CoverageRequest{}, &models.Pagination{Page: 1, PageSize: 20}, nil
}

func (f *fakeCoverageService) MatchingOpen(ctx context.Context, actor models.Actor) ([]models.CoverageRequest, error) {
	return []models.CoverageRequest{{Token: "m1"}}, nil
}

var requesterClaims = &models.JWTClaims{UserID: "req-1", TenantID: 1, Role: models.RoleRequester, SiteIDs: []int64{10}}

func TestCoverageCreateReturnsWarningMeta(t *testing.T) {
	svc := &fakeCoverageService{createResult: &models.CoverageResult{
		Request:       &models.CoverageRequest{Token: "tok"},
		Notifications: models.DispatchSummary{Queued: 2, Failed: 1},
		Warnings:      []string{"request saved, but some notifications could not be queued"},
	}}
	body, _ := json.Marshal(map[string]interface{}{"date": "2030-03-11", "time_range": "08:00-15:00", "grade_id": 3, "subject_id": 2, "reason": "Medical"})
	c, rec := testContext(http.MethodPost, "/coverage-requests", body, requesterClaims)

	NewCoverageRequestHandler(svc).Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "request saved, but some notifications could not be queued", env.Meta["warning"])
	assert.Equal(t, "req-1", svc.lastActor.UserID)
	assert.True(t, svc.lastActor.SiteIDs.Has(10))
	assert.Equal(t, int64(3), svc.lastPayload.GradeID)
}

func TestCoverageCreateRequiresAuth(t *testing.T) {
	c, rec := testContext(http.MethodPost, "/coverage-requests", []byte(`{}`), nil)
	NewCoverageRequestHandler(&fakeCoverageService{}).Create(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCoverageAcceptConflict(t *testing.T) {
	c, rec := testContext(http.MethodPost, "/coverage-requests/tok/accept", nil, &models.JWTClaims{UserID: "cand", Role: models.RoleCandidate})
	c.Params = gin.Params{{Key: "token", Value: "tok"}}

	NewCoverageRequestHandler(&fakeCoverageService{acceptErr: appErrors.ErrAlreadyFilled}).Accept(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "ALREADY_FILLED", env.Error.Code)
	assert.Equal(t, "this position has already been taken", env.Error.Message)
}

func TestCoverageListParsesFilter(t *testing.T) {
	svc := &fakeCoverageService{}
	c, rec := testContext(http.MethodGet, "/coverage-requests?status=Open&date_from=2030-03-01&page=2&page_size=5", nil, requesterClaims)

	NewCoverageRequestHandler(svc).List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.lastFilter.Status)
	assert.Equal(t, models.CoverageStatusOpen, *svc.lastFilter.Status)
	assert.Equal(t, "2030-03-01", svc.lastFilter.DateFrom.Format("2006-01-02"))
	assert.Equal(t, 2, svc.lastFilter.Page)
	assert.Equal(t, 5, svc.lastFilter.PageSize)

	c, rec = testContext(http.MethodGet, "/coverage-requests?status=Closed", nil, requesterClaims)
	NewCoverageRequestHandler(svc).List(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type fakeUnavailabilityService struct {
	deleteErr error
}

func (f *fakeUnavailabilityService) List(ctx context.Context, actor models.Actor) ([]models.UnavailabilityException, error) {
	return []models.UnavailabilityException{}, nil
}

func (f *fakeUnavailabilityService) Create(ctx context.Context, actor models.Actor, req models.CreateUnavailabilityRequest) (*models.UnavailabilityException, error) {
	return &models.UnavailabilityException{ID: "exc-1", CandidateID: actor.UserID, AllDay: req.AllDay}, nil
}

func (f *fakeUnavailabilityService) Delete(ctx context.Context, actor models.Actor, id string) error {
	return f.deleteErr
}

func TestUnavailabilityHandlerCreateAndDelete(t *testing.T) {
	claims := &models.JWTClaims{UserID: "cand", Role: models.RoleCandidate}
	c, rec := testContext(http.MethodPost, "/unavailability", []byte(`{"date":"2030-03-11","all_day":true}`), claims)
	NewUnavailabilityHandler(&fakeUnavailabilityService{}).Create(c)
	assert.Equal(t, http.StatusCreated, rec.Code)

	c, rec = testContext(http.MethodPost, "/unavailability", []byte(`{"date":`), claims)
	NewUnavailabilityHandler(&fakeUnavailabilityService{}).Create(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = testContext(http.MethodDelete, "/unavailability/exc-9", nil, claims)
	c.Params = gin.Params{{Key: "id", Value: "exc-9"}}
	NewUnavailabilityHandler(&fakeUnavailabilityService{deleteErr: appErrors.ErrNotFound}).Delete(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type fakeOpener struct {
	path string
}

func (f fakeOpener) Open(signed string) (*os.File, string, error) {
	if signed != "good" {
		return nil, "", appErrors.ErrNotFound
	}
	file, err := os.Open(f.path)
	return file, "absence_report_tok.pdf", err
}

func TestAbsenceReportDownload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.3"), 0o644))
	h := NewAbsenceReportHandler(fakeOpener{path: path})

	c, rec := testContext(http.MethodGet, "/absence-reports/download?token=good", nil, nil)
	h.Download(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "%PDF-1.3", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "absence_report_tok.pdf")

	c, rec = testContext(http.MethodGet, "/absence-reports/download?token=bad", nil, nil)
	h.Download(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReadyReportsFailingChecks(t *testing.T) {
	h := NewMetricsHandler(nil, map[string]ReadinessCheck{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})
	c, rec := testContext(http.MethodGet, "/ready", nil, nil)
	h.Ready(c)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}
