package service

import (
	"context"
	"io"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/subcover-api/internal/models"
	appErrors "github.com/noah-isme/subcover-api/pkg/errors"
	"github.com/noah-isme/subcover-api/pkg/jobs"
	"github.com/noah-isme/subcover-api/pkg/notify"
	"github.com/noah-isme/subcover-api/pkg/storage"
)

type fixedSites []string

func (f fixedSites) SiteCodes(ctx context.Context, ids []int64) []string { return f }

func TestBuildAbsenceFieldsFullDay(t *testing.T) {
	req := openRequest("tok")
	req.TimeRange = "08:00-15:20"
	req.Reason = models.ReasonSickness
	fields := BuildAbsenceFields(covRequester, req, models.Candidate{FullName: "Alex"}, []string{"PAHS"}, 7)

	assert.Equal(t, "Dana Reyes", fields.EmployeeName)
	assert.Equal(t, "03/11/2030", fields.DateAbsent)
	assert.Equal(t, "1", fields.TotalDays)
	assert.Empty(t, fields.TotalHours)
	assert.Equal(t, "1 day", fields.HoursOrDays)
	assert.Equal(t, map[string]bool{models.FormReasonIllness: true}, fields.Reasons)
	assert.Equal(t, "Alex", fields.SubstituteName)
}

func TestBuildAbsenceFieldsPartialDay(t *testing.T) {
	req := openRequest("tok")
	req.TimeRange = "08:00-10:40"
	req.Reason = models.ReasonSchoolBusiness
	fields := BuildAbsenceFields(covRequester, req, models.Candidate{}, nil, 7)

	assert.Empty(t, fields.TotalDays)
	assert.Equal(t, "2.67", fields.TotalHours)
	assert.Equal(t, "2.67 hours", fields.HoursOrDays)
	assert.Empty(t, fields.Reasons)

	req.Reason = models.ReasonOther
	assert.True(t, BuildAbsenceFields(covRequester, req, models.Candidate{}, nil, 7).Reasons[models.FormReasonOther])
}

func newAbsenceFixture(t *testing.T) (*AbsenceReportService, *recordingDispatcher) {
	filled := openRequest("tok-1")
	filled.Status = models.CoverageStatusFilled
	filled.SubstituteID = ptr("cand-a")
	f := newCoverageFixture(filled)

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	dispatcher := &recordingDispatcher{}
	svc := NewAbsenceReportService(AbsenceReportDeps{
		Requests:   f.repo,
		People:     f.staff,
		Sites:      fixedSites{"PAHS"},
		Store:      store,
		Signer:     storage.NewSignedURLSigner("secret", time.Hour),
		Dispatcher: dispatcher,
		Metrics:    NewMetricsService(),
	}, AbsenceReportConfig{FullDayHours: 7, DownloadURL: "https://api.example.com/api/v1/absence-reports/download"})
	return svc, dispatcher
}

func TestAbsenceReportGenerateAndOpen(t *testing.T) {
	svc, dispatcher := newAbsenceFixture(t)

	report, err := svc.Generate(context.Background(), "tok-1", "cand-a")
	require.NoError(t, err)
	assert.Equal(t, "absence/tok-1.pdf", report.Path)
	assert.Contains(t, report.URL, "https://api.example.com/api/v1/absence-reports/download?token=")
	assert.Equal(t, []string{"req-1"}, dispatcher.recipients(EventAbsenceReport, notify.ChannelEmail))

	parsed, err := url.Parse(report.URL)
	require.NoError(t, err)
	file, name, err := svc.Open(parsed.Query().Get("token"))
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck
	head := make([]byte, 4)
	_, err = io.ReadFull(file, head)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(head))
	assert.Equal(t, "absence_report_tok-1.pdf", name)

	_, _, err = svc.Open("forged.token.value.sig")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestAbsenceReportJobFailureIsReturnedForRetry(t *testing.T) {
	svc, _ := newAbsenceFixture(t)
	err := svc.HandleJob(context.Background(), jobs.Job{ID: "j1", Type: JobTypeAbsenceReport, Payload: models.AbsenceReportJob{Token: "missing", CandidateID: "cand-a"}})
	assert.Error(t, err)

	assert.NoError(t, svc.HandleJob(context.Background(), jobs.Job{ID: "j2", Payload: "garbage"}))
}
