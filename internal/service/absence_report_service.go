package service

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/subcover-api/internal/models"
	appErrors "github.com/noah-isme/subcover-api/pkg/errors"
	"github.com/noah-isme/subcover-api/pkg/export"
	"github.com/noah-isme/subcover-api/pkg/jobs"
	"github.com/noah-isme/subcover-api/pkg/timerange"
)

// JobTypeAbsenceReport tags absence report jobs on the queue.
const JobTypeAbsenceReport = "absence_report"

const (
	absenceReportDir  = "absence"
	fullDayTolerance  = 0.5
	absenceFormTitle  = "Employee Absence Report"
	absenceFormFooter = "Generated automatically when a substitute accepted this coverage request."
)

type absenceRequestSource interface {
	GetByToken(ctx context.Context, token string) (*models.CoverageRequest, error)
}

type absencePeople interface {
	GetRequester(ctx context.Context, id string) (*models.Requester, error)
	GetCandidate(ctx context.Context, id string) (*models.Candidate, error)
}

type siteCoder interface {
	SiteCodes(ctx context.Context, ids []int64) []string
}

type formRenderer interface {
	Render(form export.Form) ([]byte, error)
}

type artifactStore interface {
	Save(relPath string, data []byte) (string, error)
	Open(relPath string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type linkSigner interface {
	Generate(ref, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (string, string, time.Time, error)
}

// AbsenceReportConfig configures report generation.
type AbsenceReportConfig struct {
	FullDayHours float64
	DownloadURL  string
}

// AbsenceReportService fills the absence form for an accepted request,
// stores it and mails the requester a signed download link. Failures never
// reach the accept caller.
type AbsenceReportService struct {
	requests   absenceRequestSource
	people     absencePeople
	sites      siteCoder
	renderer   formRenderer
	store      artifactStore
	signer     linkSigner
	dispatcher notificationDispatcher
	metrics    *MetricsService
	logger     *zap.Logger
	config     AbsenceReportConfig
}

// AbsenceReportDeps groups the collaborators of AbsenceReportService.
type AbsenceReportDeps struct {
	Requests   absenceRequestSource
	People     absencePeople
	Sites      siteCoder
	Renderer   formRenderer
	Store      artifactStore
	Signer     linkSigner
	Dispatcher notificationDispatcher
	Metrics    *MetricsService
	Logger     *zap.Logger
}

// NewAbsenceReportService builds the service.
func NewAbsenceReportService(deps AbsenceReportDeps, cfg AbsenceReportConfig) *AbsenceReportService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Renderer == nil {
		deps.Renderer = export.NewPDFFormRenderer()
	}
	if cfg.FullDayHours <= 0 {
		cfg.FullDayHours = 7
	}
	return &AbsenceReportService{
		requests:   deps.Requests,
		people:     deps.People,
		sites:      deps.Sites,
		renderer:   deps.Renderer,
		store:      deps.Store,
		signer:     deps.Signer,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		config:     cfg,
	}
}

// HandleJob is the queue handler for JobTypeAbsenceReport.
func (s *AbsenceReportService) HandleJob(ctx context.Context, job jobs.Job) error {
	var payload models.AbsenceReportJob
	switch p := job.Payload.(type) {
	case models.AbsenceReportJob:
		payload = p
	case *models.AbsenceReportJob:
		payload = *p
	default:
		s.logger.Error("unexpected absence report payload", zap.String("job_id", job.ID))
		return nil
	}

	report, err := s.Generate(ctx, payload.Token, payload.CandidateID)
	s.metrics.RecordAbsenceReport(err)
	if err != nil {
		s.logger.Warn("absence report generation failed",
			zap.String("token", payload.Token),
			zap.Int("attempt", job.Attempt),
			zap.Error(err))
		return err
	}
	s.logger.Info("absence report generated", zap.String("token", report.Token), zap.String("path", report.Path))
	return nil
}

// Generate builds, stores and announces the report for a filled request.
func (s *AbsenceReportService) Generate(ctx context.Context, token, candidateID string) (*models.AbsenceReport, error) {
	req, err := s.requests.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("load request: %w", err)
	}
	requester, err := s.people.GetRequester(ctx, req.RequesterID)
	if err != nil {
		return nil, fmt.Errorf("load requester: %w", err)
	}
	candidate, err := s.people.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("load substitute: %w", err)
	}

	var codes []string
	if s.sites != nil {
		codes = s.sites.SiteCodes(ctx, requester.Preferences.Sites.Slice())
	}
	fields := BuildAbsenceFields(*requester, *req, *candidate, codes, s.config.FullDayHours)

	data, err := s.renderer.Render(absenceForm(fields))
	if err != nil {
		return nil, fmt.Errorf("render form: %w", err)
	}
	rel, err := s.store.Save(fmt.Sprintf("%s/%s.pdf", absenceReportDir, req.Token), data)
	if err != nil {
		return nil, fmt.Errorf("store form: %w", err)
	}
	signed, expiresAt, err := s.signer.Generate(req.Token, rel)
	if err != nil {
		return nil, fmt.Errorf("sign link: %w", err)
	}

	report := &models.AbsenceReport{
		Token:     req.Token,
		Path:      rel,
		URL:       s.config.DownloadURL + "?token=" + url.QueryEscape(signed),
		ExpiresAt: expiresAt,
	}
	if s.dispatcher != nil {
		view := CoverageView{Request: *req, Requester: *requester, Substitute: candidate}
		s.dispatcher.Dispatch(ctx, AbsenceReportReadyMessages(view, report.URL))
	}
	return report, nil
}

// Open resolves a signed download token to the stored artifact.
func (s *AbsenceReportService) Open(signed string) (*os.File, string, error) {
	ref, rel, _, err := s.signer.Parse(signed, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "download link is invalid or expired")
	}
	file, err := s.store.Open(rel)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "absence report not found")
	}
	return file, "absence_report_" + ref + ".pdf", nil
}

// StartCleanup purges artifacts older than retention every interval until
// ctx is cancelled.
func (s *AbsenceReportService) StartCleanup(ctx context.Context, interval, retention time.Duration) {
	if interval <= 0 || retention <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				deleted, err := s.store.CleanupOlderThan(retention)
				if err != nil {
					s.logger.Warn("absence report cleanup failed", zap.Error(err))
					continue
				}
				if len(deleted) > 0 {
					s.logger.Info("absence reports purged", zap.Int("count", len(deleted)))
				}
			}
		}
	}()
}

// BuildAbsenceFields maps a filled request onto the absence form. A slot
// within half an hour of fullDayHours counts as one day.
func BuildAbsenceFields(requester models.Requester, req models.CoverageRequest, substitute models.Candidate, siteCodes []string, fullDayHours float64) models.AbsenceReportFields {
	fields := models.AbsenceReportFields{
		EmployeeName:   requester.FullName,
		DateAbsent:     req.Date.Format("01/02/2006"),
		SiteCodes:      siteCodes,
		Reasons:        absenceReasonBoxes(req.Reason),
		SubstituteName: substitute.FullName,
	}

	hours := 0.0
	if rng, err := timerange.Parse(req.TimeRange); err == nil {
		hours = rng.Duration().Hours()
	}
	if math.Abs(hours-fullDayHours) <= fullDayTolerance {
		fields.TotalDays = "1"
		fields.HoursOrDays = "1 day"
	} else {
		rounded := strconv.FormatFloat(math.Round(hours*100)/100, 'f', -1, 64)
		fields.TotalHours = rounded
		fields.HoursOrDays = rounded + " hours"
	}
	return fields
}

func absenceReasonBoxes(reason string) map[string]bool {
	boxes := map[string]bool{}
	switch reason {
	case models.ReasonSickness:
		boxes[models.FormReasonIllness] = true
	case models.ReasonMedical:
		boxes[models.FormReasonMedical] = true
	case models.ReasonPersonal:
		boxes[models.FormReasonPersonal] = true
	case models.ReasonSchoolBusiness:
	default:
		boxes[models.FormReasonOther] = true
	}
	return boxes
}

func absenceForm(f models.AbsenceReportFields) export.Form {
	return export.Form{
		Title: absenceFormTitle,
		Fields: []export.FormField{
			{Label: "Employee Name", Value: f.EmployeeName},
			{Label: "Date Absent", Value: f.DateAbsent},
			{Label: "Total Days Absent", Value: f.TotalDays},
			{Label: "Total Hours Absent", Value: f.TotalHours},
			{Label: "Sites", Value: strings.Join(f.SiteCodes, ", ")},
			{Label: "Substitute", Value: f.SubstituteName},
			{Label: "Absence", Value: f.DateAbsent + " (" + f.HoursOrDays + ")"},
		},
		Groups: []export.FormCheckGroup{{
			Heading: "Reason for Absence",
			Options: []string{models.FormReasonIllness, models.FormReasonMedical, models.FormReasonPersonal, models.FormReasonOther},
			Checked: f.Reasons,
		}},
		Footer: absenceFormFooter,
	}
}
