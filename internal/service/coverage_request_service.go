package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/subcover-api/internal/models"
	"github.com/noah-isme/subcover-api/internal/repository"
	appErrors "github.com/noah-isme/subcover-api/pkg/errors"
	"github.com/noah-isme/subcover-api/pkg/events"
	"github.com/noah-isme/subcover-api/pkg/jobs"
	"github.com/noah-isme/subcover-api/pkg/timerange"
)

const (
	defaultCoveragePageSize = 20
	maxCoveragePageSize     = 100
	matchingOpenLimit       = 200

	warnNotificationsFailed = "request saved, but some notifications could not be queued"
	warnCandidatesSkipped   = "request saved, but eligible substitutes could not be determined"
	warnFanoutSkipped       = "request filled, but follow-up notifications could not be prepared"
)

type coverageRepository interface {
	Create(ctx context.Context, req *models.CoverageRequest) error
	GetByToken(ctx context.Context, token string) (*models.CoverageRequest, error)
	Accept(ctx context.Context, token, candidateID string, at time.Time) (*models.CoverageRequest, error)
	List(ctx context.Context, q repository.CoverageListQuery) ([]models.CoverageRequest, int, error)
}

type staffDirectory interface {
	ListCandidates(ctx context.Context, tenantID int64) ([]models.Candidate, error)
	GetCandidate(ctx context.Context, id string) (*models.Candidate, error)
	GetRequester(ctx context.Context, id string) (*models.Requester, error)
	ListAdmins(ctx context.Context, tenantID int64) ([]models.Admin, error)
}

type exceptionSource interface {
	ListForDate(ctx context.Context, tenantID int64, date time.Time) ([]models.UnavailabilityException, error)
	ListByCandidate(ctx context.Context, candidateID string) ([]models.UnavailabilityException, error)
}

type catalogNames interface {
	GradeName(ctx context.Context, id *int64) string
	SubjectName(ctx context.Context, id *int64) string
}

type notificationDispatcher interface {
	Dispatch(ctx context.Context, msgs []NotificationMessage) models.DispatchSummary
}

// CoverageConfig holds link settings for coverage notifications.
type CoverageConfig struct {
	PublicBaseURL string
}

// CoverageRequestService runs the coverage request workflow: posting,
// fan-out to eligible substitutes, atomic acceptance and scoped reads.
type CoverageRequestService struct {
	repo       coverageRepository
	staff      staffDirectory
	exceptions exceptionSource
	catalog    catalogNames
	engine     *EligibilityEngine
	scopes     AccessScopeResolver
	dispatcher notificationDispatcher
	publisher  events.Publisher
	reports    jobEnqueuer
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	config     CoverageConfig
	now        func() time.Time
}

// CoverageDeps groups the collaborators of CoverageRequestService.
type CoverageDeps struct {
	Repo       coverageRepository
	Staff      staffDirectory
	Exceptions exceptionSource
	Catalog    catalogNames
	Engine     *EligibilityEngine
	Scopes     AccessScopeResolver
	Dispatcher notificationDispatcher
	Publisher  events.Publisher
	Reports    jobEnqueuer
	Metrics    *MetricsService
	Validator  *validator.Validate
	Logger     *zap.Logger
}

// NewCoverageRequestService wires the workflow.
func NewCoverageRequestService(deps CoverageDeps, cfg CoverageConfig) *CoverageRequestService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Publisher == nil {
		deps.Publisher = events.Noop{}
	}
	if deps.Engine == nil {
		deps.Engine = NewEligibilityEngine(NewPreferenceMatcher(models.DefaultWildcards()), nil, deps.Logger)
	}
	return &CoverageRequestService{
		repo:       deps.Repo,
		staff:      deps.Staff,
		exceptions: deps.Exceptions,
		catalog:    deps.Catalog,
		engine:     deps.Engine,
		scopes:     deps.Scopes,
		dispatcher: deps.Dispatcher,
		publisher:  deps.Publisher,
		reports:    deps.Reports,
		metrics:    deps.Metrics,
		validator:  deps.Validator,
		logger:     deps.Logger,
		config:     cfg,
		now:        time.Now,
	}
}

// Create posts a new Open request for the acting requester and notifies
// eligible substitutes, the requester and in-scope admins.
func (s *CoverageRequestService) Create(ctx context.Context, actor models.Actor, payload models.CreateCoverageRequest) (*models.CoverageResult, error) {
	if actor.Role != models.RoleRequester {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only requesters may post coverage requests")
	}
	if err := s.validator.Struct(payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid coverage request payload")
	}
	if !validReason(payload.Reason) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "reason must be one of: "+strings.Join(models.AbsenceReasons, ", "))
	}
	date, err := timerange.ParseDate(payload.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date")
	}
	rng, err := timerange.Parse(payload.TimeRange)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidTimeRange.Code, appErrors.ErrInvalidTimeRange.Status, "invalid time_range")
	}

	requester, err := s.staff.GetRequester(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "requester profile not found")
		}
		return nil, appErrors.Internal(err, "failed to load requester")
	}

	gradeID, subjectID := payload.GradeID, payload.SubjectID
	req := &models.CoverageRequest{
		TenantID:    requester.TenantID,
		RequesterID: requester.ID,
		Date:        date,
		TimeRange:   rng.String(),
		GradeID:     &gradeID,
		SubjectID:   &subjectID,
		SiteID:      payload.SiteID,
		Details:     strings.TrimSpace(payload.Details),
		Reason:      payload.Reason,
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, appErrors.Internal(err, "failed to store coverage request")
	}

	result := &models.CoverageResult{Request: req}
	view := s.view(ctx, *req, *requester, nil)

	var msgs []NotificationMessage
	notifyList, err := s.notifyList(ctx, *req, *requester)
	if err != nil {
		s.logger.Error("skipping substitute fan-out", zap.String("token", req.Token), zap.Error(err))
		result.Warnings = append(result.Warnings, warnCandidatesSkipped)
	}
	for _, candidate := range notifyList {
		msgs = append(msgs, CandidateAvailableMessages(view, candidate)...)
	}
	msgs = append(msgs, RequesterCreatedMessages(view)...)
	for _, admin := range s.scopedAdmins(ctx, *req, *requester) {
		msgs = append(msgs, AdminCreatedMessages(view, admin)...)
	}

	result.Notifications = s.dispatcher.Dispatch(ctx, msgs)
	if result.Notifications.Failed > 0 {
		result.Warnings = append(result.Warnings, warnNotificationsFailed)
	}

	s.publish(ctx, events.TypeRequestCreated, *req)
	s.logger.Info("coverage request created",
		zap.String("token", req.Token),
		zap.Int64("tenant_id", req.TenantID),
		zap.Int("notify_list", len(notifyList)),
		zap.Int("queued", result.Notifications.Queued))
	return result, nil
}

// Accept assigns the acting candidate to an Open request. Exactly one of any
// number of concurrent callers succeeds; the rest get ErrAlreadyFilled.
func (s *CoverageRequestService) Accept(ctx context.Context, actor models.Actor, token string) (*models.CoverageResult, error) {
	if actor.Role != models.RoleCandidate {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only substitutes may accept coverage requests")
	}

	existing, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "coverage request not found")
		}
		s.metrics.RecordAccept(AcceptOutcomeError)
		return nil, appErrors.Internal(err, "failed to load coverage request")
	}
	if existing.TenantID != actor.TenantID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "coverage request not found")
	}
	if !existing.IsOpen() {
		s.metrics.RecordAccept(AcceptOutcomeAlreadyFilled)
		return nil, appErrors.ErrAlreadyFilled
	}

	filled, err := s.repo.Accept(ctx, token, actor.UserID, s.now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordAccept(AcceptOutcomeAlreadyFilled)
			return nil, appErrors.ErrAlreadyFilled
		}
		s.metrics.RecordAccept(AcceptOutcomeError)
		return nil, appErrors.Internal(err, "failed to accept coverage request")
	}
	s.metrics.RecordAccept(AcceptOutcomeSuccess)

	result := &models.CoverageResult{Request: filled}
	requester, rerr := s.staff.GetRequester(ctx, filled.RequesterID)
	candidate, cerr := s.staff.GetCandidate(ctx, actor.UserID)
	if rerr != nil || cerr != nil {
		s.logger.Error("skipping filled fan-out",
			zap.String("token", token),
			zap.NamedError("requester_error", rerr),
			zap.NamedError("candidate_error", cerr))
		result.Warnings = append(result.Warnings, warnFanoutSkipped)
	} else {
		view := s.view(ctx, *filled, *requester, candidate)
		msgs := RequesterFilledMessages(view)
		for _, admin := range s.scopedAdmins(ctx, *filled, *requester) {
			msgs = append(msgs, AdminFilledMessages(view, admin)...)
		}
		msgs = append(msgs, CandidateConfirmationMessages(view)...)
		result.Notifications = s.dispatcher.Dispatch(ctx, msgs)
		if result.Notifications.Failed > 0 {
			result.Warnings = append(result.Warnings, warnNotificationsFailed)
		}
	}

	s.publish(ctx, events.TypeRequestFilled, *filled)
	s.queueAbsenceReport(ctx, *filled)
	s.logger.Info("coverage request filled",
		zap.String("token", token),
		zap.String("candidate_id", actor.UserID))
	return result, nil
}

// Get returns a single request if the actor may see it.
func (s *CoverageRequestService) Get(ctx context.Context, actor models.Actor, token string) (*models.CoverageRequest, error) {
	req, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "coverage request not found")
		}
		return nil, appErrors.Internal(err, "failed to load coverage request")
	}
	visible, err := s.canView(ctx, actor, *req)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "coverage request not found")
	}
	return req, nil
}

// List returns the requests visible to the actor. Requesters see their own,
// substitutes see the ones they accepted plus open ones they are eligible
// for, and admins see what their scope covers.
func (s *CoverageRequestService) List(ctx context.Context, actor models.Actor, filter models.CoverageRequestFilter) ([]models.CoverageRequest, *models.Pagination, error) {
	page, size := normalisePage(filter.Page, filter.PageSize)
	q := repository.CoverageListQuery{
		Status:   filter.Status,
		DateFrom: filter.DateFrom,
		DateTo:   filter.DateTo,
		Limit:    size,
		Offset:   (page - 1) * size,
	}

	switch {
	case actor.Role == models.RoleRequester:
		q.RequesterID = &actor.UserID
	case actor.Role == models.RoleCandidate:
		return s.listForCandidate(ctx, actor, filter, page, size)
	case actor.Role.IsAdmin():
		tenantID, siteIDs, ok := s.scopes.ScopeFor(actor).Bounds()
		if !ok {
			return []models.CoverageRequest{}, &models.Pagination{Page: page, PageSize: size}, nil
		}
		q.TenantID = tenantID
		q.SiteIDs = siteIDs
	default:
		return nil, nil, appErrors.ErrForbidden
	}

	items, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list coverage requests")
	}
	if items == nil {
		items = []models.CoverageRequest{}
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// MatchingOpen returns upcoming Open requests the acting substitute is
// eligible for, ordered by date.
func (s *CoverageRequestService) MatchingOpen(ctx context.Context, actor models.Actor) ([]models.CoverageRequest, error) {
	if actor.Role != models.RoleCandidate {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only substitutes have matching requests")
	}
	candidate, err := s.staff.GetCandidate(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "substitute profile not found")
		}
		return nil, appErrors.Internal(err, "failed to load substitute")
	}
	exceptions, err := s.exceptions.ListByCandidate(ctx, candidate.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load unavailability")
	}
	candidate.Exceptions = exceptions

	status := models.CoverageStatusOpen
	today := timerange.Day(s.now())
	open, _, err := s.repo.List(ctx, repository.CoverageListQuery{
		TenantID: &candidate.TenantID,
		Status:   &status,
		DateFrom: &today,
		Limit:    matchingOpenLimit,
	})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list open coverage requests")
	}

	requesters := make(map[string]*models.Requester)
	out := make([]models.CoverageRequest, 0, len(open))
	for _, req := range open {
		requester, ok := requesters[req.RequesterID]
		if !ok {
			requester, err = s.staff.GetRequester(ctx, req.RequesterID)
			if err != nil {
				s.logger.Warn("skipping request with unknown requester", zap.String("token", req.Token), zap.Error(err))
			}
			requesters[req.RequesterID] = requester
		}
		if requester == nil {
			continue
		}
		if s.engine.Eligible(req, *requester, *candidate) {
			out = append(out, req)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *CoverageRequestService) listForCandidate(ctx context.Context, actor models.Actor, filter models.CoverageRequestFilter, page, size int) ([]models.CoverageRequest, *models.Pagination, error) {
	var combined []models.CoverageRequest

	if filter.Status == nil || *filter.Status == models.CoverageStatusFilled {
		filled := models.CoverageStatusFilled
		accepted, _, err := s.repo.List(ctx, repository.CoverageListQuery{
			SubstituteID: &actor.UserID,
			Status:       &filled,
			DateFrom:     filter.DateFrom,
			DateTo:       filter.DateTo,
		})
		if err != nil {
			return nil, nil, appErrors.Internal(err, "failed to list accepted coverage requests")
		}
		combined = append(combined, accepted...)
	}
	if filter.Status == nil || *filter.Status == models.CoverageStatusOpen {
		matching, err := s.MatchingOpen(ctx, actor)
		if err != nil {
			return nil, nil, err
		}
		for _, req := range matching {
			if inDateWindow(req.Date, filter.DateFrom, filter.DateTo) {
				combined = append(combined, req)
			}
		}
	}

	sort.SliceStable(combined, func(i, j int) bool { return combined[i].Date.After(combined[j].Date) })
	total := len(combined)
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return combined[start:end], &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

func (s *CoverageRequestService) canView(ctx context.Context, actor models.Actor, req models.CoverageRequest) (bool, error) {
	switch {
	case actor.Role == models.RoleRequester:
		return req.RequesterID == actor.UserID, nil
	case actor.Role == models.RoleCandidate:
		if req.TenantID != actor.TenantID {
			return false, nil
		}
		return req.IsOpen() || (req.SubstituteID != nil && *req.SubstituteID == actor.UserID), nil
	case actor.Role.IsAdmin():
		scope := s.scopes.ScopeFor(actor)
		if scope.Unrestricted() {
			return true, nil
		}
		requester, err := s.staff.GetRequester(ctx, req.RequesterID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return false, appErrors.Internal(err, "failed to load requester")
		}
		var r models.Requester
		if requester != nil {
			r = *requester
		}
		return scope.Allows(RequestTarget(req, r)), nil
	default:
		return false, nil
	}
}

// notifyList loads the tenant's substitutes with their exceptions for the
// request date and runs them through the eligibility engine. Nobody is
// notified when exceptions cannot be loaded.
func (s *CoverageRequestService) notifyList(ctx context.Context, req models.CoverageRequest, requester models.Requester) ([]models.Candidate, error) {
	pool, err := s.staff.ListCandidates(ctx, req.TenantID)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	exceptions, err := s.exceptions.ListForDate(ctx, req.TenantID, req.Date)
	if err != nil {
		return nil, fmt.Errorf("list exceptions: %w", err)
	}
	byCandidate := make(map[string][]models.UnavailabilityException, len(exceptions))
	for _, exc := range exceptions {
		byCandidate[exc.CandidateID] = append(byCandidate[exc.CandidateID], exc)
	}
	for i := range pool {
		pool[i].Exceptions = byCandidate[pool[i].ID]
	}

	start := time.Now()
	list := s.engine.ResolveNotifyList(req, requester, pool)
	s.metrics.ObserveEligibility(time.Since(start), len(list))
	return list, nil
}

func (s *CoverageRequestService) scopedAdmins(ctx context.Context, req models.CoverageRequest, requester models.Requester) []models.Admin {
	admins, err := s.staff.ListAdmins(ctx, req.TenantID)
	if err != nil {
		s.logger.Warn("failed to load admins for notification", zap.String("token", req.Token), zap.Error(err))
		return nil
	}
	target := RequestTarget(req, requester)
	out := make([]models.Admin, 0, len(admins))
	for _, admin := range admins {
		if s.scopes.ScopeFor(AdminActor(admin)).Allows(target) {
			out = append(out, admin)
		}
	}
	return out
}

func (s *CoverageRequestService) view(ctx context.Context, req models.CoverageRequest, requester models.Requester, substitute *models.Candidate) CoverageView {
	v := CoverageView{Request: req, Requester: requester, Substitute: substitute}
	if s.catalog != nil {
		v.GradeName = s.catalog.GradeName(ctx, req.GradeID)
		v.SubjectName = s.catalog.SubjectName(ctx, req.SubjectID)
	}
	v.AcceptURL = fmt.Sprintf("%s/coverage/%s/accept", strings.TrimRight(s.config.PublicBaseURL, "/"), req.Token)
	return v
}

func (s *CoverageRequestService) publish(ctx context.Context, eventType string, req models.CoverageRequest) {
	env := events.Envelope{EventType: eventType, TenantID: req.TenantID, Data: req}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), env); err != nil {
		s.logger.Warn("failed to publish coverage event",
			zap.String("event_type", eventType),
			zap.String("token", req.Token),
			zap.Error(err))
	}
}

func (s *CoverageRequestService) queueAbsenceReport(ctx context.Context, req models.CoverageRequest) {
	if s.reports == nil || req.SubstituteID == nil {
		return
	}
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    JobTypeAbsenceReport,
		Payload: models.AbsenceReportJob{Token: req.Token, CandidateID: *req.SubstituteID},
	}
	enqueueCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.reports.Enqueue(enqueueCtx, job); err != nil {
		s.logger.Warn("failed to queue absence report", zap.String("token", req.Token), zap.Error(err))
	}
}

func validReason(reason string) bool {
	for _, r := range models.AbsenceReasons {
		if r == reason {
			return true
		}
	}
	return false
}

func normalisePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = defaultCoveragePageSize
	}
	if size > maxCoveragePageSize {
		size = maxCoveragePageSize
	}
	return page, size
}

func inDateWindow(d time.Time, from, to *time.Time) bool {
	if from != nil && d.Before(*from) {
		return false
	}
	if to != nil && d.After(*to) {
		return false
	}
	return true
}
