package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/subcover-api/internal/models"
	appErrors "github.com/noah-isme/subcover-api/pkg/errors"
	"github.com/noah-isme/subcover-api/pkg/timerange"
)

type unavailabilityRepository interface {
	ListByCandidate(ctx context.Context, candidateID string) ([]models.UnavailabilityException, error)
	Create(ctx context.Context, exc *models.UnavailabilityException) error
	Delete(ctx context.Context, id, candidateID string) error
}

// UnavailabilityService manages a candidate's own unavailability exceptions.
type UnavailabilityService struct {
	repo      unavailabilityRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUnavailabilityService builds the service.
func NewUnavailabilityService(repo unavailabilityRepository, validate *validator.Validate, logger *zap.Logger) *UnavailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UnavailabilityService{repo: repo, validator: validate, logger: logger}
}

// List returns the actor's exceptions.
func (s *UnavailabilityService) List(ctx context.Context, actor models.Actor) ([]models.UnavailabilityException, error) {
	if err := requireCandidate(actor); err != nil {
		return nil, err
	}
	items, err := s.repo.ListByCandidate(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list unavailability")
	}
	return items, nil
}

// Create validates and stores a new exception for the actor. Time ranges are
// stored in 24-hour form and weekday names in canonical case.
func (s *UnavailabilityService) Create(ctx context.Context, actor models.Actor, req models.CreateUnavailabilityRequest) (*models.UnavailabilityException, error) {
	if err := requireCandidate(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid unavailability payload")
	}

	date, err := timerange.ParseDate(req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date")
	}
	exc := &models.UnavailabilityException{CandidateID: actor.UserID, Date: date, AllDay: req.AllDay}

	if !req.AllDay {
		if req.TimeRange == nil || strings.TrimSpace(*req.TimeRange) == "" {
			return nil, appErrors.Clone(appErrors.ErrInvalidTimeRange, "time_range is required unless all_day is set")
		}
		rng, err := timerange.Parse(*req.TimeRange)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInvalidTimeRange.Code, appErrors.ErrInvalidTimeRange.Status, "invalid time_range")
		}
		canonical := rng.String()
		exc.TimeRange = &canonical
	}

	if req.RepeatPattern != nil && strings.TrimSpace(*req.RepeatPattern) != "" {
		weekday, ok := timerange.ParseWeekday(*req.RepeatPattern)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "repeat_pattern must be a weekday name")
		}
		name := weekday.String()
		exc.RepeatPattern = &name
	}

	if req.RepeatUntil != nil && *req.RepeatUntil != "" {
		if exc.RepeatPattern == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "repeat_until requires repeat_pattern")
		}
		until, err := timerange.ParseDate(*req.RepeatUntil)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid repeat_until")
		}
		if until.Before(date) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "repeat_until must not be before date")
		}
		exc.RepeatUntil = &until
	}

	if err := s.repo.Create(ctx, exc); err != nil {
		return nil, appErrors.Internal(err, "failed to store unavailability")
	}
	s.logger.Info("unavailability created", zap.String("candidate_id", actor.UserID), zap.String("exception_id", exc.ID))
	return exc, nil
}

// Delete removes one of the actor's exceptions.
func (s *UnavailabilityService) Delete(ctx context.Context, actor models.Actor, id string) error {
	if err := requireCandidate(actor); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id, actor.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "unavailability not found")
		}
		return appErrors.Internal(err, "failed to delete unavailability")
	}
	return nil
}

func requireCandidate(actor models.Actor) error {
	if actor.Role != models.RoleCandidate {
		return appErrors.Clone(appErrors.ErrForbidden, "only candidates manage unavailability")
	}
	return nil
}
