package service

import (
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/subcover-api/internal/models"
	"github.com/noah-isme/subcover-api/pkg/timerange"
)

// EligibilityEngine computes who should hear about a coverage request. It
// holds no mutable state and is safe for concurrent use.
type EligibilityEngine struct {
	matcher      PreferenceMatcher
	availability *AvailabilityResolver
	logger       *zap.Logger
}

// NewEligibilityEngine composes the matcher and availability resolver.
func NewEligibilityEngine(matcher PreferenceMatcher, availability *AvailabilityResolver, logger *zap.Logger) *EligibilityEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if availability == nil {
		availability = NewAvailabilityResolver(logger)
	}
	return &EligibilityEngine{matcher: matcher, availability: availability, logger: logger}
}

// ResolveNotifyList returns the candidates of the request's tenant who match
// the requester's preferences, the request site when set, and are available
// for the request slot. The result is ordered by candidate id.
func (e *EligibilityEngine) ResolveNotifyList(request models.CoverageRequest, requester models.Requester, pool []models.Candidate) []models.Candidate {
	requested, err := timerange.Parse(request.TimeRange)
	if err != nil {
		e.logger.Warn("coverage request has unparseable time range, nobody is eligible",
			zap.String("token", request.Token),
			zap.String("time_range", request.TimeRange),
			zap.Error(err))
		return []models.Candidate{}
	}

	var requestSite models.IDSet
	if request.SiteID != nil {
		requestSite = models.NewIDSet(*request.SiteID)
	}

	seen := make(map[string]struct{}, len(pool))
	out := make([]models.Candidate, 0, len(pool))
	for _, candidate := range pool {
		if _, dup := seen[candidate.ID]; dup {
			continue
		}
		if !e.eligible(request, requester, candidate, requestSite, &requested) {
			continue
		}
		seen[candidate.ID] = struct{}{}
		out = append(out, candidate)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Eligible reports whether a single candidate would be notified.
func (e *EligibilityEngine) Eligible(request models.CoverageRequest, requester models.Requester, candidate models.Candidate) bool {
	requested, err := timerange.Parse(request.TimeRange)
	if err != nil {
		return false
	}
	var requestSite models.IDSet
	if request.SiteID != nil {
		requestSite = models.NewIDSet(*request.SiteID)
	}
	return e.eligible(request, requester, candidate, requestSite, &requested)
}

func (e *EligibilityEngine) eligible(request models.CoverageRequest, requester models.Requester, candidate models.Candidate, requestSite models.IDSet, requested *timerange.TimeRange) bool {
	if candidate.TenantID != request.TenantID {
		return false
	}
	if !e.matcher.Matches(requester, candidate) {
		return false
	}
	if requestSite != nil && !SiteMatch(candidate.Preferences.Sites, requestSite) {
		return false
	}
	return e.availability.IsAvailable(candidate, request.Date, requested)
}
