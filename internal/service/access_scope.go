package service

import (
	"github.com/noah-isme/subcover-api/internal/models"
	"github.com/noah-isme/subcover-api/pkg/config"
)

// ScopeTarget is the tenant and site footprint of something an admin may see.
type ScopeTarget struct {
	TenantID int64
	SiteIDs  models.IDSet
}

// RequesterTarget returns the footprint of a requester.
func RequesterTarget(r models.Requester) ScopeTarget {
	return ScopeTarget{TenantID: r.TenantID, SiteIDs: r.Preferences.Sites}
}

// CandidateTarget returns the footprint of a candidate.
func CandidateTarget(c models.Candidate) ScopeTarget {
	return ScopeTarget{TenantID: c.TenantID, SiteIDs: c.Preferences.Sites}
}

// RequestTarget returns the footprint of a coverage request. Requests without
// a site inherit the requester's sites.
func RequestTarget(req models.CoverageRequest, requester models.Requester) ScopeTarget {
	if req.SiteID != nil {
		return ScopeTarget{TenantID: req.TenantID, SiteIDs: models.NewIDSet(*req.SiteID)}
	}
	return ScopeTarget{TenantID: req.TenantID, SiteIDs: requester.Preferences.Sites}
}

type scopeKind int

const (
	scopeNone scopeKind = iota
	scopeAll
	scopeTenant
	scopeSites
)

// Scope is a visibility predicate for one actor.
type Scope struct {
	kind     scopeKind
	tenantID int64
	sites    models.IDSet
}

// Allows reports whether the target is visible.
func (s Scope) Allows(t ScopeTarget) bool {
	switch s.kind {
	case scopeAll:
		return true
	case scopeTenant:
		return t.TenantID == s.tenantID
	case scopeSites:
		return t.TenantID == s.tenantID && s.sites.Intersects(t.SiteIDs)
	default:
		return false
	}
}

// Unrestricted reports whether the scope spans all tenants.
func (s Scope) Unrestricted() bool {
	return s.kind == scopeAll
}

// AccessScopeResolver maps admin actors to visibility scopes.
type AccessScopeResolver struct {
	emptySitePolicy string
}

// NewAccessScopeResolver builds a resolver. policy decides what a site admin
// with no assigned sites sees: config.SitePolicyTenant or config.SitePolicyNone.
func NewAccessScopeResolver(policy string) AccessScopeResolver {
	if policy != config.SitePolicyNone {
		policy = config.SitePolicyTenant
	}
	return AccessScopeResolver{emptySitePolicy: policy}
}

// ScopeFor returns the actor's scope. Non-admin roles see nothing through it.
func (r AccessScopeResolver) ScopeFor(actor models.Actor) Scope {
	switch actor.Role {
	case models.RoleSuperAdmin:
		return Scope{kind: scopeAll}
	case models.RoleTenantAdmin:
		return Scope{kind: scopeTenant, tenantID: actor.TenantID}
	case models.RoleSiteAdmin:
		if actor.SiteIDs.Empty() {
			if r.emptySitePolicy == config.SitePolicyNone {
				return Scope{kind: scopeNone}
			}
			return Scope{kind: scopeTenant, tenantID: actor.TenantID}
		}
		return Scope{kind: scopeSites, tenantID: actor.TenantID, sites: actor.SiteIDs}
	default:
		return Scope{kind: scopeNone}
	}
}

// AdminActor converts an admin record into an actor.
func AdminActor(a models.Admin) models.Actor {
	return models.Actor{UserID: a.ID, TenantID: a.TenantID, Role: a.Role, SiteIDs: a.SiteIDs}
}

// Bounds translates the scope into listing filters. ok is false when the
// scope admits nothing; a nil tenant means every tenant.
func (s Scope) Bounds() (tenantID *int64, siteIDs []int64, ok bool) {
	switch s.kind {
	case scopeAll:
		return nil, nil, true
	case scopeTenant:
		id := s.tenantID
		return &id, nil, true
	case scopeSites:
		id := s.tenantID
		return &id, s.sites.Slice(), true
	default:
		return nil, nil, false
	}
}
