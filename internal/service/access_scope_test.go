package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/subcover-api/internal/models"
	"github.com/noah-isme/subcover-api/pkg/config"
)

func TestScopeForRoles(t *testing.T) {
	resolver := NewAccessScopeResolver(config.SitePolicyTenant)
	sameTenantSite10 := ScopeTarget{TenantID: 1, SiteIDs: models.NewIDSet(10)}
	sameTenantSite11 := ScopeTarget{TenantID: 1, SiteIDs: models.NewIDSet(11)}
	otherTenant := ScopeTarget{TenantID: 2, SiteIDs: models.NewIDSet(10)}

	super := resolver.ScopeFor(models.Actor{Role: models.RoleSuperAdmin, TenantID: 1})
	assert.True(t, super.Unrestricted())
	assert.True(t, super.Allows(otherTenant))

	tenant := resolver.ScopeFor(models.Actor{Role: models.RoleTenantAdmin, TenantID: 1})
	assert.True(t, tenant.Allows(sameTenantSite10))
	assert.True(t, tenant.Allows(sameTenantSite11))
	assert.False(t, tenant.Allows(otherTenant))

	site := resolver.ScopeFor(models.Actor{Role: models.RoleSiteAdmin, TenantID: 1, SiteIDs: models.NewIDSet(10)})
	assert.True(t, site.Allows(sameTenantSite10))
	assert.False(t, site.Allows(sameTenantSite11))
	assert.False(t, site.Allows(otherTenant))
	assert.False(t, site.Allows(ScopeTarget{TenantID: 1}))

	candidate := resolver.ScopeFor(models.Actor{Role: models.RoleCandidate, TenantID: 1})
	assert.False(t, candidate.Allows(sameTenantSite10))
}

func TestSiteAdminWithoutSitesPolicy(t *testing.T) {
	actor := models.Actor{Role: models.RoleSiteAdmin, TenantID: 1}
	target := ScopeTarget{TenantID: 1, SiteIDs: models.NewIDSet(42)}

	assert.True(t, NewAccessScopeResolver(config.SitePolicyTenant).ScopeFor(actor).Allows(target))
	assert.True(t, NewAccessScopeResolver("").ScopeFor(actor).Allows(target))
	assert.False(t, NewAccessScopeResolver(config.SitePolicyTenant).ScopeFor(actor).Allows(ScopeTarget{TenantID: 2}))
	assert.False(t, NewAccessScopeResolver(config.SitePolicyNone).ScopeFor(actor).Allows(target))
}

func TestRequestTargetFallsBackToRequesterSites(t *testing.T) {
	requester := models.Requester{TenantID: 1, Preferences: prefs(nil, nil, ids(10, 11))}

	withSite := RequestTarget(models.CoverageRequest{TenantID: 1, SiteID: ptr(int64(12))}, requester)
	assert.Equal(t, []int64{12}, withSite.SiteIDs.Slice())

	without := RequestTarget(models.CoverageRequest{TenantID: 1}, requester)
	assert.Equal(t, []int64{10, 11}, without.SiteIDs.Slice())
}

func TestScopeBounds(t *testing.T) {
	resolver := NewAccessScopeResolver(config.SitePolicyNone)

	tenantID, sites, ok := resolver.ScopeFor(models.Actor{Role: models.RoleSuperAdmin}).Bounds()
	assert.True(t, ok)
	assert.Nil(t, tenantID)
	assert.Nil(t, sites)

	tenantID, sites, ok = resolver.ScopeFor(models.Actor{Role: models.RoleSiteAdmin, TenantID: 3, SiteIDs: models.NewIDSet(12, 10)}).Bounds()
	assert.True(t, ok)
	assert.Equal(t, int64(3), *tenantID)
	assert.Equal(t, []int64{10, 12}, sites)

	_, _, ok = resolver.ScopeFor(models.Actor{Role: models.RoleSiteAdmin, TenantID: 3}).Bounds()
	assert.False(t, ok)
}
