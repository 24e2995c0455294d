package service

import "github.com/noah-isme/subcover-api/internal/models"

// PreferenceMatcher compares a candidate's grade, subject and site
// preferences with a requester's.
type PreferenceMatcher struct {
	wildcards models.Wildcards
}

// NewPreferenceMatcher builds a matcher for the given wildcard ids.
func NewPreferenceMatcher(wildcards models.Wildcards) PreferenceMatcher {
	return PreferenceMatcher{wildcards: wildcards}
}

// Matches requires the grade, subject and site axes to all match.
func (m PreferenceMatcher) Matches(requester models.Requester, candidate models.Candidate) bool {
	return m.GradeMatch(candidate.Preferences.Grades, requester.Preferences.Grades) &&
		m.SubjectMatch(candidate.Preferences.Subjects, requester.Preferences.Subjects) &&
		SiteMatch(candidate.Preferences.Sites, requester.Preferences.Sites)
}

// GradeMatch is true when the candidate holds the grade wildcard or shares a grade.
func (m PreferenceMatcher) GradeMatch(candidate, requested models.IDSet) bool {
	return candidate.Has(m.wildcards.Grade) || candidate.Intersects(requested)
}

// SubjectMatch is true when the candidate holds the subject wildcard or shares a subject.
func (m PreferenceMatcher) SubjectMatch(candidate, requested models.IDSet) bool {
	return candidate.Has(m.wildcards.Subject) || candidate.Intersects(requested)
}

// SiteMatch treats an empty set on either side as "any site".
func SiteMatch(candidate, target models.IDSet) bool {
	if candidate.Empty() || target.Empty() {
		return true
	}
	return candidate.Intersects(target)
}
