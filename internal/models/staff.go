package models

// Contact holds the notification channels of a staff member. Email is required.
type Contact struct {
	Email string  `json:"email"`
	Phone *string `json:"phone,omitempty"`
}

// HasPhone reports whether an SMS channel is on file.
func (c Contact) HasPhone() bool {
	return c.Phone != nil && *c.Phone != ""
}

// Candidate is a substitute-role staff member.
type Candidate struct {
	ID          string                    `json:"id"`
	TenantID    int64                     `json:"tenant_id"`
	FullName    string                    `json:"full_name"`
	Contact     Contact                   `json:"contact"`
	Preferences PreferenceSet             `json:"preferences"`
	Exceptions  []UnavailabilityException `json:"-"`
}

// Requester is the staff member who posts coverage requests.
type Requester struct {
	ID          string        `json:"id"`
	TenantID    int64         `json:"tenant_id"`
	FullName    string        `json:"full_name"`
	Contact     Contact       `json:"contact"`
	Preferences PreferenceSet `json:"preferences"`
}

// Admin is an admin-tier actor. SiteIDs is only meaningful for site admins.
type Admin struct {
	ID       string   `json:"id"`
	TenantID int64    `json:"tenant_id"`
	FullName string   `json:"full_name"`
	Role     UserRole `json:"role"`
	Contact  Contact  `json:"contact"`
	SiteIDs  IDSet    `json:"site_ids"`
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID   string
	TenantID int64
	Role     UserRole
	SiteIDs  IDSet
}

// ActorFromClaims converts token claims into an Actor.
func ActorFromClaims(claims *JWTClaims) Actor {
	if claims == nil {
		return Actor{}
	}
	return Actor{
		UserID:   claims.UserID,
		TenantID: claims.TenantID,
		Role:     claims.Role,
		SiteIDs:  NewIDSet(claims.SiteIDs...),
	}
}
