package models

// Tenant is the top-level isolation boundary.
type Tenant struct {
	ID   int64  `db:"id" json:"id" yaml:"id"`
	Name string `db:"name" json:"name" yaml:"name"`
}

// Site is a physical location within a tenant.
type Site struct {
	ID       int64  `db:"id" json:"id" yaml:"id"`
	TenantID int64  `db:"tenant_id" json:"tenant_id" yaml:"tenant_id"`
	Name     string `db:"name" json:"name" yaml:"name"`
	Code     string `db:"code" json:"code" yaml:"code"`
}

// Grade is a grade-level catalog entry.
type Grade struct {
	ID   int64  `db:"id" json:"id" yaml:"id"`
	Name string `db:"name" json:"name" yaml:"name"`
}

// Subject is a subject-area catalog entry.
type Subject struct {
	ID   int64  `db:"id" json:"id" yaml:"id"`
	Name string `db:"name" json:"name" yaml:"name"`
}

// Catalog bundles reference data loaded by the seed tool.
type Catalog struct {
	Tenants  []Tenant  `yaml:"tenants"`
	Sites    []Site    `yaml:"sites"`
	Grades   []Grade   `yaml:"grades"`
	Subjects []Subject `yaml:"subjects"`
}
