package models

import (
	"time"
)

// CaseSet represents an uploaded test-case bundle and its metadata.
// The raw archive bytes are stored inline with the metadata row.
type CaseSet struct {
	ID               string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name             string    `gorm:"not null;type:varchar(255);uniqueIndex:idx_case_sets_name_version" json:"name"`
	Version          string    `gorm:"not null;type:varchar(100);uniqueIndex:idx_case_sets_name_version" json:"version"`
	RawContent       []byte    `gorm:"not null" json:"-"`
	Format           string    `gorm:"not null;type:varchar(10)" json:"format"` // zip or targz
	ContentHash      string    `gorm:"not null;type:varchar(64);index" json:"content_hash"` // SHA256 hash
	SizeBytes        int64     `gorm:"not null" json:"size_bytes"`
	Description      string    `gorm:"type:varchar(1000)" json:"description"`
	BusinessCategory string    `gorm:"type:varchar(255)" json:"business_category"`
	Creator          string    `gorm:"type:varchar(255)" json:"creator"`
	CreatedAt        time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	Cases []TestCase `gorm:"foreignKey:CaseSetID;constraint:OnDelete:CASCADE" json:"cases,omitempty"`
}

func (CaseSet) TableName() string {
	return "case_sets"
}

// TestCase is a single case row extracted from a set's spreadsheet.
type TestCase struct {
	ID                string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CaseSetID         string    `gorm:"not null;type:varchar(36);index" json:"case_set_id"`
	Name              string    `gorm:"type:varchar(500)" json:"name"`
	Number            string    `gorm:"type:varchar(255);index" json:"number"`
	Topology          string    `gorm:"type:varchar(255)" json:"topology"`
	BusinessCategory  string    `gorm:"type:varchar(255)" json:"business_category"`
	AppName           string    `gorm:"type:varchar(255)" json:"app_name"`
	Steps             string    `gorm:"type:text" json:"steps"`
	ExpectedResult    string    `gorm:"type:text" json:"expected_result"`
	DependencyPackage string    `gorm:"type:varchar(500)" json:"dependency_package"`
	DependencyRule    string    `gorm:"type:varchar(500)" json:"dependency_rule"`
	EnvConfig         string    `gorm:"type:text" json:"env_config"`
	ScriptExists      bool      `gorm:"not null;default:false" json:"script_exists"`
	CreatedAt         time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (TestCase) TableName() string {
	return "test_cases"
}
