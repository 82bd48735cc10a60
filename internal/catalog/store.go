package catalog

import (
	"errors"
	"fmt"
	"time"

	"dialtest/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Catalog errors surfaced to the API layer.
var (
	// ErrDuplicateEntry is returned both by the fail-fast existence
	// check and by a unique-constraint violation at commit time, so a
	// racing duplicate upload and a sequential one look identical.
	ErrDuplicateEntry = errors.New("a case set with this name and version already exists")
	ErrNotFound       = errors.New("case set not found")
)

// Store is the persistence layer for case sets. Uniqueness of
// (name, version) is enforced by a composite unique index, not by the
// application-level existence check.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new catalog store
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// CreateSet inserts a set, its case rows and any newly discovered
// app-type reference rows in one transaction. A duplicated key on the
// set insert maps to ErrDuplicateEntry; any other failure rolls the
// whole write back, so a set row is never visible without its cases.
func (s *Store) CreateSet(set *models.CaseSet, cases []models.TestCase) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return createSetTx(tx, set, cases)
	})
}

// ReplaceSet removes the existing set identified by oldID, then
// inserts the replacement, all inside one transaction. A failed insert
// rolls the delete back, so overwrite never loses the old entry
// without committing the new one.
func (s *Store) ReplaceSet(oldID string, set *models.CaseSet, cases []models.TestCase) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := deleteSetTx(tx, oldID); err != nil {
			return err
		}
		return createSetTx(tx, set, cases)
	})
}

func createSetTx(tx *gorm.DB, set *models.CaseSet, cases []models.TestCase) error {
	if err := tx.Create(set).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEntry
		}
		return fmt.Errorf("failed to create case set: %w", err)
	}

	now := time.Now()
	for i := range cases {
		cases[i].CaseSetID = set.ID
		if cases[i].CreatedAt.IsZero() {
			cases[i].CreatedAt = now
			cases[i].UpdatedAt = now
		}
	}
	if len(cases) > 0 {
		if err := tx.Create(&cases).Error; err != nil {
			return fmt.Errorf("failed to create test cases: %w", err)
		}
	}

	return createAppTypesTx(tx, cases)
}

// createAppTypesTx upserts reference rows for app names seen in this
// upload. Existing names are left untouched.
func createAppTypesTx(tx *gorm.DB, cases []models.TestCase) error {
	seen := make(map[string]struct{})
	for i := range cases {
		name := cases[i].AppName
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		appType := models.AppType{
			ID:        uuid.New().String(),
			Name:      name,
			CreatedAt: time.Now(),
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&appType).Error
		if err != nil {
			return fmt.Errorf("failed to create app type %q: %w", name, err)
		}
	}
	return nil
}

func deleteSetTx(tx *gorm.DB, id string) error {
	if err := tx.Where("case_set_id = ?", id).Delete(&models.TestCase{}).Error; err != nil {
		return fmt.Errorf("failed to delete test cases: %w", err)
	}
	result := tx.Delete(&models.CaseSet{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete case set: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSet removes a set and all its cases atomically.
func (s *Store) DeleteSet(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return deleteSetTx(tx, id)
	})
}

// FindByKey looks a set up by its (name, version) catalog key. Returns
// nil without error when no such set exists.
func (s *Store) FindByKey(name, version string) (*models.CaseSet, error) {
	var set models.CaseSet
	err := s.db.Where("name = ? AND version = ?", name, version).First(&set).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up case set: %w", err)
	}
	return &set, nil
}

// FindByID loads a set with its cases.
func (s *Store) FindByID(id string) (*models.CaseSet, error) {
	var set models.CaseSet
	err := s.db.Preload("Cases").First(&set, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load case set: %w", err)
	}
	return &set, nil
}

// SetSummary is one row of the catalog listing; raw content and cases
// are not loaded.
type SetSummary struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Version          string    `json:"version"`
	Format           string    `json:"format"`
	ContentHash      string    `json:"content_hash"`
	SizeBytes        int64     `json:"size_bytes"`
	Description      string    `json:"description"`
	BusinessCategory string    `json:"business_category"`
	Creator          string    `json:"creator"`
	CaseCount        int64     `json:"case_count"`
	CreatedAt        time.Time `json:"created_at"`
}

// List returns one page of set summaries ordered by creation time
// descending, plus the total number of sets. Page numbers are 1-based.
func (s *Store) List(page, size int) ([]SetSummary, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}

	var total int64
	if err := s.db.Model(&models.CaseSet{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count case sets: %w", err)
	}

	var summaries []SetSummary
	err := s.db.Model(&models.CaseSet{}).
		Select("case_sets.id, case_sets.name, case_sets.version, case_sets.format, " +
			"case_sets.content_hash, case_sets.size_bytes, case_sets.description, " +
			"case_sets.business_category, case_sets.creator, case_sets.created_at, " +
			"(SELECT COUNT(*) FROM test_cases WHERE test_cases.case_set_id = case_sets.id) AS case_count").
		Order("case_sets.created_at DESC").
		Limit(size).
		Offset((page - 1) * size).
		Scan(&summaries).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list case sets: %w", err)
	}
	return summaries, total, nil
}

// MissingScriptCount aggregates, per set, the cases whose expected
// script was absent from the uploaded archive.
type MissingScriptCount struct {
	CaseSetID string `json:"case_set_id"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	Missing   int64  `json:"missing"`
}

// MissingScriptCounts returns counts of script-less cases grouped by set.
func (s *Store) MissingScriptCounts() ([]MissingScriptCount, error) {
	var counts []MissingScriptCount
	err := s.db.Model(&models.TestCase{}).
		Select("test_cases.case_set_id, case_sets.name, case_sets.version, COUNT(*) AS missing").
		Joins("JOIN case_sets ON case_sets.id = test_cases.case_set_id").
		Where("test_cases.script_exists = ?", false).
		Group("test_cases.case_set_id, case_sets.name, case_sets.version").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count missing scripts: %w", err)
	}
	return counts, nil
}

// UpdateSetMeta updates the mutable metadata of a set.
func (s *Store) UpdateSetMeta(id, description, businessCategory string) error {
	result := s.db.Model(&models.CaseSet{}).Where("id = ?", id).Updates(map[string]interface{}{
		"description":       description,
		"business_category": businessCategory,
		"updated_at":        time.Now(),
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update case set: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAppTypes returns the app-type reference rows ordered by name.
func (s *Store) ListAppTypes() ([]models.AppType, error) {
	var appTypes []models.AppType
	if err := s.db.Order("name ASC").Find(&appTypes).Error; err != nil {
		return nil, fmt.Errorf("failed to list app types: %w", err)
	}
	return appTypes, nil
}

// WriteAudit records a catalog mutation. Callers treat failures as
// non-fatal.
func (s *Store) WriteAudit(actor, action, target, detail string) error {
	record := models.AuditRecord{
		ID:        uuid.New().String(),
		Actor:     actor,
		Action:    action,
		Target:    target,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
	return s.db.Create(&record).Error
}

// ListAudit returns one page of audit records, newest first.
func (s *Store) ListAudit(page, size int) ([]models.AuditRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}

	var total int64
	if err := s.db.Model(&models.AuditRecord{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit records: %w", err)
	}

	var records []models.AuditRecord
	err := s.db.Order("created_at DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&records).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit records: %w", err)
	}
	return records, total, nil
}
