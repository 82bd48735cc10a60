package catalog

import (
	"fmt"
	"log"
	"time"

	"dialtest/internal/ingest"
	"dialtest/internal/models"

	"github.com/google/uuid"
)

// Service runs the ingestion pipeline end to end: validate, read the
// archive, extract the spreadsheet, match scripts, fingerprint, and
// commit. Stages run strictly sequentially; each consumes the output
// of the previous one.
type Service struct {
	store *Store
}

// NewService creates a new catalog service
func NewService(store *Store) *Service {
	return &Service{store: store}
}

// UploadRequest carries one upload through the pipeline.
type UploadRequest struct {
	FileName         string
	Content          []byte
	DeclaredSize     int64
	Description      string
	BusinessCategory string
	Creator          string
	Overwrite        bool
}

// UploadResult is the persisted identity returned to the caller.
type UploadResult struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	SizeBytes   int64     `json:"size_bytes"`
	Format      string    `json:"format"`
	ContentHash string    `json:"content_hash"`
	CaseCount   int       `json:"case_count"`
	Overwritten bool      `json:"overwritten"`
	CreatedAt   time.Time `json:"created_at"`
}

// Ingest processes one uploaded bundle. Default mode fails fast with
// ErrDuplicateEntry when the (name, version) key is taken; overwrite
// mode replaces the prior entry and its cases in the same transaction
// as the new insert. Either way the composite unique index is the
// correctness mechanism: a racing duplicate that slips past the
// fail-fast check dies on the constraint at commit and surfaces as the
// same ErrDuplicateEntry.
func (s *Service) Ingest(req *UploadRequest) (*UploadResult, error) {
	name, version, format, err := ingest.Validate(req.Content, req.FileName, req.DeclaredSize)
	if err != nil {
		return nil, err
	}

	// Hash the exact bytes received before any parsing.
	contentHash := ingest.Fingerprint(req.Content)

	existing, err := s.store.FindByKey(name, version)
	if err != nil {
		return nil, err
	}
	if existing != nil && !req.Overwrite {
		return nil, ErrDuplicateEntry
	}

	content, err := ingest.ReadArchive(req.Content, format)
	if err != nil {
		return nil, err
	}
	if len(content.SpreadsheetBytes) == 0 {
		return nil, ingest.ErrMissingSpreadsheet
	}

	records, err := ingest.ExtractCases(content.SpreadsheetBytes)
	if err != nil {
		return nil, err
	}
	ingest.MatchScripts(records, content.ScriptNames)

	now := time.Now()
	set := &models.CaseSet{
		ID:               uuid.New().String(),
		Name:             name,
		Version:          version,
		RawContent:       req.Content,
		Format:           string(format),
		ContentHash:      contentHash,
		SizeBytes:        int64(len(req.Content)),
		Description:      req.Description,
		BusinessCategory: req.BusinessCategory,
		Creator:          req.Creator,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	cases := make([]models.TestCase, 0, len(records))
	for _, record := range records {
		cases = append(cases, models.TestCase{
			ID:                uuid.New().String(),
			Name:              record.Name,
			Number:            record.Number,
			Topology:          record.Topology,
			BusinessCategory:  record.BusinessCategory,
			AppName:           record.AppName,
			Steps:             record.Steps,
			ExpectedResult:    record.ExpectedResult,
			DependencyPackage: record.DependencyPackage,
			DependencyRule:    record.DependencyRule,
			EnvConfig:         record.EnvConfig,
			ScriptExists:      record.ScriptExists,
			CreatedAt:         now,
			UpdatedAt:         now,
		})
	}

	action := "upload"
	if existing != nil {
		action = "overwrite"
		err = s.store.ReplaceSet(existing.ID, set, cases)
	} else {
		err = s.store.CreateSet(set, cases)
	}
	if err != nil {
		return nil, err
	}

	s.audit(req.Creator, action, name+"_"+version,
		fmt.Sprintf("%d cases, %d bytes, sha256 %s", len(cases), set.SizeBytes, contentHash))

	return &UploadResult{
		ID:          set.ID,
		Name:        set.Name,
		Version:     set.Version,
		SizeBytes:   set.SizeBytes,
		Format:      set.Format,
		ContentHash: set.ContentHash,
		CaseCount:   len(cases),
		Overwritten: existing != nil,
		CreatedAt:   set.CreatedAt,
	}, nil
}

// Download returns the stored archive bytes with a synthesized
// filename and content type. ErrNotFound when the set is absent or its
// stored bytes are empty.
func (s *Service) Download(id string) (content []byte, filename, contentType string, err error) {
	set, err := s.store.FindByID(id)
	if err != nil {
		return nil, "", "", err
	}
	if len(set.RawContent) == 0 {
		return nil, "", "", ErrNotFound
	}
	format := ingest.Format(set.Format)
	filename = fmt.Sprintf("%s_%s.%s", set.Name, set.Version, format.Extension())
	return set.RawContent, filename, format.ContentType(), nil
}

// Delete removes a set and its cases.
func (s *Service) Delete(id, actor string) error {
	set, err := s.store.FindByID(id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteSet(id); err != nil {
		return err
	}
	s.audit(actor, "delete", set.Name+"_"+set.Version, "")
	return nil
}

// UpdateMeta changes a set's description and business category.
func (s *Service) UpdateMeta(id, description, businessCategory, actor string) error {
	if err := s.store.UpdateSetMeta(id, description, businessCategory); err != nil {
		return err
	}
	s.audit(actor, "update", id, "metadata changed")
	return nil
}

// audit writes are fire-and-forget: a failed audit insert is logged
// and never fails the operation it describes.
func (s *Service) audit(actor, action, target, detail string) {
	if err := s.store.WriteAudit(actor, action, target, detail); err != nil {
		log.Printf("audit write failed for %s %s: %v", action, target, err)
	}
}
