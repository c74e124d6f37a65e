// Package ledger persists projects and emission records.
//
// A Store is an explicitly constructed handle around one *gorm.DB; nothing here holds
// process-wide state. Writes are serialized through the store so id generation, the
// project check and the commit happen as one unit.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"carbon-registry/internal/application/methodology"
	"carbon-registry/internal/domain"
	"carbon-registry/internal/pkg/validation"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Store struct {
	DB *gorm.DB

	writeMu  sync.Mutex
	schemaMu sync.Mutex
}

func New(db *gorm.DB) *Store {
	return &Store{DB: db}
}

func storageErr(op string, err error) error {
	log.Error().Err(err).Str("op", op).Msg("ledger storage failure")
	return &domain.StorageError{Op: op, Err: err}
}

// EnsureSchema creates whatever tables, indexes and constraints are missing. Safe to
// call repeatedly and from several goroutines.
func (s *Store) EnsureSchema(ctx context.Context) error {
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()
	if err := s.DB.WithContext(ctx).AutoMigrate(&domain.Project{}, &domain.Emission{}); err != nil {
		return storageErr("ensure schema", err)
	}
	return nil
}

// ActiveProject is a selectable project with its display label.
type ActiveProject struct {
	domain.Project
	Label string `json:"label"`
}

func (s *Store) CreateProject(ctx context.Context, code, name string) (*domain.Project, error) {
	p := &domain.Project{
		ProjectCode: strings.TrimSpace(code),
		ProjectName: strings.TrimSpace(name),
		Status:      domain.ProjectStatusActive,
		UpdatedAt:   time.Now().UTC(),
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.DB.WithContext(ctx).Create(p).Error; err != nil {
		return nil, storageErr("create project", err)
	}
	log.Debug().Str("project_id", p.ProjectID).Msg("project created")
	return p, nil
}

// GetProject returns a project regardless of status.
func (s *Store) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	var p domain.Project
	err := s.DB.WithContext(ctx).Where("project_id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &domain.ReferenceError{ProjectID: id}
	}
	if err != nil {
		return nil, storageErr("get project", err)
	}
	return &p, nil
}

// ArchiveProject soft-deletes a project. Its emission records keep pointing at it.
func (s *Store) ArchiveProject(ctx context.Context, id string) (*domain.Project, error) {
	s.writeMu.Lock()
	res := s.DB.WithContext(ctx).Model(&domain.Project{}).
		Where("project_id = ?", id).
		Updates(map[string]interface{}{
			"status":     domain.ProjectStatusArchived,
			"updated_at": time.Now().UTC(),
		})
	s.writeMu.Unlock()
	if res.Error != nil {
		return nil, storageErr("archive project", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, &domain.ReferenceError{ProjectID: id}
	}
	log.Info().Str("project_id", id).Msg("project archived")
	return s.GetProject(ctx, id)
}

// ListActiveProjects returns non-archived projects, most recently updated first. A NULL
// status counts as active.
func (s *Store) ListActiveProjects(ctx context.Context) ([]ActiveProject, error) {
	var rows []domain.Project
	err := s.DB.WithContext(ctx).
		Where("status IS NULL OR status <> ?", domain.ProjectStatusArchived).
		Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, storageErr("list active projects", err)
	}
	out := make([]ActiveProject, 0, len(rows))
	for _, p := range rows {
		out = append(out, ActiveProject{Project: p, Label: p.Label()})
	}
	return out, nil
}

// SaveEmissionInput is a raw emission record. Inputs and Outputs are serialized to JSON
// verbatim.
type SaveEmissionInput struct {
	ProjectID     string
	Methodology   string
	QuantityTCO2e float64
	RecordDate    string
	Notes         string
	Inputs        interface{}
	Outputs       interface{}
}

func (in SaveEmissionInput) validate() error {
	return validation.First(
		validation.Required("project_id", in.ProjectID),
		validation.Required("methodology", in.Methodology),
		validation.RecordDate(in.RecordDate),
		validation.Finite("quantity_tco2e", in.QuantityTCO2e),
	)
}

// SaveEmission appends an emission record and returns its id. An unknown project id is
// a ReferenceError and writes nothing; archived projects are accepted.
func (s *Store) SaveEmission(ctx context.Context, in SaveEmissionInput) (string, error) {
	if err := in.validate(); err != nil {
		return "", err
	}
	inputs, err := json.Marshal(in.Inputs)
	if err != nil {
		return "", domain.Invalid("inputs", "not serializable: %v", err)
	}
	outputs, err := json.Marshal(in.Outputs)
	if err != nil {
		return "", domain.Invalid("outputs", "not serializable: %v", err)
	}

	projectID := in.ProjectID
	e := &domain.Emission{
		ProjectID:     &projectID,
		Methodology:   in.Methodology,
		RecordDate:    in.RecordDate,
		QuantityTCO2e: in.QuantityTCO2e,
		Notes:         in.Notes,
		Inputs:        datatypes.JSON(inputs),
		Outputs:       datatypes.JSON(outputs),
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.Project{}).Where("project_id = ?", projectID).Count(&n).Error; err != nil {
			return storageErr("lookup project", err)
		}
		if n == 0 {
			return &domain.ReferenceError{ProjectID: projectID}
		}
		if err := tx.Create(e).Error; err != nil {
			return storageErr("save emission", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrReference) || errors.Is(err, domain.ErrStorage) {
			return "", err
		}
		return "", storageErr("commit emission", err)
	}
	log.Debug().
		Str("emission_id", e.EmissionID).
		Str("project_id", projectID).
		Str("methodology", e.Methodology).
		Float64("quantity_tco2e", e.QuantityTCO2e).
		Msg("emission saved")
	return e.EmissionID, nil
}

// SaveCalculation saves a calculator result under its methodology code. Blank notes
// take the calculator's default note.
func (s *Store) SaveCalculation(ctx context.Context, projectID, recordDate, notes string, r methodology.Result) (string, error) {
	if notes == "" {
		notes = r.DefaultNotes()
	}
	return s.SaveEmission(ctx, SaveEmissionInput{
		ProjectID:     projectID,
		Methodology:   r.Methodology(),
		QuantityTCO2e: r.QuantityTCO2e(),
		RecordDate:    recordDate,
		Notes:         notes,
		Inputs:        r.RecordInputs(),
		Outputs:       r.RecordOutputs(),
	})
}

func (s *Store) GetEmission(ctx context.Context, id string) (*domain.Emission, error) {
	var e domain.Emission
	err := s.DB.WithContext(ctx).Where("emission_id = ?", id).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("emission %q: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, storageErr("get emission", err)
	}
	return &e, nil
}

// EmissionFilter narrows ListEmissions. Zero fields do not filter; From and To are
// inclusive YYYY-MM-DD bounds on record_date.
type EmissionFilter struct {
	ProjectID   string
	Methodology string
	From        string
	To          string
	Limit       int
}

func (f EmissionFilter) validate() error {
	if f.From != "" {
		if err := validation.RecordDate(f.From); err != nil {
			return domain.Invalid("from", "must be a YYYY-MM-DD date, got %q", f.From)
		}
	}
	if f.To != "" {
		if err := validation.RecordDate(f.To); err != nil {
			return domain.Invalid("to", "must be a YYYY-MM-DD date, got %q", f.To)
		}
	}
	return validation.MinInt("limit", f.Limit, 0)
}

// ListEmissions returns matching records, newest first.
func (s *Store) ListEmissions(ctx context.Context, f EmissionFilter) ([]domain.Emission, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	q := s.DB.WithContext(ctx).Model(&domain.Emission{})
	if f.ProjectID != "" {
		q = q.Where("project_id = ?", f.ProjectID)
	}
	if f.Methodology != "" {
		q = q.Where("methodology = ?", f.Methodology)
	}
	if f.From != "" {
		q = q.Where("record_date >= ?", f.From)
	}
	if f.To != "" {
		q = q.Where("record_date <= ?", f.To)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	out := []domain.Emission{}
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, storageErr("list emissions", err)
	}
	return out, nil
}

// UpdateNotes replaces the notes of a saved record. Nothing else about a record changes
// after it is written.
func (s *Store) UpdateNotes(ctx context.Context, id, notes string) (*domain.Emission, error) {
	s.writeMu.Lock()
	res := s.DB.WithContext(ctx).Model(&domain.Emission{}).Where("emission_id = ?", id).Update("notes", notes)
	s.writeMu.Unlock()
	if res.Error != nil {
		return nil, storageErr("update notes", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("emission %q: %w", id, domain.ErrNotFound)
	}
	return s.GetEmission(ctx, id)
}

// TotalsByMethodology sums saved quantities per methodology, optionally for one project.
func (s *Store) TotalsByMethodology(ctx context.Context, projectID string) ([]domain.MethodologyTotal, error) {
	q := s.DB.WithContext(ctx).Model(&domain.Emission{}).
		Select("methodology, COUNT(*) AS records, COALESCE(SUM(quantity_tco2e), 0) AS quantity_tco2e")
	if projectID != "" {
		q = q.Where("project_id = ?", projectID)
	}
	out := []domain.MethodologyTotal{}
	if err := q.Group("methodology").Order("methodology").Scan(&out).Error; err != nil {
		return nil, storageErr("totals by methodology", err)
	}
	return out, nil
}

// Decode rebuilds the typed calculator result of a stored record.
func Decode(e *domain.Emission) (methodology.Result, error) {
	return methodology.Decode(e.Methodology, e.Inputs, e.Outputs)
}
