package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/qmsoft/dmt-tracker/models"
	"github.com/qmsoft/dmt-tracker/repositories"
	"github.com/qmsoft/dmt-tracker/userctx"
)

// EntityService interface defines reference entity business logic: one
// uniform CRUD surface shared by all eight entity kinds.
type EntityService interface {
	List(ctx context.Context, kind models.EntityKind, search string) ([]models.ReferenceEntity, error)
	Get(ctx context.Context, kind models.EntityKind, id int) (*models.ReferenceEntity, error)
	Create(ctx context.Context, kind models.EntityKind, form *models.EntityForm) (*models.ReferenceEntity, error)
	Update(ctx context.Context, kind models.EntityKind, id int, form *models.EntityForm) (*models.ReferenceEntity, error)
	Delete(ctx context.Context, kind models.EntityKind, id int) error
	ImportCSV(ctx context.Context, kind models.EntityKind, src io.Reader) (*ImportResult, error)
}

// ImportResult summarizes one CSV bulk import: rows created, duplicates
// skipped, and per-row problems that did not stop the rest of the file.
type ImportResult struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

// entityService implements EntityService interface
type entityService struct {
	entityRepo repositories.EntityRepository
	auditRepo  repositories.AuditRepository
}

// NewEntityService creates a new reference entity service
func NewEntityService(entityRepo repositories.EntityRepository, auditRepo repositories.AuditRepository) EntityService {
	return &entityService{
		entityRepo: entityRepo,
		auditRepo:  auditRepo,
	}
}

// List retrieves all entities of a kind with optional search
func (s *entityService) List(ctx context.Context, kind models.EntityKind, search string) ([]models.ReferenceEntity, error) {
	if !kind.Valid() {
		return nil, ErrUnknownEntityKind
	}
	return s.entityRepo.List(ctx, kind, search)
}

// Get retrieves one entity by ID
func (s *entityService) Get(ctx context.Context, kind models.EntityKind, id int) (*models.ReferenceEntity, error) {
	if !kind.Valid() {
		return nil, ErrUnknownEntityKind
	}
	return s.entityRepo.GetByID(ctx, kind, id)
}

// Create creates a new entity of the given kind
func (s *entityService) Create(ctx context.Context, kind models.EntityKind, form *models.EntityForm) (*models.ReferenceEntity, error) {
	if !kind.Valid() {
		return nil, ErrUnknownEntityKind
	}
	if errors := form.Validate(); len(errors) > 0 {
		return nil, &ValidationError{Messages: errors}
	}

	entity := &models.ReferenceEntity{
		Name: strings.TrimSpace(form.Name),
	}
	if kind.HasEmployeeNumber() {
		entity.EmployeeNumber = strings.TrimSpace(form.EmployeeNumber)
	}

	if err := s.entityRepo.Create(ctx, kind, entity); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", kind, err)
	}

	return entity, nil
}

// Update updates an existing entity
func (s *entityService) Update(ctx context.Context, kind models.EntityKind, id int, form *models.EntityForm) (*models.ReferenceEntity, error) {
	if !kind.Valid() {
		return nil, ErrUnknownEntityKind
	}
	if errors := form.Validate(); len(errors) > 0 {
		return nil, &ValidationError{Messages: errors}
	}

	entity, err := s.entityRepo.GetByID(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, ErrNotFound
	}

	entity.Name = strings.TrimSpace(form.Name)
	if kind.HasEmployeeNumber() {
		entity.EmployeeNumber = strings.TrimSpace(form.EmployeeNumber)
	}

	found, err := s.entityRepo.Update(ctx, kind, entity)
	if err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", kind, err)
	}
	if !found {
		return nil, ErrNotFound
	}

	return entity, nil
}

// Delete permanently removes an entity
func (s *entityService) Delete(ctx context.Context, kind models.EntityKind, id int) error {
	if !kind.Valid() {
		return ErrUnknownEntityKind
	}

	found, err := s.entityRepo.Delete(ctx, kind, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// ImportCSV bulk-loads entities from CSV. The header must carry a name
// column (plus employee_number for employees). Rows whose name matches an
// existing entity case-insensitively are skipped as duplicates; malformed
// rows are reported in the result without stopping the rest of the file.
func (s *entityService) ImportCSV(ctx context.Context, kind models.EntityKind, src io.Reader) (*ImportResult, error) {
	if !kind.Valid() {
		return nil, ErrUnknownEntityKind
	}

	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &ValidationError{Messages: []string{"CSV file is empty or has no headers"}}
	}
	if err != nil {
		return nil, &ValidationError{Messages: []string{fmt.Sprintf("CSV parsing error: %v", err)}}
	}

	nameCol, numberCol := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "name":
			nameCol = i
		case "employee_number":
			numberCol = i
		}
	}
	if nameCol < 0 {
		return nil, &ValidationError{Messages: []string{"Missing required column: name"}}
	}
	if kind.HasEmployeeNumber() && numberCol < 0 {
		return nil, &ValidationError{Messages: []string{"Missing required column: employee_number"}}
	}

	existing, err := s.entityRepo.List(ctx, kind, "")
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		seen[strings.ToLower(e.Name)] = true
	}

	result := &ImportResult{Errors: []string{}}
	for row := 2; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", row, err))
			continue
		}
		if blankRow(record) {
			continue
		}

		name := ""
		if nameCol < len(record) {
			name = strings.TrimSpace(record[nameCol])
		}
		if name == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Name is required", row))
			continue
		}

		entity := &models.ReferenceEntity{Name: name}
		if kind.HasEmployeeNumber() {
			number := ""
			if numberCol < len(record) {
				number = strings.TrimSpace(record[numberCol])
			}
			if number == "" {
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Employee number is required", row))
				continue
			}
			entity.EmployeeNumber = number
		}

		if seen[strings.ToLower(name)] {
			result.Skipped++
			continue
		}

		if err := s.entityRepo.Create(ctx, kind, entity); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: failed to import %q: %v", row, name, err))
			continue
		}
		seen[strings.ToLower(name)] = true
		result.Created++
	}

	if result.Created > 0 || result.Skipped > 0 {
		entry := &models.AuditLog{
			EntityType: kind.Table(),
			Action:     models.ActionCreate,
			User:       userctx.GetUsername(ctx),
			Details:    fmt.Sprintf("Imported %d %s rows from CSV (%d skipped)", result.Created, kind.Table(), result.Skipped),
		}
		if err := s.auditRepo.Create(ctx, entry); err != nil {
			return nil, fmt.Errorf("failed to write audit log: %w", err)
		}
	}

	return result, nil
}

func blankRow(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
