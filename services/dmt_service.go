package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/qmsoft/dmt-tracker/models"
	"github.com/qmsoft/dmt-tracker/repositories"
	"github.com/qmsoft/dmt-tracker/userctx"
)

// DMTService interface defines DMT record business logic
type DMTService interface {
	List(ctx context.Context, search string, includeDrafts bool) ([]models.DMTRecord, error)
	Get(ctx context.Context, id int) (*models.DMTRecord, error)
	Create(ctx context.Context, form *models.DMTForm) (*models.DMTRecord, error)
	Update(ctx context.Context, id int, form *models.DMTUpdateForm) (*models.DMTRecord, error)
	Delete(ctx context.Context, id int) error
	Close(ctx context.Context, id int) (*models.DMTRecord, error)
	Reopen(ctx context.Context, id int) (*models.DMTRecord, error)
	AdvanceWorkflow(ctx context.Context, id int) (*models.DMTRecord, error)
}

// dmtService implements DMTService interface
type dmtService struct {
	dmtRepo repositories.DMTRepository
}

// NewDMTService creates a new DMT service
func NewDMTService(dmtRepo repositories.DMTRepository) DMTService {
	return &dmtService{dmtRepo: dmtRepo}
}

// List retrieves DMT records with optional search and draft inclusion
func (s *dmtService) List(ctx context.Context, search string, includeDrafts bool) ([]models.DMTRecord, error) {
	return s.dmtRepo.List(ctx, search, includeDrafts)
}

// Get retrieves a DMT record by ID
func (s *dmtService) Get(ctx context.Context, id int) (*models.DMTRecord, error) {
	return s.dmtRepo.GetByID(ctx, id)
}

// Create creates a new DMT record. Published records start Open in the
// Draft workflow stage; session records stay unnumbered drafts.
func (s *dmtService) Create(ctx context.Context, form *models.DMTForm) (*models.DMTRecord, error) {
	if errors := form.Validate(); len(errors) > 0 {
		return nil, &ValidationError{Messages: errors}
	}

	record := &models.DMTRecord{
		Title:         strings.TrimSpace(form.Title),
		Description:   form.Description,
		Category:      form.Category,
		Severity:      form.Severity,
		Department:    form.Department,
		Status:        models.StatusOpen,
		WorkflowStage: models.StageDraft,
		IsSession:     form.IsSession,
		CreatedBy:     userctx.GetUsername(ctx),
	}

	if err := s.dmtRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create DMT record: %w", err)
	}

	return record, nil
}

// Update applies a partial update. Flipping is_session off publishes a
// draft and assigns its display number.
func (s *dmtService) Update(ctx context.Context, id int, form *models.DMTUpdateForm) (*models.DMTRecord, error) {
	if errors := form.Validate(); len(errors) > 0 {
		return nil, &ValidationError{Messages: errors}
	}

	record, err := s.dmtRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrNotFound
	}

	if form.Title != nil {
		record.Title = strings.TrimSpace(*form.Title)
	}
	if form.Description != nil {
		record.Description = *form.Description
	}
	if form.Category != nil {
		record.Category = *form.Category
	}
	if form.Severity != nil {
		record.Severity = *form.Severity
	}
	if form.Department != nil {
		record.Department = *form.Department
	}
	if form.Status != nil {
		record.Status = *form.Status
	}
	if form.WorkflowStage != nil {
		record.WorkflowStage = *form.WorkflowStage
	}
	if form.IsSession != nil {
		record.IsSession = *form.IsSession
	}
	if form.RootCause != nil {
		record.RootCause = form.RootCause
	}
	if form.CorrectiveAction != nil {
		record.CorrectiveAction = form.CorrectiveAction
	}
	if form.PreventiveAction != nil {
		record.PreventiveAction = form.PreventiveAction
	}
	if form.TargetDate != nil {
		record.TargetDate = form.TargetDate
	}

	found, err := s.dmtRepo.Update(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("failed to update DMT record: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}

	return record, nil
}

// Delete permanently removes a DMT record
func (s *dmtService) Delete(ctx context.Context, id int) error {
	found, err := s.dmtRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete DMT record: %w", err)
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// Close transitions a record to Closed
func (s *dmtService) Close(ctx context.Context, id int) (*models.DMTRecord, error) {
	return s.setStatus(ctx, id, models.StatusClosed)
}

// Reopen transitions a record back to Open
func (s *dmtService) Reopen(ctx context.Context, id int) (*models.DMTRecord, error) {
	return s.setStatus(ctx, id, models.StatusOpen)
}

func (s *dmtService) setStatus(ctx context.Context, id int, status string) (*models.DMTRecord, error) {
	record, err := s.dmtRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrNotFound
	}

	record.Status = status
	found, err := s.dmtRepo.Update(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("failed to update DMT record: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}

	return record, nil
}

// AdvanceWorkflow moves a record to the next fixed workflow stage. Records
// already at the terminal stage are returned unchanged.
func (s *dmtService) AdvanceWorkflow(ctx context.Context, id int) (*models.DMTRecord, error) {
	record, err := s.dmtRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrNotFound
	}

	next := models.NextWorkflowStage(record.WorkflowStage)
	if next == record.WorkflowStage {
		return record, nil
	}

	record.WorkflowStage = next
	found, err := s.dmtRepo.Update(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("failed to update DMT record: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}

	return record, nil
}
