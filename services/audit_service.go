package services

import (
	"context"

	"github.com/qmsoft/dmt-tracker/models"
	"github.com/qmsoft/dmt-tracker/repositories"
)

const defaultAuditLimit = 50

// AuditService serves the read side of the audit trail
type AuditService interface {
	List(ctx context.Context, limit int) ([]models.AuditLog, error)
}

// auditService implements AuditService interface
type auditService struct {
	auditRepo repositories.AuditRepository
}

// NewAuditService creates a new audit service
func NewAuditService(auditRepo repositories.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

// List retrieves the most recent audit entries, newest first
func (s *auditService) List(ctx context.Context, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	return s.auditRepo.List(ctx, limit)
}
