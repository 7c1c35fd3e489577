package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/qmsoft/dmt-tracker/models"
)

// AuditRepository handles the append-only audit trail. Entries for
// mutations are written by the mutating repositories inside their own
// transactions; this repository serves reads and standalone appends.
type AuditRepository interface {
	List(ctx context.Context, limit int) ([]models.AuditLog, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, entry *models.AuditLog) error
}

type sqliteAuditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sql.DB) AuditRepository {
	return &sqliteAuditRepository{db: db}
}

// List retrieves the most recent audit entries, newest first
func (r *sqliteAuditRepository) List(ctx context.Context, limit int) ([]models.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, entity_type, entity_id, action, user, details, timestamp
		FROM audit_logs
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditLog
	for rows.Next() {
		var entry models.AuditLog
		err := rows.Scan(
			&entry.ID,
			&entry.EntityType,
			&entry.EntityID,
			&entry.Action,
			&entry.User,
			&entry.Details,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit logs: %w", err)
	}

	return entries, nil
}

// Count returns the total number of audit entries
func (r *sqliteAuditRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_logs").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count audit logs: %w", err)
	}
	return count, nil
}

// Create inserts a standalone audit entry
func (r *sqliteAuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_logs (entity_type, entity_id, action, user, details, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		entry.EntityType,
		entry.EntityID,
		entry.Action,
		entry.User,
		entry.Details,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted ID: %w", err)
	}
	entry.ID = id

	return nil
}
