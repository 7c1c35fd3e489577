package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/qmsoft/dmt-tracker/models"
	"github.com/qmsoft/dmt-tracker/userctx"
)

// DMTCounts holds the status breakdown of published DMT records
type DMTCounts struct {
	Total      int
	Open       int
	InProgress int
	Closed     int
}

// DMTRepository interface defines DMT record database operations.
// Reads on a missing id return a nil record, not an error.
type DMTRepository interface {
	List(ctx context.Context, search string, includeDrafts bool) ([]models.DMTRecord, error)
	GetByID(ctx context.Context, id int) (*models.DMTRecord, error)
	Create(ctx context.Context, record *models.DMTRecord) error
	Update(ctx context.Context, record *models.DMTRecord) (bool, error)
	Delete(ctx context.Context, id int) (bool, error)
	Counts(ctx context.Context) (DMTCounts, error)
	CountsByUser(ctx context.Context, username string) (DMTCounts, error)
	Recent(ctx context.Context, limit int) ([]models.DMTRecord, error)
}

// dmtRepository implements DMTRepository interface
type dmtRepository struct {
	db *sql.DB
}

// NewDMTRepository creates a new DMT record repository
func NewDMTRepository(db *sql.DB) DMTRepository {
	return &dmtRepository{db: db}
}

const dmtColumns = `id, dmt_number, title, description, category, severity, department,
	status, workflow_stage, is_session, root_cause, corrective_action,
	preventive_action, target_date, created_by, created_at, updated_at`

func scanDMT(row interface{ Scan(...any) error }) (*models.DMTRecord, error) {
	var record models.DMTRecord
	var rootCause, correctiveAction, preventiveAction, targetDate sql.NullString

	err := row.Scan(
		&record.ID,
		&record.DMTNumber,
		&record.Title,
		&record.Description,
		&record.Category,
		&record.Severity,
		&record.Department,
		&record.Status,
		&record.WorkflowStage,
		&record.IsSession,
		&rootCause,
		&correctiveAction,
		&preventiveAction,
		&targetDate,
		&record.CreatedBy,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if rootCause.Valid {
		record.RootCause = &rootCause.String
	}
	if correctiveAction.Valid {
		record.CorrectiveAction = &correctiveAction.String
	}
	if preventiveAction.Valid {
		record.PreventiveAction = &preventiveAction.String
	}
	if targetDate.Valid {
		record.TargetDate = &targetDate.String
	}

	return &record, nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// List retrieves DMT records, most recently created first. Drafts are
// excluded unless includeDrafts is set. A non-empty search term matches
// the display number, title, or description case-insensitively.
func (r *dmtRepository) List(ctx context.Context, search string, includeDrafts bool) ([]models.DMTRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM dmt_records WHERE 1=1", dmtColumns)
	var params []any

	if !includeDrafts {
		query += " AND is_session = 0"
	}

	if search != "" {
		query += " AND (dmt_number LIKE ? OR title LIKE ? OR description LIKE ?)"
		term := "%" + search + "%"
		params = append(params, term, term, term)
	}

	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to query DMT records: %w", err)
	}
	defer rows.Close()

	var records []models.DMTRecord
	for rows.Next() {
		record, err := scanDMT(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan DMT record: %w", err)
		}
		records = append(records, *record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating DMT records: %w", err)
	}

	return records, nil
}

// GetByID retrieves a DMT record by ID
func (r *dmtRepository) GetByID(ctx context.Context, id int) (*models.DMTRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM dmt_records WHERE id = ?", dmtColumns)

	record, err := scanDMT(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get DMT record: %w", err)
	}

	return record, nil
}

// reserveDMTNumber increments the sequence counter and returns the next
// display number. Running inside the insert transaction makes the
// reservation atomic; two concurrent creates cannot observe the same value.
func reserveDMTNumber(tx *sql.Tx) (string, error) {
	if _, err := tx.Exec("UPDATE dmt_sequence SET value = value + 1 WHERE id = 1"); err != nil {
		return "", fmt.Errorf("failed to advance DMT sequence: %w", err)
	}

	var seq int
	if err := tx.QueryRow("SELECT value FROM dmt_sequence WHERE id = 1").Scan(&seq); err != nil {
		return "", fmt.Errorf("failed to read DMT sequence: %w", err)
	}

	return fmt.Sprintf("DMT-%05d", seq), nil
}

// Create inserts a new DMT record. Published records get their display
// number reserved in the same transaction; drafts stay unnumbered until
// they are published.
func (r *dmtRepository) Create(ctx context.Context, record *models.DMTRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = record.CreatedAt

	if !record.IsSession {
		number, err := reserveDMTNumber(tx)
		if err != nil {
			return err
		}
		record.DMTNumber = number
	} else {
		record.DMTNumber = ""
	}

	result, err := tx.Exec(`
		INSERT INTO dmt_records (
			dmt_number, title, description, category, severity, department,
			status, workflow_stage, is_session, root_cause, corrective_action,
			preventive_action, target_date, created_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.DMTNumber,
		record.Title,
		record.Description,
		record.Category,
		record.Severity,
		record.Department,
		record.Status,
		record.WorkflowStage,
		record.IsSession,
		nullString(record.RootCause),
		nullString(record.CorrectiveAction),
		nullString(record.PreventiveAction),
		nullString(record.TargetDate),
		record.CreatedBy,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create DMT record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted ID: %w", err)
	}
	record.ID = int(id)

	details := fmt.Sprintf("Created DMT %s", record.DMTNumber)
	if record.IsSession {
		details = fmt.Sprintf("Created DMT draft %q", record.Title)
	}
	if err := insertAuditLog(tx, "dmt_records", record.ID, models.ActionCreate, userctx.GetUsername(ctx), details, now); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit DMT create: %w", err)
	}
	return nil
}

// Update writes the full record row and stamps updated_at. A draft being
// published (is_session flipped off) without a display number gets one
// reserved inside the same transaction. Returns false when the id does
// not exist.
func (r *dmtRepository) Update(ctx context.Context, record *models.DMTRecord) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	record.UpdatedAt = now

	if !record.IsSession && record.DMTNumber == "" {
		number, err := reserveDMTNumber(tx)
		if err != nil {
			return false, err
		}
		record.DMTNumber = number
	}

	result, err := tx.Exec(`
		UPDATE dmt_records
		SET dmt_number = ?, title = ?, description = ?, category = ?, severity = ?,
		    department = ?, status = ?, workflow_stage = ?, is_session = ?,
		    root_cause = ?, corrective_action = ?, preventive_action = ?,
		    target_date = ?, updated_at = ?
		WHERE id = ?
	`,
		record.DMTNumber,
		record.Title,
		record.Description,
		record.Category,
		record.Severity,
		record.Department,
		record.Status,
		record.WorkflowStage,
		record.IsSession,
		nullString(record.RootCause),
		nullString(record.CorrectiveAction),
		nullString(record.PreventiveAction),
		nullString(record.TargetDate),
		record.UpdatedAt,
		record.ID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update DMT record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return false, nil
	}

	details := fmt.Sprintf("Updated DMT %s", record.DMTNumber)
	if record.IsSession {
		details = fmt.Sprintf("Updated DMT draft %q", record.Title)
	}
	if err := insertAuditLog(tx, "dmt_records", record.ID, models.ActionUpdate, userctx.GetUsername(ctx), details, now); err != nil {
		return false, fmt.Errorf("failed to write audit log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit DMT update: %w", err)
	}
	return true, nil
}

// Delete removes a DMT record by ID. Returns false when the id does not exist.
func (r *dmtRepository) Delete(ctx context.Context, id int) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var number, title string
	err = tx.QueryRow("SELECT dmt_number, title FROM dmt_records WHERE id = ?", id).Scan(&number, &title)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load DMT record for delete: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM dmt_records WHERE id = ?", id); err != nil {
		return false, fmt.Errorf("failed to delete DMT record: %w", err)
	}

	details := fmt.Sprintf("Deleted DMT %s", number)
	if number == "" {
		details = fmt.Sprintf("Deleted DMT draft %q", title)
	}
	if err := insertAuditLog(tx, "dmt_records", id, models.ActionDelete, userctx.GetUsername(ctx), details, time.Now()); err != nil {
		return false, fmt.Errorf("failed to write audit log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit DMT delete: %w", err)
	}
	return true, nil
}

// Counts returns the status breakdown of published records
func (r *dmtRepository) Counts(ctx context.Context) (DMTCounts, error) {
	return r.counts(ctx, "", nil)
}

// CountsByUser returns the status breakdown of published records created
// by the given username
func (r *dmtRepository) CountsByUser(ctx context.Context, username string) (DMTCounts, error) {
	return r.counts(ctx, " AND created_by = ?", []any{username})
}

func (r *dmtRepository) counts(ctx context.Context, filter string, params []any) (DMTCounts, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'Open' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'In Progress' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'Closed' THEN 1 ELSE 0 END), 0)
		FROM dmt_records
		WHERE is_session = 0` + filter

	var counts DMTCounts
	err := r.db.QueryRowContext(ctx, query, params...).Scan(
		&counts.Total, &counts.Open, &counts.InProgress, &counts.Closed,
	)
	if err != nil {
		return DMTCounts{}, fmt.Errorf("failed to count DMT records: %w", err)
	}

	return counts, nil
}

// Recent retrieves the most recently created published records
func (r *dmtRepository) Recent(ctx context.Context, limit int) ([]models.DMTRecord, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM dmt_records WHERE is_session = 0 ORDER BY created_at DESC, id DESC LIMIT ?",
		dmtColumns,
	)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent DMT records: %w", err)
	}
	defer rows.Close()

	var records []models.DMTRecord
	for rows.Next() {
		record, err := scanDMT(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan DMT record: %w", err)
		}
		records = append(records, *record)
	}

	return records, rows.Err()
}
