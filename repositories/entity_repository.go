package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/qmsoft/dmt-tracker/models"
	"github.com/qmsoft/dmt-tracker/userctx"
)

// EntityRepository defines CRUD operations shared by all reference entity
// kinds (employees, part numbers, work centers, and so on). One
// implementation serves every kind; the kind selects the table.
type EntityRepository interface {
	List(ctx context.Context, kind models.EntityKind, search string) ([]models.ReferenceEntity, error)
	GetByID(ctx context.Context, kind models.EntityKind, id int) (*models.ReferenceEntity, error)
	Create(ctx context.Context, kind models.EntityKind, entity *models.ReferenceEntity) error
	Update(ctx context.Context, kind models.EntityKind, entity *models.ReferenceEntity) (bool, error)
	Delete(ctx context.Context, kind models.EntityKind, id int) (bool, error)
}

// entityRepository implements EntityRepository interface
type entityRepository struct {
	db *sql.DB
}

// NewEntityRepository creates a new reference entity repository
func NewEntityRepository(db *sql.DB) EntityRepository {
	return &entityRepository{db: db}
}

func entityColumns(kind models.EntityKind) string {
	if kind.HasEmployeeNumber() {
		return "id, name, employee_number, created_at, updated_at"
	}
	return "id, name, created_at, updated_at"
}

func scanEntity(kind models.EntityKind, row interface{ Scan(...any) error }) (*models.ReferenceEntity, error) {
	var entity models.ReferenceEntity
	var err error

	if kind.HasEmployeeNumber() {
		err = row.Scan(&entity.ID, &entity.Name, &entity.EmployeeNumber, &entity.CreatedAt, &entity.UpdatedAt)
	} else {
		err = row.Scan(&entity.ID, &entity.Name, &entity.CreatedAt, &entity.UpdatedAt)
	}
	if err != nil {
		return nil, err
	}

	return &entity, nil
}

// List retrieves all entities of a kind, most recently created first. A
// non-empty search term matches the name (and employee number, where the
// kind has one) case-insensitively.
func (r *entityRepository) List(ctx context.Context, kind models.EntityKind, search string) ([]models.ReferenceEntity, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE 1=1", entityColumns(kind), kind.Table())
	var params []any

	if search != "" {
		term := "%" + search + "%"
		if kind.HasEmployeeNumber() {
			query += " AND (name LIKE ? OR employee_number LIKE ?)"
			params = append(params, term, term)
		} else {
			query += " AND name LIKE ?"
			params = append(params, term)
		}
	}

	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", kind.Table(), err)
	}
	defer rows.Close()

	var entities []models.ReferenceEntity
	for rows.Next() {
		entity, err := scanEntity(kind, rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", kind.Table(), err)
		}
		entities = append(entities, *entity)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", kind.Table(), err)
	}

	return entities, nil
}

// GetByID retrieves one entity by ID. Returns nil when the id does not exist.
func (r *entityRepository) GetByID(ctx context.Context, kind models.EntityKind, id int) (*models.ReferenceEntity, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", entityColumns(kind), kind.Table())

	entity, err := scanEntity(kind, r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s row: %w", kind.Table(), err)
	}

	return entity, nil
}

// Create inserts a new entity and its audit entry in one transaction
func (r *entityRepository) Create(ctx context.Context, kind models.EntityKind, entity *models.ReferenceEntity) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = now
	}
	entity.UpdatedAt = entity.CreatedAt

	var result sql.Result
	if kind.HasEmployeeNumber() {
		result, err = tx.Exec(
			fmt.Sprintf("INSERT INTO %s (name, employee_number, created_at, updated_at) VALUES (?, ?, ?, ?)", kind.Table()),
			entity.Name, entity.EmployeeNumber, entity.CreatedAt, entity.UpdatedAt,
		)
	} else {
		result, err = tx.Exec(
			fmt.Sprintf("INSERT INTO %s (name, created_at, updated_at) VALUES (?, ?, ?)", kind.Table()),
			entity.Name, entity.CreatedAt, entity.UpdatedAt,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to create %s row: %w", kind.Table(), err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted ID: %w", err)
	}
	entity.ID = int(id)

	details := fmt.Sprintf("Created %s %s", kind.Table(), entity.Name)
	if err := insertAuditLog(tx, kind.Table(), entity.ID, models.ActionCreate, userctx.GetUsername(ctx), details, now); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s create: %w", kind.Table(), err)
	}
	return nil
}

// Update writes the entity row and stamps updated_at. Returns false when
// the id does not exist.
func (r *entityRepository) Update(ctx context.Context, kind models.EntityKind, entity *models.ReferenceEntity) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	entity.UpdatedAt = now

	var result sql.Result
	if kind.HasEmployeeNumber() {
		result, err = tx.Exec(
			fmt.Sprintf("UPDATE %s SET name = ?, employee_number = ?, updated_at = ? WHERE id = ?", kind.Table()),
			entity.Name, entity.EmployeeNumber, entity.UpdatedAt, entity.ID,
		)
	} else {
		result, err = tx.Exec(
			fmt.Sprintf("UPDATE %s SET name = ?, updated_at = ? WHERE id = ?", kind.Table()),
			entity.Name, entity.UpdatedAt, entity.ID,
		)
	}
	if err != nil {
		return false, fmt.Errorf("failed to update %s row: %w", kind.Table(), err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return false, nil
	}

	details := fmt.Sprintf("Updated %s %s", kind.Table(), entity.Name)
	if err := insertAuditLog(tx, kind.Table(), entity.ID, models.ActionUpdate, userctx.GetUsername(ctx), details, now); err != nil {
		return false, fmt.Errorf("failed to write audit log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit %s update: %w", kind.Table(), err)
	}
	return true, nil
}

// Delete removes one entity by ID. Returns false when the id does not exist.
func (r *entityRepository) Delete(ctx context.Context, kind models.EntityKind, id int) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var name string
	err = tx.QueryRow(fmt.Sprintf("SELECT name FROM %s WHERE id = ?", kind.Table()), id).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load %s row for delete: %w", kind.Table(), err)
	}

	if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ?", kind.Table()), id); err != nil {
		return false, fmt.Errorf("failed to delete %s row: %w", kind.Table(), err)
	}

	details := fmt.Sprintf("Deleted %s %s", kind.Table(), name)
	if err := insertAuditLog(tx, kind.Table(), id, models.ActionDelete, userctx.GetUsername(ctx), details, time.Now()); err != nil {
		return false, fmt.Errorf("failed to write audit log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit %s delete: %w", kind.Table(), err)
	}
	return true, nil
}
