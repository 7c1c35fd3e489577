package repositories

import (
	"database/sql"
	"time"
)

// Repositories struct holds all repository interfaces
type Repositories struct {
	User   UserRepository
	DMT    DMTRepository
	Entity EntityRepository
	Audit  AuditRepository
}

// NewRepositories creates and initializes all repositories
func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		User:   NewUserRepository(db),
		DMT:    NewDMTRepository(db),
		Entity: NewEntityRepository(db),
		Audit:  NewAuditRepository(db),
	}
}

// insertAuditLog appends one audit entry inside the transaction of the
// mutation it describes. A failed audit write rolls the mutation back with
// it; the trail never lags the primary data.
func insertAuditLog(tx *sql.Tx, entityType string, entityID int, action, user, details string, ts time.Time) error {
	_, err := tx.Exec(`
		INSERT INTO audit_logs (entity_type, entity_id, action, user, details, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entityType, entityID, action, user, details, ts)
	return err
}
