package services

import (
	"log/slog"

	"github.com/qmsoft/dmt-tracker/auth"
	"github.com/qmsoft/dmt-tracker/repositories"
)

// Services holds all service instances
type Services struct {
	Auth   *AuthService
	User   UserService
	DMT    DMTService
	Entity EntityService
	Stats  StatsService
	Export ExportService
	Audit  AuditService
}

// NewServices creates and initializes all service instances
func NewServices(repos *repositories.Repositories, sessions *auth.SessionStore, hasher auth.PasswordHasher, logger *slog.Logger) *Services {
	return &Services{
		Auth:   NewAuthService(repos.User, sessions, hasher, logger),
		User:   NewUserService(repos.User, hasher),
		DMT:    NewDMTService(repos.DMT),
		Entity: NewEntityService(repos.Entity, repos.Audit),
		Stats:  NewStatsService(repos.User, repos.DMT, repos.Audit),
		Export: NewExportService(),
		Audit:  NewAuditService(repos.Audit),
	}
}
