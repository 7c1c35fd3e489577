package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/qmsoft/dmt-tracker/repositories"
)

const recentLimit = 5

// ReportTuple is the compact dashboard projection of a DMT record. It
// marshals as the positional array [id, number, title, status, created_at].
type ReportTuple struct {
	ID        int
	DMTNumber string
	Title     string
	Status    string
	CreatedAt time.Time
}

// MarshalJSON renders the tuple as a positional array
func (t ReportTuple) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{t.ID, t.DMTNumber, t.Title, t.Status, t.CreatedAt})
}

// UserTuple is the compact dashboard projection of a user. It marshals as
// the positional array [username, role].
type UserTuple struct {
	Username string
	Role     string
}

// MarshalJSON renders the tuple as a positional array
func (t UserTuple) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{t.Username, t.Role})
}

// DashboardStats is the derived read-only view served to the dashboard.
// Report counts cover published records only; drafts are invisible here.
type DashboardStats struct {
	TotalUsers        int           `json:"total_users"`
	TotalReports      int           `json:"total_reports"`
	OpenReports       int           `json:"open_reports"`
	InProgressReports int           `json:"in_progress_reports"`
	ClosedReports     int           `json:"closed_reports"`
	RecentAudits      int           `json:"recent_audits"`
	RecentReports     []ReportTuple `json:"recent_reports"`
	RecentUsers       []UserTuple   `json:"recent_users"`
	MyReports         *int          `json:"my_reports,omitempty"`
	MyOpenReports     *int          `json:"my_open_reports,omitempty"`
	MyClosedReports   *int          `json:"my_closed_reports,omitempty"`
}

// StatsService computes dashboard statistics. No caching; every call
// recomputes from the record store.
type StatsService interface {
	GetStats(ctx context.Context, username string) (*DashboardStats, error)
}

// statsService implements StatsService interface
type statsService struct {
	userRepo  repositories.UserRepository
	dmtRepo   repositories.DMTRepository
	auditRepo repositories.AuditRepository
}

// NewStatsService creates a new stats service
func NewStatsService(userRepo repositories.UserRepository, dmtRepo repositories.DMTRepository, auditRepo repositories.AuditRepository) StatsService {
	return &statsService{
		userRepo:  userRepo,
		dmtRepo:   dmtRepo,
		auditRepo: auditRepo,
	}
}

// GetStats computes the dashboard view. A non-empty username adds the
// caller's own report counts partitioned by status.
func (s *statsService) GetStats(ctx context.Context, username string) (*DashboardStats, error) {
	totalUsers, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	counts, err := s.dmtRepo.Counts(ctx)
	if err != nil {
		return nil, err
	}

	auditCount, err := s.auditRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	recentReports, err := s.dmtRepo.Recent(ctx, recentLimit)
	if err != nil {
		return nil, err
	}

	recentUsers, err := s.userRepo.Recent(ctx, recentLimit)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		TotalUsers:        totalUsers,
		TotalReports:      counts.Total,
		OpenReports:       counts.Open,
		InProgressReports: counts.InProgress,
		ClosedReports:     counts.Closed,
		RecentAudits:      auditCount,
		RecentReports:     make([]ReportTuple, 0, len(recentReports)),
		RecentUsers:       make([]UserTuple, 0, len(recentUsers)),
	}

	for _, r := range recentReports {
		stats.RecentReports = append(stats.RecentReports, ReportTuple{
			ID:        r.ID,
			DMTNumber: r.DMTNumber,
			Title:     r.Title,
			Status:    r.Status,
			CreatedAt: r.CreatedAt,
		})
	}

	for _, u := range recentUsers {
		stats.RecentUsers = append(stats.RecentUsers, UserTuple{
			Username: u.Username,
			Role:     u.Role,
		})
	}

	if username != "" {
		mine, err := s.dmtRepo.CountsByUser(ctx, username)
		if err != nil {
			return nil, err
		}
		stats.MyReports = &mine.Total
		stats.MyOpenReports = &mine.Open
		stats.MyClosedReports = &mine.Closed
	}

	return stats, nil
}
