package services

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/qmsoft/dmt-tracker/models"
)

// ExportService serializes record lists for download. CSV output follows
// the standard quoting rules, so embedded delimiters, quotes, and line
// breaks survive the round trip.
type ExportService interface {
	DMTToCSV(records []models.DMTRecord, days int) (string, error)
	DMTToJSON(records []models.DMTRecord, days int) ([]byte, error)
	EntitiesToCSV(kind models.EntityKind, entities []models.ReferenceEntity, days int) (string, error)
	EntitiesToJSON(kind models.EntityKind, entities []models.ReferenceEntity, days int) ([]byte, error)
}

// exportService implements ExportService interface
type exportService struct{}

// NewExportService creates a new export service
func NewExportService() ExportService {
	return &exportService{}
}

// dmtCSVHeader is the fixed column order for DMT exports
var dmtCSVHeader = []string{
	"id", "dmt_number", "title", "description", "category", "severity",
	"department", "status", "workflow_stage", "created_by", "created_at",
	"updated_at",
}

// withinWindow reports whether ts falls inside the last N days. A zero or
// negative window admits everything.
func withinWindow(ts time.Time, days int) bool {
	if days <= 0 {
		return true
	}
	return !ts.Before(time.Now().AddDate(0, 0, -days))
}

func filterDMT(records []models.DMTRecord, days int) []models.DMTRecord {
	if days <= 0 {
		return records
	}
	filtered := make([]models.DMTRecord, 0, len(records))
	for _, r := range records {
		if withinWindow(r.CreatedAt, days) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func filterEntities(entities []models.ReferenceEntity, days int) []models.ReferenceEntity {
	if days <= 0 {
		return entities
	}
	filtered := make([]models.ReferenceEntity, 0, len(entities))
	for _, e := range entities {
		if withinWindow(e.CreatedAt, days) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// DMTToCSV renders DMT records as CSV text with a fixed header line
func (s *exportService) DMTToCSV(records []models.DMTRecord, days int) (string, error) {
	records = filterDMT(records, days)

	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write(dmtCSVHeader); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range records {
		row := []string{
			strconv.Itoa(r.ID),
			r.DMTNumber,
			r.Title,
			r.Description,
			r.Category,
			r.Severity,
			r.Department,
			r.Status,
			r.WorkflowStage,
			r.CreatedBy,
			r.CreatedAt.Format(time.RFC3339),
			r.UpdatedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush CSV: %w", err)
	}

	return sb.String(), nil
}

// DMTToJSON renders DMT records as a pretty-printed JSON array
func (s *exportService) DMTToJSON(records []models.DMTRecord, days int) ([]byte, error) {
	records = filterDMT(records, days)
	if records == nil {
		records = []models.DMTRecord{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal DMT records: %w", err)
	}
	return data, nil
}

// EntitiesToCSV renders reference entities as CSV text. The employee kind
// carries its extra column; all other kinds share the generic header.
func (s *exportService) EntitiesToCSV(kind models.EntityKind, entities []models.ReferenceEntity, days int) (string, error) {
	entities = filterEntities(entities, days)

	header := []string{"id", "name", "created_at", "updated_at"}
	if kind.HasEmployeeNumber() {
		header = []string{"id", "name", "employee_number", "created_at", "updated_at"}
	}

	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, e := range entities {
		row := []string{strconv.Itoa(e.ID), e.Name}
		if kind.HasEmployeeNumber() {
			row = append(row, e.EmployeeNumber)
		}
		row = append(row, e.CreatedAt.Format(time.RFC3339), e.UpdatedAt.Format(time.RFC3339))

		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush CSV: %w", err)
	}

	return sb.String(), nil
}

// EntitiesToJSON renders reference entities as a pretty-printed JSON array
func (s *exportService) EntitiesToJSON(kind models.EntityKind, entities []models.ReferenceEntity, days int) ([]byte, error) {
	entities = filterEntities(entities, days)
	if entities == nil {
		entities = []models.ReferenceEntity{}
	}

	data, err := json.MarshalIndent(entities, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", kind, err)
	}
	return data, nil
}
