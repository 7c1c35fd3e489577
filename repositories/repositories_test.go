package repositories

import (
	"context"
	"database/sql"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/qmsoft/dmt-tracker/database"
	"github.com/qmsoft/dmt-tracker/models"
	"github.com/qmsoft/dmt-tracker/userctx"
	_ "github.com/mattn/go-sqlite3"
)

func setupTestDB(t *testing.T) *sql.DB {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func testContext() context.Context {
	return userctx.SetUsername(context.Background(), "tester")
}

func TestUserRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := testContext()

	// Test Create
	user := &models.User{
		Username:     "jdoe",
		PasswordHash: "$2a$10$fakehashfortesting",
		Role:         models.RoleEngineer,
		IsActive:     true,
	}

	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	if user.ID == 0 {
		t.Error("Expected user ID to be set after creation")
	}

	// Test GetByID
	retrieved, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("Failed to get user by ID: %v", err)
	}
	if retrieved == nil || retrieved.Username != "jdoe" {
		t.Errorf("Expected username jdoe, got %+v", retrieved)
	}

	// Test GetByUsername
	byName, err := repo.GetByUsername(ctx, "jdoe")
	if err != nil {
		t.Fatalf("Failed to get user by username: %v", err)
	}
	if byName == nil || byName.ID != user.ID {
		t.Errorf("Expected user %d, got %+v", user.ID, byName)
	}

	// Missing users are absent, not errors
	missing, err := repo.GetByID(ctx, 9999)
	if err != nil {
		t.Fatalf("Unexpected error for missing user: %v", err)
	}
	if missing != nil {
		t.Error("Expected nil for missing user")
	}

	// Test Update
	user.Role = models.RoleSupervisor
	found, err := repo.Update(ctx, user)
	if err != nil {
		t.Fatalf("Failed to update user: %v", err)
	}
	if !found {
		t.Error("Expected update to find the user")
	}

	updated, _ := repo.GetByID(ctx, user.ID)
	if updated.Role != models.RoleSupervisor {
		t.Errorf("Expected role %s, got %s", models.RoleSupervisor, updated.Role)
	}

	// Test Count
	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Failed to count users: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected count 1, got %d", count)
	}

	// Test Delete
	found, err = repo.Delete(ctx, user.ID)
	if err != nil {
		t.Fatalf("Failed to delete user: %v", err)
	}
	if !found {
		t.Error("Expected delete to find the user")
	}

	found, err = repo.Delete(ctx, user.ID)
	if err != nil {
		t.Fatalf("Unexpected error deleting missing user: %v", err)
	}
	if found {
		t.Error("Expected delete of missing user to report absence")
	}
}

func TestUserRepositoryUniqueUsername(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := testContext()

	first := &models.User{Username: "admin", PasswordHash: "x", Role: models.RoleAdmin, IsActive: true}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	duplicate := &models.User{Username: "admin", PasswordHash: "y", Role: models.RoleOperator, IsActive: true}
	if err := repo.Create(ctx, duplicate); err == nil {
		t.Error("Expected duplicate username to be rejected")
	}
}

var dmtNumberPattern = regexp.MustCompile(`^DMT-\d{5}$`)

func TestDMTRepositoryNumbering(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDMTRepository(db)
	ctx := testContext()

	first := &models.DMTRecord{
		Title:         "Scratched surface",
		Status:        models.StatusOpen,
		WorkflowStage: models.StageDraft,
		CreatedBy:     "tester",
	}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Failed to create DMT record: %v", err)
	}
	if first.DMTNumber != "DMT-00001" {
		t.Errorf("Expected DMT-00001, got %s", first.DMTNumber)
	}

	// Drafts do not consume sequence numbers
	draft := &models.DMTRecord{
		Title:         "Unfinished report",
		Status:        models.StatusOpen,
		WorkflowStage: models.StageDraft,
		IsSession:     true,
		CreatedBy:     "tester",
	}
	if err := repo.Create(ctx, draft); err != nil {
		t.Fatalf("Failed to create draft: %v", err)
	}
	if draft.DMTNumber != "" {
		t.Errorf("Expected draft to have no number, got %s", draft.DMTNumber)
	}

	second := &models.DMTRecord{
		Title:         "Wrong torque value",
		Status:        models.StatusOpen,
		WorkflowStage: models.StageDraft,
		CreatedBy:     "tester",
	}
	if err := repo.Create(ctx, second); err != nil {
		t.Fatalf("Failed to create DMT record: %v", err)
	}
	if second.DMTNumber != "DMT-00002" {
		t.Errorf("Expected DMT-00002, got %s", second.DMTNumber)
	}

	// Publishing the draft reserves the next number
	draft.IsSession = false
	found, err := repo.Update(ctx, draft)
	if err != nil {
		t.Fatalf("Failed to publish draft: %v", err)
	}
	if !found {
		t.Fatal("Expected draft to be found on publish")
	}
	if draft.DMTNumber != "DMT-00003" {
		t.Errorf("Expected DMT-00003 on publish, got %s", draft.DMTNumber)
	}

	// All assigned numbers match the display pattern and are unique
	records, err := repo.List(ctx, "", true)
	if err != nil {
		t.Fatalf("Failed to list DMT records: %v", err)
	}
	seen := make(map[string]bool)
	for _, r := range records {
		if !dmtNumberPattern.MatchString(r.DMTNumber) {
			t.Errorf("Number %q does not match DMT-XXXXX pattern", r.DMTNumber)
		}
		if seen[r.DMTNumber] {
			t.Errorf("Duplicate DMT number %s", r.DMTNumber)
		}
		seen[r.DMTNumber] = true
	}
}

func TestDMTRepositoryDraftVisibility(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDMTRepository(db)
	ctx := testContext()

	published := &models.DMTRecord{Title: "Visible", Status: models.StatusOpen, WorkflowStage: models.StageDraft}
	draft := &models.DMTRecord{Title: "Hidden", Status: models.StatusOpen, WorkflowStage: models.StageDraft, IsSession: true}

	if err := repo.Create(ctx, published); err != nil {
		t.Fatalf("Failed to create record: %v", err)
	}
	if err := repo.Create(ctx, draft); err != nil {
		t.Fatalf("Failed to create draft: %v", err)
	}

	defaultList, err := repo.List(ctx, "", false)
	if err != nil {
		t.Fatalf("Failed to list records: %v", err)
	}
	if len(defaultList) != 1 {
		t.Errorf("Expected 1 record in default listing, got %d", len(defaultList))
	}

	fullList, err := repo.List(ctx, "", true)
	if err != nil {
		t.Fatalf("Failed to list records with drafts: %v", err)
	}
	if len(fullList) != 2 {
		t.Errorf("Expected 2 records including drafts, got %d", len(fullList))
	}
}

func TestDMTRepositorySearch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDMTRepository(db)
	ctx := testContext()

	records := []*models.DMTRecord{
		{Title: "Cracked housing", Description: "Found on line 2", Status: models.StatusOpen, WorkflowStage: models.StageDraft},
		{Title: "Paint defect", Description: "HOUSING discoloration", Status: models.StatusOpen, WorkflowStage: models.StageDraft},
		{Title: "Loose fastener", Description: "Torque below spec", Status: models.StatusOpen, WorkflowStage: models.StageDraft},
	}
	for _, r := range records {
		if err := repo.Create(ctx, r); err != nil {
			t.Fatalf("Failed to create record: %v", err)
		}
	}

	// Case-insensitive OR-match across title and description
	results, err := repo.List(ctx, "housing", false)
	if err != nil {
		t.Fatalf("Failed to search records: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("Expected 2 matches for housing, got %d", len(results))
	}

	// Search by display number
	results, err = repo.List(ctx, "DMT-00003", false)
	if err != nil {
		t.Fatalf("Failed to search by number: %v", err)
	}
	if len(results) != 1 || results[0].Title != "Loose fastener" {
		t.Errorf("Expected the third record, got %+v", results)
	}

	// No matches
	results, err = repo.List(ctx, "zzz-no-match", false)
	if err != nil {
		t.Fatalf("Failed to search records: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected no matches, got %d", len(results))
	}
}

func TestDMTRepositoryCounts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDMTRepository(db)
	ctx := testContext()

	seed := []*models.DMTRecord{
		{Title: "a", Status: models.StatusOpen, WorkflowStage: models.StageDraft, CreatedBy: "alice"},
		{Title: "b", Status: models.StatusInProgress, WorkflowStage: models.StageReview, CreatedBy: "alice"},
		{Title: "c", Status: models.StatusClosed, WorkflowStage: models.StageImplemented, CreatedBy: "bob"},
		{Title: "d", Status: models.StatusOpen, WorkflowStage: models.StageDraft, CreatedBy: "bob", IsSession: true},
	}
	for _, r := range seed {
		if err := repo.Create(ctx, r); err != nil {
			t.Fatalf("Failed to create record: %v", err)
		}
	}

	counts, err := repo.Counts(ctx)
	if err != nil {
		t.Fatalf("Failed to count records: %v", err)
	}
	// The draft is invisible to stats
	if counts.Total != 3 || counts.Open != 1 || counts.InProgress != 1 || counts.Closed != 1 {
		t.Errorf("Unexpected counts: %+v", counts)
	}

	mine, err := repo.CountsByUser(ctx, "alice")
	if err != nil {
		t.Fatalf("Failed to count records by user: %v", err)
	}
	if mine.Total != 2 || mine.Open != 1 || mine.InProgress != 1 || mine.Closed != 0 {
		t.Errorf("Unexpected per-user counts: %+v", mine)
	}
}

func TestEntityRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntityRepository(db)
	ctx := testContext()

	// Employees carry the extra employee number field
	employee := &models.ReferenceEntity{Name: "Jane Smith", EmployeeNumber: "E-1042"}
	if err := repo.Create(ctx, models.KindEmployees, employee); err != nil {
		t.Fatalf("Failed to create employee: %v", err)
	}
	if employee.ID == 0 {
		t.Error("Expected employee ID to be set after creation")
	}

	retrieved, err := repo.GetByID(ctx, models.KindEmployees, employee.ID)
	if err != nil {
		t.Fatalf("Failed to get employee: %v", err)
	}
	if retrieved.EmployeeNumber != "E-1042" {
		t.Errorf("Expected employee number E-1042, got %s", retrieved.EmployeeNumber)
	}

	// Generic kinds share the same operation shapes
	center := &models.ReferenceEntity{Name: "Grinding Station 4"}
	if err := repo.Create(ctx, models.KindWorkCenters, center); err != nil {
		t.Fatalf("Failed to create work center: %v", err)
	}

	centers, err := repo.List(ctx, models.KindWorkCenters, "grinding")
	if err != nil {
		t.Fatalf("Failed to search work centers: %v", err)
	}
	if len(centers) != 1 {
		t.Errorf("Expected 1 work center match, got %d", len(centers))
	}

	// Update stamps updated_at
	center.Name = "Grinding Station 5"
	found, err := repo.Update(ctx, models.KindWorkCenters, center)
	if err != nil {
		t.Fatalf("Failed to update work center: %v", err)
	}
	if !found {
		t.Error("Expected update to find the work center")
	}
	updated, _ := repo.GetByID(ctx, models.KindWorkCenters, center.ID)
	if updated.Name != "Grinding Station 5" {
		t.Errorf("Expected updated name, got %s", updated.Name)
	}
	if updated.UpdatedAt.Before(updated.CreatedAt) {
		t.Error("Expected updated_at to be at or after created_at")
	}

	// Hard delete
	found, err = repo.Delete(ctx, models.KindWorkCenters, center.ID)
	if err != nil {
		t.Fatalf("Failed to delete work center: %v", err)
	}
	if !found {
		t.Error("Expected delete to find the work center")
	}
	gone, _ := repo.GetByID(ctx, models.KindWorkCenters, center.ID)
	if gone != nil {
		t.Error("Expected deleted work center to be absent")
	}
}

func TestAuditTrail(t *testing.T) {
	db := setupTestDB(t)
	repos := NewRepositories(db)
	ctx := testContext()

	// One audit entry per successful mutation
	record := &models.DMTRecord{Title: "Audited record", Status: models.StatusOpen, WorkflowStage: models.StageDraft}
	if err := repos.DMT.Create(ctx, record); err != nil {
		t.Fatalf("Failed to create record: %v", err)
	}

	record.Title = "Audited record (edited)"
	if _, err := repos.DMT.Update(ctx, record); err != nil {
		t.Fatalf("Failed to update record: %v", err)
	}

	if _, err := repos.DMT.Delete(ctx, record.ID); err != nil {
		t.Fatalf("Failed to delete record: %v", err)
	}

	entries, err := repos.Audit.List(ctx, 50)
	if err != nil {
		t.Fatalf("Failed to list audit entries: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 audit entries, got %d", len(entries))
	}

	// Newest first
	actions := []string{entries[2].Action, entries[1].Action, entries[0].Action}
	expected := []string{models.ActionCreate, models.ActionUpdate, models.ActionDelete}
	for i := range expected {
		if actions[i] != expected[i] {
			t.Errorf("Expected action %s at position %d, got %s", expected[i], i, actions[i])
		}
	}

	for _, entry := range entries {
		if entry.EntityType != "dmt_records" {
			t.Errorf("Expected entity type dmt_records, got %s", entry.EntityType)
		}
		if entry.EntityID != record.ID {
			t.Errorf("Expected entity ID %d, got %d", record.ID, entry.EntityID)
		}
		if entry.User != "tester" {
			t.Errorf("Expected acting user tester, got %s", entry.User)
		}
	}

	// Failed mutations leave no trail
	if _, err := repos.DMT.Delete(ctx, 9999); err != nil {
		t.Fatalf("Unexpected error deleting missing record: %v", err)
	}
	count, err := repos.Audit.Count(ctx)
	if err != nil {
		t.Fatalf("Failed to count audit entries: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected audit count to stay at 3, got %d", count)
	}
}

func TestAuditRepositoryLimit(t *testing.T) {
	db := setupTestDB(t)
	repos := NewRepositories(db)
	ctx := testContext()

	for i := 0; i < 5; i++ {
		entity := &models.ReferenceEntity{Name: "Customer"}
		if err := repos.Entity.Create(ctx, models.KindCustomers, entity); err != nil {
			t.Fatalf("Failed to create customer: %v", err)
		}
	}

	entries, err := repos.Audit.List(ctx, 3)
	if err != nil {
		t.Fatalf("Failed to list audit entries: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("Expected limit of 3 entries, got %d", len(entries))
	}
}
