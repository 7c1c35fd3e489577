package services

import (
	"testing"

	"github.com/qmsoft/dmt-tracker/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDMTServiceCreate(t *testing.T) {
	svc, _ := setupTestServices(t)
	ctx := testContext()

	record, err := svc.DMT.Create(ctx, &models.DMTForm{
		Title:       "  Cracked weld on bracket  ",
		Description: "Found during final inspection",
		Severity:    "Major",
	})
	require.NoError(t, err)

	assert.Equal(t, "Cracked weld on bracket", record.Title)
	assert.Equal(t, "DMT-00001", record.DMTNumber)
	assert.Equal(t, models.StatusOpen, record.Status)
	assert.Equal(t, models.StageDraft, record.WorkflowStage)
	assert.Equal(t, "tester", record.CreatedBy)
	assert.False(t, record.IsSession)
}

func TestDMTServiceCreateValidation(t *testing.T) {
	svc, _ := setupTestServices(t)
	ctx := testContext()

	_, err := svc.DMT.Create(ctx, &models.DMTForm{Title: ""})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestDMTServiceDraftPublish(t *testing.T) {
	svc, _ := setupTestServices(t)
	ctx := testContext()

	draft, err := svc.DMT.Create(ctx, &models.DMTForm{Title: "Work in progress", IsSession: true})
	require.NoError(t, err)
	assert.Empty(t, draft.DMTNumber)

	// Drafts stay out of the default listing
	visible, err := svc.DMT.List(ctx, "", false)
	require.NoError(t, err)
	assert.Empty(t, visible)

	all, err := svc.DMT.List(ctx, "", true)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// Publishing assigns the display number
	publish := false
	published, err := svc.DMT.Update(ctx, draft.ID, &models.DMTUpdateForm{IsSession: &publish})
	require.NoError(t, err)
	assert.Equal(t, "DMT-00001", published.DMTNumber)

	visible, err = svc.DMT.List(ctx, "", false)
	require.NoError(t, err)
	assert.Len(t, visible, 1)
}

func TestDMTServiceUpdate(t *testing.T) {
	svc, _ := setupTestServices(t)
	ctx := testContext()

	record, err := svc.DMT.Create(ctx, &models.DMTForm{Title: "Original title"})
	require.NoError(t, err)

	newTitle := "Corrected title"
	rootCause := "Fixture misalignment"
	updated, err := svc.DMT.Update(ctx, record.ID, &models.DMTUpdateForm{
		Title:     &newTitle,
		RootCause: &rootCause,
	})
	require.NoError(t, err)

	assert.Equal(t, "Corrected title", updated.Title)
	require.NotNil(t, updated.RootCause)
	assert.Equal(t, "Fixture misalignment", *updated.RootCause)
	// Untouched fields survive partial updates
	assert.Equal(t, record.DMTNumber, updated.DMTNumber)
	assert.Equal(t, record.Status, updated.Status)
}

func TestDMTServiceUpdateValidation(t *testing.T) {
	svc, _ := setupTestServices(t)
	ctx := testContext()

	record, err := svc.DMT.Create(ctx, &models.DMTForm{Title: "Valid record"})
	require.NoError(t, err)

	badStatus := "Pending"
	_, err = svc.DMT.Update(ctx, record.ID, &models.DMTUpdateForm{Status: &badStatus})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestDMTServiceNotFound(t *testing.T) {
	svc, _ := setupTestServices(t)
	ctx := testContext()

	title := "x"
	_, err := svc.DMT.Update(ctx, 9999, &models.DMTUpdateForm{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.DMT.Delete(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.DMT.Close(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.DMT.AdvanceWorkflow(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDMTServiceCloseAndReopen(t *testing.T) {
	svc, _ := setupTestServices(t)
	ctx := testContext()

	record, err := svc.DMT.Create(ctx, &models.DMTForm{Title: "Bent shaft"})
	require.NoError(t, err)

	closed, err := svc.DMT.Close(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusClosed, closed.Status)

	reopened, err := svc.DMT.Reopen(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOpen, reopened.Status)
}

func TestDMTServiceAdvanceWorkflow(t *testing.T) {
	svc, repos := setupTestServices(t)
	ctx := testContext()

	record, err := svc.DMT.Create(ctx, &models.DMTForm{Title: "Out-of-spec bore"})
	require.NoError(t, err)

	expected := []string{models.StageReview, models.StageApproved, models.StageImplemented}
	for _, stage := range expected {
		advanced, err := svc.DMT.AdvanceWorkflow(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, stage, advanced.WorkflowStage)
	}

	auditsBefore, err := repos.Audit.Count(ctx)
	require.NoError(t, err)

	// Terminal stage: a no-op that writes nothing
	final, err := svc.DMT.AdvanceWorkflow(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageImplemented, final.WorkflowStage)

	auditsAfter, err := repos.Audit.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, auditsBefore, auditsAfter)
}

func TestDMTServiceMutationsAudited(t *testing.T) {
	svc, repos := setupTestServices(t)
	ctx := testContext()

	record, err := svc.DMT.Create(ctx, &models.DMTForm{Title: "Audited"})
	require.NoError(t, err)

	title := "Audited again"
	_, err = svc.DMT.Update(ctx, record.ID, &models.DMTUpdateForm{Title: &title})
	require.NoError(t, err)

	require.NoError(t, svc.DMT.Delete(ctx, record.ID))

	count, err := repos.Audit.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
