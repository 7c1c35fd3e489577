package services

import (
	"testing"

	"github.com/qmsoft/dmt-tracker/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserServiceCreate(t *testing.T) {
	svc, repos := setupTestServices(t)
	ctx := testContext()

	user, err := svc.User.Create(ctx, &models.UserForm{
		Username: "  jdoe  ",
		Password: "s3cret-pass",
		Role:     models.RoleEngineer,
	})
	require.NoError(t, err)

	assert.Equal(t, "jdoe", user.Username)
	assert.Equal(t, models.RoleEngineer, user.Role)
	assert.True(t, user.IsActive)

	// The stored hash is not the raw password
	stored, err := repos.User.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", stored.PasswordHash)
	assert.NotEmpty(t, stored.PasswordHash)
}

func TestUserServiceDuplicateUsername(t *testing.T) {
	svc, _ := setupTestServices(t)
	ctx := testContext()

	_, err := svc.User.Create(ctx, &models.UserForm{
		Username: "jdoe",
		Password: "s3cret-pass",
		Role:     models.RoleEngineer,
	})
	require.NoError(t, err)

	_, err = svc.User.Create(ctx, &models.UserForm{
		Username: "jdoe",
		Password: "another-pass",
		Role:     models.RoleOperator,
	})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestUserServiceUpdate(t *testing.T) {
	svc, _ := setupTestServices(t)
	ctx := testContext()

	user, err := svc.User.Create(ctx, &models.UserForm{
		Username: "jdoe",
		Password: "s3cret-pass",
		Role:     models.RoleOperator,
	})
	require.NoError(t, err)

	role := models.RoleSupervisor
	updated, err := svc.User.Update(ctx, user.ID, &models.UserUpdateForm{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, models.RoleSupervisor, updated.Role)
	// Untouched fields survive partial updates
	assert.Equal(t, "jdoe", updated.Username)
	assert.True(t, updated.IsActive)

	// Renaming onto a taken username is rejected
	_, err = svc.User.Create(ctx, &models.UserForm{
		Username: "asmith",
		Password: "other-pass",
		Role:     models.RoleEngineer,
	})
	require.NoError(t, err)

	taken := "asmith"
	_, err = svc.User.Update(ctx, user.ID, &models.UserUpdateForm{Username: &taken})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestUserServiceDelete(t *testing.T) {
	svc, _ := setupTestServices(t)
	ctx := testContext()

	user, err := svc.User.Create(ctx, &models.UserForm{
		Username: "jdoe",
		Password: "s3cret-pass",
		Role:     models.RoleEngineer,
	})
	require.NoError(t, err)

	require.NoError(t, svc.User.Delete(ctx, user.ID))

	gone, err := svc.User.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	err = svc.User.Delete(ctx, user.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
