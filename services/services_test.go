package services

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/qmsoft/dmt-tracker/auth"
	"github.com/qmsoft/dmt-tracker/database"
	"github.com/qmsoft/dmt-tracker/repositories"
	"github.com/qmsoft/dmt-tracker/userctx"
	"github.com/stretchr/testify/require"
)

// setupTestServices wires the full service layer against a throwaway
// sqlite database, so tests exercise real SQL rather than mocks.
func setupTestServices(t *testing.T) (*Services, *repositories.Repositories) {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repos := repositories.NewRepositories(db)
	sessions := auth.NewSessionStore(time.Hour)
	hasher := auth.NewBcryptHasher()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewServices(repos, sessions, hasher, logger), repos
}

func testContext() context.Context {
	return userctx.SetUsername(context.Background(), "tester")
}
