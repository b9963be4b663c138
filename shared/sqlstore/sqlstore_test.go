package sqlstore

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResultStoreTableName(t *testing.T) {
	db, err := sql.Open("postgres", "postgres://unused@localhost/none?sslmode=disable")
	require.NoError(t, err)
	defer db.Close()

	for _, name := range []string{"auth_smoke_results", "Results2", "_r"} {
		_, err := NewResultStore(db, name)
		assert.NoError(t, err, name)
	}
	for _, name := range []string{"", "1results", "results; DROP TABLE x", "a-b", "schema.table"} {
		_, err := NewResultStore(db, name)
		assert.Error(t, err, name)
	}
}

func TestNullable(t *testing.T) {
	assert.False(t, nullable("").Valid)
	assert.Equal(t, sql.NullString{String: "timeout", Valid: true}, nullable("timeout"))
}

func TestResultStorePostgres(t *testing.T) {
	dsn := os.Getenv("AUTHSMOKE_PG_DSN")
	if dsn == "" {
		t.Skip("AUTHSMOKE_PG_DSN not set")
	}
	ctx := context.Background()

	store, err := Open(ctx, dsn, "auth_smoke_results_test")
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.EnsureSchema(ctx))

	runID := uuid.NewString()
	rows := []ResultRow{
		{RunID: runID, RunAt: time.Now(), BaseURL: "https://app.test", Role: "ADMIN", Email: "admin.manila@test.com",
			LoginSuccess: true, LogoutSuccess: true, ExpectedRedirect: "/admin", ActualRedirect: "/admin", Status: "PASS"},
		{RunID: runID, RunAt: time.Now(), BaseURL: "https://app.test", Role: "VIP", Email: "vip.manila@test.com",
			ExpectedRedirect: "/vip/firsttimers", Status: "FAIL", ErrorKind: "timeout", Error: "deadline exceeded"},
	}
	require.NoError(t, store.InsertResults(ctx, rows))

	n, err := store.CountRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
