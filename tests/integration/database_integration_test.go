package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironvault/ironvault/internal/database"
)

// A deferred constraint is only checked at COMMIT, so it lets us exercise the
// path where Begin and every statement succeed but the commit itself fails.
func TestWithTransaction_ReportsCommitFailure(t *testing.T) {
	resetDatabase(t)
	ctx := context.Background()

	_, err := testDB.Pool.Exec(ctx, `
		CREATE TABLE deferred_refs (
			id INT PRIMARY KEY,
			parent INT,
			CONSTRAINT deferred_refs_parent_fkey FOREIGN KEY (parent)
				REFERENCES deferred_refs(id) DEFERRABLE INITIALLY DEFERRED
		)
	`)
	require.NoError(t, err)
	defer testDB.Pool.Exec(ctx, `DROP TABLE deferred_refs`)

	err = testDB.DB.WithTransaction(ctx, func(q database.Querier) error {
		_, err := q.Exec(ctx, `INSERT INTO deferred_refs (id, parent) VALUES (1, 999)`)
		return err
	})
	require.Error(t, err, "a commit-time failure must surface to the caller, not read as success")

	var count int
	require.NoError(t, testDB.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM deferred_refs`).Scan(&count))
	assert.Equal(t, 0, count, "the failed commit must not have persisted anything")
}
