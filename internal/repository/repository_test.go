package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "cases.db"), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedNotice(t *testing.T, repo NoticeRepository, n *Notice) int64 {
	t.Helper()
	id, err := repo.Insert(context.Background(), n)
	require.NoError(t, err)
	return id
}

func seedReply(t *testing.T, repo ReplyRepository, rp *Reply) int64 {
	t.Helper()
	id, err := repo.Insert(context.Background(), rp)
	require.NoError(t, err)
	return id
}
