package dbx

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openVault(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "dbx.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE password_info (id INTEGER PRIMARY KEY, account TEXT, secret BLOB)`)
	require.NoError(t, err)
	return db
}

func entryCount(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM password_info`).Scan(&n))
	return n
}

func insertEntry(ctx context.Context, tx DBTX, account string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO password_info(account, secret) VALUES (?, ?)`,
		NullString(account), NullBytes(nil))
	return err
}

func TestWithTx_Commit(t *testing.T) {
	db := openVault(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		if err := insertEntry(ctx, tx, "github"); err != nil {
			return err
		}
		return insertEntry(ctx, tx, "gitlab")
	})
	require.NoError(t, err)
	require.Equal(t, 2, entryCount(t, db))
}

func TestWithTx_RollbackOnError(t *testing.T) {
	db := openVault(t)
	boom := errors.New("re-seal failed")

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		require.NoError(t, insertEntry(ctx, tx, "github"))
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Zero(t, entryCount(t, db))
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db := openVault(t)

	require.Panics(t, func() {
		_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
			require.NoError(t, insertEntry(ctx, tx, "github"))
			panic("kaput")
		})
	})
	require.Zero(t, entryCount(t, db))
}

func TestWithTx_BeginError(t *testing.T) {
	db := openVault(t)
	require.NoError(t, db.Close())

	called := false
	err := WithTx(context.Background(), db, nil, func(context.Context, DBTX) error {
		called = true
		return nil
	})
	require.Error(t, err)
	require.False(t, called)
}

func TestWithTx_CommitError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("disk I/O error"))

	err = WithTx(context.Background(), db, nil, func(context.Context, DBTX) error { return nil })
	require.ErrorContains(t, err, "disk I/O error")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNullHelpers(t *testing.T) {
	require.False(t, NullString("").Valid)
	ns := NullString("github")
	require.True(t, ns.Valid)
	require.Equal(t, "github", ns.String)

	require.Nil(t, NullBytes(nil))
	require.Nil(t, NullBytes([]byte{}))
	require.Equal(t, []byte{1}, NullBytes([]byte{1}))
}
