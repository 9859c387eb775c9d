package settings

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/pmanager/internal/migrations"
	"github.com/dmitrijs2005/pmanager/internal/models"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	p, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.SQLite())
	require.NoError(t, err)
	_, err = p.Up(context.Background())
	require.NoError(t, err)
	return db
}

func TestGet_Absent_ReturnsNilNil(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	s, err := r.Get(context.Background())
	require.NoError(t, err)
	require.Nil(t, s)

	ok, err := r.Exists(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPersist_Upsert(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	at := time.UnixMilli(1700000000000)
	require.NoError(t, r.Persist(ctx, &models.Settings{Size: 10, LastModified: at}))
	require.NoError(t, r.Persist(ctx, &models.Settings{ID: 99, Size: 30, LastModified: at.Add(time.Second)}))

	s, err := r.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, models.SettingsID, s.ID)
	assert.Equal(t, 30, s.Size)
	assert.Equal(t, at.Add(time.Second).UnixMilli(), s.LastModified.UnixMilli())

	ok, err := r.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdateSize(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	at := time.UnixMilli(1700000000000)

	found, err := r.UpdateSize(ctx, 5, at)
	require.NoError(t, err)
	assert.False(t, found)

	s, err := r.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)

	require.NoError(t, r.Persist(ctx, &models.Settings{Size: 10, LastModified: at}))
	found, err = r.UpdateSize(ctx, 50, at.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, found)

	s, err = r.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, s.Size)
	assert.Equal(t, at.Add(time.Minute).UnixMilli(), s.LastModified.UnixMilli())
}

func TestClear(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Persist(ctx, &models.Settings{Size: 10}))
	require.NoError(t, r.Clear(ctx))
	require.NoError(t, r.Clear(ctx))

	ok, err := r.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
