package backup

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/libraryhub/internal/config"
	"github.com/mrlokans/libraryhub/internal/database"
	"github.com/mrlokans/libraryhub/internal/entities"
	"github.com/mrlokans/libraryhub/internal/ledger"
	"github.com/mrlokans/libraryhub/internal/store"
)

func setupBackup(t *testing.T, keep int) (*Service, *store.Store) {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.Backup{Provider: config.BackupProviderLocal, Dir: t.TempDir(), Prefix: "/snapshots/", Keep: keep}
	client, err := OpenStorage(context.Background(), cfg)
	require.NoError(t, err)

	st := store.New(db.DB, ledger.New(db.DB))
	svc := NewService(st, client, cfg)

	clock := time.Date(2024, 1, 20, 2, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Hour)
		return clock
	}
	return svc, st
}

func TestRun_WritesAndPrunes(t *testing.T) {
	ctx := context.Background()
	svc, st := setupBackup(t, 2)
	require.NoError(t, st.Put(ctx, store.Books, entities.Book{ID: "b-1", Title: "The Great Gatsby", Quantity: 5, Available: 5}))

	first, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "snapshots/library-20240120T030000.000000000Z.json", first.Key)
	assert.Equal(t, 1, first.Counts["books"])
	assert.Equal(t, 0, first.Counts["students"])
	assert.Empty(t, first.Pruned)

	_, err = svc.Run(ctx)
	require.NoError(t, err)
	third, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{first.Key}, third.Pruned)

	files, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "snapshots/library-20240120T040000.000000000Z.json", files[0].Path)
	assert.Equal(t, third.Key, files[1].Path)
}

func TestRestoreLatest(t *testing.T) {
	ctx := context.Background()
	svc, st := setupBackup(t, 0)

	_, _, err := svc.RestoreLatest(ctx, store.ImportOptions{})
	assert.ErrorIs(t, err, ErrNoBackups)

	require.NoError(t, st.Put(ctx, store.Books, entities.Book{ID: "b-1", Title: "The Great Gatsby", Quantity: 5, Available: 5}))
	result, err := svc.Run(ctx)
	require.NoError(t, err)

	require.NoError(t, st.Delete(ctx, store.Books, "b-1"))
	require.NoError(t, st.Put(ctx, store.Books, entities.Book{ID: "b-2", Title: "Python Programming", Quantity: 4, Available: 4}))

	key, imported, err := svc.RestoreLatest(ctx, store.ImportOptions{Replace: true})
	require.NoError(t, err)
	assert.Equal(t, result.Key, key)
	assert.Equal(t, 1, imported.Imported[store.Books])

	records, err := st.Get(ctx, store.Books)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "b-1", records[0].(entities.Book).ID)
}

func TestOpenStorage_UnknownProvider(t *testing.T) {
	_, err := OpenStorage(context.Background(), config.Backup{Provider: "ftp"})
	assert.Error(t, err)
}

func TestRun_Reporter(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupBackup(t, 0)

	var keys []string
	svc.SetReporter(func(key string, counts map[string]int, err error) {
		assert.NoError(t, err)
		assert.Contains(t, counts, "books")
		keys = append(keys, key)
	})

	result, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{result.Key}, keys)
}

func TestRun_SameInstantGetsDistinctKeys(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupBackup(t, 0)
	frozen := time.Date(2024, 1, 20, 2, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return frozen }

	first, err := svc.Run(ctx)
	require.NoError(t, err)
	second, err := svc.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, "snapshots/library-20240120T020000.000000000Z.json", first.Key)
	assert.Equal(t, "snapshots/library-20240120T020000.000000001Z.json", second.Key)

	files, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, first.Key, files[0].Path)
	assert.Equal(t, second.Key, files[1].Path)
}
