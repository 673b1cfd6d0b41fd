package library

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase("")
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dsn := fmt.Sprintf("file:migrate-%s?mode=memory&cache=shared", uuid.NewString())
	ctx := context.Background()

	first, err := NewDatabase(dsn)
	require.NoError(t, err)
	defer first.Close()
	require.NoError(t, first.InsertBook(ctx, Book{ID: "B001", Title: "Kept", Status: StatusAvailable}))

	// Same shared in-memory database, schema already at the current version.
	second, err := NewDatabase(dsn)
	require.NoError(t, err)
	defer second.Close()

	books, err := second.Books(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Kept", books[0].Title)
}

func TestNewDatabaseRefusesDiskDSN(t *testing.T) {
	dir := t.TempDir()
	for _, dsn := range []string{
		filepath.Join(dir, "lib.db"),
		"file:" + filepath.Join(dir, "lib.db"),
		"file:" + filepath.Join(dir, "lib.db") + "?cache=shared&mode=rwc",
	} {
		t.Run(dsn, func(t *testing.T) {
			db, err := NewDatabase(dsn)
			require.Error(t, err)
			assert.Nil(t, db)
			assert.Contains(t, err.Error(), "not in-memory")
		})
	}
	_, err := os.Stat(filepath.Join(dir, "lib.db"))
	assert.True(t, os.IsNotExist(err), "no database file is created")

	db, err := NewDatabase(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestPrivateDatabasesAreIsolated(t *testing.T) {
	ctx := context.Background()
	a := tempDB(t)
	b := tempDB(t)

	require.NoError(t, a.InsertBook(ctx, Book{ID: "B001", Title: "Only in a"}))

	books, err := b.Books(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestDatabaseUpdateBook(t *testing.T) {
	ctx := context.Background()
	db := tempDB(t)
	require.NoError(t, db.InsertBook(ctx, Book{ID: "B001", Title: "Old", Author: "A", ISBN: "1", Status: StatusAvailable}))

	require.NoError(t, db.UpdateBook(ctx, Book{ID: "B001", Title: "New", Author: "B", ISBN: "2", Status: StatusIssued}))

	b, err := db.Book(ctx, "B001")
	require.NoError(t, err)
	assert.Equal(t, Book{ID: "B001", Title: "New", Author: "B", ISBN: "2", Status: StatusIssued}, b)
}

func TestDatabaseEmptyListsAreNotNil(t *testing.T) {
	ctx := context.Background()
	db := tempDB(t)

	books, err := db.Books(ctx)
	require.NoError(t, err)
	assert.NotNil(t, books)

	txs, err := db.Transactions(ctx)
	require.NoError(t, err)
	assert.NotNil(t, txs)
}
