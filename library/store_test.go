package library

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// forEachStore runs fn once per backend with a fresh, empty store.
func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Helper()
	for _, driver := range []string{DriverMemory, DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			s, err := OpenStore(driver, "")
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			fn(t, s)
		})
	}
}

func TestStoreBooksKeepInsertionOrder(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		for _, id := range []string{"B003", "B001", "B002"} {
			require.NoError(t, s.InsertBook(ctx, Book{ID: id, Title: "T" + id, Status: StatusAvailable}))
		}

		books, err := s.Books(ctx)
		require.NoError(t, err)
		require.Len(t, books, 3)
		assert.Equal(t, "B003", books[0].ID)
		assert.Equal(t, "B001", books[1].ID)
		assert.Equal(t, "B002", books[2].ID)
	})
}

func TestStoreRejectsDuplicateIDs(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.InsertBook(ctx, Book{ID: "B001", Title: "First"}))
		assert.ErrorIs(t, s.InsertBook(ctx, Book{ID: "B001", Title: "Second"}), ErrDuplicateID)

		require.NoError(t, s.InsertMember(ctx, Member{ID: "M001", Name: "Alice"}))
		assert.ErrorIs(t, s.InsertMember(ctx, Member{ID: "M001", Name: "Bob"}), ErrDuplicateID)

		books, err := s.Books(ctx)
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, "First", books[0].Title)
	})
}

func TestStoreReturnsCopies(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.InsertBook(ctx, Book{ID: "B001", Title: "Original"}))

		books, err := s.Books(ctx)
		require.NoError(t, err)
		books[0].Title = "Changed"

		b, err := s.Book(ctx, "B001")
		require.NoError(t, err)
		assert.Equal(t, "Original", b.Title)
	})
}

func TestStoreUpdateMissing(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		assert.ErrorIs(t, s.UpdateBook(ctx, Book{ID: "nope"}), ErrBookNotFound)
		assert.ErrorIs(t, s.UpdateMember(ctx, Member{ID: "nope"}), ErrMemberNotFound)
		assert.ErrorIs(t, s.UpdateTransaction(ctx, Transaction{ID: "nope"}), ErrTransactionNotFound)

		_, err := s.Book(ctx, "nope")
		assert.ErrorIs(t, err, ErrBookNotFound)
		_, err = s.Member(ctx, "nope")
		assert.ErrorIs(t, err, ErrMemberNotFound)
		_, err = s.Transaction(ctx, "nope")
		assert.ErrorIs(t, err, ErrTransactionNotFound)
	})
}

func TestStoreDelete(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.InsertMember(ctx, Member{ID: "M001", Name: "Alice"}))
		require.NoError(t, s.InsertMember(ctx, Member{ID: "M002", Name: "Bob"}))

		n, err := s.DeleteMember(ctx, "M001")
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = s.DeleteMember(ctx, "M001")
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		members, err := s.Members(ctx)
		require.NoError(t, err)
		require.Len(t, members, 1)
		assert.Equal(t, "M002", members[0].ID)
	})
}

func TestStoreTransactionRoundTrip(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		issued := time.Date(2025, 3, 1, 9, 30, 0, 123, time.UTC)
		tx := Transaction{
			ID:        "T1",
			BookID:    "B001",
			MemberID:  "M001",
			IssueDate: issued,
			DueDate:   issued.Add(DefaultLoanPeriod),
			Status:    TxIssued,
		}
		require.NoError(t, s.InsertTransaction(ctx, tx))

		got, err := s.Transaction(ctx, "T1")
		require.NoError(t, err)
		assert.True(t, got.IssueDate.Equal(tx.IssueDate))
		assert.True(t, got.DueDate.Equal(tx.DueDate))
		assert.Nil(t, got.ReturnDate)
		assert.Equal(t, TxIssued, got.Status)

		returned := issued.Add(48 * time.Hour)
		got.ReturnDate = &returned
		got.Status = TxReturned
		require.NoError(t, s.UpdateTransaction(ctx, got))

		returned = returned.Add(time.Hour) // must not leak into the store

		txs, err := s.Transactions(ctx)
		require.NoError(t, err)
		require.Len(t, txs, 1)
		require.NotNil(t, txs[0].ReturnDate)
		assert.True(t, txs[0].ReturnDate.Equal(issued.Add(48*time.Hour)))
		assert.Equal(t, TxReturned, txs[0].Status)
	})
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	_, err := OpenStore("postgres", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store driver")
}
