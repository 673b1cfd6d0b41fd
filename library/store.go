package library

import (
	"context"
	"fmt"
	"strings"
)

// Store holds the three collections behind the Service. Implementations
// preserve insertion order, return copies, and report missing records with
// the package's not-found errors.
type Store interface {
	InsertBook(ctx context.Context, b Book) error
	Book(ctx context.Context, id string) (Book, error)
	Books(ctx context.Context) ([]Book, error)
	UpdateBook(ctx context.Context, b Book) error
	// DeleteBook removes every book with the given ID and reports how many went.
	DeleteBook(ctx context.Context, id string) (int, error)

	InsertMember(ctx context.Context, m Member) error
	Member(ctx context.Context, id string) (Member, error)
	Members(ctx context.Context) ([]Member, error)
	UpdateMember(ctx context.Context, m Member) error
	DeleteMember(ctx context.Context, id string) (int, error)

	InsertTransaction(ctx context.Context, t Transaction) error
	Transaction(ctx context.Context, id string) (Transaction, error)
	Transactions(ctx context.Context) ([]Transaction, error)
	UpdateTransaction(ctx context.Context, t Transaction) error

	Close() error
}

// Store drivers accepted by OpenStore.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// OpenStore returns the Store for driver. dsn is only used by the sqlite driver;
// when empty each call gets its own in-memory database.
func OpenStore(driver, dsn string) (Store, error) {
	switch strings.ToLower(driver) {
	case "", DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite:
		db, err := NewDatabase(dsn)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
