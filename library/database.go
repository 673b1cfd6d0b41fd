package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

// Database is a Store backed by an in-memory SQLite database.
type Database struct {
	db      *sqlx.DB
	dialect goqu.DialectWrapper
}

// NewDatabase opens the SQLite database at dsn and applies schema migrations.
// An empty dsn opens a private in-memory database; DSNs that would reach disk
// are refused.
func NewDatabase(dsn string) (*Database, error) {
	if dsn == "" {
		dsn = fmt.Sprintf("file:library-%s?mode=memory&cache=shared", uuid.NewString())
	}
	if !inMemoryDSN(dsn) {
		return nil, fmt.Errorf("sqlite dsn %q is not in-memory: use :memory: or mode=memory", dsn)
	}

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// An in-memory database lives only as long as its connections, and shared
	// cache locks tables across connections. One connection sidesteps both.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Database{db: db, dialect: goqu.Dialect("sqlite3")}, nil
}

func inMemoryDSN(dsn string) bool {
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file::memory:") {
		return true
	}
	_, query, _ := strings.Cut(dsn, "?")
	for _, opt := range strings.Split(query, "&") {
		if opt == "mode=memory" {
			return true
		}
	}
	return false
}

// Close closes the DB. The in-memory contents are gone afterwards.
func (d *Database) Close() error { return d.db.Close() }

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sqlx.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// seq keeps insertion order; id carries the caller's identifier.
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS books (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            id TEXT NOT NULL UNIQUE,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            isbn TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'Available'
        );`,
		`CREATE TABLE IF NOT EXISTS members (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            id TEXT NOT NULL UNIQUE,
            name TEXT NOT NULL,
            email TEXT NOT NULL,
            phone TEXT NOT NULL,
            joined_at DATETIME NOT NULL
        );`,
		// No foreign keys: transactions outlive the books and members they name.
		`CREATE TABLE IF NOT EXISTS transactions (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            id TEXT NOT NULL UNIQUE,
            book_id TEXT NOT NULL,
            member_id TEXT NOT NULL,
            issue_date DATETIME NOT NULL,
            due_date DATETIME NOT NULL,
            return_date DATETIME,
            status TEXT NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_book ON transactions(book_id, status);`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Query helpers
// ---------------------------------------------------------------------------

var (
	bookColumns        = []any{"id", "title", "author", "isbn", "status"}
	memberColumns      = []any{"id", "name", "email", "phone", "joined_at"}
	transactionColumns = []any{"id", "book_id", "member_id", "issue_date", "due_date", "return_date", "status"}
)

// exec runs a built statement and maps unique violations to ErrDuplicateID.
func (d *Database) exec(ctx context.Context, q sqlBuilder) (sql.Result, error) {
	query, args, err := q.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	res, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, ErrDuplicateID
		}
		return nil, err
	}
	return res, nil
}

type sqlBuilder interface {
	ToSQL() (string, []any, error)
}

// get scans the first row of q into dest, returning notFound when empty.
func (d *Database) get(ctx context.Context, dest any, q *goqu.SelectDataset, notFound error) error {
	query, args, err := q.Limit(1).ToSQL()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	err = d.db.GetContext(ctx, dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return err
}

func (d *Database) all(ctx context.Context, dest any, q *goqu.SelectDataset) error {
	query, args, err := q.ToSQL()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return d.db.SelectContext(ctx, dest, query, args...)
}

// updated turns a zero-row update into notFound.
func updated(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func (d *Database) from(table string, cols []any) *goqu.SelectDataset {
	return d.dialect.From(table).Prepared(true).Select(cols...).Order(goqu.C("seq").Asc())
}

// ---------------------------------------------------------------------------
// Books
// ---------------------------------------------------------------------------

func (d *Database) InsertBook(ctx context.Context, b Book) error {
	_, err := d.exec(ctx, d.dialect.Insert("books").Prepared(true).Rows(goqu.Record{
		"id": b.ID, "title": b.Title, "author": b.Author, "isbn": b.ISBN, "status": string(b.Status),
	}))
	return err
}

func (d *Database) Book(ctx context.Context, id string) (Book, error) {
	var b Book
	err := d.get(ctx, &b, d.from("books", bookColumns).Where(goqu.C("id").Eq(id)), ErrBookNotFound)
	return b, err
}

func (d *Database) Books(ctx context.Context) ([]Book, error) {
	books := []Book{}
	if err := d.all(ctx, &books, d.from("books", bookColumns)); err != nil {
		return nil, err
	}
	return books, nil
}

func (d *Database) UpdateBook(ctx context.Context, b Book) error {
	res, err := d.exec(ctx, d.dialect.Update("books").Prepared(true).Set(goqu.Record{
		"title": b.Title, "author": b.Author, "isbn": b.ISBN, "status": string(b.Status),
	}).Where(goqu.C("id").Eq(b.ID)))
	if err != nil {
		return err
	}
	return updated(res, ErrBookNotFound)
}

func (d *Database) DeleteBook(ctx context.Context, id string) (int, error) {
	return d.delete(ctx, "books", id)
}

// ---------------------------------------------------------------------------
// Members
// ---------------------------------------------------------------------------

func (d *Database) InsertMember(ctx context.Context, m Member) error {
	_, err := d.exec(ctx, d.dialect.Insert("members").Prepared(true).Rows(goqu.Record{
		"id": m.ID, "name": m.Name, "email": m.Email, "phone": m.Phone, "joined_at": m.JoinedAt.UTC(),
	}))
	return err
}

func (d *Database) Member(ctx context.Context, id string) (Member, error) {
	var m Member
	err := d.get(ctx, &m, d.from("members", memberColumns).Where(goqu.C("id").Eq(id)), ErrMemberNotFound)
	return m, err
}

func (d *Database) Members(ctx context.Context) ([]Member, error) {
	members := []Member{}
	if err := d.all(ctx, &members, d.from("members", memberColumns)); err != nil {
		return nil, err
	}
	return members, nil
}

func (d *Database) UpdateMember(ctx context.Context, m Member) error {
	res, err := d.exec(ctx, d.dialect.Update("members").Prepared(true).Set(goqu.Record{
		"name": m.Name, "email": m.Email, "phone": m.Phone, "joined_at": m.JoinedAt.UTC(),
	}).Where(goqu.C("id").Eq(m.ID)))
	if err != nil {
		return err
	}
	return updated(res, ErrMemberNotFound)
}

func (d *Database) DeleteMember(ctx context.Context, id string) (int, error) {
	return d.delete(ctx, "members", id)
}

func (d *Database) delete(ctx context.Context, table, id string) (int, error) {
	res, err := d.exec(ctx, d.dialect.Delete(table).Prepared(true).Where(goqu.C("id").Eq(id)))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// ---------------------------------------------------------------------------
// Transactions
// ---------------------------------------------------------------------------

func (d *Database) InsertTransaction(ctx context.Context, t Transaction) error {
	_, err := d.exec(ctx, d.dialect.Insert("transactions").Prepared(true).Rows(goqu.Record{
		"id":          t.ID,
		"book_id":     t.BookID,
		"member_id":   t.MemberID,
		"issue_date":  t.IssueDate.UTC(),
		"due_date":    t.DueDate.UTC(),
		"return_date": nullTime(t.ReturnDate),
		"status":      string(t.Status),
	}))
	return err
}

func (d *Database) Transaction(ctx context.Context, id string) (Transaction, error) {
	var t Transaction
	err := d.get(ctx, &t, d.from("transactions", transactionColumns).Where(goqu.C("id").Eq(id)), ErrTransactionNotFound)
	return t, err
}

func (d *Database) Transactions(ctx context.Context) ([]Transaction, error) {
	txs := []Transaction{}
	if err := d.all(ctx, &txs, d.from("transactions", transactionColumns)); err != nil {
		return nil, err
	}
	return txs, nil
}

func (d *Database) UpdateTransaction(ctx context.Context, t Transaction) error {
	res, err := d.exec(ctx, d.dialect.Update("transactions").Prepared(true).Set(goqu.Record{
		"book_id":     t.BookID,
		"member_id":   t.MemberID,
		"issue_date":  t.IssueDate.UTC(),
		"due_date":    t.DueDate.UTC(),
		"return_date": nullTime(t.ReturnDate),
		"status":      string(t.Status),
	}).Where(goqu.C("id").Eq(t.ID)))
	if err != nil {
		return err
	}
	return updated(res, ErrTransactionNotFound)
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
