package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// DefaultLoanPeriod is how long a member may keep an issued book.
const DefaultLoanPeriod = 14 * 24 * time.Hour

// Service keeps books, members and transactions and applies the issue and
// return rules on top of a Store. It is safe for concurrent use.
type Service struct {
	// mu serialises operations that read and then write across collections.
	mu sync.Mutex

	store      Store
	logger     *slog.Logger
	now        func() time.Time
	loanPeriod time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLoanPeriod sets the due date offset for new transactions.
func WithLoanPeriod(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.loanPeriod = d
		}
	}
}

// NewService wraps store. The Service owns the store; Close closes it.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:      store,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:        time.Now,
		loanPeriod: DefaultLoanPeriod,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close closes the underlying store.
func (s *Service) Close() error { return s.store.Close() }

func (s *Service) clock() time.Time { return s.now().UTC() }

// ------------------ Books ------------------

// AddBook appends b. New books are Available; any other status is rejected
// since no transaction stands behind it.
func (s *Service) AddBook(ctx context.Context, b Book) error {
	switch b.Status {
	case "":
		b.Status = StatusAvailable
	case StatusAvailable:
	default:
		return fmt.Errorf("add book %s: %w: %q", b.ID, ErrInvalidStatus, b.Status)
	}
	if err := s.store.InsertBook(ctx, b); err != nil {
		return fmt.Errorf("add book %s: %w", b.ID, err)
	}
	s.logger.Debug("book added", "book_id", b.ID, "title", b.Title)
	return nil
}

// NewBookID returns the next free sequential book ID, e.g. B003.
func (s *Service) NewBookID(ctx context.Context) (string, error) {
	books, err := s.store.Books(ctx)
	if err != nil {
		return "", err
	}
	ids := make([]string, len(books))
	for i, b := range books {
		ids[i] = b.ID
	}
	return nextSequentialID(BookIDPrefix, ids), nil
}

// GetBookByID returns the first book with id or ErrBookNotFound.
func (s *Service) GetBookByID(ctx context.Context, id string) (Book, error) {
	return s.store.Book(ctx, id)
}

// GetAllBooks returns a copy of all books in insertion order.
func (s *Service) GetAllBooks(ctx context.Context) ([]Book, error) {
	return s.store.Books(ctx)
}

// UpdateBook overwrites title, author, ISBN and status of the book with b.ID.
// An empty status keeps the current one; unknown statuses are rejected. The
// collection is left untouched when no such book exists.
func (s *Service) UpdateBook(ctx context.Context, b Book) error {
	if b.Status != "" && !b.Status.Valid() {
		return fmt.Errorf("update book %s: %w: %q", b.ID, ErrInvalidStatus, b.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.Book(ctx, b.ID)
	if err != nil {
		return fmt.Errorf("update book %s: %w", b.ID, err)
	}
	if b.Status == "" {
		b.Status = existing.Status
	}
	if err := s.store.UpdateBook(ctx, b); err != nil {
		return fmt.Errorf("update book %s: %w", b.ID, err)
	}
	s.logger.Debug("book updated", "book_id", b.ID)
	return nil
}

// DeleteBook removes every book with id. Books that are out on loan stay.
func (s *Service) DeleteBook(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	open, err := s.openTransaction(ctx, func(t Transaction) bool { return t.BookID == id })
	if err != nil {
		return err
	}
	if open != nil {
		return fmt.Errorf("delete book %s: %w", id, ErrBookIssued)
	}

	n, err := s.store.DeleteBook(ctx, id)
	if err != nil {
		return fmt.Errorf("delete book %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete book %s: %w", id, ErrBookNotFound)
	}
	s.logger.Debug("book deleted", "book_id", id)
	return nil
}

// SearchBooks returns books whose title, author or ISBN contains query,
// ignoring case. An empty query matches nothing.
func (s *Service) SearchBooks(ctx context.Context, query string) ([]Book, error) {
	q := fold(query)
	if q == "" {
		return []Book{}, nil
	}
	books, err := s.store.Books(ctx)
	if err != nil {
		return nil, err
	}
	out := []Book{}
	for _, b := range books {
		if matchesBook(b, q) {
			out = append(out, b)
		}
	}
	return out, nil
}

// ------------------ Members ------------------

// AddMember appends m. A zero JoinedAt is set to now.
func (s *Service) AddMember(ctx context.Context, m Member) error {
	if m.JoinedAt.IsZero() {
		m.JoinedAt = s.clock()
	}
	if err := s.store.InsertMember(ctx, m); err != nil {
		return fmt.Errorf("add member %s: %w", m.ID, err)
	}
	s.logger.Debug("member added", "member_id", m.ID, "name", m.Name)
	return nil
}

// NewMemberID returns the next free sequential member ID, e.g. M003.
func (s *Service) NewMemberID(ctx context.Context) (string, error) {
	members, err := s.store.Members(ctx)
	if err != nil {
		return "", err
	}
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	return nextSequentialID(MemberIDPrefix, ids), nil
}

// GetMemberByID returns the first member with id or ErrMemberNotFound.
func (s *Service) GetMemberByID(ctx context.Context, id string) (Member, error) {
	return s.store.Member(ctx, id)
}

// GetAllMembers returns a copy of all members in insertion order.
func (s *Service) GetAllMembers(ctx context.Context) ([]Member, error) {
	return s.store.Members(ctx)
}

// UpdateMember overwrites name, email and phone of the member with m.ID.
func (s *Service) UpdateMember(ctx context.Context, m Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.Member(ctx, m.ID)
	if err != nil {
		return fmt.Errorf("update member %s: %w", m.ID, err)
	}
	existing.Name = m.Name
	existing.Email = m.Email
	existing.Phone = m.Phone
	if err := s.store.UpdateMember(ctx, existing); err != nil {
		return fmt.Errorf("update member %s: %w", m.ID, err)
	}
	s.logger.Debug("member updated", "member_id", m.ID)
	return nil
}

// DeleteMember removes every member with id unless they still hold a book.
func (s *Service) DeleteMember(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	open, err := s.openTransaction(ctx, func(t Transaction) bool { return t.MemberID == id })
	if err != nil {
		return err
	}
	if open != nil {
		return fmt.Errorf("delete member %s: %w", id, ErrMemberHasLoans)
	}

	n, err := s.store.DeleteMember(ctx, id)
	if err != nil {
		return fmt.Errorf("delete member %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete member %s: %w", id, ErrMemberNotFound)
	}
	s.logger.Debug("member deleted", "member_id", id)
	return nil
}

// ------------------ Circulation ------------------

// IssueBook records t and marks its book Issued. The book and member must
// exist and the book must be Available. Missing fields are filled in: ID, an
// issue date of now, and a due date one loan period later. The stored
// transaction is returned.
func (s *Service) IssueBook(ctx context.Context, t Transaction) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, err := s.store.Book(ctx, t.BookID)
	if err != nil {
		return Transaction{}, fmt.Errorf("issue book %s: %w", t.BookID, err)
	}
	if _, err := s.store.Member(ctx, t.MemberID); err != nil {
		return Transaction{}, fmt.Errorf("issue book %s to %s: %w", t.BookID, t.MemberID, err)
	}
	if book.Status != StatusAvailable {
		return Transaction{}, fmt.Errorf("issue book %s: %w", t.BookID, ErrBookNotAvailable)
	}

	if t.ID == "" {
		t.ID = newTransactionID()
	}
	if t.IssueDate.IsZero() {
		t.IssueDate = s.clock()
	}
	if t.DueDate.IsZero() {
		t.DueDate = t.IssueDate.Add(s.loanPeriod)
	}
	t.ReturnDate = nil
	t.Status = TxIssued

	book.Status = StatusIssued
	if err := s.store.UpdateBook(ctx, book); err != nil {
		return Transaction{}, fmt.Errorf("issue book %s: %w", t.BookID, err)
	}
	if err := s.store.InsertTransaction(ctx, t); err != nil {
		book.Status = StatusAvailable
		if rerr := s.store.UpdateBook(ctx, book); rerr != nil {
			s.logger.Error("book left issued without a transaction", "book_id", t.BookID, "error", rerr)
		}
		return Transaction{}, fmt.Errorf("issue book %s: %w", t.BookID, err)
	}

	s.logger.Info("book issued",
		"transaction_id", t.ID,
		"book_id", t.BookID,
		"member_id", t.MemberID,
		"due", t.DueDate.Format(time.DateOnly))
	return t, nil
}

// Issue lends bookID to memberID under a freshly generated transaction.
func (s *Service) Issue(ctx context.Context, bookID, memberID string) (Transaction, error) {
	return s.IssueBook(ctx, Transaction{BookID: bookID, MemberID: memberID})
}

// ReturnBook closes the transaction with id: it gets a return date of now and
// status Returned, and its book, if still present, becomes Available.
func (s *Service) ReturnBook(ctx context.Context, transactionID string) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.store.Transaction(ctx, transactionID)
	if err != nil {
		return Transaction{}, fmt.Errorf("return %s: %w", transactionID, err)
	}
	return s.closeTransaction(ctx, t)
}

// ReturnBookByBookID closes the open transaction for bookID.
func (s *Service) ReturnBookByBookID(ctx context.Context, bookID string) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.Book(ctx, bookID); err != nil {
		return Transaction{}, fmt.Errorf("return book %s: %w", bookID, err)
	}
	open, err := s.openTransaction(ctx, func(t Transaction) bool { return t.BookID == bookID })
	if err != nil {
		return Transaction{}, err
	}
	if open == nil {
		return Transaction{}, fmt.Errorf("return book %s: %w", bookID, ErrBookNotIssued)
	}
	return s.closeTransaction(ctx, *open)
}

func (s *Service) closeTransaction(ctx context.Context, t Transaction) (Transaction, error) {
	if !t.Open() {
		return Transaction{}, fmt.Errorf("return %s: %w", t.ID, ErrAlreadyReturned)
	}

	returned := s.clock()
	t.ReturnDate = &returned
	t.Status = TxReturned
	if err := s.store.UpdateTransaction(ctx, t); err != nil {
		return Transaction{}, fmt.Errorf("return %s: %w", t.ID, err)
	}

	book, err := s.store.Book(ctx, t.BookID)
	switch {
	case err == nil:
		book.Status = StatusAvailable
		if err := s.store.UpdateBook(ctx, book); err != nil {
			return Transaction{}, fmt.Errorf("return %s: %w", t.ID, err)
		}
	case errors.Is(err, ErrBookNotFound):
		s.logger.Warn("returned book no longer in catalogue", "transaction_id", t.ID, "book_id", t.BookID)
	default:
		return Transaction{}, err
	}

	s.logger.Info("book returned", "transaction_id", t.ID, "book_id", t.BookID, "member_id", t.MemberID)
	return t, nil
}

// openTransaction returns the first Issued transaction matching match, or nil.
func (s *Service) openTransaction(ctx context.Context, match func(Transaction) bool) (*Transaction, error) {
	txs, err := s.store.Transactions(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range txs {
		if t.Open() && match(t) {
			return &t, nil
		}
	}
	return nil, nil
}

// GetAllTransactions returns a copy of all transactions in insertion order.
func (s *Service) GetAllTransactions(ctx context.Context) ([]Transaction, error) {
	return s.store.Transactions(ctx)
}

// OverdueTransactions returns open transactions whose due date is before at.
func (s *Service) OverdueTransactions(ctx context.Context, at time.Time) ([]Transaction, error) {
	txs, err := s.store.Transactions(ctx)
	if err != nil {
		return nil, err
	}
	out := []Transaction{}
	for _, t := range txs {
		if t.Overdue(at) {
			out = append(out, t)
		}
	}
	return out, nil
}

// ------------------ Statistics ------------------

// GetTotalBooks returns the number of books.
func (s *Service) GetTotalBooks(ctx context.Context) (int, error) {
	books, err := s.store.Books(ctx)
	return len(books), err
}

// GetTotalMembers returns the number of members.
func (s *Service) GetTotalMembers(ctx context.Context) (int, error) {
	members, err := s.store.Members(ctx)
	return len(members), err
}

// GetBooksIssued returns the number of books whose status is Issued.
func (s *Service) GetBooksIssued(ctx context.Context) (int, error) {
	books, err := s.store.Books(ctx)
	if err != nil {
		return 0, err
	}
	return countStatus(books, StatusIssued), nil
}

// Stats gathers all counts, with overdue measured at at.
func (s *Service) Stats(ctx context.Context, at time.Time) (Stats, error) {
	books, err := s.store.Books(ctx)
	if err != nil {
		return Stats{}, err
	}
	members, err := s.store.Members(ctx)
	if err != nil {
		return Stats{}, err
	}
	overdue, err := s.OverdueTransactions(ctx, at)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		TotalBooks:     len(books),
		TotalMembers:   len(members),
		BooksIssued:    countStatus(books, StatusIssued),
		BooksAvailable: countStatus(books, StatusAvailable),
		OverdueBooks:   len(overdue),
	}, nil
}

func countStatus(books []Book, status BookStatus) int {
	n := 0
	for _, b := range books {
		if b.Status == status {
			n++
		}
	}
	return n
}
