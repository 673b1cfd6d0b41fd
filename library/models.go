package library

import "time"

// BookStatus is the circulation state of a book.
type BookStatus string

const (
	StatusAvailable BookStatus = "Available"
	StatusIssued    BookStatus = "Issued"
)

// Valid reports whether s is one of the known statuses.
func (s BookStatus) Valid() bool {
	return s == StatusAvailable || s == StatusIssued
}

// TransactionStatus is the state of a borrow transaction.
type TransactionStatus string

const (
	TxIssued   TransactionStatus = "Issued"
	TxReturned TransactionStatus = "Returned"
)

// Book represents a catalogue entry and its current availability.
type Book struct {
	ID     string     `json:"id" yaml:"id" db:"id"`
	Title  string     `json:"title" yaml:"title" db:"title"`
	Author string     `json:"author" yaml:"author" db:"author"`
	ISBN   string     `json:"isbn" yaml:"isbn" db:"isbn"`
	Status BookStatus `json:"status" yaml:"status,omitempty" db:"status"`
}

// Member represents a registered library member.
type Member struct {
	ID       string    `json:"id" yaml:"id" db:"id"`
	Name     string    `json:"name" yaml:"name" db:"name"`
	Email    string    `json:"email" yaml:"email" db:"email"`
	Phone    string    `json:"phone" yaml:"phone" db:"phone"`
	JoinedAt time.Time `json:"joined_at" yaml:"joined_at,omitempty" db:"joined_at"`
}

// Transaction records a book lent to a member. It is created on issue,
// closed on return and never deleted.
type Transaction struct {
	ID         string            `json:"id" db:"id"`
	BookID     string            `json:"book_id" db:"book_id"`
	MemberID   string            `json:"member_id" db:"member_id"`
	IssueDate  time.Time         `json:"issue_date" db:"issue_date"`
	DueDate    time.Time         `json:"due_date" db:"due_date"`
	ReturnDate *time.Time        `json:"return_date,omitempty" db:"return_date"`
	Status     TransactionStatus `json:"status" db:"status"`
}

// Open reports whether the book has not been returned yet.
func (t Transaction) Open() bool { return t.Status == TxIssued }

// Overdue reports whether the transaction is still open on a calendar day
// after its due date. Both dates are taken in at's location, so a book is not
// overdue on the day it is due.
func (t Transaction) Overdue(at time.Time) bool {
	if !t.Open() || t.DueDate.IsZero() {
		return false
	}
	return day(t.DueDate.In(at.Location())).Before(day(at))
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Stats is a snapshot of the library's counts.
type Stats struct {
	TotalBooks     int `json:"total_books"`
	TotalMembers   int `json:"total_members"`
	BooksIssued    int `json:"books_issued"`
	BooksAvailable int `json:"books_available"`
	OverdueBooks   int `json:"overdue_books"`
}
