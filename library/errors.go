package library

import "errors"

var (
	// ErrBookNotFound is returned when no book has the requested ID.
	ErrBookNotFound = errors.New("book not found")

	// ErrMemberNotFound is returned when no member has the requested ID.
	ErrMemberNotFound = errors.New("member not found")

	// ErrTransactionNotFound is returned when no transaction has the requested ID.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrDuplicateID is returned when adding a record whose ID is already taken.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrBookNotAvailable is returned when issuing a book that is already out.
	ErrBookNotAvailable = errors.New("book is not available for issue")

	// ErrBookNotIssued is returned when returning a book that has no open transaction.
	ErrBookNotIssued = errors.New("book is not currently issued")

	// ErrAlreadyReturned is returned when closing a transaction twice.
	ErrAlreadyReturned = errors.New("transaction already returned")

	// ErrBookIssued is returned when deleting a book that is still lent out.
	ErrBookIssued = errors.New("book is currently issued and cannot be deleted")

	// ErrInvalidStatus is returned for a book status the service does not know,
	// or for a new book that claims to be out on loan.
	ErrInvalidStatus = errors.New("invalid book status")

	// ErrMemberHasLoans is returned when deleting a member with outstanding books.
	ErrMemberHasLoans = errors.New("member has outstanding books and cannot be deleted")
)
