package library

import (
	"context"
	"slices"
	"sync"
)

// memoryStore keeps each collection in a slice in insertion order.
type memoryStore struct {
	mu           sync.RWMutex
	books        []Book
	members      []Member
	transactions []Transaction
}

// NewMemoryStore returns an empty slice-backed Store.
func NewMemoryStore() Store {
	return &memoryStore{}
}

func (s *memoryStore) Close() error { return nil }

// ------------------ Books ------------------

func (s *memoryStore) InsertBook(_ context.Context, b Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.ContainsFunc(s.books, func(x Book) bool { return x.ID == b.ID }) {
		return ErrDuplicateID
	}
	s.books = append(s.books, b)
	return nil
}

func (s *memoryStore) Book(_ context.Context, id string) (Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.books {
		if b.ID == id {
			return b, nil
		}
	}
	return Book{}, ErrBookNotFound
}

func (s *memoryStore) Books(context.Context) ([]Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(make([]Book, 0, len(s.books)), s.books...), nil
}

func (s *memoryStore) UpdateBook(_ context.Context, b Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.books, func(x Book) bool { return x.ID == b.ID })
	if i < 0 {
		return ErrBookNotFound
	}
	s.books[i] = b
	return nil
}

func (s *memoryStore) DeleteBook(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.books)
	s.books = slices.DeleteFunc(s.books, func(x Book) bool { return x.ID == id })
	return before - len(s.books), nil
}

// ------------------ Members ------------------

func (s *memoryStore) InsertMember(_ context.Context, m Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.ContainsFunc(s.members, func(x Member) bool { return x.ID == m.ID }) {
		return ErrDuplicateID
	}
	s.members = append(s.members, m)
	return nil
}

func (s *memoryStore) Member(_ context.Context, id string) (Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.members {
		if m.ID == id {
			return m, nil
		}
	}
	return Member{}, ErrMemberNotFound
}

func (s *memoryStore) Members(context.Context) ([]Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(make([]Member, 0, len(s.members)), s.members...), nil
}

func (s *memoryStore) UpdateMember(_ context.Context, m Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.members, func(x Member) bool { return x.ID == m.ID })
	if i < 0 {
		return ErrMemberNotFound
	}
	s.members[i] = m
	return nil
}

func (s *memoryStore) DeleteMember(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.members)
	s.members = slices.DeleteFunc(s.members, func(x Member) bool { return x.ID == id })
	return before - len(s.members), nil
}

// ------------------ Transactions ------------------

func (s *memoryStore) InsertTransaction(_ context.Context, t Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.ContainsFunc(s.transactions, func(x Transaction) bool { return x.ID == t.ID }) {
		return ErrDuplicateID
	}
	s.transactions = append(s.transactions, cloneTransaction(t))
	return nil
}

func (s *memoryStore) Transaction(_ context.Context, id string) (Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.transactions {
		if t.ID == id {
			return cloneTransaction(t), nil
		}
	}
	return Transaction{}, ErrTransactionNotFound
}

func (s *memoryStore) Transactions(context.Context) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Transaction, len(s.transactions))
	for i, t := range s.transactions {
		out[i] = cloneTransaction(t)
	}
	return out, nil
}

func (s *memoryStore) UpdateTransaction(_ context.Context, t Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.transactions, func(x Transaction) bool { return x.ID == t.ID })
	if i < 0 {
		return ErrTransactionNotFound
	}
	s.transactions[i] = cloneTransaction(t)
	return nil
}

// cloneTransaction copies the ReturnDate pointer so callers cannot reach
// stored state through it.
func cloneTransaction(t Transaction) Transaction {
	if t.ReturnDate != nil {
		rd := *t.ReturnDate
		t.ReturnDate = &rd
	}
	return t
}
