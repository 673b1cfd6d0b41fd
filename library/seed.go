package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Seed is the YAML document accepted by LoadSeed:
//
//	books:
//	  - {id: B001, title: Java Programming, author: John Doe, isbn: "1234567890"}
//	members:
//	  - {id: M001, name: Alice Johnson, email: alice@example.com, phone: 555-1234}
//
// Entries without an id get the next sequential one when applied.
type Seed struct {
	Books   []Book   `yaml:"books"`
	Members []Member `yaml:"members"`
}

// DemoSeed is the fixed sample data shown by the demo command.
func DemoSeed() Seed {
	return Seed{
		Books: []Book{
			{ID: "B001", Title: "Java Programming", Author: "John Doe", ISBN: "1234567890", Status: StatusAvailable},
			{ID: "B002", Title: "Python Basics", Author: "Jane Smith", ISBN: "0987654321", Status: StatusAvailable},
		},
		Members: []Member{
			{ID: "M001", Name: "Alice Johnson", Email: "alice@example.com", Phone: "555-1234"},
			{ID: "M002", Name: "Bob Williams", Email: "bob@example.com", Phone: "555-5678"},
		},
	}
}

// LoadSeed reads and parses a seed file.
func LoadSeed(path string) (Seed, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Seed{}, fmt.Errorf("read seed: %w", err)
	}
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Seed{}, fmt.Errorf("parse seed %s: %w", path, err)
	}
	return s, nil
}

// SeedResult reports what happened to one seed entry.
type SeedResult struct {
	Kind string // "book" or "member"
	ID   string
	Name string
	Err  error
}

// ApplySeed adds every book and member in seed, continuing past failures.
// The returned error joins all per-entry failures.
func (s *Service) ApplySeed(ctx context.Context, seed Seed) ([]SeedResult, error) {
	results := make([]SeedResult, 0, len(seed.Books)+len(seed.Members))
	var errs []error

	for _, b := range seed.Books {
		var err error
		if b.ID == "" {
			b.ID, err = s.NewBookID(ctx)
		}
		if err == nil {
			err = s.AddBook(ctx, b)
		}
		results = append(results, SeedResult{Kind: "book", ID: b.ID, Name: b.Title, Err: err})
		if err != nil {
			errs = append(errs, err)
		}
	}

	for _, m := range seed.Members {
		var err error
		if m.ID == "" {
			m.ID, err = s.NewMemberID(ctx)
		}
		if err == nil {
			err = s.AddMember(ctx, m)
		}
		results = append(results, SeedResult{Kind: "member", ID: m.ID, Name: m.Name, Err: err})
		if err != nil {
			errs = append(errs, err)
		}
	}

	return results, errors.Join(errs...)
}
