package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"library-service/library"
)

// Output formats accepted by --format.
var validFormats = []string{"text", "json"}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func isValidFormat(format string) bool {
	for _, f := range validFormats {
		if f == format {
			return true
		}
	}
	return false
}

// writeJSON encodes v as one indented JSON document.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printBooks(w io.Writer, books []library.Book) {
	if len(books) == 0 {
		fmt.Fprintln(w, "No books found.")
		return
	}
	fmt.Fprintf(w, "%-6s %-30s %-20s %-15s %-10s\n", "ID", "Title", "Author", "ISBN", "Status")
	fmt.Fprintln(w, strings.Repeat("-", 85))
	for _, b := range books {
		fmt.Fprintf(w, "%-6s %-30s %-20s %-15s %-10s\n",
			b.ID, library.Truncate(b.Title, 30), library.Truncate(b.Author, 20), b.ISBN, b.Status)
	}
}

func printMembers(w io.Writer, members []library.Member) {
	if len(members) == 0 {
		fmt.Fprintln(w, "No members found.")
		return
	}
	fmt.Fprintf(w, "%-6s %-25s %-28s %-12s %-10s\n", "ID", "Name", "Email", "Phone", "Joined")
	fmt.Fprintln(w, strings.Repeat("-", 85))
	for _, m := range members {
		fmt.Fprintf(w, "%-6s %-25s %-28s %-12s %-10s\n",
			m.ID, library.Truncate(m.Name, 25), library.Truncate(m.Email, 28), m.Phone, m.JoinedAt.Format(time.DateOnly))
	}
}

func printTransactions(w io.Writer, txs []library.Transaction) {
	if len(txs) == 0 {
		fmt.Fprintln(w, "No transactions found.")
		return
	}
	fmt.Fprintf(w, "%-36s %-6s %-6s %-10s %-10s %-10s %-8s\n", "ID", "Book", "Member", "Issued", "Due", "Returned", "Status")
	fmt.Fprintln(w, strings.Repeat("-", 94))
	for _, t := range txs {
		returned := "N/A"
		if t.ReturnDate != nil {
			returned = t.ReturnDate.Format(time.DateOnly)
		}
		fmt.Fprintf(w, "%-36s %-6s %-6s %-10s %-10s %-10s %-8s\n",
			t.ID, t.BookID, t.MemberID, t.IssueDate.Format(time.DateOnly), t.DueDate.Format(time.DateOnly), returned, t.Status)
	}
}

func printStats(w io.Writer, s library.Stats) {
	fmt.Fprintln(w, "Library Statistics")
	fmt.Fprintf(w, "Total Books: %d\n", s.TotalBooks)
	fmt.Fprintf(w, "Total Members: %d\n", s.TotalMembers)
	fmt.Fprintf(w, "Books Issued: %d\n", s.BooksIssued)
	fmt.Fprintf(w, "Books Available: %d\n", s.BooksAvailable)
	fmt.Fprintf(w, "Overdue Books: %d\n", s.OverdueBooks)
}
