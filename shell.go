package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"library-service/library"
)

func newShellCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Manage books, members and loans interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := openLibrary(ctx, cmd, opts)
			if err != nil {
				return err
			}
			defer svc.Close()

			in := cmd.InOrStdin()
			sh := &shell{
				svc:         svc,
				sc:          bufio.NewScanner(in),
				out:         cmd.OutOrStdout(),
				interactive: isTerminal(in),
				now:         time.Now,
			}
			return sh.run(ctx)
		},
	}
}

// isTerminal reports whether r is a terminal; prompts are only shown then.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type shell struct {
	svc         *library.Service
	sc          *bufio.Scanner
	out         io.Writer
	interactive bool
	now         func() time.Time
}

const shellHelp = `Available commands:
  Books: add book, list books, update book, delete book, search book
  Members: add member, list members, update member, delete member
  Circulation: issue, return, list transactions, overdue
  System: stats, help, exit`

func (s *shell) run(ctx context.Context) error {
	if s.interactive {
		fmt.Fprintln(s.out, "Welcome to the Library Management System!")
		fmt.Fprintln(s.out, shellHelp)
	}

	for {
		if s.interactive {
			fmt.Fprint(s.out, "\n> ")
		}
		if !s.sc.Scan() {
			return s.sc.Err()
		}
		cmd := strings.ToLower(strings.TrimSpace(s.sc.Text()))

		switch cmd {
		case "":
			continue
		case "add book":
			s.handleAddBook(ctx)
		case "list books":
			s.handleListBooks(ctx)
		case "update book":
			s.handleUpdateBook(ctx)
		case "delete book":
			s.handleDeleteBook(ctx)
		case "search book":
			s.handleSearchBooks(ctx)
		case "add member":
			s.handleAddMember(ctx)
		case "list members":
			s.handleListMembers(ctx)
		case "update member":
			s.handleUpdateMember(ctx)
		case "delete member":
			s.handleDeleteMember(ctx)
		case "issue":
			s.handleIssue(ctx)
		case "return":
			s.handleReturn(ctx)
		case "list transactions":
			s.handleListTransactions(ctx)
		case "overdue":
			s.handleOverdue(ctx)
		case "stats":
			s.handleStats(ctx)
		case "help":
			fmt.Fprintln(s.out, shellHelp)
		case "exit", "quit":
			fmt.Fprintln(s.out, "Goodbye!")
			return nil
		default:
			fmt.Fprintln(s.out, "Unknown command. Type 'help' to see the available commands.")
		}
	}
}

// ask prints label when interactive and reads one trimmed line.
func (s *shell) ask(label string) (string, bool) {
	if s.interactive {
		fmt.Fprint(s.out, label)
	}
	if !s.sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.sc.Text()), true
}

// askAll reads one answer per label, stopping at end of input.
func (s *shell) askAll(labels ...string) ([]string, bool) {
	answers := make([]string, 0, len(labels))
	for _, l := range labels {
		a, ok := s.ask(l)
		if !ok {
			return nil, false
		}
		answers = append(answers, a)
	}
	return answers, true
}

// keep returns next unless it is empty.
func keep(current, next string) string {
	if next == "" {
		return current
	}
	return next
}

// ------------------ Books ------------------

func (s *shell) handleAddBook(ctx context.Context) {
	a, ok := s.askAll("Title: ", "Author: ", "ISBN: ")
	if !ok {
		return
	}
	id, err := s.svc.NewBookID(ctx)
	if err != nil {
		fmt.Fprintf(s.out, "Error adding book: %v\n", err)
		return
	}
	if err := s.svc.AddBook(ctx, library.Book{ID: id, Title: a[0], Author: a[1], ISBN: a[2]}); err != nil {
		fmt.Fprintf(s.out, "Error adding book: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Added book ID %s\n", id)
}

func (s *shell) handleListBooks(ctx context.Context) {
	books, err := s.svc.GetAllBooks(ctx)
	if err != nil {
		fmt.Fprintf(s.out, "Error listing books: %v\n", err)
		return
	}
	printBooks(s.out, books)
}

func (s *shell) handleUpdateBook(ctx context.Context) {
	id, ok := s.ask("Book ID: ")
	if !ok {
		return
	}
	book, err := s.svc.GetBookByID(ctx, id)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	a, ok := s.askAll(
		fmt.Sprintf("Title [%s]: ", book.Title),
		fmt.Sprintf("Author [%s]: ", book.Author),
		fmt.Sprintf("ISBN [%s]: ", book.ISBN))
	if !ok {
		return
	}
	book.Title = keep(book.Title, a[0])
	book.Author = keep(book.Author, a[1])
	book.ISBN = keep(book.ISBN, a[2])
	if err := s.svc.UpdateBook(ctx, book); err != nil {
		fmt.Fprintf(s.out, "Error updating book: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Updated book %s\n", id)
}

func (s *shell) handleDeleteBook(ctx context.Context) {
	id, ok := s.ask("Book ID: ")
	if !ok {
		return
	}
	if err := s.svc.DeleteBook(ctx, id); err != nil {
		fmt.Fprintf(s.out, "Error deleting book: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Deleted book %s\n", id)
}

func (s *shell) handleSearchBooks(ctx context.Context) {
	q, ok := s.ask("Search: ")
	if !ok {
		return
	}
	books, err := s.svc.SearchBooks(ctx, q)
	if err != nil {
		fmt.Fprintf(s.out, "Error searching: %v\n", err)
		return
	}
	printBooks(s.out, books)
}

// ------------------ Members ------------------

func (s *shell) handleAddMember(ctx context.Context) {
	a, ok := s.askAll("Name: ", "Email: ", "Phone: ")
	if !ok {
		return
	}
	id, err := s.svc.NewMemberID(ctx)
	if err != nil {
		fmt.Fprintf(s.out, "Error adding member: %v\n", err)
		return
	}
	if err := s.svc.AddMember(ctx, library.Member{ID: id, Name: a[0], Email: a[1], Phone: a[2]}); err != nil {
		fmt.Fprintf(s.out, "Error adding member: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Added member '%s' with ID %s\n", a[0], id)
}

func (s *shell) handleListMembers(ctx context.Context) {
	members, err := s.svc.GetAllMembers(ctx)
	if err != nil {
		fmt.Fprintf(s.out, "Error listing members: %v\n", err)
		return
	}
	printMembers(s.out, members)
}

func (s *shell) handleUpdateMember(ctx context.Context) {
	id, ok := s.ask("Member ID: ")
	if !ok {
		return
	}
	member, err := s.svc.GetMemberByID(ctx, id)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	a, ok := s.askAll(
		fmt.Sprintf("Name [%s]: ", member.Name),
		fmt.Sprintf("Email [%s]: ", member.Email),
		fmt.Sprintf("Phone [%s]: ", member.Phone))
	if !ok {
		return
	}
	member.Name = keep(member.Name, a[0])
	member.Email = keep(member.Email, a[1])
	member.Phone = keep(member.Phone, a[2])
	if err := s.svc.UpdateMember(ctx, member); err != nil {
		fmt.Fprintf(s.out, "Error updating member: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Updated member %s\n", id)
}

func (s *shell) handleDeleteMember(ctx context.Context) {
	id, ok := s.ask("Member ID: ")
	if !ok {
		return
	}
	if err := s.svc.DeleteMember(ctx, id); err != nil {
		fmt.Fprintf(s.out, "Error deleting member: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Deleted member %s\n", id)
}

// ------------------ Circulation ------------------

func (s *shell) handleIssue(ctx context.Context) {
	a, ok := s.askAll("Book ID: ", "Member ID: ")
	if !ok {
		return
	}
	tx, err := s.svc.Issue(ctx, a[0], a[1])
	if err != nil {
		fmt.Fprintf(s.out, "Error issuing book: %v\n", err)
		return
	}
	book, _ := s.svc.GetBookByID(ctx, tx.BookID)
	member, _ := s.svc.GetMemberByID(ctx, tx.MemberID)
	fmt.Fprintf(s.out, "Issued '%s' to %s. Transaction %s, due %s\n",
		book.Title, member.Name, tx.ID, tx.DueDate.Format(time.DateOnly))
}

// handleReturn accepts either a transaction ID or the ID of an issued book.
func (s *shell) handleReturn(ctx context.Context) {
	id, ok := s.ask("Transaction or Book ID: ")
	if !ok {
		return
	}
	tx, err := s.svc.ReturnBook(ctx, id)
	if errors.Is(err, library.ErrTransactionNotFound) {
		tx, err = s.svc.ReturnBookByBookID(ctx, id)
		if errors.Is(err, library.ErrBookNotFound) {
			err = fmt.Errorf("no transaction or book with ID %s", id)
		}
	}
	if err != nil {
		fmt.Fprintf(s.out, "Error returning book: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Book %s returned by member %s\n", tx.BookID, tx.MemberID)
}

func (s *shell) handleListTransactions(ctx context.Context) {
	txs, err := s.svc.GetAllTransactions(ctx)
	if err != nil {
		fmt.Fprintf(s.out, "Error listing transactions: %v\n", err)
		return
	}
	printTransactions(s.out, txs)
}

func (s *shell) handleOverdue(ctx context.Context) {
	txs, err := s.svc.OverdueTransactions(ctx, s.now())
	if err != nil {
		fmt.Fprintf(s.out, "Error listing overdue books: %v\n", err)
		return
	}
	if len(txs) == 0 {
		fmt.Fprintln(s.out, "No overdue books.")
		return
	}
	printTransactions(s.out, txs)
}

func (s *shell) handleStats(ctx context.Context) {
	stats, err := s.svc.Stats(ctx, s.now())
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	printStats(s.out, stats)
}
