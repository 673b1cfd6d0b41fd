package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args, feeding stdin, and returns stdout
// and stderr.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	if args == nil {
		args = []string{} // nil makes cobra fall back to os.Args
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestRootCommand(t *testing.T) {
	cmd := newRootCommand()
	assert.Equal(t, "library", cmd.Use)

	for _, name := range []string{"demo", "stats", "shell"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)
}

func TestDemoOutput(t *testing.T) {
	out, _, err := execute(t, "")
	require.NoError(t, err)
	golden(t).Assert(t, "demo", []byte(out))

	// The explicit subcommand prints the same.
	sub, _, err := execute(t, "", "demo")
	require.NoError(t, err)
	assert.Equal(t, out, sub)
}

func TestDemoOnSQLite(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "library.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("store:\n  driver: sqlite\n"), 0o644))

	out, _, err := execute(t, "", "--config", cfgPath)
	require.NoError(t, err)
	golden(t).Assert(t, "demo", []byte(out))
}

func TestDiskDSNIsRefused(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "library.yaml")
	dbPath := filepath.Join(dir, "library.db")
	require.NoError(t, os.WriteFile(cfgPath, []byte("store:\n  driver: sqlite\n  dsn: "+dbPath+"\n"), 0o644))

	_, _, err := execute(t, "", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in-memory")
	_, statErr := os.Stat(dbPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestDemoJSON(t *testing.T) {
	out, _, err := execute(t, "", "demo", "--format", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"total_books":2,"total_members":2,"books_issued":0}`, out)
}

func TestStatsOutput(t *testing.T) {
	out, _, err := execute(t, "", "stats", "--at", "2025-01-01")
	require.NoError(t, err)
	golden(t).Assert(t, "stats", []byte(out))
}

func TestStatsBadDate(t *testing.T) {
	_, _, err := execute(t, "", "stats", "--at", "yesterday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM-DD")
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, "", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestSeedFlag(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(seed, []byte(`books:
  - {title: Dune, author: Frank Herbert, isbn: "9780441013593"}
  - {title: Emma, author: Jane Austen, isbn: "9780141439587"}
  - {title: Ulysses, author: James Joyce, isbn: "9780199535675"}
members:
  - {name: Dana Scully, email: dana@example.com, phone: 555-1111}
`), 0o644))

	out, _, err := execute(t, "", "stats", "--seed", seed, "--format", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"total_books":3,"total_members":1,"books_issued":0,"books_available":3,"overdue_books":0}`, out)
}

func TestShellSession(t *testing.T) {
	script := strings.Join([]string{
		"add book", "Go Programming", "Alan Donovan", "9780134190440",
		"issue", "B003", "M001",
		"issue", "B003", "M002",
		"delete book", "B003",
		"stats",
		"return", "B003",
		"search book", "donovan",
		"update member", "M002", "", "bob.w@example.com", "",
		"list members",
		"bogus",
		"exit",
		"list books", // never reached
	}, "\n") + "\n"

	out, _, err := execute(t, script, "shell")
	require.NoError(t, err)

	assert.Contains(t, out, "Added book ID B003")
	assert.Contains(t, out, "Issued 'Go Programming' to Alice Johnson.")
	assert.Contains(t, out, "Error issuing book: issue book B003: book is not available for issue")
	assert.Contains(t, out, "Error deleting book: delete book B003: book is currently issued and cannot be deleted")
	assert.Contains(t, out, "Books Issued: 1")
	assert.Contains(t, out, "Book B003 returned by member M001")
	assert.Contains(t, out, "Updated member M002")
	assert.Contains(t, out, "bob.w@example.com")
	assert.Contains(t, out, "Unknown command.")
	assert.True(t, strings.HasSuffix(out, "Goodbye!\n"), "exit stops the loop")

	// Search lists only the new book.
	search := out[strings.Index(out, "Book B003 returned"):]
	assert.Contains(t, search, "Go Programming")
	assert.NotContains(t, search[:strings.Index(search, "Updated member")], "Java Programming")
}

func TestShellReturnUnknownID(t *testing.T) {
	out, _, err := execute(t, "return\nX42\n", "shell")
	require.NoError(t, err)
	assert.Contains(t, out, "Error returning book: no transaction or book with ID X42")
}

func TestShellOnSQLite(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "library.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("store:\n  driver: sqlite\nloan_days: 7\n"), 0o644))

	out, _, err := execute(t, "issue\nB001\nM002\nreturn\nB001\nlist transactions\n", "shell", "-c", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Issued 'Java Programming' to Bob Williams.")
	assert.Contains(t, out, "Book B001 returned by member M002")
	// Column header plus the closed transaction's status.
	assert.Equal(t, 2, strings.Count(out, "Returned"))
}
