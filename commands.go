package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"library-service/config"
	"library-service/library"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	ConfigPath string
	Format     string // "text" | "json"
	Seed       string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "library",
		Short:         "In-memory library record keeping",
		Long:          "Tracks books, members and borrow/return transactions in memory and reports simple counts.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")
	cmd.PersistentFlags().StringVar(&opts.Seed, "seed", "", "YAML file of books and members to start with (default: demo data)")

	cmd.AddCommand(newDemoCommand(opts))
	cmd.AddCommand(newStatsCommand(opts))
	cmd.AddCommand(newShellCommand(opts))

	return cmd
}

func newDemoCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Load the sample books and members and print the counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd, opts)
		},
	}
}

// demoCounts is the JSON shape of the demo output.
type demoCounts struct {
	TotalBooks   int `json:"total_books"`
	TotalMembers int `json:"total_members"`
	BooksIssued  int `json:"books_issued"`
}

func runDemo(cmd *cobra.Command, opts *rootOptions) error {
	ctx := cmd.Context()
	svc, err := openLibrary(ctx, cmd, opts)
	if err != nil {
		return err
	}
	defer svc.Close()

	var counts demoCounts
	if counts.TotalBooks, err = svc.GetTotalBooks(ctx); err != nil {
		return err
	}
	if counts.TotalMembers, err = svc.GetTotalMembers(ctx); err != nil {
		return err
	}
	if counts.BooksIssued, err = svc.GetBooksIssued(ctx); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		return writeJSON(out, counts)
	}
	fmt.Fprintln(out, "Library Management System")
	fmt.Fprintf(out, "Total Books: %d\n", counts.TotalBooks)
	fmt.Fprintf(out, "Total Members: %d\n", counts.TotalMembers)
	fmt.Fprintf(out, "Books Issued: %d\n", counts.BooksIssued)
	return nil
}

func newStatsCommand(opts *rootOptions) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print totals, issued, available and overdue counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			when := time.Now()
			if at != "" {
				parsed, err := time.Parse(time.DateOnly, at)
				if err != nil {
					return fmt.Errorf("invalid --at %q: want YYYY-MM-DD", at)
				}
				when = parsed
			}

			ctx := cmd.Context()
			svc, err := openLibrary(ctx, cmd, opts)
			if err != nil {
				return err
			}
			defer svc.Close()

			stats, err := svc.Stats(ctx, when)
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			printStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "date for overdue checks (YYYY-MM-DD, default today)")
	return cmd
}

// openLibrary loads config, opens the configured store and fills it from the
// seed file, or with the demo data when none is set.
func openLibrary(ctx context.Context, cmd *cobra.Command, opts *rootOptions) (*library.Service, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	logger := cfg.Log.NewLogger(cmd.ErrOrStderr())

	store, err := library.OpenStore(cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return nil, err
	}
	svc := library.NewService(store,
		library.WithLogger(logger),
		library.WithLoanPeriod(cfg.LoanPeriod()))

	seedPath := opts.Seed
	if seedPath == "" {
		seedPath = cfg.Seed
	}
	seed := library.DemoSeed()
	if seedPath != "" {
		if seed, err = library.LoadSeed(seedPath); err != nil {
			svc.Close()
			return nil, err
		}
	}

	results, err := svc.ApplySeed(ctx, seed)
	if err != nil {
		// Duplicate or broken entries are skipped, the rest is usable.
		for _, r := range results {
			if r.Err != nil {
				logger.Warn("seed entry skipped", "kind", r.Kind, "id", r.ID, "error", r.Err)
			}
		}
	}
	logger.Debug("library ready", "store", cfg.Store.Driver, "seed", seedPath, "entries", len(results))
	return svc, nil
}
