package cli

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/glados/internal/contentkey"
	"github.com/roach88/glados/internal/store"
)

// DefaultHistoryLimit is how many audits history shows without --limit.
const DefaultHistoryLimit = 20

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// AuditRecord is one audit as shown by the history command.
type AuditRecord struct {
	ID           int64     `json:"id"`
	ContentKeyID int64     `json:"content_key_id"`
	ContentKey   string    `json:"content_key"`
	ContentID    string    `json:"content_id,omitempty"`
	Passed       bool      `json:"passed"`
	CreatedAt    time.Time `json:"created_at"`
}

// HistoryResult holds the history output.
type HistoryResult struct {
	Audits []AuditRecord `json:"audits"`
	Passed int           `json:"passed"`
	Failed int           `json:"failed"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent audit results",
		Long: `Show the most recent audits recorded in the database, newest first.

Examples:
  glados-audit history --db ./glados.db
  glados-audit history --db ./glados.db --limit 50 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", DefaultHistoryLimit, "maximum number of audits to show")

	return cmd
}

// Error codes reported in the JSON error envelope.
const (
	ErrCodeInvalidLimit     = "INVALID_LIMIT"
	ErrCodeDatabaseNotFound = "DATABASE_NOT_FOUND"
	ErrCodeDatabaseOpen     = "DATABASE_OPEN_FAILED"
	ErrCodeListAudits       = "LIST_AUDITS_FAILED"
)

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Limit <= 0 {
		return outputHistoryError(formatter, ErrCodeInvalidLimit,
			fmt.Sprintf("--limit must be positive, got %d", opts.Limit), nil)
	}

	// Opening would create an empty database; a typo should fail instead.
	if _, err := os.Stat(opts.Database); err != nil {
		return outputHistoryError(formatter, ErrCodeDatabaseNotFound, "database not found", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return outputHistoryError(formatter, ErrCodeDatabaseOpen, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	views, err := st.ListAudits(ctx, opts.Limit)
	if err != nil {
		return outputHistoryError(formatter, ErrCodeListAudits, "failed to list audits", err)
	}

	result := buildHistory(views)
	formatter.VerboseLog("read %d audits from %s", len(result.Audits), opts.Database)

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return outputHistoryText(cmd.OutOrStdout(), result, opts.Verbose)
}

// outputHistoryError writes the JSON error envelope when --format json is set
// and returns a command-level error (exit code 2). Text mode leaves reporting
// to the caller of Execute.
func outputHistoryError(formatter *OutputFormatter, code, message string, err error) error {
	if formatter.Format == "json" {
		var details interface{}
		if err != nil {
			details = err.Error()
		}
		_ = formatter.Error(code, message, details)
	}
	return WrapExitError(ExitCommandError, message, err)
}

func buildHistory(views []store.AuditView) HistoryResult {
	result := HistoryResult{Audits: make([]AuditRecord, 0, len(views))}
	for _, v := range views {
		rec := AuditRecord{
			ID:           v.ID,
			ContentKeyID: v.ContentKeyID,
			ContentKey:   "0x" + hex.EncodeToString(v.ContentKey),
			Passed:       v.Passed,
			CreatedAt:    v.CreatedAt.UTC(),
		}
		if key, err := contentkey.FromRaw(v.ContentKey); err == nil {
			rec.ContentID = key.ContentIDHex()
		}
		if v.Passed {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Audits = append(result.Audits, rec)
	}
	return result
}

func outputHistoryText(w io.Writer, result HistoryResult, verbose bool) error {
	if len(result.Audits) == 0 {
		fmt.Fprintln(w, "No audits recorded.")
		return nil
	}

	fmt.Fprintf(w, "Recent Audits (%d)\n", len(result.Audits))
	fmt.Fprintln(w)

	for _, rec := range result.Audits {
		fmt.Fprintf(w, "  [%d] %s %s %s\n",
			rec.ID, passLabel(rec.Passed), rec.CreatedAt.Format(time.RFC3339), rec.ContentKey)
		if verbose && rec.ContentID != "" {
			fmt.Fprintf(w, "       Content ID: %s\n", rec.ContentID)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Passed: %d  Failed: %d\n", result.Passed, result.Failed)
	return nil
}

func passLabel(passed bool) string {
	if passed {
		return "PASS"
	}
	return "FAIL"
}
