// Changelog commands: inspect, commit and discard staged changes.
package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/shelf/pkg/sqlite"
	"github.com/mesh-intelligence/shelf/pkg/types"
)

func newChangesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "changes",
		Short: "List staged changes in replay order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *sqlite.Store) error {
				events, err := s.Changes().List(s.DB())
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), a.format(), events, func(w io.Writer) error {
					return printEvents(w, events)
				})
			})
		},
	}
}

func printEvents(w io.Writer, events []types.Event) error {
	if len(events) == 0 {
		_, err := fmt.Fprintln(w, "No staged changes.")
		return err
	}
	rows := make([][]string, len(events))
	for i, ev := range events {
		applied := ""
		if ev.Applied {
			applied = "yes"
		}
		rows[i] = []string{
			strconv.FormatInt(ev.Seq, 10),
			ev.Timestamp.Format(time.RFC3339),
			string(ev.Change.Operation),
			string(ev.Change.Kind),
			truncate(ev.Change.ID, 50),
			applied,
		}
	}
	if err := printTable(w, []string{"SEQ", "TIME", "OP", "KIND", "ID", "APPLIED"}, rows); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Total: %d change(s)\n", len(events))
	return err
}

// commitOutput is the structured form of a commit report.
type commitOutput struct {
	State   string `json:"state" yaml:"state"`
	Applied int    `json:"applied" yaml:"applied"`
	Skipped int    `json:"skipped" yaml:"skipped"`
}

func newCommitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "commit",
		Short: "Write staged changes to the CSV files",
		Long: `Commit replays the staged changes into the package's CSV files in the order
they were made, then clears the staging ring. A commit that fails part way
can be run again; changes already written are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *sqlite.Store) error {
				report, err := s.Commit()
				if err != nil {
					return err
				}
				out := commitOutput{State: report.State.String(), Applied: report.Applied, Skipped: report.Skipped}
				return render(cmd.OutOrStdout(), a.format(), out, func(w io.Writer) error {
					if report.Applied+report.Skipped == 0 {
						_, err := fmt.Fprintln(w, "Nothing to commit.")
						return err
					}
					_, err := fmt.Fprintf(w, "Committed %d change(s)\n", report.Applied+report.Skipped)
					return err
				})
			})
		},
	}
}

func newDiscardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "discard",
		Short: "Drop all staged changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *sqlite.Store) error {
				if err := s.Discard(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Discarded staged changes")
				return nil
			})
		},
	}
}
