package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"nia-mentor/internal/console"
)

func newResultsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Browse saved interview results",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved interviews",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := a.store.ListResults()
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				a.println("No saved interviews yet.")
				return nil
			}
			for _, id := range ids {
				r, err := a.store.LoadResult(id)
				if err != nil {
					a.log.WithError(err).WithField("interview_id", id).Warn("skipping unreadable result")
					continue
				}
				grade := r.Grade
				if grade == "" {
					grade = "-"
				}
				a.printf("%s  %s  %s (%s)  grade %s\n", r.InterviewID, r.Timestamp, r.Topic, r.Difficulty, grade)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show a saved interview",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.store.LoadResult(args[0])
			if err != nil {
				return fmt.Errorf("load result: %w", err)
			}
			a.println(console.FormatResult(r))
			return nil
		},
	})
	return cmd
}
