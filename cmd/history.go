package cmd

import (
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"flowedit/journal"
)

func historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history <file>",
		Short: "List the changes applied to a model, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cfg.Journal.Enabled {
				return errors.New("history needs the journal; it is disabled")
			}
			doc, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			j, err := journal.Open(cfg.Journal.Path)
			if err != nil {
				return err
			}
			defer j.Close()

			records, err := j.History(cmd.Context(), doc, limit)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(records) == 0 {
				Subtle.Fprintln(w, "  no recorded changes")
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, r := range records {
				outcome := Good.Sprint(r.Outcome)
				if r.Outcome == journal.OutcomeFailed {
					outcome = Bad.Sprint(r.Outcome)
				}
				rows = append(rows, []string{r.At.Format("2006-01-02 15:04:05"), r.Description, outcome, r.Error})
			}
			table(w, []string{"TIME", "CHANGE", "OUTCOME", "ERROR"}, rows)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of records (0 for all)")
	return cmd
}
