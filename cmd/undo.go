package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"flowedit/change"
)

func undoCmd() *cobra.Command {
	return replayCmd("undo", "Revert the latest change recorded in the journal",
		func(ctx context.Context, s *session) error { return s.editor.Undo(ctx) })
}

func redoCmd() *cobra.Command {
	return replayCmd("redo", "Reapply the latest undone change",
		func(ctx context.Context, s *session) error { return s.editor.Redo(ctx) })
}

func replayCmd(name, short string, step func(context.Context, *session) error) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   name + " <file>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cfg.Journal.Enabled {
				return errors.New(name + " needs the journal; it is disabled")
			}
			return editWith(cmd, args[0], nil, func(s *session) error {
				done := 0
				for ; done < count; done++ {
					err := step(cmd.Context(), s)
					if errors.Is(err, change.ErrEmptyHistory) {
						break
					}
					if err != nil {
						return err
					}
				}
				if done == 0 {
					Warn.Fprintf(cmd.OutOrStdout(), "  nothing to %s\n", name)
					return nil
				}
				undo, redo := s.queue.UndoStack().Stats()
				Good.Fprintf(cmd.OutOrStdout(), "  %s %d step(s); %d undo, %d redo left\n", name, done, undo, redo)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&count, "steps", "n", 1, "Number of steps")
	return cmd
}
