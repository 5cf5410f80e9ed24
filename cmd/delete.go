package cmd

import (
	"github.com/spf13/cobra"
)

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <file> <pattern>...",
		Aliases: []string{"rm"},
		Short:   "Delete the matching elements and the links they leave dangling",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editWith(cmd, args[0], args[1:], func(s *session) error {
				if err := s.editor.Delete(cmd.Context()); err != nil {
					return err
				}
				Good.Fprintf(cmd.OutOrStdout(), "  deleted from %s\n", args[0])
				return nil
			})
		},
	}
}
