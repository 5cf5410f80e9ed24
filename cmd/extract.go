package cmd

import (
	"github.com/spf13/cobra"
)

func extractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file> <pattern>...",
		Short: "Move the matching elements into a new composite, keeping connectivity",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editWith(cmd, args[0], args[1:], func(s *session) error {
				before := len(s.root.Entities())
				if err := s.editor.Extract(cmd.Context()); err != nil {
					return err
				}
				Good.Fprintf(cmd.OutOrStdout(), "  extracted into a composite (%d top-level entities, was %d)\n",
					len(s.root.Entities()), before)
				return nil
			})
		},
	}
}
