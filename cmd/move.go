package cmd

import (
	"github.com/spf13/cobra"
)

func moveCmd() *cobra.Command {
	var dx, dy float64
	cmd := &cobra.Command{
		Use:   "move <file> <pattern>...",
		Short: "Move the matching elements; relative locations attach and detach as when dragging",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editWith(cmd, args[0], args[1:], func(s *session) error {
				if err := s.editor.Move(cmd.Context(), dx, dy); err != nil {
					return err
				}
				Good.Fprintf(cmd.OutOrStdout(), "  moved by (%g, %g)\n", dx, dy)
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&dx, "dx", 0, "Horizontal displacement")
	cmd.Flags().Float64Var(&dy, "dy", 0, "Vertical displacement")
	return cmd
}
