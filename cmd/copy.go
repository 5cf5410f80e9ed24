package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"flowedit/editor"
)

func copyCmd() *cobra.Command {
	var outputFile string
	cmd := &cobra.Command{
		Use:   "copy <file> <pattern>...",
		Short: "Print the matching elements as a script that paste accepts",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editWith(cmd, args[0], args[1:], func(s *session) error {
				text := editor.CopyText(s.root, s.editor.Selection())
				if outputFile == "" {
					fmt.Fprintln(cmd.OutOrStdout(), text)
					return nil
				}
				return os.WriteFile(outputFile, []byte(text), 0o644)
			})
		},
	}
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	return cmd
}
