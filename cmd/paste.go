package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

func pasteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paste <file> [clip]",
		Short: "Add copied elements to a model, renaming on collision",
		Long:  "Add the script produced by copy to a model. The script is read from clip, or from stdin when clip is omitted or \"-\".",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if len(args) == 1 || args[1] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[1])
			}
			if err != nil {
				return err
			}
			return editWith(cmd, args[0], nil, func(s *session) error {
				if err := s.editor.Clipboard().SetText(string(data)); err != nil {
					return err
				}
				if err := s.editor.Paste(cmd.Context()); err != nil {
					return err
				}
				Good.Fprintf(cmd.OutOrStdout(), "  pasted into %s\n", args[0])
				return nil
			})
		},
	}
}
