package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"flowedit/moml"
	"flowedit/validation"
)

func checkCmd() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Check a model for broken links, anchors and prototypes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := os.Open(args[0])
			if err != nil {
				return err
			}
			root, err := moml.Load(in)
			in.Close()
			if err != nil {
				return err
			}

			v := validation.NewValidator()
			v.SetStrictMode(strict)
			findings := v.Validate(root)
			w := cmd.OutOrStdout()
			for _, f := range findings {
				c := Warn
				if f.Severity == validation.SeverityError {
					c = Bad
				}
				c.Fprintf(w, "  %s\n", f)
			}
			if validation.HasErrors(findings) {
				return errors.New("model is invalid")
			}
			Good.Fprintf(w, "  %s is valid", args[0])
			if len(findings) > 0 {
				fmt.Fprintf(w, " (%d warnings)", len(findings))
			}
			fmt.Fprintln(w)
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Also report warnings")
	return cmd
}
