package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"flowedit/export"
	"flowedit/moml"
)

func showCmd() *cobra.Command {
	var (
		format     string
		outputFile string
	)
	cmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Print a model in one of the export formats",
		Long:  "Print a model. Formats: " + formatList(),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			exporter, err := export.NewExporter(f)
			if err != nil {
				return err
			}
			in, err := os.Open(args[0])
			if err != nil {
				return err
			}
			root, err := moml.Load(in)
			in.Close()
			if err != nil {
				return err
			}
			out, err := exporter.Export(root)
			if err != nil {
				return err
			}
			if outputFile == "" {
				fmt.Fprint(cmd.OutOrStdout(), out)
				return nil
			}
			if err := os.WriteFile(outputFile, []byte(out), 0o644); err != nil {
				return err
			}
			Good.Fprintf(cmd.ErrOrStderr(), "  wrote %s (%s)\n", outputFile, exporter.GetFormatName())
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatMoML), "Output format")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func formatList() string {
	descriptions := export.GetFormatDescriptions()
	var parts []string
	for _, f := range export.GetAvailableFormats() {
		parts = append(parts, fmt.Sprintf("%s (%s)", f, descriptions[f]))
	}
	return strings.Join(parts, ", ")
}
