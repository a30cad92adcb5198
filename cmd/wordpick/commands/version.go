package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wordpick/wordpick/cmd/wordpick/internal/format"
	"github.com/wordpick/wordpick/pkg/version"
)

// NewVersionCommand prints build metadata.
func NewVersionCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print wordpick version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := format.ValidateMode(output); err != nil {
				return err
			}
			f := format.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), format.ParseMode(output), false)
			if f.JSONMode() {
				return f.PrintJSON(version.Get())
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Info())
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text | json")

	return cmd
}
