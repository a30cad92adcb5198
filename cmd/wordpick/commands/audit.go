package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wordpick/wordpick/cmd/wordpick/internal/format"
)

// NewAuditCommand builds the rule-table self-audit command. It exits
// non-zero when the audit finds hard errors, so it can gate rule edits in
// CI.
func NewAuditCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit the rule tables for conflicts and invalid weights",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := format.ValidateMode(output); err != nil {
				return err
			}
			env, err := envFrom(cmd)
			if err != nil {
				return err
			}

			report := env.rules.Audit()
			f := format.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), format.ParseMode(output), colorEnabled())

			if f.JSONMode() {
				if err := f.PrintJSON(report); err != nil {
					return err
				}
			} else {
				for _, w := range report.Warnings {
					if err := f.PrintWarning(w); err != nil {
						return err
					}
				}
				for _, e := range report.Errors {
					if err := f.PrintError(fmt.Errorf("%s", e)); err != nil {
						return err
					}
				}
				if report.Clean() {
					if err := f.PrintLine("rule tables are clean"); err != nil {
						return err
					}
				}
			}

			if len(report.Errors) > 0 {
				return fmt.Errorf("rule audit found %d error(s)", len(report.Errors))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text | json")

	return cmd
}
