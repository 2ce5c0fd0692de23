package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vci-pathogenicity-calculator/internal/domain"
	"github.com/vci-pathogenicity-calculator/internal/validation"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file|-]",
		Short: "Check an evaluation set without classifying it",
		Long: "Reports unknown or retired criteria, invalid statuses and modifiers, " +
			"duplicate codes, mutually exclusive criteria and modifications without " +
			"a reason. Exits non-zero when " +
			"any error-level issue is found.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readRequest(cmd, args)
			if err != nil {
				return err
			}

			issues := validation.AuditRequest(req)
			out := cmd.OutOrStdout()
			if len(issues) == 0 {
				fmt.Fprintf(out, "OK: %d evaluations, no issues\n", len(req.Evaluations))
				return nil
			}
			for _, issue := range issues {
				fmt.Fprintln(out, issue)
			}
			if domain.HasErrors(issues) {
				return ErrInvalidEvaluations
			}
			return nil
		},
	}
}
