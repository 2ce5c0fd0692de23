package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vci-pathogenicity-calculator/internal/domain"
	"github.com/vci-pathogenicity-calculator/internal/service"
)

func newClassifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify [file|-]",
		Short: "Classify an evaluation set",
		Long: "Reads a JSON array of evaluations, or an {\"evaluations\": [...], \"modification\": {...}} " +
			"document, and prints the classification.",
		Args: cobra.MaximumNArgs(1),
		RunE: runClassify,
	}
	cmd.Flags().Bool("strict", false, "Reject evaluation sets with error-level issues")
	cmd.Flags().Bool("summary", false, "Print a short human-readable summary instead of JSON")
	cmd.Flags().String("modify", "", "Report this classification instead of the calculated one")
	cmd.Flags().String("reason", "", "Reason for --modify")
	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	req, err := readRequest(cmd, args)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("modify") {
		altered, _ := cmd.Flags().GetString("modify")
		reason, _ := cmd.Flags().GetString("reason")
		req.Modification = &domain.Modification{AlteredClassification: domain.Assertion(altered), Reason: reason}
	}

	strict, _ := cmd.Flags().GetBool("strict")
	classifier := service.NewClassifierService(newLogger(cmd), service.WithStrictValidation(strict))

	classification, err := classifier.ClassifyRequest(cmd.Context(), req)
	if err != nil {
		return err
	}

	if summary, _ := cmd.Flags().GetBool("summary"); summary {
		printSummary(cmd, classification)
		return nil
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(classification)
}

func printSummary(cmd *cobra.Command, c *domain.Classification) {
	out := cmd.OutOrStdout()
	if c.Result == nil {
		fmt.Fprintln(out, "Assertion: (none, no evaluations)")
		if c.Modification != nil {
			fmt.Fprintf(out, "Modified: %s (%s)\n", c.EffectiveClassification, c.Modification.Reason)
		}
		return
	}

	fmt.Fprintf(out, "Assertion: %s\n", c.Result.Assertion)
	if c.Modification != nil {
		fmt.Fprintf(out, "Modified: %s (%s)\n", c.EffectiveClassification, c.Modification.Reason)
	}
	fmt.Fprintf(out, "Met: %s\n", orNone(c.MetCriteria))
	fmt.Fprintf(out, "Rules: %s\n", orNone(c.FiredRules))
	fmt.Fprintf(out, "Pathogenic: %s\n", formatCounts(c.Counts, domain.PathogenicBuckets))
	fmt.Fprintf(out, "Benign: %s\n", formatCounts(c.Counts, domain.BenignBuckets))
	for _, w := range c.Warnings {
		fmt.Fprintf(out, "Warning: %s\n", w)
	}
}

func formatCounts(counts domain.StrengthCounts, buckets []domain.Bucket) string {
	parts := make([]string, 0, len(buckets))
	for _, b := range buckets {
		parts = append(parts, fmt.Sprintf("%s=%d", b.Key(), counts.Get(b)))
	}
	return strings.Join(parts, " ")
}

func orNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
