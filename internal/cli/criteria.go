package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vci-pathogenicity-calculator/internal/domain"
	"github.com/vci-pathogenicity-calculator/internal/service"
)

func newCriteriaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "criteria",
		Short: "List the ACMG/AMP criteria and combination rules",
		Args:  cobra.NoArgs,
		RunE:  runCriteria,
	}
	cmd.Flags().String("side", "", "Only list pathogenic or benign criteria")
	cmd.Flags().Bool("rules", false, "List the combination rules instead of the criteria")
	cmd.Flags().Bool("json", false, "Print JSON")
	return cmd
}

func runCriteria(cmd *cobra.Command, _ []string) error {
	sideFlag, _ := cmd.Flags().GetString("side")
	side := domain.Side(strings.ToLower(sideFlag))
	if side != "" && !side.IsValid() {
		return fmt.Errorf("unknown side %q: expected pathogenic or benign", sideFlag)
	}
	asJSON, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()

	if rules, _ := cmd.Flags().GetBool("rules"); rules {
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RULE\tCATEGORY")
		for _, r := range service.CombinationRules() {
			fmt.Fprintf(w, "%s\t%s\n", r.Name, r.Category)
		}
		return w.Flush()
	}

	var criteria []domain.Criterion
	for _, c := range domain.Criteria() {
		if side == "" || c.Side == side {
			criteria = append(criteria, c)
		}
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(criteria)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tSIDE\tDEFAULT\tMODIFIERS\tDESCRIPTION")
	for _, c := range criteria {
		mods := make([]string, 0, len(c.AllowedModifiers))
		for _, m := range c.AllowedModifiers {
			mods = append(mods, string(m))
		}
		desc := c.Description
		if c.Retired {
			desc = "(retired) " + desc
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.Code, c.Side, c.DefaultStrength, strings.Join(mods, ","), desc)
	}
	return w.Flush()
}
