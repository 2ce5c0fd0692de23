// Package cli implements the vci-classify command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vci-pathogenicity-calculator/internal/domain"
	"github.com/vci-pathogenicity-calculator/internal/logging"
	"github.com/vci-pathogenicity-calculator/internal/validation"
)

// version is set via -ldflags at build time.
var version = "(devel)"

// ErrInvalidEvaluations is returned when an evaluation set has error-level issues.
var ErrInvalidEvaluations = errors.New("evaluation set has errors")

// NewRootCommand builds the vci-classify command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "vci-classify",
		Short: "ACMG/AMP pathogenicity classification of curated criterion evaluations",
		Long: "vci-classify combines curated ACMG/AMP criterion evaluations into a " +
			"pathogenicity assertion using the Richards et al. 2015 combination rules.",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn, error")

	root.AddCommand(newClassifyCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newCriteriaCmd())
	root.AddCommand(newSetupCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the command line against os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

// newLogger logs to the command's stderr so stdout stays machine readable.
func newLogger(cmd *cobra.Command) *logrus.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	return logging.New(domain.LoggingConfig{Level: level, Format: "text"}, cmd.ErrOrStderr())
}

// readRequest reads an evaluation set, with any modification, from the named
// file, or from stdin when the argument is absent or "-".
func readRequest(cmd *cobra.Command, args []string) (domain.ClassificationRequest, error) {
	var (
		raw []byte
		err error
	)
	if len(args) == 0 || args[0] == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(args[0])
	}
	if err != nil {
		return domain.ClassificationRequest{}, fmt.Errorf("failed to read evaluations: %w", err)
	}
	return validation.ParseRequest(raw)
}
