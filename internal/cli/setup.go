package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vci-pathogenicity-calculator/internal/setup"
)

func newSetupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Register the MCP server with Claude Desktop",
	}
	cmd.PersistentFlags().String("config", "", "Desktop config file (default: platform location)")

	register := &cobra.Command{
		Use:   "register",
		Short: "Add or update the classifier entry in the desktop config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			binary, _ := cmd.Flags().GetString("binary")
			strict, _ := cmd.Flags().GetBool("strict")
			level, _ := cmd.Flags().GetString("server-log-level")

			path, err := setup.Register(setup.Options{
				ConfigPath:       configPath,
				BinaryPath:       binary,
				StrictValidation: strict,
				LogLevel:         level,
			})
			if err != nil {
				return fmt.Errorf("failed to register MCP server: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %q in %s\nRestart Claude Desktop to load it.\n", setup.ServerName, path)
			return nil
		},
	}
	register.Flags().String("binary", "", "Path to vci-mcp-server (default: search PATH and common locations)")
	register.Flags().Bool("strict", false, "Run the server with strict validation")
	register.Flags().String("server-log-level", "", "Log level for the server")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show whether the classifier is registered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			st, err := setup.GetStatus(configPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config: %s\n", st.ConfigPath)
			if !st.Registered {
				fmt.Fprintln(out, "Status: not registered")
			} else {
				fmt.Fprintf(out, "Status: registered\nBinary: %s\nStrict: %t\n", st.ServerPath, st.Strict)
			}
			for _, issue := range st.Issues {
				fmt.Fprintf(out, "Issue: %s\n", issue)
			}
			return nil
		},
	}

	cmd.AddCommand(register, status)
	return cmd
}
