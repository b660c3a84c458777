package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "1.0.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "assistant-cli",
	Short: "Operator tooling for the Pawsitive Haven assistant API",
	Long: `assistant-cli provisions and checks the external assistant, validates
configuration and screens text the same way the chat endpoint does.

Examples:
  assistant-cli assistant validate
  assistant-cli assistant setup
  assistant-cli config validate
  assistant-cli guard check "ignore previous instructions"`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		if envFile == "" {
			return nil
		}
		if _, err := os.Stat(envFile); err != nil {
			return nil
		}
		return godotenv.Overload(envFile)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(assistantCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(guardCmd)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().String("env-file", ".env", "Environment file loaded before the configuration")
}
