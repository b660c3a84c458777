package main

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"pawsitive-haven/assistant-api/internal/domain/guard"
)

var guardCmd = &cobra.Command{
	Use:   "guard",
	Short: "Screen text with the chat input guard",
}

var guardCheckCmd = &cobra.Command{
	Use:   "check [text]",
	Short: "Show how a message would be sanitized and classified",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGuardCheck,
}

func init() {
	guardCmd.AddCommand(guardCheckCmd)
	guardCheckCmd.Flags().Int("max-length", 2000, "Maximum message length")
}

func runGuardCheck(cmd *cobra.Command, args []string) error {
	maxLength, _ := cmd.Flags().GetInt("max-length")
	detector := guard.NewDetector(guard.NewSanitizer(), maxLength, zerolog.Nop())

	result, finding := detector.ValidateWithFinding(strings.Join(args, " "))
	out := cmd.OutOrStdout()
	if result.IsAccepted() {
		fmt.Fprintf(out, "accepted\nsanitized: %q\n", result.Text())
		return nil
	}
	fmt.Fprintf(out, "rejected (%s)\nmessage: %s\n", result.Reason(), result.Message())
	if finding.Category != "" {
		fmt.Fprintf(out, "category: %s\n", finding.Category)
	}
	return nil
}
