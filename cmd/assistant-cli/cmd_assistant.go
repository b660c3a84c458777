package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"pawsitive-haven/assistant-api/internal/config"
	"pawsitive-haven/assistant-api/internal/infrastructure/logger"
	"pawsitive-haven/assistant-api/internal/infrastructure/openaiclient"
)

var assistantCmd = &cobra.Command{
	Use:   "assistant",
	Short: "Manage the external assistant used by the stateful strategy",
}

var assistantValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that OPENAI_ASSISTANT_ID refers to an existing assistant",
	RunE:  runAssistantValidate,
}

var assistantSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create an assistant with the hardened instructions and file search",
	Long: `Creates an assistant using OPENAI_MODEL, OPENAI_ASSISTANT_NAME and
OPENAI_VECTOR_STORE_ID and prints the id to put in OPENAI_ASSISTANT_ID.`,
	RunE: runAssistantSetup,
}

func init() {
	assistantCmd.AddCommand(assistantValidateCmd)
	assistantCmd.AddCommand(assistantSetupCmd)
	assistantCmd.PersistentFlags().Duration("timeout", 30*time.Second, "Timeout for calls to the AI service")
}

func openAIClient(cmd *cobra.Command) (*openaiclient.Client, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}
	log := cliLogger(cmd)
	return openaiclient.New(openaiclient.Options{
		APIKey:        cfg.OpenAIAPIKey,
		BaseURL:       cfg.OpenAIBaseURL,
		Model:         cfg.OpenAIModel,
		AssistantID:   cfg.OpenAIAssistantID,
		VectorStoreID: cfg.OpenAIVectorStoreID,
		AssistantName: cfg.OpenAIAssistantName,
	}, log), cfg, nil
}

func cliLogger(cmd *cobra.Command) zerolog.Logger {
	level := "warn"
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	log, err := logger.New(level, "console")
	if err != nil {
		return zerolog.Nop()
	}
	return log
}

func runAssistantValidate(cmd *cobra.Command, args []string) error {
	client, cfg, err := openAIClient(cmd)
	if err != nil {
		return err
	}
	if !cfg.StatefulAssistant() {
		fmt.Fprintln(cmd.OutOrStdout(), "OPENAI_ASSISTANT_ID is not set; the server will use stateless completions")
		return nil
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	ok, err := client.ValidateAssistant(ctx)
	if err != nil {
		return fmt.Errorf("validate assistant: %w", err)
	}
	if !ok {
		return fmt.Errorf("assistant %s was not found; run 'assistant-cli assistant setup'", cfg.OpenAIAssistantID)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "assistant %s is valid\n", cfg.OpenAIAssistantID)
	return nil
}

func runAssistantSetup(cmd *cobra.Command, args []string) error {
	client, cfg, err := openAIClient(cmd)
	if err != nil {
		return err
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	id, err := client.SetupAssistant(ctx)
	if err != nil {
		return fmt.Errorf("create assistant: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "created assistant %s (model %s)\n", id, cfg.OpenAIModel)
	if cfg.OpenAIVectorStoreID == "" {
		fmt.Fprintln(out, "warning: OPENAI_VECTOR_STORE_ID is empty, file search has no knowledge base")
	}
	fmt.Fprintf(out, "\nAdd to your environment:\n  OPENAI_ASSISTANT_ID=%s\n", id)
	return nil
}
