package main

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/cobra"

	"pawsitive-haven/assistant-api/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and validate the environment configuration",
	RunE:  runConfigValidate,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets masked",
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	strategy := "stateless"
	if cfg.StatefulAssistant() {
		strategy = "stateful"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "configuration is valid (reply strategy: %s)\n", strategy)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	for _, line := range describeConfig(cfg) {
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}

// describeConfig renders ENV=value lines in struct order.
func describeConfig(cfg *config.Config) []string {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()
	lines := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name := t.Field(i).Tag.Get("env")
		if name == "" {
			continue
		}
		value := fmt.Sprint(v.Field(i).Interface())
		if isSecret(name) {
			value = mask(value)
		}
		lines = append(lines, name+"="+value)
	}
	return lines
}

func isSecret(name string) bool {
	for _, marker := range []string{"KEY", "SECRET", "DSN", "REDIS_URL", "WEBHOOK"} {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

func mask(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return "****"
	}
	return value[:2] + strings.Repeat("*", 6) + value[len(value)-2:]
}
