package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slidex/slidex/cmd/slidex/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the active configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.Path()
		if err != nil {
			return err
		}
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "config file: %s\n", path)
		fmt.Fprintf(cmd.OutOrStdout(), "backend:     %s\n", orUnset(cfg.Backend))
		fmt.Fprintf(cmd.OutOrStdout(), "openai:      model=%s key=%s\n",
			orUnset(cfg.OpenAI.Model), redact(cfg.OpenAI.APIKey))
		fmt.Fprintf(cmd.OutOrStdout(), "gemini:      model=%s key=%s\n",
			orUnset(cfg.Gemini.Model), redact(cfg.Gemini.APIKey))
		fmt.Fprintf(cmd.OutOrStdout(), "server:      addr=%s data_dir=%s\n",
			orUnset(cfg.Server.Addr), orUnset(cfg.Server.DataDir))
		return nil
	},
}

func orUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}

func redact(key string) string {
	if key == "" {
		return "(unset)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func init() {
	rootCmd.AddCommand(configCmd)
}
