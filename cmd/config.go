package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage sangar configuration",
	Long:  `Configure sangar settings including the Gemini API key and pipeline tunables.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file",
	Long:  `Create a default configuration file in your home directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("error finding home directory: %w", err)
		}

		configPath := filepath.Join(home, ".sangar.yaml")

		if _, err := os.Stat(configPath); err == nil {
			fmt.Printf("Configuration file already exists at %s\n", configPath)
			return nil
		}

		defaultConfig := `# Sangar Configuration

gemini:
  api_key: your_gemini_api_key_here
  model: gemini-2.5-flash

ai:
  # Language used when detection scores too low.
  fallback_language: indonesian
  # Score a message needs before replies are grounded in Google Search.
  grounding_threshold: 2
  max_reply_chars: 10000
  max_image_reply_chars: 4000

conversation:
  max_context_messages: 10

db:
  path: sangar.db

server:
  addr: ":8080"

debug: false
`

		if err := os.WriteFile(configPath, []byte(defaultConfig), 0o600); err != nil {
			return fmt.Errorf("error writing config file: %w", err)
		}

		fmt.Printf("Configuration file created at %s\n", configPath)
		fmt.Println("Edit it to add your Gemini API key.")
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if file := viper.ConfigFileUsed(); file != "" {
			fmt.Printf("config file: %s\n", file)
		} else {
			fmt.Println("config file: (none, using defaults)")
		}

		key := viper.GetString("gemini.api_key")
		keyStatus := "not set"
		if key != "" && key != "your_gemini_api_key_here" {
			keyStatus = "set"
		}

		fmt.Printf("gemini.model:                       %s\n", viper.GetString("gemini.model"))
		fmt.Printf("gemini.api_key:                     %s\n", keyStatus)
		fmt.Printf("ai.fallback_language:               %s\n", viper.GetString("ai.fallback_language"))
		fmt.Printf("ai.grounding_threshold:             %d\n", viper.GetInt("ai.grounding_threshold"))
		fmt.Printf("ai.max_reply_chars:                 %d\n", viper.GetInt("ai.max_reply_chars"))
		fmt.Printf("ai.max_image_reply_chars:           %d\n", viper.GetInt("ai.max_image_reply_chars"))
		fmt.Printf("conversation.max_context_messages:  %d\n", viper.GetInt("conversation.max_context_messages"))
		fmt.Printf("db.path:                            %s\n", viper.GetString("db.path"))
		fmt.Printf("server.addr:                        %s\n", viper.GetString("server.addr"))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
