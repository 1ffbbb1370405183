package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sangar",
	Short: "Conversational AI bot engine",
	Long: `Sangar is the intent-analysis and response engine behind a conversational
bot: it detects language, classifies intent, decides when to ground answers
in Google Search, and generates replies through Gemini. Run it as an HTTP
service or talk to it one message at a time from the terminal.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.sangar.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug output")
	rootCmd.PersistentFlags().String("gemini-api-key", "", "Gemini API key (or set SANGAR_GEMINI_API_KEY)")
	rootCmd.PersistentFlags().String("gemini-model", "", "Gemini model name")
	rootCmd.PersistentFlags().String("db-path", "", "SQLite database path")
	rootCmd.PersistentFlags().Int("grounding-threshold", 0, "score needed before answers are grounded in search")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("gemini.api_key", rootCmd.PersistentFlags().Lookup("gemini-api-key"))
	viper.BindPFlag("gemini.model", rootCmd.PersistentFlags().Lookup("gemini-model"))
	viper.BindPFlag("db.path", rootCmd.PersistentFlags().Lookup("db-path"))
	viper.BindPFlag("ai.grounding_threshold", rootCmd.PersistentFlags().Lookup("grounding-threshold"))

	viper.SetDefault("gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.grounding_threshold", 2)
	viper.SetDefault("ai.fallback_language", "indonesian")
	viper.SetDefault("ai.max_reply_chars", 10000)
	viper.SetDefault("ai.max_image_reply_chars", 4000)
	viper.SetDefault("conversation.max_context_messages", 10)
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("db.path", "sangar.db")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".sangar")
	}

	viper.SetEnvPrefix("SANGAR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("debug") {
			fmt.Println("Using config file:", viper.ConfigFileUsed())
		}
	}
}
