package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sangar-bot/sangar/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Starts the HTTP JSON API: POST /chat for the full response pipeline plus
the admin endpoints for users, keywords, history and conversation settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log, err := newLogger()
		if err != nil {
			return err
		}
		defer log.Sync()

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		core, modelName := buildCore(ctx, log)
		server := api.New(st, core, modelName, log)

		return server.ListenAndServe(ctx, viper.GetString("server.addr"))
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	rootCmd.AddCommand(serveCmd)
}
