package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.Stats()
		if err != nil {
			return err
		}

		fmt.Printf("users:            %d\n", stats.TotalUsers)
		fmt.Printf("registered users: %d\n", stats.RegisteredUsers)
		fmt.Printf("messages logged:  %d\n", stats.TotalMessages)
		fmt.Printf("active keywords:  %d\n", stats.TotalKeywords)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
