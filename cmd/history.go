package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sangar-bot/sangar/internal/store"
)

var (
	historyUserID int64
	historyLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show logged exchanges",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		var entries []store.HistoryEntry
		if historyUserID != 0 {
			entries, err = st.UserHistory(historyUserID, historyLimit)
		} else {
			entries, err = st.GlobalHistory(historyLimit)
		}
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("no history")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("[%s] user %d (%s)\n  > %s\n  < %s\n",
				e.Timestamp.Format("2006-01-02 15:04"), e.UserID, e.MessageType,
				e.MessageText, e.ResponseText)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int64Var(&historyUserID, "user", 0, "limit to one user")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of entries")
	rootCmd.AddCommand(historyCmd)
}
