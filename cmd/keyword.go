package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sangar-bot/sangar/internal/store"
)

var keywordCmd = &cobra.Command{
	Use:   "keyword",
	Short: "Manage keyword replies",
	Long:  `Keyword replies answer matching chat messages directly, without the model.`,
}

var keywordAddCmd = &cobra.Command{
	Use:   "add [keyword] [response...]",
	Short: "Add or update a keyword reply",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.AddKeyword(args[0], strings.Join(args[1:], " "), 0); err != nil {
			return err
		}
		fmt.Printf("keyword %q saved\n", strings.ToLower(args[0]))
		return nil
	},
}

var keywordDelCmd = &cobra.Command{
	Use:   "del [keyword]",
	Short: "Delete a keyword reply",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		err = st.DeleteKeyword(args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("keyword %q not found", args[0])
		}
		if err != nil {
			return err
		}
		fmt.Printf("keyword %q deleted\n", strings.ToLower(args[0]))
		return nil
	},
}

var keywordListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all keyword replies",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		kws, err := st.AllKeywords()
		if err != nil {
			return err
		}
		if len(kws) == 0 {
			fmt.Println("no keywords configured")
			return nil
		}
		for _, k := range kws {
			active := ""
			if !k.IsActive {
				active = " (inactive)"
			}
			fmt.Printf("%-20s used %d times%s\n  %s\n", k.Keyword, k.UsageCount, active, k.Response)
		}
		return nil
	},
}

func init() {
	keywordCmd.AddCommand(keywordAddCmd)
	keywordCmd.AddCommand(keywordDelCmd)
	keywordCmd.AddCommand(keywordListCmd)
	rootCmd.AddCommand(keywordCmd)
}
