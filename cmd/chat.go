package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sangar-bot/sangar/internal/ai"
	"github.com/sangar-bot/sangar/internal/conversation"
)

var chatUserID int64

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send one message through the response pipeline",
	Long: `Runs a single message through the full pipeline: keyword match, intent
analysis, grounding decision and Gemini generation. With --user the stored
conversation context is used and the exchange is recorded.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		message := strings.Join(args, " ")

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

		ctx := context.Background()
		core, _ := buildCore(ctx, log)

		if reply, err := st.KeywordResponse(message); err == nil {
			fmt.Println(reply)
			return nil
		}

		var (
			user    *ai.UserInfo
			history []ai.ConversationTurn
		)
		if chatUserID != 0 {
			if u, err := st.GetUser(chatUserID); err == nil {
				user = &ai.UserInfo{ID: u.ID, FirstName: u.FirstName, IsAdmin: u.IsAdmin}
			} else {
				user = &ai.UserInfo{ID: chatUserID}
			}
			if st.ContextEnabled(chatUserID) && conversation.ShouldIncludeContext(message) {
				turns, err := st.ConversationContext(chatUserID, 0)
				if err == nil {
					for _, t := range conversation.RelevantContext(turns, message, st.ContextLimit(chatUserID)) {
						history = append(history, ai.ConversationTurn{MessageText: t.MessageText, ResponseText: t.ResponseText})
					}
				}
			}
		}

		reply, err := core.GenerateReply(ctx, message, user, history)
		if err != nil {
			return fmt.Errorf("generate reply: %w", err)
		}

		if chatUserID != 0 {
			if err := st.LogMessage(chatUserID, message, reply, "ai"); err != nil {
				log.Errorw("log message failed", "error", err)
			}
			if st.ContextEnabled(chatUserID) {
				if err := st.AppendConversation(chatUserID, message, reply); err != nil {
					log.Errorw("append conversation failed", "error", err)
				}
			}
		}

		fmt.Println(reply)
		return nil
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [message]",
	Short: "Show the intent analysis for a message without calling the model",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		message := strings.Join(args, " ")

		analyzer := ai.NewAnalyzer("")
		analysis := analyzer.AnalyzeIntent(message, "")
		engine := ai.NewGroundingEngine(coreConfig().GroundingThreshold)
		ground, score := engine.ShouldGround(analysis, message)

		fmt.Printf("language:   %s (%.2f)\n", analysis.Language, analysis.Confidence)
		fmt.Printf("intent:     %s\n", analysis.PrimaryIntent)
		fmt.Printf("complexity: %s\n", analysis.Complexity)
		fmt.Printf("style:      %s/%s/%s\n", analysis.Style.Length, analysis.Style.Tone, analysis.Style.Format)
		fmt.Printf("grounding:  %v (score %d, threshold %d)\n", ground, score, engine.Threshold())
		if det := analyzer.DetectCommand(message); det != nil {
			fmt.Printf("command:    %s (%.2f, explicit=%v)\n", det.Command, det.Confidence, det.Explicit)
		}
		return nil
	},
}

func init() {
	chatCmd.Flags().Int64Var(&chatUserID, "user", 0, "user ID for context and history logging")
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(analyzeCmd)
}
