package ai

import (
	"fmt"
	"strings"
	"unicode"
)

// UserInfo is the caller-supplied context about who is talking.
type UserInfo struct {
	ID        int64
	FirstName string
	IsAdmin   bool
}

// ConversationTurn is one prior exchange, oldest first in history slices.
type ConversationTurn struct {
	MessageText  string
	ResponseText string
}

// historyWindow is how many trailing turns make it into the prompt.
const historyWindow = 5

var lengthInstructions = map[string]string{
	LengthShort:  "Give a brief, direct answer in 1-2 sentences.",
	LengthMedium: "Provide a clear, informative response in 2-4 sentences.",
	LengthLong:   "Give a comprehensive explanation with details and examples.",
}

// stylePrompt renders the language directive and the style block. The
// directive always comes first; downstream assembly must never drop it.
func stylePrompt(analysis IntentAnalysis, isImage bool) string {
	var b strings.Builder

	b.WriteString(languageDirective(analysis.Language))
	b.WriteString("\n\n")
	b.WriteString("RESPONSE STYLE:\n")
	fmt.Fprintf(&b, "- Length: %s\n", lengthInstructions[analysis.Style.Length])
	fmt.Fprintf(&b, "- Tone: %s\n", titleCase(analysis.Style.Tone))

	switch analysis.PrimaryIntent {
	case IntentDetailedExplanation:
		b.WriteString("\nPROVIDE DETAILED EXPLANATION with background context.")
	case IntentSimpleQuestion:
		b.WriteString("\nANSWER DIRECTLY and concisely.")
	case IntentUrgentHelp:
		b.WriteString("\nPRIORITIZE immediate, actionable assistance.")
	}

	if isImage {
		fmt.Fprintf(&b, "\n\nFor image analysis: Provide a %s description focusing on relevant aspects.", analysis.Style.Length)
	}

	return b.String()
}

// BuildSystemPrompt assembles the persona, behavioral rules, style directives
// and user line for text generation.
func BuildSystemPrompt(analysis IntentAnalysis, user *UserInfo) string {
	var b strings.Builder

	b.WriteString(stylePrompt(analysis, false))
	b.WriteString("\n\nYou are an intelligent AI assistant that adapts to user needs.\n\n")
	fmt.Fprintf(&b, "INTENT ANALYSIS:\n- Language: %s\n- Intent: %s\n- Complexity: %s\n\n",
		analysis.Language, analysis.PrimaryIntent, analysis.Complexity)
	b.WriteString(`RULES:
- NEVER start with "Tentu", "Sure", "Certainly" in any language
- NEVER use robot emoji 🤖
- Use appropriate emoji that matches the topic
- Be accurate and factual
- ALWAYS respond in the detected language`)

	appendUserLine(&b, user, true)

	return b.String()
}

// BuildVisionSystemPrompt is the image-analysis variant of the system prompt.
func BuildVisionSystemPrompt(analysis IntentAnalysis, user *UserInfo) string {
	var b strings.Builder

	b.WriteString(stylePrompt(analysis, true))
	b.WriteString("\n\nYou are an expert AI for image analysis.\n\n")
	fmt.Fprintf(&b, "INTENT ANALYSIS:\n- Language: %s\n- Intent: %s\n\n",
		analysis.Language, analysis.PrimaryIntent)
	b.WriteString(`RULES:
- NEVER use "Tentu", "Sure", "Certainly" at the start
- NEVER use robot emoji 🤖
- Identify objects, people, activities, and context
- Use relevant emoji that match the image content
- ALWAYS respond in the detected language`)

	appendUserLine(&b, user, false)

	return b.String()
}

func appendUserLine(b *strings.Builder, user *UserInfo, markAdmin bool) {
	if user == nil {
		return
	}
	name := user.FirstName
	if name == "" {
		name = "User"
	}
	fmt.Fprintf(b, "\nUser: %s", name)
	if markAdmin && user.IsAdmin {
		b.WriteString(" (Admin)")
	}
}

// ConversationContext renders the last turns of history as a User/Assistant
// transcript block. Empty history renders nothing at all.
func ConversationContext(history []ConversationTurn) string {
	if len(history) == 0 {
		return ""
	}
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	var b strings.Builder
	b.WriteString("\n\nPrevious Conversation:\n")
	for _, turn := range history {
		fmt.Fprintf(&b, "User: %s\n", turn.MessageText)
		fmt.Fprintf(&b, "Assistant: %s\n\n", turn.ResponseText)
	}
	b.WriteString("Use this context for relevant responses.")
	return b.String()
}

// groundingInstruction is injected between system prompt and history when the
// grounded generation path is taken.
const groundingInstruction = `
IMPORTANT: Use Google Search to find the most current, accurate, and up-to-date information for this query.
- Prioritize recent information and real-time data
- Verify facts with multiple sources when possible
- Include specific details like dates, numbers, and proper nouns
- If information is time-sensitive, mention when it was last updated
`

// BuildPrompt produces the final prompt for text generation. The grounded
// variant carries an extra search instruction block.
func BuildPrompt(analysis IntentAnalysis, user *UserInfo, history []ConversationTurn, message string, grounded bool) string {
	system := BuildSystemPrompt(analysis, user)
	context := ConversationContext(history)
	if grounded {
		return fmt.Sprintf("%s\n%s\n%s\n\nUser Message: %s", system, groundingInstruction, context, message)
	}
	return fmt.Sprintf("%s%s\n\nUser Message: %s", system, context, message)
}

// BuildVisionPrompt produces the text part of a vision request. The caption,
// when present, is forwarded as the user question.
func BuildVisionPrompt(analysis IntentAnalysis, user *UserInfo, caption string) string {
	system := BuildVisionSystemPrompt(analysis, user)
	if caption != "" {
		return fmt.Sprintf("%s\n\nUser question: %s", system, caption)
	}
	return system + "\n\nAnalyze this image:"
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func toLowerTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
