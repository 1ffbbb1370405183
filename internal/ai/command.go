package ai

import (
	"regexp"
	"strings"
)

// Command labels.
const (
	CommandHelp              = "help"
	CommandClearConversation = "clear_conversation"
	CommandSettings          = "settings"
)

// CommandDetection reports a recognized command. Explicit detections come
// from a leading slash and always carry confidence 1.0; natural-language
// detections carry a scaled score and the detected language.
type CommandDetection struct {
	Command    string
	Confidence float64
	Language   string
	Explicit   bool
}

// explicitAliases maps the first token after "/" to a canonical command.
var explicitAliases = map[string]string{
	"help":              CommandHelp,
	"bantuan":           CommandHelp,
	"clearconversation": CommandClearConversation,
	"clear":             CommandClearConversation,
	"settings":          CommandSettings,
	"pengaturan":        CommandSettings,
}

type commandGroup struct {
	command  string
	patterns []*regexp.Regexp
}

var commandGroups = []commandGroup{
	{
		command: CommandHelp,
		patterns: compileAll(
			`(bantuan|help|aide|hilfe|ヘルプ|도움|帮助|مساعدة)`,
			`(perintah|commands|commandes|befehle)`,
		),
	},
	{
		command: CommandClearConversation,
		patterns: compileAll(
			`(hapus.*percakapan|clear.*conversation)`,
			`(reset.*chat|mulai.*baru)`,
		),
	},
	{
		command: CommandSettings,
		patterns: compileAll(
			`(pengaturan|settings|paramètres|einstellungen|設定|설정|设置|إعدادات)`,
		),
	},
}

var directAddressRe = regexp.MustCompile(`(bot|kamu|you|assistant)`)

// DetectCommand checks for an explicit "/command" first, then scores the
// message against natural-language command phrasings. An unknown explicit
// command returns nil rather than being reinterpreted as natural language.
// Natural detections need a score of at least 2 (each matching pattern group
// adds 2, addressing the bot directly adds 1).
func (a *Analyzer) DetectCommand(message string) *CommandDetection {
	if message == "" {
		return nil
	}

	messageLower := strings.ToLower(strings.TrimSpace(message))

	if strings.HasPrefix(message, "/") {
		fields := strings.Fields(message[1:])
		if len(fields) == 0 {
			return nil
		}
		cmd, ok := explicitAliases[strings.ToLower(fields[0])]
		if !ok {
			return nil
		}
		return &CommandDetection{Command: cmd, Confidence: 1.0, Explicit: true}
	}

	detectedLang, _ := a.DetectLanguage(message)

	for _, g := range commandGroups {
		score := 0
		for _, re := range g.patterns {
			if re.MatchString(messageLower) {
				score += 2
			}
		}
		if directAddressRe.MatchString(messageLower) {
			score++
		}
		if score >= 2 {
			confidence := float64(score) / 4.0
			if confidence > 1.0 {
				confidence = 1.0
			}
			return &CommandDetection{
				Command:    g.command,
				Confidence: confidence,
				Language:   detectedLang,
				Explicit:   false,
			}
		}
	}

	return nil
}
