package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Reply length caps in characters, ellipsis included.
const (
	DefaultMaxReplyChars      = 10000
	DefaultMaxImageReplyChars = 4000
)

var (
	// ErrUnavailable means no generator is configured; the caller should
	// show its generic apology instead of retrying.
	ErrUnavailable = errors.New("ai: model not available")

	// ErrEmptyResponse means the model returned nothing usable.
	ErrEmptyResponse = errors.New("ai: empty model response")

	// ErrInvalidImage means the payload could not be decoded; the caller
	// may show a format-specific message.
	ErrInvalidImage = errors.New("ai: invalid image data")
)

// TextGenerator produces model text for an assembled prompt. GenerateGrounded
// routes through search grounding; implementations without grounding support
// should return an error so the core falls back to Generate.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateGrounded(ctx context.Context, prompt string) (string, error)
}

// VisionGenerator produces model text for a prompt plus an image.
type VisionGenerator interface {
	GenerateVision(ctx context.Context, prompt string, data []byte, mimeType string) (string, error)
}

// ImageDecoder normalizes raw image bytes into something the vision model
// accepts. Implementations flatten transparency and re-encode as JPEG.
type ImageDecoder interface {
	Normalize(data []byte) (jpeg []byte, mimeType string, err error)
}

// Config carries the tunables of the response pipeline.
type Config struct {
	FallbackLanguage   string
	GroundingThreshold int
	MaxReplyChars      int
	MaxImageReplyChars int
}

func (c Config) withDefaults() Config {
	if c.FallbackLanguage == "" {
		c.FallbackLanguage = DefaultFallbackLanguage
	}
	if c.GroundingThreshold < 1 {
		c.GroundingThreshold = DefaultGroundingThreshold
	}
	if c.MaxReplyChars <= 0 {
		c.MaxReplyChars = DefaultMaxReplyChars
	}
	if c.MaxImageReplyChars <= 0 {
		c.MaxImageReplyChars = DefaultMaxImageReplyChars
	}
	return c
}

// Core orchestrates the full pipeline: command short-circuit, intent
// analysis, grounding decision, prompt assembly, generation with fallback,
// post-processing and truncation. Generators are injected; a nil text
// generator makes every reply fail with ErrUnavailable.
type Core struct {
	cfg       Config
	analyzer  *Analyzer
	grounding *GroundingEngine
	text      TextGenerator
	vision    VisionGenerator
	decoder   ImageDecoder
	log       *zap.SugaredLogger
}

// New builds a Core. Any of text, vision and decoder may be nil; the
// corresponding operations then report ErrUnavailable.
func New(cfg Config, text TextGenerator, vision VisionGenerator, decoder ImageDecoder, log *zap.SugaredLogger) *Core {
	cfg = cfg.withDefaults()
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Core{
		cfg:       cfg,
		analyzer:  NewAnalyzer(cfg.FallbackLanguage),
		grounding: NewGroundingEngine(cfg.GroundingThreshold),
		text:      text,
		vision:    vision,
		decoder:   decoder,
		log:       log,
	}
}

// Analyzer exposes the pure classifiers for callers that only need analysis.
func (c *Core) Analyzer() *Analyzer { return c.analyzer }

// Available reports whether text generation is configured.
func (c *Core) Available() bool { return c.text != nil }

// VisionAvailable reports whether image analysis is configured.
func (c *Core) VisionAvailable() bool { return c.vision != nil && c.decoder != nil }

// commandSuggestions are the canned replies for confidently detected commands.
var commandSuggestions = map[string]string{
	CommandHelp:              "Gunakan /help untuk melihat bantuan lengkap",
	CommandClearConversation: "Gunakan /clearconversation untuk menghapus riwayat",
	CommandSettings:          "Gunakan /conversation untuk pengaturan percakapan",
}

// GenerateReply runs a message through the full pipeline and returns the
// post-processed reply. A command detected above confidence 0.6 short-circuits
// with a usage suggestion. Grounded generation failures fall back to the
// standard path; only a standard-path failure surfaces as an error.
func (c *Core) GenerateReply(ctx context.Context, message string, user *UserInfo, history []ConversationTurn) (string, error) {
	if c.text == nil {
		return "", ErrUnavailable
	}

	if det := c.analyzer.DetectCommand(message); det != nil && det.Confidence > 0.6 {
		if suggestion, ok := commandSuggestions[det.Command]; ok {
			c.log.Infow("command short-circuit", "command", det.Command, "confidence", det.Confidence)
			return suggestion, nil
		}
	}

	analysis := c.analyzer.AnalyzeIntent(message, "")
	ground, score := c.grounding.ShouldGround(analysis, message)
	c.log.Infow("grounding decision",
		"score", score,
		"threshold", c.grounding.Threshold(),
		"ground", ground,
		"intent", analysis.PrimaryIntent,
		"message", snippet(message, 50))

	if ground {
		prompt := BuildPrompt(analysis, user, history, message, true)
		reply, err := c.text.GenerateGrounded(ctx, prompt)
		if err == nil && strings.TrimSpace(reply) != "" {
			return c.finishReply(reply, analysis, c.cfg.MaxReplyChars), nil
		}
		if err != nil {
			c.log.Warnw("grounded generation failed, falling back", "error", err)
		} else {
			c.log.Warnw("grounded generation returned empty response, falling back")
		}
	}

	prompt := BuildPrompt(analysis, user, history, message, false)
	reply, err := c.text.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate response: %w", err)
	}
	if strings.TrimSpace(reply) == "" {
		return "", ErrEmptyResponse
	}
	return c.finishReply(reply, analysis, c.cfg.MaxReplyChars), nil
}

func (c *Core) finishReply(reply string, analysis IntentAnalysis, maxChars int) string {
	return truncateReply(PostProcess(strings.TrimSpace(reply), analysis), maxChars)
}

// truncateReply caps text at maxChars including the ellipsis, cutting on a
// rune boundary so multi-byte characters are never split.
func truncateReply(text string, maxChars int) string {
	if maxChars <= 3 || len(text) <= maxChars {
		return text
	}
	cut := maxChars - 3
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return strings.TrimRight(text[:cut], " ") + "..."
}

func snippet(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
