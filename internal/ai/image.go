package ai

import (
	"context"
	"fmt"
	"strings"
)

// AnalyzeImage decodes the image, classifies the caption (or falls back to a
// neutral analysis when there is none) and asks the vision model. Decode
// failures return ErrInvalidImage without touching the model.
func (c *Core) AnalyzeImage(ctx context.Context, imageData []byte, caption string, user *UserInfo) (string, error) {
	if c.vision == nil || c.decoder == nil {
		return "", ErrUnavailable
	}

	jpeg, mimeType, err := c.decoder.Normalize(imageData)
	if err != nil {
		c.log.Warnw("image decode failed", "error", err)
		return "", ErrInvalidImage
	}

	var analysis IntentAnalysis
	if caption != "" {
		analysis = c.analyzer.AnalyzeIntent(caption, "")
	} else {
		analysis = c.analyzer.DefaultIntent()
	}

	prompt := BuildVisionPrompt(analysis, user, caption)
	reply, err := c.vision.GenerateVision(ctx, prompt, jpeg, mimeType)
	if err != nil {
		return "", fmt.Errorf("analyze image: %w", err)
	}
	if strings.TrimSpace(reply) == "" {
		return "", ErrEmptyResponse
	}
	return c.finishReply(reply, analysis, c.cfg.MaxImageReplyChars), nil
}
