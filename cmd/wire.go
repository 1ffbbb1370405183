package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/sangar-bot/sangar/internal/ai"
	"github.com/sangar-bot/sangar/internal/gemini"
	"github.com/sangar-bot/sangar/internal/imaging"
	"github.com/sangar-bot/sangar/internal/store"
)

// newLogger builds the process logger; debug mode switches to development
// output with debug level enabled.
func newLogger() (*zap.SugaredLogger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if viper.GetBool("debug") {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Sugar(), nil
}

func openStore() (*store.Store, error) {
	return store.New(viper.GetString("db.path"))
}

func coreConfig() ai.Config {
	return ai.Config{
		FallbackLanguage:   viper.GetString("ai.fallback_language"),
		GroundingThreshold: viper.GetInt("ai.grounding_threshold"),
		MaxReplyChars:      viper.GetInt("ai.max_reply_chars"),
		MaxImageReplyChars: viper.GetInt("ai.max_image_reply_chars"),
	}
}

// buildCore wires the Gemini client, image processor and pipeline together.
// A missing API key yields a core without generators: analysis still works,
// generation reports unavailable.
func buildCore(ctx context.Context, log *zap.SugaredLogger) (*ai.Core, string) {
	modelName := viper.GetString("gemini.model")

	client, err := gemini.New(ctx, viper.GetString("gemini.api_key"), modelName, log)
	if err != nil {
		if errors.Is(err, gemini.ErrNoAPIKey) {
			log.Warnw("no Gemini API key configured, generation disabled")
		} else {
			log.Errorw("gemini init failed, generation disabled", "error", err)
		}
		return ai.New(coreConfig(), nil, nil, nil, log), modelName
	}

	return ai.New(coreConfig(), client, client, imaging.NewProcessor(log), log), client.Model()
}
