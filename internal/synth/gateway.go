package synth

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"talecast/internal/audio"
	"talecast/internal/domain/story"
)

// Request carries everything the synthesis service needs for one line.
type Request struct {
	Text         string
	Voice        story.Voice
	Instructions string
}

// Gateway converts a line of dialogue into audio bytes. The hosted
// service bills every call independently, so callers must consult the
// audio cache before synthesizing.
type Gateway interface {
	Synthesize(ctx context.Context, req Request) (*audio.Clip, error)
}

// OpenAIGateway calls the hosted speech endpoint.
type OpenAIGateway struct {
	client *openai.Client
	model  openai.SpeechModel
}

// NewOpenAIGateway builds a gateway from configuration. The API key
// comes from the OPENAI_API_KEY environment.
func NewOpenAIGateway() (*OpenAIGateway, error) {
	apiKey := viper.GetString("openai.api_key")
	if apiKey == "" {
		return nil, fmt.Errorf("missing OpenAI API key (set OPENAI_API_KEY)")
	}

	cfg := openai.DefaultConfig(apiKey)
	if base := viper.GetString("openai.base_url"); base != "" {
		cfg.BaseURL = base
	}

	return &OpenAIGateway{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.SpeechModel(viper.GetString("openai.tts_model")),
	}, nil
}

// Synthesize requests audio for one line. Missing text or voice is
// rejected before any network call.
func (g *OpenAIGateway) Synthesize(ctx context.Context, req Request) (*audio.Clip, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	resp, err := g.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          g.model,
		Input:          req.Text,
		Voice:          openai.SpeechVoice(req.Voice),
		Instructions:   req.Instructions,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("speech synthesis failed: %w", err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read synthesized audio: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("speech synthesis returned no audio")
	}

	logrus.WithFields(logrus.Fields{
		"voice": req.Voice,
		"bytes": len(data),
	}).Debug("Synthesized line")

	return audio.NewClip(data, "audio/mpeg"), nil
}

func validate(req Request) error {
	if strings.TrimSpace(req.Text) == "" {
		return fmt.Errorf("missing required field: text")
	}
	if req.Voice == "" {
		return fmt.Errorf("missing required field: voice")
	}
	return nil
}
