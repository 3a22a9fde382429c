package scriptgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"talecast/internal/domain/story"
	"talecast/internal/script"
)

// Writer turns free text into a formatted dialogue script using the
// hosted text-generation service. The service returns one text blob in
// the SPEAKER: convention, which is parsed back into ordered lines.
type Writer struct {
	client *openai.Client
	model  string
}

// NewWriter builds a writer from configuration.
func NewWriter() (*Writer, error) {
	apiKey := viper.GetString("openai.api_key")
	if apiKey == "" {
		return nil, fmt.Errorf("missing OpenAI API key (set OPENAI_API_KEY)")
	}
	cfg := openai.DefaultConfig(apiKey)
	if base := viper.GetString("openai.base_url"); base != "" {
		cfg.BaseURL = base
	}
	return &Writer{
		client: openai.NewClientWithConfig(cfg),
		model:  viper.GetString("openai.chat_model"),
	}, nil
}

// Generate writes a full dialogue script from a prose prompt, casting
// only the provided characters.
func (w *Writer) Generate(ctx context.Context, prompt string, characters []story.Character) ([]story.Line, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("missing required field: script prompt")
	}
	if len(characters) == 0 {
		return nil, fmt.Errorf("missing required field: characters")
	}

	system := fmt.Sprintf(`You are an intelligent story script generator for a text-to-speech application.
Convert the user's input into a dialogue script in this exact format:

CHARACTER NAME: Dialogue text.
(Voice Affect: description; Tone: description; Pacing: description; Emotion: description)

Only use the characters listed below. Narrative elements that are not
spoken by a character go to a narrator character if one exists.

Available characters and their assigned voices:
%s`, roster(characters))

	return w.complete(ctx, system, prompt)
}

// Reformat rewrites an existing script, enriching every line with
// voice-delivery instructions while preserving the dialogue text and
// speaker names exactly.
func (w *Writer) Reformat(ctx context.Context, lines []story.Line, characters []story.Character) ([]story.Line, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("missing required field: script lines")
	}
	if len(characters) == 0 {
		return nil, fmt.Errorf("missing required field: characters")
	}

	system := fmt.Sprintf(`You are an expert script formatter that enhances dialogue with voice
instructions for a text-to-speech application. For every line of the
user's script, keep the speaker name and dialogue text exactly as
provided and add an instruction block on the following line:

CHARACTER NAME: The dialogue text.
(voice affect; tone; pacing; emotion; emphasis; pauses)

Character information:
%s`, roster(characters))

	return w.complete(ctx, system, script.Render(lines))
}

func (w *Writer) complete(ctx context.Context, system, user string) ([]story.Line, error) {
	resp, err := w.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: w.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("script generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("script generation returned no choices")
	}

	blob := resp.Choices[0].Message.Content
	lines := script.Parse(blob)
	if len(lines) == 0 {
		return nil, fmt.Errorf("generated script contained no parsable dialogue lines")
	}

	logrus.WithField("lines", len(lines)).Info("Generated script")
	return lines, nil
}

func roster(characters []story.Character) string {
	var b strings.Builder
	for _, c := range characters {
		fmt.Fprintf(&b, "%s: Using voice %q\n", c.Name, c.Voice)
	}
	return b.String()
}
