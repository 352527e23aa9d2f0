package tts

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var OpenAIVoices = []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer"}

// OpenAISpeech uses the OpenAI audio speech endpoint. The pcm response
// format is raw 24 kHz 16-bit mono, the same layout Gemini returns.
type OpenAISpeech struct {
	client openai.Client
	model  string
}

func NewOpenAISpeech(apiKey, baseURL, model string) (*OpenAISpeech, error) {
	if apiKey == "" {
		return nil, errors.New("openai speech: missing api key")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAISpeech{client: openai.NewClient(opts...), model: model}, nil
}

func (o *OpenAISpeech) Name() string {
	return "openai"
}

func (o *OpenAISpeech) Voices() []string {
	return OpenAIVoices
}

func (o *OpenAISpeech) GenerateSpeech(ctx context.Context, text, voice string) (string, error) {
	resp, err := o.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(o.model),
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatPCM,
	})
	if err != nil {
		return "", fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("openai speech: read body: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
