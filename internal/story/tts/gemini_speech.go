package tts

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// GeminiVoices is the prebuilt voice catalog offered for narration.
var GeminiVoices = []string{"Puck", "Fenrir", "Kore", "Aoede"}

// GeminiSpeech synthesizes speech with the Gemini TTS models.
type GeminiSpeech struct {
	client *genai.Client
	model  string
}

func NewGeminiSpeech(ctx context.Context, apiKey, model string) (*GeminiSpeech, error) {
	if apiKey == "" {
		return nil, errors.New("gemini speech: missing api key")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &GeminiSpeech{client: client, model: model}, nil
}

func (g *GeminiSpeech) Name() string {
	return "gemini"
}

func (g *GeminiSpeech) Voices() []string {
	return GeminiVoices
}

func (g *GeminiSpeech) GenerateSpeech(ctx context.Context, text, voice string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(text), &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("genai generate speech: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return base64.StdEncoding.EncodeToString(part.InlineData.Data), nil
		}
	}
	return "", nil
}
