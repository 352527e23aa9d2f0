package generator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/kaptinlin/jsonrepair"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"hakayat/internal/domain/story"
)

var (
	ErrMissingAPIKey = errors.New("missing Gemini API key (set genai.api_key or GEMINI_API_KEY)")
	ErrEmptyResponse = errors.New("no content generated")
	ErrNoImage       = errors.New("no image data returned")
)

// contentGenerator is the part of genai.Models we use.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini generates stories and illustrations with the Gemini API.
type Gemini struct {
	models     contentGenerator
	storyModel string
	imageModel string
	schema     *genai.Schema
}

func NewGemini(ctx context.Context, apiKey, storyModel, imageModel string) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return newGemini(client.Models, storyModel, imageModel)
}

func newGemini(models contentGenerator, storyModel, imageModel string) (*Gemini, error) {
	schema, err := recordSchema()
	if err != nil {
		return nil, err
	}
	return &Gemini{
		models:     models,
		storyModel: storyModel,
		imageModel: imageModel,
		schema:     schema,
	}, nil
}

func (g *Gemini) Generate(ctx context.Context, params story.Params) (*story.Record, error) {
	temp := temperature(params.AgeGroup)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(systemInstruction)}},
		ResponseMIMEType:  "application/json",
		ResponseSchema:    g.schema,
		Temperature:       &temp,
	}

	logrus.WithFields(logrus.Fields{
		"model":  g.storyModel,
		"genre":  params.Genre,
		"age":    params.AgeGroup,
		"length": params.Length.Words(),
	}).Debug("Generating story")

	resp, err := g.models.GenerateContent(ctx, g.storyModel, genai.Text(buildPrompt(params)), cfg)
	if err != nil {
		return nil, fmt.Errorf("story generation failed: %w", err)
	}
	return parseRecord(responseText(resp))
}

func (g *Gemini) Illustrate(ctx context.Context, imagePrompt string) (string, error) {
	if strings.TrimSpace(imagePrompt) == "" {
		return "", errors.New("empty image prompt")
	}
	resp, err := g.models.GenerateContent(ctx, g.imageModel, genai.Text(imagePrompt+ImageStyle), nil)
	if err != nil {
		return "", fmt.Errorf("image generation failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrNoImage
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return DataURI(part.InlineData.MIMEType, part.InlineData.Data), nil
		}
	}
	return "", ErrNoImage
}

// DataURI encodes data as a base64 data URI.
func DataURI(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI splits a base64 data URI into its MIME type and bytes.
func DecodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, errors.New("not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.New("malformed data URI")
	}
	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, errors.New("data URI is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data URI: %w", err)
	}
	return mimeType, data, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String()
}

// parseRecord decodes the model output, repairing malformed JSON.
func parseRecord(text string) (*story.Record, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyResponse
	}
	var rec story.Record
	if err := unmarshalJSON([]byte(text), &rec); err != nil {
		return nil, fmt.Errorf("decode story: %w", err)
	}
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"title", rec.Title},
		{"summary", rec.Summary},
		{"content", rec.Content},
		{"imagePrompt", rec.ImagePrompt},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("story is missing required fields: %s", strings.Join(missing, ", "))
	}
	return &rec, nil
}

// unmarshalJSON unmarshals data into v. If the initial unmarshal fails with a
// syntax error, it repairs the JSON before retrying.
func unmarshalJSON(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	if _, ok := err.(*json.SyntaxError); ok {
		fixed, err := jsonrepair.JSONRepair(string(data))
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(fixed), v)
	}
	return err
}

func recordSchema() (*genai.Schema, error) {
	s, err := jsonschema.For[story.Record](&jsonschema.ForOptions{})
	if err != nil {
		return nil, fmt.Errorf("story schema: %w", err)
	}
	return convSchema(s), nil
}

func convSchema(schema *jsonschema.Schema) *genai.Schema {
	if schema == nil {
		return nil
	}

	enums := make([]string, 0, len(schema.Enum))
	for _, v := range schema.Enum {
		enums = append(enums, fmt.Sprintf("%v", v))
	}

	gs := genai.Schema{
		Format:      schema.Format,
		Description: schema.Description,
		Enum:        enums,
		Items:       convSchema(schema.Items),
		Required:    schema.Required,
	}
	if n := len(schema.Properties); n > 0 {
		gs.Properties = make(map[string]*genai.Schema, n)
		for k, prop := range schema.Properties {
			gs.Properties[k] = convSchema(prop)
		}
	}
	switch schema.Type {
	case "object":
		gs.Type = genai.TypeObject
	case "array":
		gs.Type = genai.TypeArray
	case "string":
		gs.Type = genai.TypeString
	case "number":
		gs.Type = genai.TypeNumber
	case "integer":
		gs.Type = genai.TypeInteger
	case "boolean":
		gs.Type = genai.TypeBoolean
	}
	return &gs
}
