package generator

import (
	"context"

	"hakayat/internal/domain/story"
)

// StoryGenerator writes stories and their cover illustrations.
type StoryGenerator interface {
	Generate(ctx context.Context, params story.Params) (*story.Record, error)
	// Illustrate returns the image as a data URI.
	Illustrate(ctx context.Context, imagePrompt string) (string, error)
}
