package story

import "strings"

// Record is a generated story. It is never mutated once produced.
type Record struct {
	Title       string `json:"title" msgpack:"title" jsonschema:"The title of the story."`
	Summary     string `json:"summary" msgpack:"summary" jsonschema:"A short one-sentence summary."`
	Content     string `json:"content" msgpack:"content" jsonschema:"The full story content, paragraphs separated by blank lines."`
	Moral       string `json:"moral,omitempty" msgpack:"moral,omitempty" jsonschema:"The moral or lesson of the story (optional for adult stories)."`
	ImagePrompt string `json:"imagePrompt" msgpack:"image_prompt" jsonschema:"A detailed English description of a visual scene representing the story cover art, suitable for an image generator."`
}

// Saved is a story kept in the local library.
type Saved struct {
	ID        string `json:"id" msgpack:"id"`
	CreatedAt int64  `json:"createdAt" msgpack:"created_at"`
	Story     Record `json:"story" msgpack:"story"`
	Image     string `json:"imageSrc,omitempty" msgpack:"image,omitempty"`
	Bookmarks []int  `json:"bookmarks,omitempty" msgpack:"bookmarks,omitempty"`
}

// Bookmarked reports whether paragraph is bookmarked.
func (s *Saved) Bookmarked(paragraph int) bool {
	for _, b := range s.Bookmarks {
		if b == paragraph {
			return true
		}
	}
	return false
}

// ShareText formats the story for sharing as plain text.
func (r Record) ShareText(footer string) string {
	var b strings.Builder
	b.WriteString(r.Title)
	b.WriteString("\n----------------\n")
	b.WriteString(r.Summary)
	b.WriteString("\n\n")
	b.WriteString(r.Content)
	if r.Moral != "" {
		b.WriteString("\n\n💡 ")
		b.WriteString(r.Moral)
	}
	if footer != "" {
		b.WriteString("\n\n✨ ")
		b.WriteString(footer)
	}
	return strings.TrimSpace(b.String())
}
