package story

import (
	"regexp"
	"strings"
)

// NoParagraph marks a chunk or position that is not a paragraph.
const NoParagraph = -1

// ChunkKind identifies the part of a story a chunk narrates.
type ChunkKind int

const (
	ChunkTitle ChunkKind = iota
	ChunkSummary
	ChunkParagraph
)

func (k ChunkKind) String() string {
	switch k {
	case ChunkTitle:
		return "title"
	case ChunkSummary:
		return "summary"
	case ChunkParagraph:
		return "paragraph"
	default:
		return "unknown"
	}
}

// Chunk is one narratable unit of a story.
type Chunk struct {
	Text string
	Kind ChunkKind
	// Paragraph is the zero-based paragraph index, NoParagraph unless Kind is
	// ChunkParagraph.
	Paragraph int
}

// paragraphBreak matches a line break, optional whitespace-only lines, and
// another line break.
var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// Paragraphs splits the story content into its non-empty paragraphs.
func Paragraphs(r Record) []string {
	content := strings.ReplaceAll(r.Content, "\r\n", "\n")
	var out []string
	for _, p := range paragraphBreak.Split(content, -1) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Segment derives the narration chunks of a story: title, summary, then one
// chunk per paragraph.
func Segment(r Record) []Chunk {
	paragraphs := Paragraphs(r)
	chunks := make([]Chunk, 0, len(paragraphs)+2)
	chunks = append(chunks,
		Chunk{Text: r.Title, Kind: ChunkTitle, Paragraph: NoParagraph},
		Chunk{Text: r.Summary, Kind: ChunkSummary, Paragraph: NoParagraph},
	)
	for i, p := range paragraphs {
		chunks = append(chunks, Chunk{Text: p, Kind: ChunkParagraph, Paragraph: i})
	}
	return chunks
}
