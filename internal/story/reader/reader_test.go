package reader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hakayat/internal/domain/story"
)

func TestPageCount(t *testing.T) {
	tests := []struct {
		paragraphs, size, want int
	}{
		{10, 4, 3},
		{8, 4, 2},
		{1, 4, 1},
		{0, 4, 0},
		{5, 0, 2}, // default size
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NewPager(tt.paragraphs, tt.size).PageCount())
	}
}

func TestFollowActiveParagraph(t *testing.T) {
	p := NewPager(10, 4)

	assert.True(t, p.OnActiveParagraphChanged(7))
	assert.Equal(t, 1, p.CurrentPage())

	assert.False(t, p.OnActiveParagraphChanged(4))
	assert.Equal(t, 1, p.CurrentPage())

	assert.False(t, p.OnActiveParagraphChanged(story.NoParagraph))
	assert.Equal(t, 1, p.CurrentPage())

	assert.True(t, p.OnActiveParagraphChanged(9))
	assert.Equal(t, 2, p.CurrentPage())
}

func TestManualPagingBoundaries(t *testing.T) {
	p := NewPager(10, 4)

	assert.False(t, p.PrevPage())
	assert.Equal(t, 0, p.CurrentPage())

	assert.True(t, p.NextPage())
	assert.True(t, p.NextPage())
	assert.Equal(t, 2, p.CurrentPage())

	assert.False(t, p.NextPage())
	assert.Equal(t, 2, p.CurrentPage())

	assert.True(t, p.PrevPage())
	assert.Equal(t, 1, p.CurrentPage())
}

func TestWindow(t *testing.T) {
	p := NewPager(10, 4)
	start, end := p.Window()
	assert.Equal(t, [2]int{0, 4}, [2]int{start, end})

	p.OnActiveParagraphChanged(9)
	start, end = p.Window()
	assert.Equal(t, [2]int{8, 10}, [2]int{start, end})

	p.Reset(3)
	assert.Equal(t, 0, p.CurrentPage())
	start, end = p.Window()
	assert.Equal(t, [2]int{0, 3}, [2]int{start, end})
}

func TestEmptyStoryPaging(t *testing.T) {
	p := NewPager(0, 4)
	assert.False(t, p.NextPage())
	assert.False(t, p.OnActiveParagraphChanged(0))
	start, end := p.Window()
	assert.Equal(t, 0, start)
	assert.Equal(t, 0, end)
}

func TestRender(t *testing.T) {
	rec := story.Record{
		Title:   "The Lantern",
		Summary: "A girl finds a lantern.",
		Content: "First.\n\nSecond.\n\nThird.\n\nFourth.\n\nFifth.",
		Moral:   "Kindness lights the way.",
	}
	saved := &story.Saved{ID: "1", Story: rec, Bookmarks: []int{1}}
	paragraphs := story.Paragraphs(rec)
	pager := NewPager(len(paragraphs), 4)

	out := Render(View{Story: saved, Paragraphs: paragraphs, Pager: pager, ActiveParagraph: 0, Status: "speaking"}, NewStyles(story.ThemeSepia))
	assert.Contains(t, out, "The Lantern")
	assert.Contains(t, out, "A girl finds a lantern.")
	assert.Contains(t, out, "Fourth.")
	assert.NotContains(t, out, "Fifth.")
	assert.Contains(t, out, "🔖")
	assert.Contains(t, out, "page 1/2")
	assert.NotContains(t, out, "Kindness")

	require.True(t, pager.NextPage())
	out = Render(View{Story: saved, Paragraphs: paragraphs, Pager: pager, ActiveParagraph: story.NoParagraph}, NewStyles("unknown"))
	assert.Contains(t, out, "Fifth.")
	assert.Contains(t, out, "Kindness lights the way.")
	assert.Contains(t, out, "page 2/2")
	assert.False(t, strings.Contains(out, "A girl finds"))
}
