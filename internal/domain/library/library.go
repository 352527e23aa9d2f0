package library

import (
	"context"
	"errors"

	"hakayat/internal/domain/story"
)

var (
	ErrNotFound  = errors.New("story not found")
	ErrDuplicate = errors.New("story already saved")
)

// Store keeps saved stories and reader preferences.
type Store interface {
	// Save adds a story. A story with the same title and content length is a
	// duplicate.
	Save(ctx context.Context, rec story.Record, image string, bookmarks []int) (*story.Saved, error)
	Update(ctx context.Context, s *story.Saved) error
	Get(ctx context.Context, id string) (*story.Saved, error)
	// List returns every saved story, newest first.
	List(ctx context.Context) ([]*story.Saved, error)
	// Delete removes a story. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
	// ToggleBookmark flips paragraph in the story's bookmarks and reports
	// whether it is now bookmarked.
	ToggleBookmark(ctx context.Context, id string, paragraph int) (bool, error)
	SetImage(ctx context.Context, id, dataURI string) error
	// Restore stores s under its own id unless that id is already taken and
	// reports whether it was added.
	Restore(ctx context.Context, s *story.Saved) (bool, error)

	Theme(ctx context.Context) (story.Theme, error)
	SetTheme(ctx context.Context, theme story.Theme) error

	Close() error
}

// isDuplicate matches on title and content length.
func isDuplicate(a, b story.Record) bool {
	return a.Title == b.Title && len(a.Content) == len(b.Content)
}
