package library

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"

	"hakayat/internal/domain/story"
)

const (
	storyPrefix = "story:"
	themeKey    = "pref:theme"
)

// BadgerOptions configures the badger-backed library.
type BadgerOptions struct {
	// Dir holds the database files. Required unless InMemory is set.
	Dir      string
	InMemory bool
}

// Badger is a Store backed by BadgerDB with msgpack-encoded values.
type Badger struct {
	db  *badger.DB
	now func() time.Time
}

var _ Store = (*Badger)(nil)

func OpenBadger(opts BadgerOptions) (*Badger, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("library: directory is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir).
		WithInMemory(opts.InMemory).
		WithLogger(badgerLogger{logrus.WithField("component", "badger")})
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("open library: %w", err)
	}
	return &Badger{db: db, now: time.Now}, nil
}

func (b *Badger) Close() error {
	return b.db.Close()
}

func (b *Badger) Save(_ context.Context, rec story.Record, image string, bookmarks []int) (*story.Saved, error) {
	saved := &story.Saved{
		ID:        uuid.NewString(),
		CreatedAt: b.now().UnixMilli(),
		Story:     rec,
		Image:     image,
		Bookmarks: normalizeBookmarks(bookmarks),
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		dup, err := findDuplicate(txn, rec)
		if err != nil {
			return err
		}
		if dup != nil {
			return fmt.Errorf("%w: %q", ErrDuplicate, dup.Story.Title)
		}
		return put(txn, saved)
	})
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"id": saved.ID, "title": rec.Title}).Debug("Saved story")
	return saved, nil
}

func (b *Badger) Update(_ context.Context, s *story.Saved) error {
	return b.db.Update(func(txn *badger.Txn) error {
		if _, err := get(txn, s.ID); err != nil {
			return err
		}
		return put(txn, s)
	})
}

func (b *Badger) Get(_ context.Context, id string) (*story.Saved, error) {
	var s *story.Saved
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		s, err = get(txn, id)
		return err
	})
	return s, err
}

func (b *Badger) List(_ context.Context) ([]*story.Saved, error) {
	var all []*story.Saved
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		all, err = scan(txn)
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt > all[j].CreatedAt
	})
	return all, nil
}

func (b *Badger) Delete(_ context.Context, id string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(storyPrefix + id))
	})
}

func (b *Badger) ToggleBookmark(_ context.Context, id string, paragraph int) (bool, error) {
	if paragraph < 0 {
		return false, fmt.Errorf("invalid paragraph %d", paragraph)
	}
	var marked bool
	err := b.db.Update(func(txn *badger.Txn) error {
		s, err := get(txn, id)
		if err != nil {
			return err
		}
		if i := slices.Index(s.Bookmarks, paragraph); i >= 0 {
			s.Bookmarks = slices.Delete(s.Bookmarks, i, i+1)
		} else {
			s.Bookmarks = normalizeBookmarks(append(s.Bookmarks, paragraph))
			marked = true
		}
		return put(txn, s)
	})
	return marked, err
}

func (b *Badger) SetImage(_ context.Context, id, dataURI string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		s, err := get(txn, id)
		if err != nil {
			return err
		}
		s.Image = dataURI
		return put(txn, s)
	})
}

func (b *Badger) Theme(_ context.Context) (story.Theme, error) {
	theme := story.DefaultTheme
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(themeKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			t, err := story.ParseTheme(string(val))
			if err != nil {
				logrus.WithError(err).Warn("Ignoring stored theme")
				return nil
			}
			theme = t
			return nil
		})
	})
	return theme, err
}

func (b *Badger) SetTheme(_ context.Context, theme story.Theme) error {
	if _, err := story.ParseTheme(string(theme)); err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(themeKey), []byte(theme))
	})
}

func (b *Badger) Restore(_ context.Context, s *story.Saved) (bool, error) {
	var added bool
	err := b.db.Update(func(txn *badger.Txn) error {
		_, err := get(txn, s.ID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		added = true
		return put(txn, s)
	})
	return added, err
}

func get(txn *badger.Txn, id string) (*story.Saved, error) {
	item, err := txn.Get([]byte(storyPrefix + id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	var s story.Saved
	err = item.Value(func(val []byte) error {
		return msgpack.Unmarshal(val, &s)
	})
	if err != nil {
		return nil, fmt.Errorf("decode story %s: %w", id, err)
	}
	return &s, nil
}

func put(txn *badger.Txn, s *story.Saved) error {
	val, err := msgpack.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode story %s: %w", s.ID, err)
	}
	return txn.Set([]byte(storyPrefix+s.ID), val)
}

func scan(txn *badger.Txn) ([]*story.Saved, error) {
	prefix := []byte(storyPrefix)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var out []*story.Saved
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var s story.Saved
		err := it.Item().Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &s)
		})
		if err != nil {
			logrus.WithError(err).WithField("key", string(it.Item().Key())).Warn("Skipping unreadable story")
			continue
		}
		out = append(out, &s)
	}
	return out, nil
}

func findDuplicate(txn *badger.Txn, rec story.Record) (*story.Saved, error) {
	all, err := scan(txn)
	if err != nil {
		return nil, err
	}
	for _, s := range all {
		if isDuplicate(s.Story, rec) {
			return s, nil
		}
	}
	return nil, nil
}

func normalizeBookmarks(b []int) []int {
	if len(b) == 0 {
		return nil
	}
	out := slices.Clone(b)
	slices.Sort(out)
	return slices.Compact(out)
}

// badgerLogger routes badger's log output through logrus.
type badgerLogger struct {
	entry *logrus.Entry
}

func (l badgerLogger) Errorf(f string, v ...interface{})   { l.entry.Errorf(f, v...) }
func (l badgerLogger) Warningf(f string, v ...interface{}) { l.entry.Warnf(f, v...) }
func (l badgerLogger) Infof(f string, v ...interface{})    { l.entry.Debugf(f, v...) }
func (l badgerLogger) Debugf(f string, v ...interface{})   { l.entry.Tracef(f, v...) }
