package library

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hakayat/internal/config"
	"hakayat/internal/domain/story"
)

func openTestStore(t *testing.T) *Badger {
	t.Helper()
	b, err := OpenBadger(BadgerOptions{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })

	clock := time.UnixMilli(1_700_000_000_000)
	b.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return b
}

func record(title, content string) story.Record {
	return story.Record{Title: title, Summary: "s", Content: content, ImagePrompt: "p"}
}

func TestSaveListGet(t *testing.T) {
	ctx := context.Background()
	b := openTestStore(t)

	first, err := b.Save(ctx, record("One", "aaa"), "", nil)
	require.NoError(t, err)
	second, err := b.Save(ctx, record("Two", "bbbb"), "data:image/png;base64,AA==", []int{3, 1, 3})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, []int{1, 3}, second.Bookmarks)

	all, err := b.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Two", all[0].Story.Title)
	assert.Equal(t, "One", all[1].Story.Title)

	got, err := b.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, second, got)

	_, err = b.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveDuplicate(t *testing.T) {
	ctx := context.Background()
	b := openTestStore(t)

	_, err := b.Save(ctx, record("Same", "12345"), "", nil)
	require.NoError(t, err)

	_, err = b.Save(ctx, record("Same", "54321"), "", nil)
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = b.Save(ctx, record("Same", "123456"), "", nil)
	assert.NoError(t, err)
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	b := openTestStore(t)

	s, err := b.Save(ctx, record("Gone", "x"), "", nil)
	require.NoError(t, err)
	require.NoError(t, b.Delete(ctx, s.ID))
	require.NoError(t, b.Delete(ctx, s.ID))

	all, err := b.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestToggleBookmarkAndImage(t *testing.T) {
	ctx := context.Background()
	b := openTestStore(t)

	s, err := b.Save(ctx, record("Marks", "x"), "", nil)
	require.NoError(t, err)

	on, err := b.ToggleBookmark(ctx, s.ID, 2)
	require.NoError(t, err)
	assert.True(t, on)
	on, err = b.ToggleBookmark(ctx, s.ID, 0)
	require.NoError(t, err)
	assert.True(t, on)

	got, err := b.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, got.Bookmarks)

	on, err = b.ToggleBookmark(ctx, s.ID, 2)
	require.NoError(t, err)
	assert.False(t, on)

	_, err = b.ToggleBookmark(ctx, s.ID, -1)
	assert.Error(t, err)
	_, err = b.ToggleBookmark(ctx, "missing", 1)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, b.SetImage(ctx, s.ID, "data:image/png;base64,AA=="))
	got, err = b.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, got.Bookmarks)
	assert.Equal(t, "data:image/png;base64,AA==", got.Image)

	assert.ErrorIs(t, b.Update(ctx, &story.Saved{ID: "missing"}), ErrNotFound)
}

func TestTheme(t *testing.T) {
	ctx := context.Background()
	b := openTestStore(t)

	theme, err := b.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, story.ThemeLight, theme)

	require.NoError(t, b.SetTheme(ctx, story.ThemeSepia))
	theme, err = b.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, story.ThemeSepia, theme)

	assert.Error(t, b.SetTheme(ctx, "neon"))
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	src := openTestStore(t)
	_, err := src.Save(ctx, record("A", "a"), "", []int{1})
	require.NoError(t, err)
	_, err = src.Save(ctx, record("B", "bb"), "", nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := Export(ctx, src, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, strings.HasPrefix(buf.String(), "["))

	dst := openTestStore(t)
	added, err := Import(ctx, dst, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	added, err = Import(ctx, dst, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Zero(t, added)

	want, err := src.List(ctx)
	require.NoError(t, err)
	got, err := dst.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestImportRejectsInvalidBackup(t *testing.T) {
	ctx := context.Background()
	b := openTestStore(t)

	_, err := Import(ctx, b, strings.NewReader(`{"id":"x"}`))
	assert.Error(t, err)
	_, err = Import(ctx, b, strings.NewReader(`not json`))
	assert.Error(t, err)
}

func TestExportEmptyLibrary(t *testing.T) {
	var buf bytes.Buffer
	n, err := Export(context.Background(), openTestStore(t), &buf)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, "[]\n", buf.String())
}

func TestFileLocation(t *testing.T) {
	ctx := context.Background()
	b := openTestStore(t)
	_, err := b.Save(ctx, record("File", "f"), "", nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nested", "backup.json")
	loc, err := ParseLocation(path, config.S3{})
	require.NoError(t, err)

	n, err := ExportTo(ctx, b, loc)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	dst := openTestStore(t)
	added, err := ImportFrom(ctx, dst, loc)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	_, err = ImportFrom(ctx, dst, fileLocation(filepath.Join(t.TempDir(), "none.json")))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseLocation(t *testing.T) {
	loc, err := ParseLocation("s3://bucket/backups/hakayat.json", config.S3{Region: "us-east-1"})
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/backups/hakayat.json", loc.String())

	for _, bad := range []string{"", "s3://", "s3://bucket", "s3://bucket/"} {
		_, err := ParseLocation(bad, config.S3{})
		assert.Error(t, err, bad)
	}
}

type fakeS3 struct {
	objects map[string][]byte
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NoSuchKey", Message: "not found"}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func TestS3Location(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string][]byte{}}
	loc := &s3Location{client: fake, bucket: "stories", key: "backup.json"}

	b := openTestStore(t)
	_, err := b.Save(ctx, record("Cloud", "c"), "", nil)
	require.NoError(t, err)

	n, err := ExportTo(ctx, b, loc)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, string(fake.objects["stories/backup.json"]), `"Cloud"`)

	dst := openTestStore(t)
	added, err := ImportFrom(ctx, dst, loc)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	missing := &s3Location{client: fake, bucket: "stories", key: "nope.json"}
	_, err = ImportFrom(ctx, dst, missing)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
