package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/sirupsen/logrus"

	"hakayat/internal/config"
	"hakayat/internal/domain/story"
)

// Export writes every saved story to w as an indented JSON array.
func Export(ctx context.Context, store Store, w io.Writer) (int, error) {
	all, err := store.List(ctx)
	if err != nil {
		return 0, err
	}
	if all == nil {
		all = []*story.Saved{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(all); err != nil {
		return 0, fmt.Errorf("encode backup: %w", err)
	}
	return len(all), nil
}

// Import adds the stories in r whose ids are not yet in store and returns how
// many were added.
func Import(ctx context.Context, store Store, r io.Reader) (int, error) {
	var entries []*story.Saved
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return 0, fmt.Errorf("invalid backup file: %w", err)
	}
	added := 0
	for _, s := range entries {
		if s == nil || s.ID == "" {
			continue
		}
		ok, err := store.Restore(ctx, s)
		if err != nil {
			return added, err
		}
		if ok {
			added++
		}
	}
	logrus.WithFields(logrus.Fields{"entries": len(entries), "added": added}).Info("Imported backup")
	return added, nil
}

// Location is where a backup is written to or read from.
type Location interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	Create(ctx context.Context) (io.WriteCloser, error)
	String() string
}

// ParseLocation resolves a local path or an s3://bucket/key URL.
func ParseLocation(target string, cfg config.S3) (Location, error) {
	rest, ok := strings.CutPrefix(target, "s3://")
	if !ok {
		if target == "" {
			return nil, errors.New("empty backup location")
		}
		return fileLocation(target), nil
	}
	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("invalid S3 location %q (want s3://bucket/key)", target)
	}
	return &s3Location{client: newS3Client(cfg), bucket: bucket, key: key}, nil
}

type fileLocation string

func (f fileLocation) String() string { return string(f) }

func (f fileLocation) Open(context.Context) (io.ReadCloser, error) {
	return os.Open(string(f))
}

func (f fileLocation) Create(context.Context) (io.WriteCloser, error) {
	if dir := filepath.Dir(string(f)); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	return os.Create(string(f))
}

// S3Client is the part of the S3 API a backup needs. *s3.Client satisfies it.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type s3Location struct {
	client S3Client
	bucket string
	key    string
}

func (l *s3Location) String() string { return "s3://" + l.bucket + "/" + l.key }

func (l *s3Location) Open(ctx context.Context) (io.ReadCloser, error) {
	out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(l.key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, fmt.Errorf("%s: %w", l, os.ErrNotExist)
		}
		return nil, err
	}
	return out.Body, nil
}

// Create streams the backup to PutObject through a pipe. Close waits for the
// upload and returns its error.
func (l *s3Location) Create(ctx context.Context) (io.WriteCloser, error) {
	pr, pw := io.Pipe()
	w := &s3Writer{pw: pw, done: make(chan struct{})}
	go func() {
		defer close(w.done)
		_, w.err = l.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(l.bucket),
			Key:         aws.String(l.key),
			Body:        pr,
			ContentType: aws.String("application/json"),
		})
		pr.CloseWithError(w.err)
	}()
	return w, nil
}

type s3Writer struct {
	pw   *io.PipeWriter
	done chan struct{}
	err  error
}

func (w *s3Writer) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

func (w *s3Writer) Close() error {
	w.pw.Close()
	<-w.done
	return w.err
}

func isS3NotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

func newS3Client(cfg config.S3) *s3.Client {
	accessKey := cfg.AccessKey
	secretKey := cfg.SecretKey
	if accessKey == "" {
		accessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		secretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
	opts := s3.Options{
		Region: cfg.Region,
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: accessKey, SecretAccessKey: secretKey}, nil
		}),
	}
	if cfg.Endpoint != "" {
		// S3-compatible stores (MinIO, R2) want path-style addressing.
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

// ExportTo writes a backup of store to target.
func ExportTo(ctx context.Context, store Store, target Location) (int, error) {
	w, err := target.Create(ctx)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", target, err)
	}
	n, err := Export(ctx, store, w)
	if cerr := w.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("write %s: %w", target, cerr)
	}
	return n, err
}

// ImportFrom reads a backup from source into store.
func ImportFrom(ctx context.Context, store Store, source Location) (int, error) {
	r, err := source.Open(ctx)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", source, err)
	}
	defer r.Close()
	return Import(ctx, store, r)
}
