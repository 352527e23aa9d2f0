package tts

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"github.com/sirupsen/logrus"
	texttospeechpb "google.golang.org/genproto/googleapis/cloud/texttospeech/v1"
)

// ChirpVoices are the Chirp3-HD voices that share names with the Gemini
// catalog, so a saved voice setting survives switching services.
var ChirpVoices = []string{"Puck", "Fenrir", "Kore", "Aoede"}

const wavHeaderSize = 44

// GoogleClassicSpeech uses Cloud Text-to-Speech Chirp3-HD voices and keeps
// every synthesized chunk in an on-disk cache.
type GoogleClassicSpeech struct {
	client       *texttospeech.Client
	languageCode string
	cacheRootDir string
	mu           sync.Mutex
}

func NewGoogleClassicSpeech(ctx context.Context, languageCode, cacheDir string) (*GoogleClassicSpeech, error) {
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create TTS client: %w", err)
	}

	cacheDir = classicCacheDir(cacheDir)
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}

	return &GoogleClassicSpeech{
		client:       client,
		languageCode: languageCode,
		cacheRootDir: cacheDir,
	}, nil
}

func (g *GoogleClassicSpeech) Name() string {
	return "googleclassic"
}

func (g *GoogleClassicSpeech) Voices() []string {
	return ChirpVoices
}

// voiceName expands a catalog name into the full Cloud TTS voice name.
func (g *GoogleClassicSpeech) voiceName(voice string) string {
	return fmt.Sprintf("%s-Chirp3-HD-%s", g.languageCode, voice)
}

func (g *GoogleClassicSpeech) cachePath(text, voice string) string {
	return filepath.Join(g.cacheRootDir, md5Sum(g.voiceName(voice)+"\x00"+text)+".pcm")
}

func (g *GoogleClassicSpeech) GenerateSpeech(ctx context.Context, text, voice string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	path := g.cachePath(text, voice)
	if data, err := os.ReadFile(path); err == nil && len(data) > 0 {
		logrus.WithField("path", path).Debug("Using cached audio")
		return base64.StdEncoding.EncodeToString(data), nil
	}

	// Chirp voices don't support speakingRate/pitch, the rate is applied
	// at playback.
	req := &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: g.languageCode,
			Name:         g.voiceName(voice),
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding:   texttospeechpb.AudioEncoding_LINEAR16,
			SampleRateHertz: SampleRate,
		},
	}
	resp, err := g.client.SynthesizeSpeech(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to synthesize: %w", err)
	}

	pcm := stripWAVHeader(resp.AudioContent)
	if len(pcm) == 0 {
		return "", nil
	}
	if err := os.WriteFile(path, pcm, 0644); err != nil {
		logrus.WithError(err).WithField("path", path).Warn("Failed to cache audio")
	} else {
		logrus.WithField("path", path).Debug("Cached audio")
	}
	return base64.StdEncoding.EncodeToString(pcm), nil
}

// stripWAVHeader drops the RIFF header LINEAR16 responses carry.
func stripWAVHeader(data []byte) []byte {
	if len(data) >= wavHeaderSize && bytes.HasPrefix(data, []byte("RIFF")) {
		return data[wavHeaderSize:]
	}
	return data
}

// CacheStats describes the on-disk audio cache.
type CacheStats struct {
	Directory string
	Files     int64
	SizeMB    float64
}

// GetCacheStats returns cache statistics for the engine
func (g *GoogleClassicSpeech) GetCacheStats() (CacheStats, error) {
	return cacheStats(g.cacheRootDir)
}

// ClearCache removes all cached files
func (g *GoogleClassicSpeech) ClearCache() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := os.RemoveAll(g.cacheRootDir); err != nil {
		return err
	}
	return os.MkdirAll(g.cacheRootDir, 0755)
}

// SpeechCacheStats reports on the speech cache under cacheDir without
// connecting to the service.
func SpeechCacheStats(cacheDir string) (CacheStats, error) {
	return cacheStats(classicCacheDir(cacheDir))
}

// ClearSpeechCache empties the speech cache under cacheDir.
func ClearSpeechCache(cacheDir string) error {
	dir := classicCacheDir(cacheDir)
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

func classicCacheDir(cacheDir string) string {
	return filepath.Join(cacheDir, "google_classic")
}

func cacheStats(dir string) (CacheStats, error) {
	stats := CacheStats{Directory: dir}
	var size int64
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Continue walking despite errors
		}
		if !info.IsDir() && strings.HasSuffix(strings.ToLower(info.Name()), ".pcm") {
			stats.Files++
			size += info.Size()
		}
		return nil
	})
	stats.SizeMB = float64(size) / (1024 * 1024)
	return stats, err
}

func md5Sum(s string) string {
	h := md5.New()
	io.WriteString(h, s)
	return fmt.Sprintf("%x", h.Sum(nil))
}
