package tts

import (
	"context"
	"encoding/base64"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePCM(t *testing.T) {
	// 0x0000, 0x7fff, 0x8000 little-endian plus a dangling byte
	raw := []byte{0x00, 0x00, 0xff, 0x7f, 0x00, 0x80, 0x42}
	buf, err := DecodePCM(base64.StdEncoding.EncodeToString(raw))
	require.NoError(t, err)

	require.Len(t, buf.Samples, 3)
	assert.Equal(t, 0.0, buf.Samples[0])
	assert.InDelta(t, 32767.0/32768.0, buf.Samples[1], 1e-12)
	assert.Equal(t, -1.0, buf.Samples[2])
	assert.Equal(t, SampleRate, buf.SampleRate)
}

func TestDecodePCMErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"empty", ""},
		{"not base64", "%%%not-base64%%%"},
		{"single byte", base64.StdEncoding.EncodeToString([]byte{0x01})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePCM(tt.payload)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDecode)
			assert.Equal(t, ErrorDecode, KindOf(err, ErrorNone))
		})
	}
}

func TestBufferDuration(t *testing.T) {
	buf := &Buffer{Samples: make([]float64, SampleRate/2), SampleRate: SampleRate}
	assert.Equal(t, 500*time.Millisecond, buf.Duration())
}

func TestClampRate(t *testing.T) {
	assert.Equal(t, MinRate, ClampRate(0.1))
	assert.Equal(t, MaxRate, ClampRate(3))
	assert.Equal(t, 1.5, ClampRate(1.5))
	assert.Equal(t, DefaultRate, ClampRate(math.NaN()))
}

func TestParseVoice(t *testing.T) {
	tests := []struct {
		in   string
		want Voice
	}{
		{"Puck", RemoteVoice("Puck")},
		{"kore", RemoteVoice("Kore")},
		{"remote:Aoede", RemoteVoice("Aoede")},
		{"device:Majed", DeviceVoice("Majed")},
		{"Majed", DeviceVoice("Majed")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseVoice(tt.in, GeminiVoices))
		})
	}
	assert.Equal(t, "remote:Puck", RemoteVoice("Puck").String())
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("boom")
	err := newError(ErrorRemoteCall, cause)

	assert.ErrorIs(t, err, ErrRemoteCall)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrDecode)
	assert.Equal(t, ErrorRemoteCall, KindOf(err, ErrorNone))
	assert.Equal(t, ErrorDeviceSynthesis, KindOf(cause, ErrorDeviceSynthesis))
	assert.Equal(t, ErrorNone, KindOf(nil, ErrorDecode))
	assert.Equal(t, "unsupported_platform", ErrorUnsupportedPlatform.String())
}

type fakeService struct {
	payload string
	err     error
	calls   []string
}

func (f *fakeService) Name() string     { return "fake" }
func (f *fakeService) Voices() []string { return GeminiVoices }

func (f *fakeService) GenerateSpeech(_ context.Context, text, voice string) (string, error) {
	f.calls = append(f.calls, voice+":"+text)
	return f.payload, f.err
}

type fakeOutput struct {
	mu      sync.Mutex
	played  []*Buffer
	speeds  []float64
	onEnd   func()
	stopped int
}

func (f *fakeOutput) Play(buf *Buffer, speed float64, onEnd func()) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.played = append(f.played, buf)
	f.speeds = append(f.speeds, speed)
	f.onEnd = onEnd
	return func() {
		f.mu.Lock()
		f.stopped++
		f.mu.Unlock()
	}, nil
}

func (f *fakeOutput) finish() {
	f.mu.Lock()
	onEnd := f.onEnd
	f.mu.Unlock()
	onEnd()
}

func pcmPayload(samples int) string {
	return base64.StdEncoding.EncodeToString(make([]byte, samples*BytesPerSample))
}

func TestRemoteBackendSynthesize(t *testing.T) {
	svc := &fakeService{payload: pcmPayload(240)}
	out := &fakeOutput{}
	b := NewRemoteBackend(svc, out)

	audio, err := b.Synthesize(context.Background(), "مرحبا", RemoteVoice("Kore"), 1.5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Kore:مرحبا"}, svc.calls)

	done := make(chan error, 1)
	require.NoError(t, audio.Play(func(err error) { done <- err }))
	require.Len(t, out.played, 1)
	assert.Len(t, out.played[0].Samples, 240)
	assert.Equal(t, 1.5, out.speeds[0])

	out.finish()
	assert.NoError(t, <-done)
}

func TestRemoteBackendStopSuppressesCompletion(t *testing.T) {
	out := &fakeOutput{}
	b := NewRemoteBackend(&fakeService{payload: pcmPayload(10)}, out)

	audio, err := b.Synthesize(context.Background(), "text", RemoteVoice("Puck"), 1)
	require.NoError(t, err)

	called := false
	require.NoError(t, audio.Play(func(error) { called = true }))
	audio.Stop()
	audio.Stop()
	out.finish()

	assert.False(t, called)
	assert.Equal(t, 1, out.stopped)
}

func TestRemoteBackendFailures(t *testing.T) {
	tests := []struct {
		name string
		svc  *fakeService
		kind ErrorKind
	}{
		{"call fails", &fakeService{err: errors.New("quota")}, ErrorRemoteCall},
		{"empty response", &fakeService{}, ErrorRemoteCall},
		{"bad payload", &fakeService{payload: "!!"}, ErrorDecode},
		{"no frames", &fakeService{payload: base64.StdEncoding.EncodeToString([]byte{1})}, ErrorDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewRemoteBackend(tt.svc, &fakeOutput{})
			_, err := b.Synthesize(context.Background(), "text", RemoteVoice("Puck"), 1)
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err, ErrorNone))
		})
	}

	_, err := NewRemoteBackend(nil, &fakeOutput{}).Synthesize(context.Background(), "text", RemoteVoice("Puck"), 1)
	assert.ErrorIs(t, err, ErrRemoteCall)
}

func TestStripWAVHeader(t *testing.T) {
	wav := append([]byte("RIFF"), make([]byte, wavHeaderSize-4)...)
	wav = append(wav, 1, 2, 3, 4)
	assert.Equal(t, []byte{1, 2, 3, 4}, stripWAVHeader(wav))
	assert.Equal(t, []byte{5, 6}, stripWAVHeader([]byte{5, 6}))
}

func TestSpeechCache(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "google_classic")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, md5Sum("a")+".pcm"), make([]byte, 1024), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	stats, err := SpeechCacheStats(root)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Files)
	assert.Equal(t, dir, stats.Directory)
	assert.InDelta(t, 1.0/1024, stats.SizeMB, 1e-9)

	require.NoError(t, ClearSpeechCache(root))
	stats, err = SpeechCacheStats(root)
	require.NoError(t, err)
	assert.Zero(t, stats.Files)
}
