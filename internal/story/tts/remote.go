package tts

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// SpeechService is a hosted neural voice.
type SpeechService interface {
	// Name identifies the service in logs and settings.
	Name() string
	// Voices is the fixed catalog of voice names the service accepts.
	Voices() []string
	// GenerateSpeech returns base64 encoded mono 16-bit PCM at 24 kHz.
	GenerateSpeech(ctx context.Context, text, voice string) (string, error)
}

// RemoteBackend speaks through a SpeechService and the local audio output.
type RemoteBackend struct {
	service SpeechService
	output  Output
}

func NewRemoteBackend(service SpeechService, output Output) *RemoteBackend {
	return &RemoteBackend{service: service, output: output}
}

func (r *RemoteBackend) Kind() VoiceKind {
	return VoiceRemote
}

// Voices returns the service catalog.
func (r *RemoteBackend) Voices() []string {
	if r.service == nil {
		return nil
	}
	return r.service.Voices()
}

func (r *RemoteBackend) Synthesize(ctx context.Context, text string, voice Voice, rate float64) (Audio, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("nothing to synthesize")
	}
	if r.service == nil {
		return nil, newError(ErrorRemoteCall, errors.New("no remote speech service configured"))
	}

	payload, err := r.service.GenerateSpeech(ctx, text, voice.Name)
	if err != nil {
		return nil, newError(ErrorRemoteCall, err)
	}
	if payload == "" {
		return nil, newError(ErrorRemoteCall, errors.New("empty response"))
	}

	buf, err := DecodePCM(payload)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"service":  r.service.Name(),
		"voice":    voice.Name,
		"duration": buf.Duration(),
	}).Debug("Synthesized remote chunk")

	return &bufferAudio{output: r.output, buf: buf, speed: ClampRate(rate)}, nil
}

type bufferAudio struct {
	output Output
	buf    *Buffer
	speed  float64

	mu      sync.Mutex
	stop    func()
	stopped bool
}

func (a *bufferAudio) Play(onDone func(error)) error {
	a.mu.Lock()
	stopped := a.stopped
	a.mu.Unlock()
	if stopped {
		return nil
	}

	stop, err := a.output.Play(a.buf, a.speed, func() {
		a.mu.Lock()
		stopped := a.stopped
		a.mu.Unlock()
		if !stopped {
			onDone(nil)
		}
	})
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		stop()
		return nil
	}
	a.stop = stop
	return nil
}

func (a *bufferAudio) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.stopped = true
	if a.stop != nil {
		a.stop()
	}
}
