package tts

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// LocalVoice is a voice installed on the platform synthesizer.
type LocalVoice struct {
	ID       string
	Name     string
	Language string
}

// Synthesizer is the platform speech engine.
type Synthesizer interface {
	Voices() ([]LocalVoice, error)
	// Speak starts speaking asynchronously. onEnd is called once when the
	// utterance finishes or fails, never after cancel.
	Speak(text string, voice *LocalVoice, rate float64, onEnd func(error)) (cancel func(), err error)
}

// DeviceBackend speaks through the platform synthesizer.
type DeviceBackend struct {
	synth    Synthesizer
	language string

	mu     sync.RWMutex
	all    []LocalVoice
	voices []LocalVoice
}

// NewDeviceBackend returns a backend for synth, limited to voices whose
// language tag starts with language. A nil synth means the platform has no
// speech engine.
func NewDeviceBackend(synth Synthesizer, language string) *DeviceBackend {
	d := &DeviceBackend{synth: synth, language: language}
	if synth != nil {
		if err := d.RefreshVoices(); err != nil {
			logrus.WithError(err).Warn("Failed to enumerate device voices")
		}
	}
	return d
}

func (d *DeviceBackend) Kind() VoiceKind {
	return VoiceDevice
}

// Available reports whether a platform synthesizer exists.
func (d *DeviceBackend) Available() bool {
	return d.synth != nil
}

// RefreshVoices re-enumerates platform voices. Call it whenever the platform
// reports that its voice list changed.
func (d *DeviceBackend) RefreshVoices() error {
	if d.synth == nil {
		return newError(ErrorUnsupportedPlatform, nil)
	}
	all, err := d.synth.Voices()
	if err != nil {
		return newError(ErrorDeviceSynthesis, err)
	}
	filtered := FilterVoices(all, d.language)

	d.mu.Lock()
	d.all = all
	d.voices = filtered
	d.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"total":    len(all),
		"matching": len(filtered),
		"language": d.language,
	}).Debug("Enumerated device voices")
	return nil
}

// Voices returns the voices matching the target language.
func (d *DeviceBackend) Voices() []LocalVoice {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]LocalVoice(nil), d.voices...)
}

// AllVoices returns every platform voice regardless of language.
func (d *DeviceBackend) AllVoices() []LocalVoice {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]LocalVoice(nil), d.all...)
}

// FilterVoices keeps voices whose language starts with language, ignoring case.
func FilterVoices(voices []LocalVoice, language string) []LocalVoice {
	language = strings.ToLower(language)
	var out []LocalVoice
	for _, v := range voices {
		if strings.HasPrefix(strings.ToLower(v.Language), language) {
			out = append(out, v)
		}
	}
	return out
}

// SelectVoice picks the voice named name, or the first matching-language
// voice. nil means the platform default.
func (d *DeviceBackend) SelectVoice(name string) *LocalVoice {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for i := range d.voices {
		if d.voices[i].Name == name {
			v := d.voices[i]
			return &v
		}
	}
	if len(d.voices) > 0 {
		v := d.voices[0]
		return &v
	}
	return nil
}

func (d *DeviceBackend) Synthesize(_ context.Context, text string, voice Voice, rate float64) (Audio, error) {
	if d.synth == nil {
		return nil, newError(ErrorUnsupportedPlatform, nil)
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("nothing to synthesize")
	}
	// A remote voice reaching here means we are falling back, so the
	// language default is the best we can do.
	name := ""
	if voice.Kind == VoiceDevice {
		name = voice.Name
	}
	return &utterance{
		synth: d.synth,
		text:  text,
		voice: d.SelectVoice(name),
		rate:  ClampRate(rate),
	}, nil
}

// utterance defers speaking until Play, so synthesis and output are one step
// for platform engines.
type utterance struct {
	synth Synthesizer
	text  string
	voice *LocalVoice
	rate  float64

	mu       sync.Mutex
	cancel   func()
	canceled bool
}

func (u *utterance) Play(onDone func(error)) error {
	u.mu.Lock()
	canceled := u.canceled
	u.mu.Unlock()
	if canceled {
		return nil
	}

	// Some engines report failure before Speak returns, so the lock is not
	// held across the call.
	cancel, err := u.synth.Speak(u.text, u.voice, u.rate, func(err error) {
		u.mu.Lock()
		canceled := u.canceled
		u.mu.Unlock()
		if canceled {
			return
		}
		if err != nil {
			err = newError(ErrorDeviceSynthesis, err)
		}
		onDone(err)
	})
	if err != nil {
		return newError(ErrorDeviceSynthesis, err)
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if u.canceled {
		cancel()
		return nil
	}
	u.cancel = cancel
	return nil
}

func (u *utterance) Stop() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.canceled {
		return
	}
	u.canceled = true
	if u.cancel != nil {
		u.cancel()
	}
}
