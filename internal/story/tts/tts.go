package tts

import (
	"context"
	"math"
	"strings"
)

// VoiceKind tells which backend variant speaks a voice.
type VoiceKind int

const (
	VoiceRemote VoiceKind = iota
	VoiceDevice
)

func (k VoiceKind) String() string {
	if k == VoiceDevice {
		return "device"
	}
	return "remote"
}

// Voice identifies a narration voice: a remote catalog voice or a platform
// voice.
type Voice struct {
	Kind VoiceKind
	Name string
}

func RemoteVoice(name string) Voice {
	return Voice{Kind: VoiceRemote, Name: name}
}

func DeviceVoice(name string) Voice {
	return Voice{Kind: VoiceDevice, Name: name}
}

func (v Voice) IsRemote() bool {
	return v.Kind == VoiceRemote
}

func (v Voice) String() string {
	return v.Kind.String() + ":" + v.Name
}

// ParseVoice reads "remote:<name>", "device:<name>" or a bare name. Bare names
// found in the remote catalog are remote voices, anything else is a device
// voice.
func ParseVoice(s string, catalog []string) Voice {
	s = strings.TrimSpace(s)
	if kind, name, ok := strings.Cut(s, ":"); ok {
		switch strings.ToLower(kind) {
		case "remote":
			return RemoteVoice(name)
		case "device":
			return DeviceVoice(name)
		}
	}
	for _, name := range catalog {
		if strings.EqualFold(name, s) {
			return RemoteVoice(name)
		}
	}
	return DeviceVoice(s)
}

// Audio is a synthesized chunk ready to be heard.
type Audio interface {
	// Play starts output and calls onDone exactly once when playback ends
	// naturally (nil) or fails. onDone is not called after Stop.
	Play(onDone func(error)) error
	// Stop silences the audio. It is safe to call more than once.
	Stop()
}

// Backend produces audio for one chunk of text.
type Backend interface {
	Kind() VoiceKind
	Synthesize(ctx context.Context, text string, voice Voice, rate float64) (Audio, error)
}

const (
	MinRate     = 0.5
	MaxRate     = 2.0
	DefaultRate = 1.0
)

// ClampRate bounds a speech rate to [MinRate, MaxRate].
func ClampRate(rate float64) float64 {
	switch {
	case math.IsNaN(rate):
		return DefaultRate
	case rate < MinRate:
		return MinRate
	case rate > MaxRate:
		return MaxRate
	}
	return rate
}
