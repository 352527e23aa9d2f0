package tts

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"hakayat/internal/config"
)

type EngineType string

const (
	EngineTypeNone EngineType = "none"
	EngineTypeAuto EngineType = "auto" // Automatically choose best for platform

	// remote speech services
	EngineTypeGemini        EngineType = "gemini"
	EngineTypeGoogleClassic EngineType = "googleclassic"
	EngineTypeOpenAI        EngineType = "openai"

	// platform synthesizers
	EngineTypeMock   EngineType = "mock"
	EngineTypeESpeak EngineType = "espeak"
	EngineTypeSAPI   EngineType = "sapi" // Windows only
	EngineTypeSay    EngineType = "say"  // macOS only
)

func (e EngineType) String() string {
	return string(e)
}

// NewSpeechService creates the remote speech service named by cfg.TTS.Remote.
// It returns nil, nil when remote speech is disabled.
func NewSpeechService(ctx context.Context, cfg config.Config) (SpeechService, error) {
	engine := EngineType(cfg.TTS.Remote)
	if engine == EngineTypeAuto {
		engine = getBestServiceForConfig(cfg)
	}

	switch engine {
	case EngineTypeNone, "":
		return nil, nil
	case EngineTypeGemini:
		return NewGeminiSpeech(ctx, cfg.GenAI.APIKey, cfg.GenAI.SpeechModel)
	case EngineTypeGoogleClassic:
		return NewGoogleClassicSpeech(ctx, cfg.TTS.LanguageCode, cfg.TTS.CachePath)
	case EngineTypeOpenAI:
		return NewOpenAISpeech(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.SpeechModel)
	default:
		return nil, fmt.Errorf("unsupported speech service: %s", engine)
	}
}

// NewSynthesizer creates the platform synthesizer named by cfg.Device. A nil
// synthesizer with a nil error means the platform has none, which the device
// backend reports as UnsupportedPlatform.
func NewSynthesizer(cfg config.TTS) (Synthesizer, error) {
	engine := EngineType(cfg.Device)
	if engine == EngineTypeAuto {
		engine = getBestEngineForPlatform()
	}

	switch engine {
	case EngineTypeNone, "":
		return nil, nil
	case EngineTypeMock:
		return NewMockSynthesizer(cfg.Language), nil
	case EngineTypeESpeak:
		return newESpeakSynthesizer(cfg.Volume)
	case EngineTypeSAPI:
		if runtime.GOOS != "windows" {
			return nil, fmt.Errorf("SAPI engine only supports Windows")
		}
		return newSAPISynthesizer(cfg.Volume)
	case EngineTypeSay:
		if runtime.GOOS != "darwin" {
			return nil, fmt.Errorf("say engine only supports macOS")
		}
		return newSaySynthesizer()
	default:
		return nil, fmt.Errorf("unsupported TTS engine type: %s", engine)
	}
}

// NewBackends builds both narration backends from configuration. A platform
// without a working synthesizer still gets a device backend, which reports
// UnsupportedPlatform when asked to speak.
func NewBackends(ctx context.Context, cfg config.Config, output Output) (*RemoteBackend, *DeviceBackend, error) {
	service, err := NewSpeechService(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	synth, err := NewSynthesizer(cfg.TTS)
	if err != nil {
		if cfg.TTS.Device != EngineTypeAuto.String() {
			return nil, nil, err
		}
		synth = nil
	}
	return NewRemoteBackend(service, output), NewDeviceBackend(synth, cfg.TTS.Language), nil
}

// getBestEngineForPlatform returns the recommended engine for the current platform
func getBestEngineForPlatform() EngineType {
	switch runtime.GOOS {
	case "windows":
		return EngineTypeSAPI
	case "darwin":
		return EngineTypeSay
	default:
		return EngineTypeESpeak // Cross-platform fallback
	}
}

func getBestServiceForConfig(cfg config.Config) EngineType {
	switch {
	case cfg.GenAI.APIKey != "":
		return EngineTypeGemini
	case hasGoogleCredentials():
		return EngineTypeGoogleClassic
	case cfg.OpenAI.APIKey != "":
		return EngineTypeOpenAI
	default:
		return EngineTypeNone
	}
}

// GetAvailableEngines returns synthesizers available on the current platform
func GetAvailableEngines() []EngineType {
	engines := []EngineType{EngineTypeMock, EngineTypeESpeak}
	switch runtime.GOOS {
	case "windows":
		engines = append(engines, EngineTypeSAPI)
	case "darwin":
		engines = append(engines, EngineTypeSay)
	}
	return engines
}

// hasGoogleCredentials checks if Google Cloud credentials are available
func hasGoogleCredentials() bool {
	_, ok := os.LookupEnv("GOOGLE_APPLICATION_CREDENTIALS")
	return ok
}
