package tts

import (
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// MockSynthesizer pretends to speak, taking as long as reading the text aloud
// would take at 150 words per minute.
type MockSynthesizer struct {
	language string
}

func NewMockSynthesizer(language string) *MockSynthesizer {
	return &MockSynthesizer{language: language}
}

func (m *MockSynthesizer) Voices() ([]LocalVoice, error) {
	return []LocalVoice{{ID: "mock", Name: "mock-voice", Language: m.language}}, nil
}

func (m *MockSynthesizer) Speak(text string, _ *LocalVoice, rate float64, onEnd func(error)) (func(), error) {
	duration := readingTime(text, rate)
	color.Yellow("🔊 Reading aloud... (simulated for %v)", duration.Round(time.Second))

	var once sync.Once
	timer := time.AfterFunc(duration, func() {
		once.Do(func() { onEnd(nil) })
	})
	return func() {
		timer.Stop()
		once.Do(func() {})
	}, nil
}

func readingTime(text string, rate float64) time.Duration {
	words := len(strings.Fields(text))
	minutes := float64(words) / 150.0 / ClampRate(rate)
	return time.Duration(minutes * float64(time.Minute))
}
