package tts

import (
	"fmt"
	"os/exec"
	"strings"
)

// SaySynthesizer uses the macOS built-in say command.
type SaySynthesizer struct {
	path string
}

func newSaySynthesizer() (*SaySynthesizer, error) {
	path, err := exec.LookPath("say")
	if err != nil {
		return nil, fmt.Errorf("say not found: %w", err)
	}
	return &SaySynthesizer{path: path}, nil
}

func (s *SaySynthesizer) Voices() ([]LocalVoice, error) {
	output, err := exec.Command(s.path, "-v", "?").Output()
	if err != nil {
		return nil, err
	}
	return parseSayVoices(string(output)), nil
}

func (s *SaySynthesizer) Speak(text string, voice *LocalVoice, rate float64, onEnd func(error)) (func(), error) {
	args := []string{}
	if voice != nil && voice.ID != "" {
		args = append(args, "-v", voice.ID)
	}
	// words per minute, default is ~175
	args = append(args, "-r", fmt.Sprintf("%.0f", 175*ClampRate(rate)), "--", text)

	return startProcess(exec.Command(s.path, args...), onEnd)
}

// parseSayVoices reads lines of the form
//
//	Majed               ar_001   # مرحبًا! اسمي ماجد.
//	Eddy (English (UK)) en_GB    # Hello! My name is Eddy.
func parseSayVoices(output string) []LocalVoice {
	var voices []LocalVoice
	for _, line := range strings.Split(output, "\n") {
		head, _, _ := strings.Cut(line, "#")
		fields := strings.Fields(head)
		if len(fields) < 2 {
			continue
		}
		lang := fields[len(fields)-1]
		name := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(head), lang))
		voices = append(voices, LocalVoice{
			ID:       name,
			Name:     name,
			Language: strings.ReplaceAll(lang, "_", "-"),
		})
	}
	return voices
}
