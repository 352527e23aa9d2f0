// Cross-platform eSpeak implementation
package tts

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ESpeakSynthesizer speaks through eSpeak/eSpeak-NG.
type ESpeakSynthesizer struct {
	path   string
	volume float64
}

// newESpeakSynthesizer locates espeak-ng or espeak on PATH.
func newESpeakSynthesizer(volume float64) (*ESpeakSynthesizer, error) {
	path, err := findESpeakExecutable()
	if err != nil {
		return nil, fmt.Errorf("eSpeak not found: %w", err)
	}
	if err := exec.Command(path, "--version").Run(); err != nil {
		return nil, fmt.Errorf("eSpeak test failed: %w", err)
	}
	return &ESpeakSynthesizer{path: path, volume: volume}, nil
}

func findESpeakExecutable() (string, error) {
	for _, candidate := range []string{"espeak-ng", "espeak"} {
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("eSpeak executable not found in PATH")
}

func (e *ESpeakSynthesizer) Voices() ([]LocalVoice, error) {
	output, err := exec.Command(e.path, "--voices").Output()
	if err != nil {
		return nil, err
	}
	return parseESpeakVoices(string(output)), nil
}

func (e *ESpeakSynthesizer) Speak(text string, voice *LocalVoice, rate float64, onEnd func(error)) (func(), error) {
	return startProcess(exec.Command(e.path, e.args(text, voice, rate)...), onEnd)
}

func (e *ESpeakSynthesizer) args(text string, voice *LocalVoice, rate float64) []string {
	var args []string
	if voice != nil && voice.ID != "" {
		args = append(args, "-v", voice.ID)
	}

	// words per minute, default is 175
	args = append(args, "-s", strconv.Itoa(int(175*ClampRate(rate))))

	// amplitude 0-200, default is 100
	if e.volume > 0 {
		args = append(args, "-a", strconv.Itoa(int(100*e.volume)))
	}

	// "--" keeps text that starts with a dash from being read as a flag
	return append(args, "--", text)
}

// parseESpeakVoices reads the `--voices` table:
//
//	Pty Language       Age/Gender VoiceName          File                 Other Languages
//	 5  ar              --/M      Arabic             sem/ar
func parseESpeakVoices(output string) []LocalVoice {
	var voices []LocalVoice
	for i, line := range strings.Split(output, "\n") {
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}
		voices = append(voices, LocalVoice{
			ID:       fields[4],
			Name:     fields[3],
			Language: fields[1],
		})
	}
	return voices
}
