package tts

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// The text travels in an environment variable so it never needs quoting
// inside the PowerShell script.
const sapiTextEnv = "HAKAYAT_TEXT"

const sapiVoicesScript = `Add-Type -AssemblyName System.Speech;
$synth = New-Object System.Speech.Synthesis.SpeechSynthesizer;
foreach ($v in $synth.GetInstalledVoices()) {
  if ($v.Enabled) { "{0}|{1}" -f $v.VoiceInfo.Name, $v.VoiceInfo.Culture.Name }
}`

// SAPISynthesizer drives the Windows Speech API through PowerShell.
type SAPISynthesizer struct {
	path   string
	volume float64
}

func newSAPISynthesizer(volume float64) (*SAPISynthesizer, error) {
	path, err := exec.LookPath("powershell")
	if err != nil {
		return nil, fmt.Errorf("powershell not found: %w", err)
	}
	return &SAPISynthesizer{path: path, volume: volume}, nil
}

func (s *SAPISynthesizer) Voices() ([]LocalVoice, error) {
	output, err := exec.Command(s.path, "-NoProfile", "-Command", sapiVoicesScript).Output()
	if err != nil {
		return nil, err
	}
	return parseSAPIVoices(string(output)), nil
}

func (s *SAPISynthesizer) Speak(text string, voice *LocalVoice, rate float64, onEnd func(error)) (func(), error) {
	cmd := exec.Command(s.path, "-NoProfile", "-Command", s.script(voice, rate))
	cmd.Env = append(os.Environ(), sapiTextEnv+"="+text)
	return startProcess(cmd, onEnd)
}

func (s *SAPISynthesizer) script(voice *LocalVoice, rate float64) string {
	volume := 100
	if s.volume > 0 && s.volume < 1 {
		volume = int(s.volume * 100)
	}
	var b strings.Builder
	b.WriteString("Add-Type -AssemblyName System.Speech;\n")
	b.WriteString("$synth = New-Object System.Speech.Synthesis.SpeechSynthesizer;\n")
	if voice != nil && voice.ID != "" {
		fmt.Fprintf(&b, "$synth.SelectVoice('%s');\n", strings.ReplaceAll(voice.ID, "'", "''"))
	}
	fmt.Fprintf(&b, "$synth.Rate = %d;\n", sapiRate(rate))
	fmt.Fprintf(&b, "$synth.Volume = %d;\n", volume)
	fmt.Fprintf(&b, "$synth.Speak($env:%s)", sapiTextEnv)
	return b.String()
}

// sapiRate maps a multiplier in [0.5, 2] onto the SAPI range -10..10.
func sapiRate(rate float64) int {
	rate = ClampRate(rate)
	if rate >= 1 {
		return int((rate - 1) * 10)
	}
	return int((rate - 1) * 20)
}

func parseSAPIVoices(output string) []LocalVoice {
	var voices []LocalVoice
	for _, line := range strings.Split(output, "\n") {
		name, culture, ok := strings.Cut(strings.TrimSpace(line), "|")
		if !ok || name == "" {
			continue
		}
		voices = append(voices, LocalVoice{ID: name, Name: name, Language: culture})
	}
	return voices
}
