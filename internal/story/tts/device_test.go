package tts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSynth struct {
	voices   []LocalVoice
	spoken   []string
	used     []*LocalVoice
	rates    []float64
	onEnd    func(error)
	speakErr error
	canceled int
}

func (f *fakeSynth) Voices() ([]LocalVoice, error) {
	return f.voices, nil
}

func (f *fakeSynth) Speak(text string, voice *LocalVoice, rate float64, onEnd func(error)) (func(), error) {
	if f.speakErr != nil {
		return nil, f.speakErr
	}
	f.spoken = append(f.spoken, text)
	f.used = append(f.used, voice)
	f.rates = append(f.rates, rate)
	f.onEnd = onEnd
	return func() { f.canceled++ }, nil
}

var platformVoices = []LocalVoice{
	{ID: "en", Name: "Alex", Language: "en-US"},
	{ID: "ar1", Name: "Majed", Language: "ar-SA"},
	{ID: "ar2", Name: "Tarik", Language: "AR-001"},
}

func TestFilterVoices(t *testing.T) {
	got := FilterVoices(platformVoices, "ar")
	require.Len(t, got, 2)
	assert.Equal(t, "Majed", got[0].Name)
	assert.Equal(t, "Tarik", got[1].Name)
	assert.Empty(t, FilterVoices(platformVoices, "fr"))
}

func TestSelectVoice(t *testing.T) {
	d := NewDeviceBackend(&fakeSynth{voices: platformVoices}, "ar")

	assert.Equal(t, "Tarik", d.SelectVoice("Tarik").Name)
	// unknown or wrong-language names fall back to the first match
	assert.Equal(t, "Majed", d.SelectVoice("Alex").Name)
	assert.Equal(t, "Majed", d.SelectVoice("").Name)

	empty := NewDeviceBackend(&fakeSynth{}, "ar")
	assert.Nil(t, empty.SelectVoice("Majed"))
}

func TestRefreshVoices(t *testing.T) {
	synth := &fakeSynth{}
	d := NewDeviceBackend(synth, "ar")
	assert.Empty(t, d.Voices())

	synth.voices = platformVoices
	require.NoError(t, d.RefreshVoices())
	assert.Len(t, d.Voices(), 2)
}

func TestDeviceBackendUnsupported(t *testing.T) {
	d := NewDeviceBackend(nil, "ar")
	assert.False(t, d.Available())

	_, err := d.Synthesize(context.Background(), "text", DeviceVoice("Majed"), 1)
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
	assert.ErrorIs(t, d.RefreshVoices(), ErrUnsupportedPlatform)
}

func TestDeviceUtterance(t *testing.T) {
	synth := &fakeSynth{voices: platformVoices}
	d := NewDeviceBackend(synth, "ar")

	audio, err := d.Synthesize(context.Background(), "قصة", DeviceVoice("Tarik"), 5)
	require.NoError(t, err)
	assert.Empty(t, synth.spoken, "speaking starts on Play")

	var got []error
	require.NoError(t, audio.Play(func(err error) { got = append(got, err) }))
	assert.Equal(t, []string{"قصة"}, synth.spoken)
	assert.Equal(t, "Tarik", synth.used[0].Name)
	assert.Equal(t, MaxRate, synth.rates[0])

	synth.onEnd(errors.New("audio device lost"))
	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0], ErrDeviceSynthesis)
}

func TestDeviceUtteranceRemoteVoiceUsesLanguageDefault(t *testing.T) {
	synth := &fakeSynth{voices: platformVoices}
	d := NewDeviceBackend(synth, "ar")

	audio, err := d.Synthesize(context.Background(), "text", RemoteVoice("Puck"), 1)
	require.NoError(t, err)
	require.NoError(t, audio.Play(func(error) {}))
	assert.Equal(t, "Majed", synth.used[0].Name)
}

func TestDeviceUtteranceStop(t *testing.T) {
	synth := &fakeSynth{voices: platformVoices}
	d := NewDeviceBackend(synth, "ar")

	audio, err := d.Synthesize(context.Background(), "text", DeviceVoice("Majed"), 1)
	require.NoError(t, err)

	called := false
	require.NoError(t, audio.Play(func(error) { called = true }))
	audio.Stop()
	audio.Stop()
	synth.onEnd(nil)

	assert.False(t, called)
	assert.Equal(t, 1, synth.canceled)
}

func TestDeviceUtteranceSpeakError(t *testing.T) {
	synth := &fakeSynth{voices: platformVoices, speakErr: errors.New("busy")}
	d := NewDeviceBackend(synth, "ar")

	audio, err := d.Synthesize(context.Background(), "text", DeviceVoice("Majed"), 1)
	require.NoError(t, err)
	assert.ErrorIs(t, audio.Play(func(error) {}), ErrDeviceSynthesis)
}

func TestParseESpeakVoices(t *testing.T) {
	out := `Pty Language       Age/Gender VoiceName          File                 Other Languages
 5  af              --/M      Afrikaans          gmw/af
 5  ar              --/M      Arabic             sem/ar

`
	voices := parseESpeakVoices(out)
	require.Len(t, voices, 2)
	assert.Equal(t, LocalVoice{ID: "sem/ar", Name: "Arabic", Language: "ar"}, voices[1])
}

func TestParseSayVoices(t *testing.T) {
	out := "Majed               ar_001   # مرحبًا! اسمي ماجد.\n" +
		"Eddy (English (UK)) en_GB    # Hello! My name is Eddy.\n"
	voices := parseSayVoices(out)
	require.Len(t, voices, 2)
	assert.Equal(t, LocalVoice{ID: "Majed", Name: "Majed", Language: "ar-001"}, voices[0])
	assert.Equal(t, "Eddy (English (UK))", voices[1].Name)
	assert.Equal(t, "en-GB", voices[1].Language)
}

func TestParseSAPIVoices(t *testing.T) {
	voices := parseSAPIVoices("Microsoft Naayf|ar-SA\r\nMicrosoft Zira|en-US\r\n\r\n")
	require.Len(t, voices, 2)
	assert.Equal(t, LocalVoice{ID: "Microsoft Naayf", Name: "Microsoft Naayf", Language: "ar-SA"}, voices[0])
}

func TestSAPIRate(t *testing.T) {
	assert.Equal(t, -10, sapiRate(0.5))
	assert.Equal(t, 0, sapiRate(1))
	assert.Equal(t, 10, sapiRate(2))
}

func TestESpeakArgs(t *testing.T) {
	e := &ESpeakSynthesizer{path: "espeak-ng", volume: 0.8}
	args := e.args("-dash", &LocalVoice{ID: "sem/ar"}, 2)
	assert.Equal(t, []string{"-v", "sem/ar", "-s", "350", "-a", "80", "--", "-dash"}, args)
}

func TestReadingTime(t *testing.T) {
	text := "one two three four five six seven eight nine ten"
	assert.InDelta(t, float64(4*time.Second), float64(readingTime(text, 1)), float64(time.Millisecond))
	assert.InDelta(t, float64(2*time.Second), float64(readingTime(text, 2)), float64(time.Millisecond))
}
