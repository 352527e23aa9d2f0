package narration

import (
	"strings"

	"hakayat/internal/domain/story"
	"hakayat/internal/story/tts"
)

// Event is an input to the state machine.
type Event interface {
	event()
}

type (
	// Play starts or resumes narration from the current chunk.
	Play struct{}
	// Stop silences narration and keeps the position.
	Stop struct{}
	// SettingsChanged carries a new voice and/or rate. Nil fields are
	// unchanged.
	SettingsChanged struct {
		Voice *tts.Voice
		Rate  *float64
	}
	SynthesisSucceeded struct {
		Token uint64
		Audio tts.Audio
	}
	SynthesisFailed struct {
		Token uint64
		Err   error
	}
	PlaybackEnded struct {
		Token uint64
	}
	PlaybackFailed struct {
		Token uint64
		Err   error
	}
)

func (Play) event()               {}
func (Stop) event()               {}
func (SettingsChanged) event()    {}
func (SynthesisSucceeded) event() {}
func (SynthesisFailed) event()    {}
func (PlaybackEnded) event()      {}
func (PlaybackFailed) event()     {}

// Effect is work the runtime performs after a transition.
type Effect interface {
	effect()
}

type (
	// RequestSynthesis asks Backend for audio of chunk Index.
	RequestSynthesis struct {
		Token   uint64
		Index   int
		Text    string
		Voice   tts.Voice
		Rate    float64
		Backend tts.VoiceKind
	}
	// StartPlayback plays Audio; its completion reports with Token.
	StartPlayback struct {
		Token uint64
		Audio tts.Audio
	}
	// CancelAll aborts in-flight synthesis and silences output.
	CancelAll struct{}
	// ReleaseAudio drops audio that arrived for a stale attempt.
	ReleaseAudio struct {
		Audio tts.Audio
	}
	Notify struct {
		Notice Notice
	}
	// ParagraphChanged reports a new active paragraph, or story.NoParagraph.
	ParagraphChanged struct {
		Paragraph int
	}
)

func (RequestSynthesis) effect() {}
func (StartPlayback) effect()    {}
func (CancelAll) effect()        {}
func (ReleaseAudio) effect()     {}
func (Notify) effect()           {}
func (ParagraphChanged) effect() {}

const (
	fallbackMessage    = "AI voice unavailable, switching to the device voice"
	unsupportedMessage = "Speech synthesis is not supported on this device"
)

// Machine is the narration state machine for one story. Step is a pure
// function of its arguments.
type Machine struct {
	Chunks []story.Chunk
}

// Step applies e to s.
func (m Machine) Step(s State, e Event) (State, []Effect) {
	s.ChunkCount = len(m.Chunks)

	switch e := e.(type) {
	case Play:
		if s.Disabled || s.IsPlaying() || len(m.Chunks) == 0 {
			return s, nil
		}
		s.FallbackActive = false
		s.LastError = tts.ErrorNone
		if s.ChunkIndex >= len(m.Chunks) {
			s.ChunkIndex = 0
		}
		return m.begin(s, s.ChunkIndex, nil)

	case Stop:
		if !s.IsPlaying() {
			return s, nil
		}
		s.Token++
		s.Phase = Stopped
		return s, []Effect{CancelAll{}}

	case SettingsChanged:
		if e.Rate != nil {
			s.Rate = tts.ClampRate(*e.Rate)
		}
		if e.Voice != nil {
			s.Voice = *e.Voice
			if s.Voice.IsRemote() {
				s.FallbackActive = false
			}
		}
		if !s.IsPlaying() {
			return s, nil
		}
		s.Token++
		s.Phase = Stopped
		s.FallbackActive = false
		s.LastError = tts.ErrorNone
		return m.begin(s, s.ChunkIndex, []Effect{CancelAll{}})

	case SynthesisSucceeded:
		if e.Token != s.Token || s.Phase != Buffering {
			return s, []Effect{ReleaseAudio{Audio: e.Audio}}
		}
		s.Phase = Speaking
		return s, []Effect{StartPlayback{Token: s.Token, Audio: e.Audio}}

	case SynthesisFailed:
		if e.Token != s.Token || s.Phase != Buffering {
			return s, nil
		}
		return m.fail(s, e.Err)

	case PlaybackEnded:
		if e.Token != s.Token || s.Phase != Speaking {
			return s, nil
		}
		return m.begin(s, s.ChunkIndex+1, nil)

	case PlaybackFailed:
		if e.Token != s.Token || s.Phase != Speaking {
			return s, nil
		}
		return m.fail(s, e.Err)
	}
	return s, nil
}

// begin starts the attempt for chunk i, skipping chunks with nothing to
// speak. Past the end it rests at Stopped and rewinds.
func (m Machine) begin(s State, i int, effects []Effect) (State, []Effect) {
	for i < len(m.Chunks) && strings.TrimSpace(m.Chunks[i].Text) == "" {
		i++
	}

	if i >= len(m.Chunks) {
		s.Token++
		s.Phase = Stopped
		s.ChunkIndex = 0
		return m.setParagraph(s, story.NoParagraph, effects)
	}

	chunk := m.Chunks[i]
	s.Token++
	s.Phase = Buffering
	s.ChunkIndex = i
	s.Backend = tts.VoiceRemote
	if !s.Voice.IsRemote() || s.FallbackActive {
		s.Backend = tts.VoiceDevice
	}

	s, effects = m.setParagraph(s, chunk.Paragraph, effects)
	return s, append(effects, m.request(s, chunk))
}

func (m Machine) request(s State, chunk story.Chunk) Effect {
	return RequestSynthesis{
		Token:   s.Token,
		Index:   s.ChunkIndex,
		Text:    chunk.Text,
		Voice:   s.Voice,
		Rate:    s.Rate,
		Backend: s.Backend,
	}
}

func (m Machine) setParagraph(s State, p int, effects []Effect) (State, []Effect) {
	if s.ActiveParagraph == p {
		return s, effects
	}
	s.ActiveParagraph = p
	return s, append(effects, ParagraphChanged{Paragraph: p})
}

// fail handles a failed attempt on the current chunk. A remote failure gets
// one retry of the same chunk on the device backend; a device failure skips
// the chunk.
func (m Machine) fail(s State, err error) (State, []Effect) {
	fallback := tts.ErrorRemoteCall
	if s.Backend == tts.VoiceDevice {
		fallback = tts.ErrorDeviceSynthesis
	}
	kind := tts.KindOf(err, fallback)
	s.LastError = kind

	if kind == tts.ErrorUnsupportedPlatform {
		s.Token++
		s.Phase = Stopped
		s.Disabled = true
		return s, []Effect{
			CancelAll{},
			Notify{Notice: Notice{Level: NoticeBlocking, Kind: kind, Message: unsupportedMessage, Err: err}},
		}
	}

	if s.Backend == tts.VoiceDevice {
		return m.begin(s, s.ChunkIndex+1, []Effect{CancelAll{}})
	}

	s.FallbackActive = true
	s.Backend = tts.VoiceDevice
	s.Token++
	s.Phase = Buffering
	return s, []Effect{
		CancelAll{},
		Notify{Notice: Notice{Level: NoticeTransient, Kind: kind, Message: fallbackMessage, Err: err}},
		m.request(s, m.Chunks[s.ChunkIndex]),
	}
}
