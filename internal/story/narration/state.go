package narration

import (
	"errors"

	"hakayat/internal/domain/story"
	"hakayat/internal/story/tts"
)

var (
	ErrNarrationDisabled = errors.New("narration is disabled: no speech synthesis available")
	ErrNoStory           = errors.New("no story loaded")
	ErrClosed            = errors.New("narration controller closed")
)

// Phase is the controller's position in the playback cycle.
type Phase int

const (
	Idle Phase = iota
	Buffering
	Speaking
	Stopped
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Buffering:
		return "buffering"
	case Speaking:
		return "speaking"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// State is a snapshot of playback. Buffering and Speaking carry ChunkIndex as
// the chunk being worked on; at rest ChunkIndex is where Play resumes.
type State struct {
	Phase           Phase
	ChunkIndex      int
	ChunkCount      int
	ActiveParagraph int
	Voice           tts.Voice
	Rate            float64
	FallbackActive  bool
	// Backend serves the current attempt. Meaningful in Buffering and Speaking.
	Backend   tts.VoiceKind
	LastError tts.ErrorKind
	Disabled  bool
	// Token identifies the current attempt; asynchronous results carrying any
	// other token are stale.
	Token uint64
}

// NewState returns the at-rest state for a story of n chunks.
func NewState(n int, voice tts.Voice, rate float64) State {
	return State{
		Phase:           Idle,
		ChunkCount:      n,
		ActiveParagraph: story.NoParagraph,
		Voice:           voice,
		Rate:            tts.ClampRate(rate),
	}
}

func (s State) IsPlaying() bool {
	return s.Phase == Buffering || s.Phase == Speaking
}

func (s State) IsBuffering() bool {
	return s.Phase == Buffering
}

// Progress is the position through the story in percent.
func (s State) Progress() float64 {
	if s.ChunkCount <= 1 {
		return 0
	}
	p := float64(s.ChunkIndex) / float64(s.ChunkCount-1) * 100
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

// NoticeLevel says how a notice should be presented.
type NoticeLevel int

const (
	// NoticeTransient dismisses itself.
	NoticeTransient NoticeLevel = iota
	// NoticeBlocking needs the user's acknowledgement.
	NoticeBlocking
)

// Notice is a user-facing narration message.
type Notice struct {
	Level   NoticeLevel
	Kind    tts.ErrorKind
	Message string
	Err     error
}
