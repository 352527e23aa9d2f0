package narration

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"hakayat/internal/domain/story"
	"hakayat/internal/story/tts"
)

// Options configures a Controller. Callbacks run on the controller goroutine
// and must not call back into the Controller.
type Options struct {
	Voice tts.Voice
	Rate  float64

	OnNotice    func(Notice)
	OnParagraph func(paragraph int)
	OnState     func(State)
}

// Controller owns narration of one story at a time. All transitions run on a
// single goroutine; the exported methods block until theirs has been applied.
type Controller struct {
	backends map[tts.VoiceKind]tts.Backend
	opts     Options

	inbox chan message
	done  chan struct{}
	once  sync.Once

	// loop goroutine only
	machine     Machine
	state       State
	cancelSynth context.CancelFunc
	audio       tts.Audio
}

type message struct {
	event  Event
	load   []story.Chunk
	isLoad bool
	reply  chan reply
}

type reply struct {
	state State
	err   error
}

// NewController starts a controller narrating through remote and device.
func NewController(remote, device tts.Backend, opts Options) *Controller {
	if opts.Rate == 0 {
		opts.Rate = tts.DefaultRate
	}
	c := &Controller{
		backends: map[tts.VoiceKind]tts.Backend{
			tts.VoiceRemote: remote,
			tts.VoiceDevice: device,
		},
		opts:  opts,
		inbox: make(chan message, 16),
		done:  make(chan struct{}),
		state: NewState(0, opts.Voice, opts.Rate),
	}
	go c.loop()
	return c
}

// Load replaces the story being narrated. Playback stops and the state
// returns to its defaults; voice, rate and a disabled platform carry over.
func (c *Controller) Load(chunks []story.Chunk) error {
	_, err := c.send(message{load: chunks, isLoad: true})
	return err
}

// Play starts narration from the current chunk.
func (c *Controller) Play() error {
	st, err := c.send(message{event: Play{}})
	if err != nil {
		return err
	}
	if st.Disabled {
		return ErrNarrationDisabled
	}
	if st.ChunkCount == 0 {
		return ErrNoStory
	}
	return nil
}

// Stop cancels synthesis and silences output before returning.
func (c *Controller) Stop() error {
	_, err := c.send(message{event: Stop{}})
	return err
}

// Pause is Stop: the position is kept and Play resumes from it.
func (c *Controller) Pause() error {
	return c.Stop()
}

// Toggle plays when at rest and pauses while playing.
func (c *Controller) Toggle() error {
	st, err := c.State()
	if err != nil {
		return err
	}
	if st.IsPlaying() {
		return c.Pause()
	}
	return c.Play()
}

func (c *Controller) SetVoice(v tts.Voice) error {
	_, err := c.send(message{event: SettingsChanged{Voice: &v}})
	return err
}

func (c *Controller) SetRate(rate float64) error {
	_, err := c.send(message{event: SettingsChanged{Rate: &rate}})
	return err
}

// State returns a snapshot of the playback state.
func (c *Controller) State() (State, error) {
	return c.send(message{})
}

// Close stops narration and ends the controller goroutine.
func (c *Controller) Close() {
	_ = c.Stop()
	c.once.Do(func() { close(c.done) })
}

func (c *Controller) send(m message) (State, error) {
	m.reply = make(chan reply, 1)
	select {
	case c.inbox <- m:
	case <-c.done:
		return State{}, ErrClosed
	}
	select {
	case r := <-m.reply:
		return r.state, r.err
	case <-c.done:
		return State{}, ErrClosed
	}
}

// post delivers an asynchronous result to the loop.
func (c *Controller) post(e Event) {
	select {
	case c.inbox <- message{event: e}:
	case <-c.done:
	}
}

func (c *Controller) loop() {
	for {
		select {
		case <-c.done:
			c.cancel()
			return
		default:
		}

		select {
		case <-c.done:
			c.cancel()
			return
		case m := <-c.inbox:
			if m.isLoad {
				c.load(m.load)
			} else if m.event != nil {
				c.dispatch(m.event)
			}
			if m.reply != nil {
				m.reply <- reply{state: c.state}
			}
		}
	}
}

func (c *Controller) load(chunks []story.Chunk) {
	c.dispatch(Stop{})
	disabled := c.state.Disabled
	c.machine = Machine{Chunks: chunks}
	c.state = NewState(len(chunks), c.state.Voice, c.state.Rate)
	c.state.Disabled = disabled
	c.notifyParagraph(story.NoParagraph)
	c.notifyState()
}

// dispatch steps the machine and runs effects until no follow-up events
// remain.
func (c *Controller) dispatch(e Event) {
	queue := []Event{e}
	for len(queue) > 0 {
		e, queue = queue[0], queue[1:]

		prev := c.state
		next, effects := c.machine.Step(c.state, e)
		c.state = next
		if next.Phase != prev.Phase || next.ChunkIndex != prev.ChunkIndex {
			logrus.WithFields(logrus.Fields{
				"phase":    next.Phase,
				"chunk":    next.ChunkIndex,
				"backend":  next.Backend,
				"fallback": next.FallbackActive,
			}).Debug("Narration transition")
		}

		for _, eff := range effects {
			if follow := c.run(eff); follow != nil {
				queue = append(queue, follow)
			}
		}
		if next != prev {
			c.notifyState()
		}
	}
}

// run performs one effect. A synchronous failure comes back as an event.
func (c *Controller) run(eff Effect) Event {
	switch eff := eff.(type) {
	case RequestSynthesis:
		backend := c.backends[eff.Backend]
		if backend == nil {
			return SynthesisFailed{Token: eff.Token, Err: &tts.Error{Kind: tts.ErrorUnsupportedPlatform}}
		}
		ctx, cancel := context.WithCancel(context.Background())
		c.cancelSynth = cancel
		go func() {
			audio, err := backend.Synthesize(ctx, eff.Text, eff.Voice, eff.Rate)
			if err != nil {
				c.post(SynthesisFailed{Token: eff.Token, Err: err})
				return
			}
			c.post(SynthesisSucceeded{Token: eff.Token, Audio: audio})
		}()

	case StartPlayback:
		c.audio = eff.Audio
		token := eff.Token
		// Completion may be reported before Play returns, so it is posted
		// from its own goroutine rather than blocking this one.
		err := eff.Audio.Play(func(err error) {
			if err != nil {
				go c.post(PlaybackFailed{Token: token, Err: err})
				return
			}
			go c.post(PlaybackEnded{Token: token})
		})
		if err != nil {
			return PlaybackFailed{Token: token, Err: err}
		}

	case CancelAll:
		c.cancel()

	case ReleaseAudio:
		if eff.Audio != nil {
			eff.Audio.Stop()
		}

	case Notify:
		entry := logrus.WithField("kind", eff.Notice.Kind)
		if eff.Notice.Err != nil {
			entry = entry.WithError(eff.Notice.Err)
		}
		entry.Warn(eff.Notice.Message)
		if c.opts.OnNotice != nil {
			c.opts.OnNotice(eff.Notice)
		}

	case ParagraphChanged:
		c.notifyParagraph(eff.Paragraph)
	}
	return nil
}

func (c *Controller) cancel() {
	if c.cancelSynth != nil {
		c.cancelSynth()
		c.cancelSynth = nil
	}
	if c.audio != nil {
		c.audio.Stop()
		c.audio = nil
	}
}

func (c *Controller) notifyParagraph(p int) {
	if c.opts.OnParagraph != nil {
		c.opts.OnParagraph(p)
	}
}

func (c *Controller) notifyState() {
	if c.opts.OnState != nil {
		c.opts.OnState(c.state)
	}
}
