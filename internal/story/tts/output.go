package tts

import (
	"fmt"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

// Output plays decoded buffers on the audio device.
type Output interface {
	// Play starts playback at the given speed multiplier. onEnd fires once
	// when the buffer has been fully played, unless stop was called first.
	// stop is idempotent.
	Play(buf *Buffer, speed float64, onEnd func()) (stop func(), err error)
}

// Speaker is an Output on the default audio device via beep.
type Speaker struct {
	mu         sync.Mutex
	rate       beep.SampleRate
	bufferSize time.Duration
	ready      bool
}

func NewSpeaker() *Speaker {
	return &Speaker{
		rate:       beep.SampleRate(SampleRate),
		bufferSize: time.Second / 10,
	}
}

func (s *Speaker) init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}
	if err := speaker.Init(s.rate, s.rate.N(s.bufferSize)); err != nil {
		return fmt.Errorf("failed to open audio device: %w", err)
	}
	s.ready = true
	return nil
}

func (s *Speaker) Play(buf *Buffer, speed float64, onEnd func()) (func(), error) {
	if err := s.init(); err != nil {
		return nil, err
	}

	var stream beep.Streamer = bufferStreamer(buf)
	if from := beep.SampleRate(buf.SampleRate); from != s.rate {
		stream = beep.Resample(4, from, s.rate, stream)
	}
	if speed = ClampRate(speed); speed != 1.0 {
		// Playing the samples faster shortens the audio the same way the
		// browser's playbackRate does.
		stream = beep.ResampleRatio(4, speed, stream)
	}

	// stopped is only touched with the speaker lock held; beep runs the
	// callback from its mixer under that lock.
	stopped := false
	ctrl := &beep.Ctrl{Streamer: stream}
	speaker.Play(beep.Seq(ctrl, beep.Callback(func() {
		if !stopped {
			stopped = true
			go onEnd()
		}
	})))

	return func() {
		speaker.Lock()
		stopped = true
		ctrl.Streamer = nil
		speaker.Unlock()
	}, nil
}

func bufferStreamer(buf *Buffer) beep.Streamer {
	pos := 0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= len(buf.Samples) {
			return 0, false
		}
		n := copy2(samples, buf.Samples[pos:])
		pos += n
		return n, true
	})
}

// copy2 writes mono samples to both stereo channels.
func copy2(dst [][2]float64, src []float64) int {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		dst[i][0] = src[i]
		dst[i][1] = src[i]
	}
	return n
}
