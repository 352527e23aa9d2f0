package nest

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"hakayat/internal/cli/scheme/colours"
	"hakayat/internal/domain/story"
	"hakayat/internal/story/narration"
	"hakayat/internal/story/reader"
	"hakayat/internal/story/tts"
)

// viewer is the interactive reading surface: a paged story kept in step with
// the narrated paragraph.
type viewer struct {
	app        *App
	saved      *story.Saved
	paragraphs []string
	pager      *reader.Pager
	styles     reader.Styles
	catalog    []string

	narrator *narration.Controller

	mu     sync.Mutex
	active int
	state  narration.State
}

// view opens s in the reader until the user quits. voice and rate override
// the configured defaults when set.
func (a *App) view(s *story.Saved, voice string, rate float64) error {
	theme := story.DefaultTheme
	if s.ID != "" {
		store, err := a.library()
		if err != nil {
			return err
		}
		if theme, err = store.Theme(a.ctx); err != nil {
			logrus.WithError(err).Warn("Failed to read theme")
		}
	}

	remote, device, catalog := a.backends()
	if voice == "" {
		voice = a.cfg.TTS.Voice
	}
	if rate == 0 {
		rate = a.cfg.TTS.Speed
	}

	paragraphs := story.Paragraphs(s.Story)
	v := &viewer{
		app:        a,
		saved:      s,
		paragraphs: paragraphs,
		pager:      reader.NewPager(len(paragraphs), a.cfg.Reader.PageSize),
		styles:     reader.NewStyles(theme),
		catalog:    catalog,
		active:     story.NoParagraph,
	}
	v.narrator = narration.NewController(remote, device, narration.Options{
		Voice:       tts.ParseVoice(voice, catalog),
		Rate:        rate,
		OnNotice:    v.onNotice,
		OnParagraph: v.onParagraph,
		OnState:     v.onState,
	})
	defer v.narrator.Close()

	if err := v.narrator.Load(story.Segment(s.Story)); err != nil {
		return err
	}
	return v.run()
}

func (v *viewer) run() error {
	v.redraw()
	for {
		colours.Prompt.Fprint(v.app.out, "› ")
		line, err := v.app.readLine()
		if errors.Is(err, io.EOF) {
			return v.narrator.Stop()
		}
		if err != nil {
			return err
		}
		quit, err := v.handle(line)
		if err != nil {
			colours.Error.Fprintf(v.app.out, "❌ %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

// handle applies one command line. It reports whether the reader should close.
func (v *viewer) handle(line string) (bool, error) {
	cmd, arg := parseCommand(line)
	switch cmd {
	case "p":
		return false, v.narrator.Toggle()

	case "s":
		return false, v.narrator.Stop()

	case "n":
		if !v.pager.NextPage() {
			colours.Subtle.Fprintln(v.app.out, "Already on the last page")
			return false, nil
		}
		v.redraw()

	case "b":
		if !v.pager.PrevPage() {
			colours.Subtle.Fprintln(v.app.out, "Already on the first page")
			return false, nil
		}
		v.redraw()

	case "v":
		if arg == "" {
			return false, errors.New("usage: v <voice>")
		}
		voice := tts.ParseVoice(arg, v.catalog)
		if err := v.narrator.SetVoice(voice); err != nil {
			return false, err
		}
		colours.Info.Fprintf(v.app.out, "🎤 Voice: %s\n", voice)

	case "r":
		rate, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return false, fmt.Errorf("usage: r <%.1f-%.1f>", tts.MinRate, tts.MaxRate)
		}
		rate = tts.ClampRate(rate)
		if err := v.narrator.SetRate(rate); err != nil {
			return false, err
		}
		colours.Info.Fprintf(v.app.out, "⏩ Speed: %.2gx\n", rate)

	case "m":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return false, errors.New("usage: m <paragraph>")
		}
		v.mu.Lock()
		on, err := v.app.toggleBookmark(v.saved, n-1)
		v.mu.Unlock()
		if err != nil {
			return false, err
		}
		if on {
			colours.Success.Fprintf(v.app.out, "🔖 Bookmarked paragraph %d\n", n)
		}
		v.redraw()

	case "q":
		return true, v.narrator.Stop()

	case "":
		v.redraw()

	default:
		fmt.Fprintln(v.app.out, reader.Help(v.styles))
	}
	return false, nil
}

func parseCommand(line string) (cmd, arg string) {
	line = strings.TrimSpace(line)
	cmd, arg, _ = strings.Cut(line, " ")
	cmd = strings.ToLower(cmd)
	switch cmd {
	case "play", "pause":
		cmd = "p"
	case "stop":
		cmd = "s"
	case "next":
		cmd = "n"
	case "back", "prev":
		cmd = "b"
	case "voice":
		cmd = "v"
	case "rate", "speed":
		cmd = "r"
	case "mark", "bookmark":
		cmd = "m"
	case "quit", "exit":
		cmd = "q"
	}
	return cmd, strings.TrimSpace(arg)
}

// Callbacks below run on the narration goroutine.

func (v *viewer) onParagraph(p int) {
	v.mu.Lock()
	v.active = p
	v.mu.Unlock()
	if v.pager.OnActiveParagraphChanged(p) || p != story.NoParagraph {
		v.redraw()
	}
}

func (v *viewer) onState(st narration.State) {
	v.mu.Lock()
	v.state = st
	v.mu.Unlock()
}

func (v *viewer) onNotice(n narration.Notice) {
	if n.Level == narration.NoticeBlocking {
		colours.Notice.Fprintf(v.app.out, "\n🔇 %s\n", n.Message)
		return
	}
	colours.Warning.Fprintf(v.app.out, "\n⚠️ %s\n", n.Message)
}

func (v *viewer) redraw() {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.app.out, reader.Render(reader.View{
		Story:           v.saved,
		Paragraphs:      v.paragraphs,
		Pager:           v.pager,
		ActiveParagraph: v.active,
		Status:          statusLine(v.state),
	}, v.styles))
	fmt.Fprintln(v.app.out, reader.Help(v.styles))
}

func statusLine(st narration.State) string {
	var parts []string
	switch {
	case st.Disabled:
		parts = append(parts, "🔇 narration unavailable")
	case st.Phase == narration.Buffering:
		parts = append(parts, "⏳ preparing audio")
	case st.Phase == narration.Speaking:
		parts = append(parts, "🔊 reading")
	case st.Phase == narration.Stopped:
		parts = append(parts, "⏸️ paused")
	default:
		parts = append(parts, "⏹️ ready")
	}
	if st.ChunkCount > 0 && st.Phase != narration.Idle {
		parts = append(parts, fmt.Sprintf("%.0f%%", st.Progress()))
	}
	if st.Voice.Name != "" {
		voice := st.Voice.String()
		if st.FallbackActive {
			voice += " (device fallback)"
		}
		parts = append(parts, voice)
	}
	if st.Rate != 0 && st.Rate != tts.DefaultRate {
		parts = append(parts, fmt.Sprintf("%.2gx", st.Rate))
	}
	return strings.Join(parts, " · ")
}
