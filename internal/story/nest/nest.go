package nest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"hakayat/internal/cli/scheme/colours"
	"hakayat/internal/config"
	"hakayat/internal/domain/library"
	"hakayat/internal/domain/library/generator"
	"hakayat/internal/domain/story"
	"hakayat/internal/story/tts"
)

// App wires the library, the generator and narration into the CLI.
type App struct {
	cfg    config.Config
	ctx    context.Context
	Cancel context.CancelFunc

	in  *bufio.Reader
	out io.Writer

	mu     sync.Mutex
	store  library.Store
	gen    generator.StoryGenerator
	remote tts.Backend
	device *tts.DeviceBackend
	voices []string
	closed bool
}

func NewApp(cfg config.Config) *App {
	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		cfg:    cfg,
		ctx:    ctx,
		Cancel: cancel,
		in:     bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

// Close releases the library. It is safe to call more than once.
func (a *App) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	a.Cancel()
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close library")
		}
	}
}

func (a *App) ShowWelcome() {
	fmt.Fprintln(a.out)
	colours.Title.Fprintln(a.out, "🌙 Welcome to Hakayat! 🌙")
	fmt.Fprintln(a.out)
	colours.Info.Fprintln(a.out, "📚 Available commands:")
	fmt.Fprintln(a.out, "  • hakayat new \"a prompt\"   - Write a new story")
	fmt.Fprintln(a.out, "  • hakayat list             - Browse your saved stories")
	fmt.Fprintln(a.out, "  • hakayat read <id>        - Read a story aloud")
	fmt.Fprintln(a.out, "  • hakayat share <id>       - Print a story for sharing")
	fmt.Fprintln(a.out, "  • hakayat voices           - List narration voices")
	fmt.Fprintln(a.out, "  • hakayat theme [name]     - Show or change the reading theme")
	fmt.Fprintln(a.out, "  • hakayat export <dest>    - Back up your library")
	fmt.Fprintln(a.out)
	colours.Prompt.Fprintln(a.out, "✨ Ready for a story? ✨")
}

func (a *App) library() (library.Store, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.store != nil {
		return a.store, nil
	}
	if err := os.MkdirAll(a.cfg.Library.Path, 0755); err != nil {
		return nil, fmt.Errorf("create library dir: %w", err)
	}
	store, err := library.OpenBadger(library.BadgerOptions{Dir: a.cfg.Library.Path})
	if err != nil {
		return nil, err
	}
	a.store = store
	return store, nil
}

func (a *App) generator() (generator.StoryGenerator, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gen != nil {
		return a.gen, nil
	}
	gen, err := generator.NewGemini(a.ctx, a.cfg.GenAI.APIKey, a.cfg.GenAI.StoryModel, a.cfg.GenAI.ImageModel)
	if err != nil {
		return nil, err
	}
	a.gen = gen
	return gen, nil
}

// backends builds the narration backends once. A remote service that cannot
// be created leaves narration to the device.
func (a *App) backends() (tts.Backend, *tts.DeviceBackend, []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.device != nil {
		return a.remote, a.device, a.voices
	}

	output := tts.NewSpeaker()
	remote, device, err := tts.NewBackends(a.ctx, a.cfg, output)
	if err != nil {
		logrus.WithError(err).WithField("remote", a.cfg.TTS.Remote).Warn("Remote speech unavailable, using device voices only")
		cfg := a.cfg
		cfg.TTS.Remote = tts.EngineTypeNone.String()
		if remote, device, err = tts.NewBackends(a.ctx, cfg, output); err != nil {
			logrus.WithError(err).Warn("Device speech unavailable")
			remote, device = tts.NewRemoteBackend(nil, output), tts.NewDeviceBackend(nil, cfg.TTS.Language)
		}
	}
	a.remote, a.device, a.voices = remote, device, remote.Voices()
	return a.remote, a.device, a.voices
}

const minPrefix = 6

// find resolves a story by list position (1-based), id or unique id prefix.
func (a *App) find(ref string) (*story.Saved, error) {
	store, err := a.library()
	if err != nil {
		return nil, err
	}
	s, err := store.Get(a.ctx, ref)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, library.ErrNotFound) {
		return nil, err
	}

	all, err := store.List(a.ctx)
	if err != nil {
		return nil, err
	}
	// Short numbers are list positions, anything else an id prefix.
	if n, convErr := strconv.Atoi(ref); convErr == nil && len(ref) < minPrefix {
		if n < 1 || n > len(all) {
			return nil, fmt.Errorf("%w: no story #%d (library has %d)", library.ErrNotFound, n, len(all))
		}
		return all[n-1], nil
	}

	if len(ref) < minPrefix {
		return nil, fmt.Errorf("%w: %s", library.ErrNotFound, ref)
	}
	var match *story.Saved
	for _, s := range all {
		if strings.HasPrefix(s.ID, ref) {
			if match != nil {
				return nil, fmt.Errorf("%q matches more than one story", ref)
			}
			match = s
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", library.ErrNotFound, ref)
	}
	return match, nil
}

func (a *App) readLine() (string, error) {
	line, err := a.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
