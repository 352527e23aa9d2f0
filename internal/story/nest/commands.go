package nest

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"hakayat/internal/cli/scheme/colours"
	"hakayat/internal/domain/library"
	"hakayat/internal/domain/library/generator"
	"hakayat/internal/domain/story"
	"hakayat/internal/story/tts"
)

const shareFooter = "Written with Hakayat"

// AddCommands registers every subcommand on root.
func (a *App) AddCommands(root *cobra.Command) {
	newCmd := &cobra.Command{
		Use:   "new [prompt]",
		Short: "✨ Write a new story",
		Long:  "Generate a story from a prompt, then optionally save, illustrate and read it aloud",
		RunE:  a.NewStory,
	}
	newCmd.Flags().StringP("genre", "g", string(story.GenreFantasy), "Story genre")
	newCmd.Flags().StringP("age", "a", string(story.AgeChild), "Target age group (3-5, 6-9, 10-13, 14-17, 18+)")
	newCmd.Flags().IntP("length", "l", int(story.LengthShort), "Length tier, 1 (short) to 5 (epic)")
	newCmd.Flags().StringP("character", "c", "", "Main character name")
	newCmd.Flags().String("language", "", "Story language (defaults to story.language)")
	newCmd.Flags().BoolP("save", "s", true, "Save the story to the library")
	newCmd.Flags().BoolP("illustrate", "i", false, "Generate a cover illustration")
	newCmd.Flags().BoolP("read", "r", false, "Open the story in the reader")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "📋 List saved stories",
		Long:  "Display the stories in your library, newest first",
		Args:  cobra.NoArgs,
		RunE:  a.ListStories,
	}

	readCmd := &cobra.Command{
		Use:   "read <story>",
		Short: "📖 Read a story aloud",
		Long:  "Open a saved story in the reader. <story> is an id, id prefix or list number.",
		Args:  cobra.ExactArgs(1),
		RunE:  a.ReadStory,
	}
	readCmd.Flags().StringP("voice", "v", "", "Voice to narrate with. See 'hakayat voices'")
	readCmd.Flags().Float64("rate", 0, "Narration speed (0.5 to 2.0)")

	deleteCmd := &cobra.Command{
		Use:   "delete <story>",
		Short: "🗑️ Delete a story",
		Args:  cobra.ExactArgs(1),
		RunE:  a.DeleteStory,
	}

	illustrateCmd := &cobra.Command{
		Use:   "illustrate <story>",
		Short: "🎨 Generate a cover illustration",
		Args:  cobra.ExactArgs(1),
		RunE:  a.IllustrateStory,
	}
	illustrateCmd.Flags().StringP("out", "o", "", "Also write the image to this file")

	bookmarkCmd := &cobra.Command{
		Use:   "bookmark <story> <paragraph>",
		Short: "🔖 Toggle a paragraph bookmark",
		Args:  cobra.ExactArgs(2),
		RunE:  a.BookmarkParagraph,
	}

	shareCmd := &cobra.Command{
		Use:   "share <story>",
		Short: "📤 Print a story as shareable text",
		Args:  cobra.ExactArgs(1),
		RunE:  a.ShareStory,
	}

	voicesCmd := &cobra.Command{
		Use:   "voices",
		Short: "🎤 List narration voices",
		Args:  cobra.NoArgs,
		RunE:  a.ListVoices,
	}
	voicesCmd.Flags().Bool("all", false, "Show device voices for every language")

	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "⚙️ Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE:  a.ShowSettings,
	}

	themeCmd := &cobra.Command{
		Use:       "theme [light|sepia|dark]",
		Short:     "🎨 Show or change the reading theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"light", "sepia", "dark"},
		RunE:      a.Theme,
	}

	exportCmd := &cobra.Command{
		Use:   "export <file|s3://bucket/key>",
		Short: "💾 Back up the library as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  a.Export,
	}

	importCmd := &cobra.Command{
		Use:   "import <file|s3://bucket/key>",
		Short: "📥 Restore stories from a backup",
		Long:  "Add the stories in a backup whose ids are not already in the library",
		Args:  cobra.ExactArgs(1),
		RunE:  a.Import,
	}

	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "📦 Manage the speech audio cache",
	}
	cacheCmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "📊 Show cache status",
			Args:  cobra.NoArgs,
			RunE:  a.CacheStatus,
		},
		&cobra.Command{
			Use:   "clear",
			Short: "🧹 Remove cached audio",
			Args:  cobra.NoArgs,
			RunE:  a.ClearCache,
		},
	)

	root.AddCommand(newCmd, listCmd, readCmd, deleteCmd, illustrateCmd, bookmarkCmd,
		shareCmd, voicesCmd, settingsCmd, themeCmd, exportCmd, importCmd, cacheCmd)
}

func (a *App) NewStory(cmd *cobra.Command, args []string) error {
	params, err := storyParams(cmd.Flags(), args, a.cfg.Story.Language)
	if err != nil {
		return err
	}
	gen, err := a.generator()
	if err != nil {
		return err
	}

	colours.Info.Fprintln(a.out, "🪶 Writing your story...")
	rec, err := gen.Generate(a.ctx, params)
	if err != nil {
		return err
	}
	saved := &story.Saved{Story: *rec, CreatedAt: time.Now().UnixMilli()}

	if illustrate, _ := cmd.Flags().GetBool("illustrate"); illustrate {
		colours.Info.Fprintln(a.out, "🎨 Painting the cover...")
		image, err := gen.Illustrate(a.ctx, rec.ImagePrompt)
		if err != nil {
			colours.Warning.Fprintf(a.out, "⚠️ Could not illustrate the story: %v\n", err)
		} else {
			saved.Image = image
		}
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		store, err := a.library()
		if err != nil {
			return err
		}
		stored, err := store.Save(a.ctx, *rec, saved.Image, nil)
		switch {
		case errors.Is(err, library.ErrDuplicate):
			colours.Warning.Fprintln(a.out, "⚠️ This story is already in your library")
		case err != nil:
			return err
		default:
			saved = stored
			colours.Success.Fprintf(a.out, "✅ Saved as %s\n", shortID(saved.ID))
		}
	}

	if read, _ := cmd.Flags().GetBool("read"); read {
		return a.view(saved, "", 0)
	}
	a.printStory(saved)
	return nil
}

// storyParams reads generation parameters from the new command's flags.
func storyParams(flags *pflag.FlagSet, args []string, defaultLanguage string) (story.Params, error) {
	var p story.Params
	p.Prompt = strings.TrimSpace(strings.Join(args, " "))
	if p.Prompt == "" {
		return p, errors.New("a story prompt is required, e.g. hakayat new \"a dragon who fears fire\"")
	}

	genre, _ := flags.GetString("genre")
	g, err := story.ParseGenre(genre)
	if err != nil {
		return p, err
	}
	p.Genre = g

	age, _ := flags.GetString("age")
	ag, err := story.ParseAgeGroup(age)
	if err != nil {
		return p, err
	}
	p.AgeGroup = ag

	length, _ := flags.GetInt("length")
	p.Length = story.Length(length)
	if !p.Length.Valid() {
		return p, fmt.Errorf("length must be between %d and %d", story.LengthShort, story.LengthEpic)
	}

	p.CharacterName, _ = flags.GetString("character")
	p.Language, _ = flags.GetString("language")
	if p.Language == "" {
		p.Language = defaultLanguage
	}
	return p, nil
}

func (a *App) printStory(s *story.Saved) {
	fmt.Fprintln(a.out)
	colours.Title.Fprintf(a.out, "📖 %s\n", s.Story.Title)
	colours.Subtle.Fprintf(a.out, "%s\n\n", s.Story.Summary)
	for i, p := range story.Paragraphs(s.Story) {
		mark := ""
		if s.Bookmarked(i) {
			mark = "🔖 "
		}
		fmt.Fprintf(a.out, "%s%s\n\n", mark, p)
	}
	if s.Story.Moral != "" {
		colours.Prompt.Fprintf(a.out, "💡 %s\n", s.Story.Moral)
	}
}

func (a *App) ListStories(cmd *cobra.Command, args []string) error {
	store, err := a.library()
	if err != nil {
		return err
	}
	all, err := store.List(a.ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out)
	colours.Title.Fprintln(a.out, "📚 Your Stories 📚")
	fmt.Fprintln(a.out)
	if len(all) == 0 {
		colours.Warning.Fprintln(a.out, "📭 Your library is empty. Try: hakayat new \"a lantern in the desert\"")
		return nil
	}

	for i, s := range all {
		fmt.Fprintf(a.out, "  %d. ", i+1)
		colours.Title.Fprint(a.out, s.Story.Title)
		if s.Image != "" {
			fmt.Fprint(a.out, " 🖼️")
		}
		fmt.Fprintln(a.out)
		fmt.Fprintf(a.out, "     💡 %s\n", s.Story.Summary)
		details := []string{"🕐 " + time.UnixMilli(s.CreatedAt).Format("2006-01-02 15:04")}
		if n := len(s.Bookmarks); n > 0 {
			details = append(details, fmt.Sprintf("🔖 %d", n))
		}
		fmt.Fprintf(a.out, "     %s\n", strings.Join(details, " | "))
		colours.Info.Fprintf(a.out, "     ID: %s\n", s.ID)
		fmt.Fprintln(a.out)
	}
	colours.Success.Fprintf(a.out, "✨ %d stories ✨\n", len(all))
	return nil
}

func (a *App) ReadStory(cmd *cobra.Command, args []string) error {
	s, err := a.find(args[0])
	if err != nil {
		return err
	}
	voice, _ := cmd.Flags().GetString("voice")
	rate, _ := cmd.Flags().GetFloat64("rate")
	return a.view(s, voice, rate)
}

func (a *App) DeleteStory(cmd *cobra.Command, args []string) error {
	s, err := a.find(args[0])
	if err != nil {
		return err
	}
	if err := a.store.Delete(a.ctx, s.ID); err != nil {
		return err
	}
	colours.Success.Fprintf(a.out, "🗑️ Deleted %q\n", s.Story.Title)
	return nil
}

func (a *App) IllustrateStory(cmd *cobra.Command, args []string) error {
	s, err := a.find(args[0])
	if err != nil {
		return err
	}
	gen, err := a.generator()
	if err != nil {
		return err
	}
	colours.Info.Fprintln(a.out, "🎨 Painting the cover...")
	image, err := gen.Illustrate(a.ctx, s.Story.ImagePrompt)
	if err != nil {
		return err
	}
	if err := a.store.SetImage(a.ctx, s.ID, image); err != nil {
		return err
	}
	colours.Success.Fprintf(a.out, "✅ Illustration saved for %q (%d KB)\n", s.Story.Title, len(image)/1024)

	if out, _ := cmd.Flags().GetString("out"); out != "" {
		_, data, err := generator.DecodeDataURI(image)
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, data, 0644); err != nil {
			return fmt.Errorf("write image: %w", err)
		}
		colours.Success.Fprintf(a.out, "🖼️ Wrote %s\n", out)
	}
	return nil
}

func (a *App) BookmarkParagraph(cmd *cobra.Command, args []string) error {
	s, err := a.find(args[0])
	if err != nil {
		return err
	}
	paragraph, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid paragraph %q", args[1])
	}
	on, err := a.toggleBookmark(s, paragraph-1)
	if err != nil {
		return err
	}
	if on {
		colours.Success.Fprintf(a.out, "🔖 Bookmarked paragraph %d\n", paragraph)
	} else {
		colours.Info.Fprintf(a.out, "Removed bookmark from paragraph %d\n", paragraph)
	}
	return nil
}

// toggleBookmark flips a zero-based paragraph bookmark and keeps s in step
// with the library.
func (a *App) toggleBookmark(s *story.Saved, paragraph int) (bool, error) {
	if s.ID == "" {
		return false, errors.New("save the story before bookmarking it")
	}
	if n := len(story.Paragraphs(s.Story)); paragraph < 0 || paragraph >= n {
		return false, fmt.Errorf("paragraph must be between 1 and %d", n)
	}
	store, err := a.library()
	if err != nil {
		return false, err
	}
	on, err := store.ToggleBookmark(a.ctx, s.ID, paragraph)
	if err != nil {
		return false, err
	}
	fresh, err := store.Get(a.ctx, s.ID)
	if err != nil {
		return false, err
	}
	s.Bookmarks = fresh.Bookmarks
	return on, nil
}

func (a *App) ShareStory(cmd *cobra.Command, args []string) error {
	s, err := a.find(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, s.Story.ShareText(shareFooter))
	return nil
}

func (a *App) ListVoices(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	_, device, remoteVoices := a.backends()

	fmt.Fprintln(a.out)
	colours.Title.Fprintln(a.out, "🎤 Narration Voices 🎤")
	fmt.Fprintln(a.out)

	colours.Info.Fprintf(a.out, "☁️ Remote (%s):\n", a.cfg.TTS.Remote)
	if len(remoteVoices) == 0 {
		colours.Subtle.Fprintln(a.out, "  none configured")
	}
	for _, v := range remoteVoices {
		fmt.Fprintf(a.out, "  • %s\n", v)
	}
	fmt.Fprintln(a.out)

	colours.Info.Fprintf(a.out, "💻 Device (%s):\n", a.cfg.TTS.Device)
	voices := device.Voices()
	if all {
		voices = device.AllVoices()
	}
	if !device.Available() {
		colours.Warning.Fprintln(a.out, "  no speech synthesizer found on this platform")
	} else if len(voices) == 0 {
		colours.Subtle.Fprintf(a.out, "  no %q voices installed (use --all to see every language)\n", a.cfg.TTS.Language)
	}
	for _, v := range voices {
		fmt.Fprintf(a.out, "  • %s (%s) [%s]\n", v.Name, v.Language, v.ID)
	}
	fmt.Fprintln(a.out)

	engines := make([]string, 0, 4)
	for _, e := range tts.GetAvailableEngines() {
		engines = append(engines, e.String())
	}
	colours.Subtle.Fprintf(a.out, "Device engines on this platform: %s\n", strings.Join(engines, ", "))
	colours.Subtle.Fprintln(a.out, "Pick one with: hakayat read <story> --voice remote:<name> | device:<name>")
	return nil
}

func (a *App) ShowSettings(cmd *cobra.Command, args []string) error {
	out, err := yaml.Marshal(a.cfg.Redacted())
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	colours.Title.Fprintln(a.out, "⚙️ Settings ⚙️")
	fmt.Fprintln(a.out)
	fmt.Fprint(a.out, string(out))
	return nil
}

func (a *App) Theme(cmd *cobra.Command, args []string) error {
	store, err := a.library()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		theme, err := store.Theme(a.ctx)
		if err != nil {
			return err
		}
		colours.Info.Fprintf(a.out, "🎨 Reading theme: %s\n", theme)
		return nil
	}
	theme, err := story.ParseTheme(args[0])
	if err != nil {
		return err
	}
	if err := store.SetTheme(a.ctx, theme); err != nil {
		return err
	}
	colours.Success.Fprintf(a.out, "🎨 Reading theme set to %s\n", theme)
	return nil
}

func (a *App) Export(cmd *cobra.Command, args []string) error {
	store, err := a.library()
	if err != nil {
		return err
	}
	dest, err := library.ParseLocation(args[0], a.cfg.Backup.S3)
	if err != nil {
		return err
	}
	n, err := library.ExportTo(a.ctx, store, dest)
	if err != nil {
		return err
	}
	colours.Success.Fprintf(a.out, "💾 Exported %d stories to %s\n", n, dest)
	return nil
}

func (a *App) Import(cmd *cobra.Command, args []string) error {
	store, err := a.library()
	if err != nil {
		return err
	}
	src, err := library.ParseLocation(args[0], a.cfg.Backup.S3)
	if err != nil {
		return err
	}
	n, err := library.ImportFrom(a.ctx, store, src)
	if err != nil {
		return err
	}
	if n == 0 {
		colours.Info.Fprintln(a.out, "Nothing new to import")
		return nil
	}
	colours.Success.Fprintf(a.out, "📥 Imported %d stories from %s\n", n, src)
	return nil
}

func (a *App) CacheStatus(cmd *cobra.Command, args []string) error {
	stats, err := tts.SpeechCacheStats(a.cfg.TTS.CachePath)
	if err != nil {
		return err
	}
	colours.Title.Fprintln(a.out, "📊 Speech Cache Status")
	colours.Info.Fprintf(a.out, "📁 Location: %s\n", stats.Directory)
	colours.Info.Fprintf(a.out, "🎧 Clips: %d\n", stats.Files)
	colours.Info.Fprintf(a.out, "📏 Size: %.2f MB\n", stats.SizeMB)
	return nil
}

func (a *App) ClearCache(cmd *cobra.Command, args []string) error {
	if err := tts.ClearSpeechCache(a.cfg.TTS.CachePath); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	logrus.WithField("dir", a.cfg.TTS.CachePath).Debug("Cleared speech cache")
	colours.Success.Fprintln(a.out, "🧹 Speech cache cleared")
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
