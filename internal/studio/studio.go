package studio

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"talecast/internal/audio"
	"talecast/internal/audio/cache"
	"talecast/internal/cli/scheme/colours"
	"talecast/internal/domain/story"
	"talecast/internal/export"
	"talecast/internal/playback"
	"talecast/internal/scriptgen"
	"talecast/internal/storage"
	"talecast/internal/synth"
)

// Studio is the main application: one open story, one audio cache,
// one playback session.
type Studio struct {
	store    *storage.Store
	cache    *cache.Cache
	gen      *synth.Generator
	ctrl     *playback.Controller
	seq      *playback.Sequence
	exporter *export.Assembler
	writer   *scriptgen.Writer

	current *story.Story
	in      *bufio.Reader

	ctx    context.Context
	Cancel context.CancelFunc
}

// NewStudio wires the application together. Without an API key the
// mock synthesis engine is used, so the tool stays usable offline.
func NewStudio() *Studio {
	store, err := storage.NewStore(viper.GetString("storage.dir"))
	if err != nil {
		logrus.WithError(err).Fatal("failed to open story store")
	}

	var gateway synth.Gateway
	gateway, err = synth.NewOpenAIGateway()
	if err != nil {
		logrus.WithError(err).Warn("Falling back to mock synthesis engine")
		gateway = synth.NewMockGateway()
	}

	var writer *scriptgen.Writer
	if w, err := scriptgen.NewWriter(); err == nil {
		writer = w
	}

	s := &Studio{
		store: store,
		cache: cache.New(),
		in:    bufio.NewReader(os.Stdin),
	}
	s.gen = synth.NewGenerator(gateway, s.cache)

	s.ctrl = playback.NewController(playback.OpenClip, s.lookupLine)
	if d := viper.GetDuration("playback.ready_timeout"); d > 0 {
		s.ctrl.SetReadyTimeout(d)
	}
	s.seq = playback.NewSequence(s.ctrl)
	if d := viper.GetDuration("playback.skip_delay"); d > 0 {
		s.seq.SetSkipDelay(d)
	}

	s.exporter = export.NewAssembler(s.gen)
	s.writer = writer

	s.ctx, s.Cancel = context.WithCancel(context.Background())
	return s
}

// Stop silences any playback, for shutdown paths.
func (s *Studio) Stop() {
	s.seq.Stop()
	s.ctrl.Stop()
}

// lookupLine resolves a line index against the session cache.
func (s *Studio) lookupLine(i int) (*audio.Clip, bool) {
	if s.current == nil || i < 0 || i >= len(s.current.Script) {
		return nil, false
	}
	return s.cache.Get(cache.LineKey(s.current.Script[i]))
}

func (s *Studio) ShowWelcome() {
	fmt.Println()
	colours.Title.Println("🎭 Welcome to Talecast! 🎭")
	fmt.Println()
	colours.Info.Println("📚 Available commands:")
	fmt.Println("  • talecast new          - Start a new story")
	fmt.Println("  • talecast open [id]    - Open a saved story")
	fmt.Println("  • talecast list         - List saved stories")
	fmt.Println("  • talecast delete <id>  - Delete a saved story")
	fmt.Println("  • talecast voices       - Show available voices")
	fmt.Println()
	colours.Prompt.Println("✨ Give your story a voice! ✨")
}

// ListStories prints the saved story index.
func (s *Studio) ListStories(cmd *cobra.Command, args []string) {
	stories, err := s.store.List()
	if err != nil {
		colours.Error.Printf("❌ %v\n", err)
		return
	}
	if len(stories) == 0 {
		colours.Warning.Println("🔍 No saved stories yet. Try 'talecast new'.")
		return
	}

	fmt.Println()
	colours.Title.Println("📚 Saved Stories 📚")
	fmt.Println()
	for i, st := range stories {
		fmt.Printf("  %d. ", i+1)
		colours.Title.Printf("%s", st.Title)
		fmt.Printf("  (%d characters, %d lines)\n", len(st.Characters), len(st.Script))
		colours.Muted.Printf("     id: %s | modified: %s\n", st.ID, st.LastModified.Format("2006-01-02 15:04"))
	}
	fmt.Println()
	colours.Success.Printf("✨ %d stories\n", len(stories))
}

// NewStory starts a fresh story and enters the editor. The audio
// cache is cleared: a new story never inherits synthesized audio.
func (s *Studio) NewStory(cmd *cobra.Command, args []string) {
	s.cache.Clear()
	s.current = story.New()

	title := s.prompt("📝 Story title (enter for 'Untitled Story'): ")
	if title != "" {
		s.current.Title = title
	}
	s.edit()
}

// OpenStory loads a story by id (or interactively) and enters the
// editor. Loading discards the previous session's audio cache; audio
// is rebuilt lazily by generation.
func (s *Studio) OpenStory(cmd *cobra.Command, args []string) {
	var id string
	if len(args) > 0 {
		id = args[0]
	} else {
		id = s.pickStory()
		if id == "" {
			return
		}
	}

	st, err := s.store.Load(id)
	if err != nil {
		colours.Error.Printf("❌ %v\n", err)
		return
	}

	s.cache.Clear()
	s.current = st
	colours.Success.Printf("📖 Opened %q\n", st.Title)
	s.edit()
}

// DeleteStory removes a saved story by id.
func (s *Studio) DeleteStory(cmd *cobra.Command, args []string) {
	if len(args) == 0 {
		colours.Error.Println("❌ Usage: talecast delete <id>")
		return
	}
	if err := s.store.Delete(args[0]); err != nil {
		colours.Error.Printf("❌ %v\n", err)
		return
	}
	colours.Success.Println("🗑️  Story deleted")
}

// ShowVoices prints the synthesis voice catalog.
func (s *Studio) ShowVoices(cmd *cobra.Command, args []string) {
	fmt.Println()
	colours.Title.Println("🎤 Available Voices 🎤")
	fmt.Println()
	for _, v := range story.Voices {
		colours.Speaker.Printf("  %-8s", v.ID)
		fmt.Printf(" %s\n", v.Description)
	}
}

func (s *Studio) pickStory() string {
	stories, err := s.store.List()
	if err != nil || len(stories) == 0 {
		colours.Warning.Println("🔍 No saved stories.")
		return ""
	}
	for i, st := range stories {
		fmt.Printf("%d. ", i+1)
		colours.Title.Printf("%s", st.Title)
		fmt.Printf(" (%d lines)\n", len(st.Script))
	}
	input := s.prompt("🌟 Story number (or 'q' to quit): ")
	if input == "q" || input == "quit" || input == "" {
		return ""
	}
	n, err := strconv.Atoi(input)
	if err != nil || n < 1 || n > len(stories) {
		colours.Error.Println("❌ Invalid selection!")
		return ""
	}
	return stories[n-1].ID
}

func (s *Studio) prompt(msg string) string {
	colours.Prompt.Print(msg)
	input, _ := s.in.ReadString('\n')
	return strings.TrimSpace(input)
}
