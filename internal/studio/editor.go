package studio

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"talecast/internal/cli/scheme/colours"
	"talecast/internal/domain/story"
	"talecast/internal/playback"
)

// edit runs the interactive editor loop for the current story.
func (s *Studio) edit() {
	st := s.current

	fmt.Println()
	colours.Title.Printf("🎬 %s 🎬\n", st.Title)
	colours.Muted.Println("Type 'help' for commands.")

	for {
		fmt.Println()
		input := s.prompt("talecast> ")
		if input == "" {
			continue
		}
		cmd, rest, _ := strings.Cut(input, " ")
		rest = strings.TrimSpace(rest)

		switch cmd {
		case "help", "h", "?":
			s.showHelp()
		case "show", "lines", "ls":
			s.showScript()
		case "cast", "chars":
			s.showCast()
		case "addchar":
			s.addCharacter(rest)
		case "delchar":
			s.removeCharacter(rest)
		case "add":
			s.addLine()
		case "edit":
			s.editLine(rest)
		case "move":
			s.moveLine(rest)
		case "del", "rm":
			s.removeLine(rest)
		case "gen", "generate":
			s.generateAll()
		case "regen":
			s.regenerateLine(rest)
		case "play":
			s.playLine(rest)
		case "playall":
			s.playAll()
		case "stop":
			s.Stop()
		case "export":
			s.export(rest)
		case "write":
			s.writeScript()
		case "format":
			s.formatScript()
		case "title":
			s.setTitle(rest)
		case "voices":
			s.ShowVoices(nil, nil)
		case "clear":
			s.clearScript()
		case "save":
			s.save()
		case "quit", "q", "exit":
			s.Stop()
			if len(st.Script) > 0 || len(st.Characters) > 0 {
				if answer := s.prompt("💾 Save before leaving? (y/n): "); answer == "y" || answer == "yes" {
					s.save()
				}
			}
			colours.Prompt.Println("👋 Until the next tale!")
			return
		default:
			colours.Error.Printf("❌ Unknown command %q. Type 'help'.\n", cmd)
		}
	}
}

func (s *Studio) showHelp() {
	colours.Info.Println("📚 Editor commands:")
	fmt.Println("  show                 - Show the script (♪ marks generated lines)")
	fmt.Println("  cast                 - Show the characters")
	fmt.Println("  addchar <name>       - Add a character (voice chosen interactively)")
	fmt.Println("  delchar <name>       - Remove a character")
	fmt.Println("  add                  - Append a dialogue line")
	fmt.Println("  edit <n>             - Edit line n")
	fmt.Println("  move <from> <to>     - Reorder a line")
	fmt.Println("  del <n>              - Remove line n")
	fmt.Println("  gen                  - Generate audio for every line")
	fmt.Println("  regen <n>            - Force fresh audio for line n")
	fmt.Println("  play <n>             - Play line n (again to pause/resume)")
	fmt.Println("  playall              - Play the whole story in order")
	fmt.Println("  stop                 - Stop playback")
	fmt.Println("  export zip|wav|<n>   - Export audio (archive, single file, or one line)")
	fmt.Println("  write                - Draft a script from a prose prompt")
	fmt.Println("  format               - Enrich the script with voice instructions")
	fmt.Println("  title <text>         - Rename the story")
	fmt.Println("  voices               - List available voices")
	fmt.Println("  clear                - Discard the script and its audio")
	fmt.Println("  save                 - Save the story")
	fmt.Println("  quit                 - Leave the editor")
}

func (s *Studio) showScript() {
	st := s.current
	if len(st.Script) == 0 {
		colours.Warning.Println("📜 The script is empty. Use 'add' or 'write'.")
		return
	}
	fmt.Println()
	for i, line := range st.Script {
		marker := "  "
		if s.ctrl.HasAudio(i) {
			marker = "♪ "
		}
		colours.Muted.Printf("%3d %s", i+1, marker)
		colours.Speaker.Printf("%s: ", line.Speaker)
		fmt.Println(line.Text)
		if line.Instructions != "" {
			colours.Muted.Printf("       (%s)\n", line.Instructions)
		}
	}
	if missing := st.MissingCharacters(); len(missing) > 0 {
		colours.Warning.Printf("⚠️  Uncast speakers: %s\n", strings.Join(missing, ", "))
	}
}

func (s *Studio) showCast() {
	st := s.current
	if len(st.Characters) == 0 {
		colours.Warning.Println("🎭 No characters yet. Use 'addchar <name>'.")
		return
	}
	for _, c := range st.Characters {
		colours.Speaker.Printf("  %s", c.Name)
		colours.Muted.Printf("  (%s)\n", c.Voice)
	}
}

func (s *Studio) addCharacter(name string) {
	if name == "" {
		name = s.prompt("🎭 Character name: ")
	}
	if name == "" {
		colours.Error.Println("❌ A character needs a name.")
		return
	}

	for i, v := range story.Voices {
		fmt.Printf("  %2d. ", i+1)
		colours.Speaker.Printf("%-8s", v.ID)
		colours.Muted.Printf(" %s\n", v.Description)
	}
	input := s.prompt("🎤 Voice number: ")
	n, err := strconv.Atoi(input)
	if err != nil || n < 1 || n > len(story.Voices) {
		colours.Error.Println("❌ Invalid voice selection!")
		return
	}

	voice := story.Voices[n-1].ID
	if err := s.current.AddCharacter(story.Character{Name: name, Voice: voice}); err != nil {
		colours.Error.Printf("❌ %v\n", err)
		return
	}
	colours.Success.Printf("✅ %s will speak as %s\n", name, voice)
}

func (s *Studio) removeCharacter(name string) {
	if name == "" {
		colours.Error.Println("❌ Usage: delchar <name>")
		return
	}
	if !s.current.RemoveCharacter(name) {
		colours.Error.Printf("❌ No character named %q in the cast.\n", name)
		return
	}
	colours.Success.Printf("🗑️  Removed %s from the cast\n", name)
}

func (s *Studio) addLine() {
	speaker := s.prompt("🎭 Speaker: ")
	text := s.prompt("💬 Text: ")
	instructions := s.prompt("🎙️  Delivery instructions (optional): ")

	if err := s.current.AddLine(story.Line{Speaker: speaker, Text: text, Instructions: instructions}); err != nil {
		colours.Error.Printf("❌ %v\n", err)
		return
	}
	colours.Success.Printf("✅ Line %d added\n", len(s.current.Script))
}

// editLine rewrites a line in place. Audio cached under the old
// content stays in the cache unused; 'gen' picks up the new content.
func (s *Studio) editLine(arg string) {
	i, ok := s.lineArg(arg)
	if !ok {
		return
	}
	old := s.current.Script[i]
	colours.Muted.Printf("Editing line %d. Enter keeps the current value.\n", i+1)

	line := old
	if v := s.prompt(fmt.Sprintf("🎭 Speaker [%s]: ", old.Speaker)); v != "" {
		line.Speaker = v
	}
	if v := s.prompt(fmt.Sprintf("💬 Text [%s]: ", old.Text)); v != "" {
		line.Text = v
	}
	if v := s.prompt(fmt.Sprintf("🎙️  Instructions [%s]: ", old.Instructions)); v != "" {
		line.Instructions = v
	}

	if err := s.current.UpdateLine(i, line); err != nil {
		colours.Error.Printf("❌ %v\n", err)
		return
	}
	colours.Success.Printf("✅ Line %d updated\n", i+1)
	if line != old && s.cache.Len() > 0 {
		colours.Muted.Println("   Run 'gen' to synthesize the new content.")
	}
}

func (s *Studio) moveLine(args string) {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		colours.Error.Println("❌ Usage: move <from> <to>")
		return
	}
	from, err1 := strconv.Atoi(parts[0])
	to, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		colours.Error.Println("❌ Line numbers, please.")
		return
	}
	if err := s.current.MoveLine(from-1, to-1); err != nil {
		colours.Error.Printf("❌ %v\n", err)
		return
	}
	colours.Success.Printf("✅ Moved line %d to position %d\n", from, to)
}

func (s *Studio) removeLine(arg string) {
	i, ok := s.lineArg(arg)
	if !ok {
		return
	}
	if err := s.current.RemoveLine(i); err != nil {
		colours.Error.Printf("❌ %v\n", err)
		return
	}
	colours.Success.Printf("🗑️  Line %d removed\n", i+1)
}

func (s *Studio) generateAll() {
	st := s.current
	if len(st.Script) == 0 {
		colours.Warning.Println("📜 Nothing to generate.")
		return
	}
	if missing := st.MissingCharacters(); len(missing) > 0 {
		colours.Warning.Printf("⚠️  Uncast speakers will be skipped: %s\n", strings.Join(missing, ", "))
	}

	colours.Info.Printf("🎙️  Generating audio for %d lines...\n", len(st.Script))
	report := s.gen.GenerateAll(s.ctx, st)

	colours.Success.Printf("✅ %d generated, %d already cached\n", report.Generated, report.Cached)
	for _, f := range report.Failures {
		colours.Error.Printf("   line %d: %v\n", f.Index+1, f.Err)
	}
}

func (s *Studio) regenerateLine(arg string) {
	i, ok := s.lineArg(arg)
	if !ok {
		return
	}
	colours.Info.Printf("🎙️  Regenerating line %d...\n", i+1)
	if _, err := s.gen.Regenerate(s.ctx, s.current, i); err != nil {
		colours.Error.Printf("❌ %v\n", err)
		return
	}
	colours.Success.Printf("✅ Line %d refreshed\n", i+1)
}

func (s *Studio) playLine(arg string) {
	i, ok := s.lineArg(arg)
	if !ok {
		return
	}
	if err := s.ctrl.PlayLine(i); err != nil {
		colours.Error.Printf("❌ %v\n", err)
		if errors.Is(err, playback.ErrNotGenerated) {
			colours.Muted.Println("   Run 'gen' first.")
		}
		return
	}
	state, _ := s.ctrl.State()
	colours.Info.Printf("🔊 Line %d %s\n", i+1, state)
}

func (s *Studio) playAll() {
	st := s.current
	s.seq.SetProgress(func(index, total int) {
		if index < 0 {
			return
		}
		line := st.Script[index]
		colours.Muted.Printf("  [%d/%d] ", index+1, total)
		colours.Speaker.Printf("%s: ", line.Speaker)
		fmt.Println(line.Text)
	})
	s.seq.SetOnDone(func() {
		colours.Success.Println("\n🏁 The story has been told. (press enter)")
	})

	if err := s.seq.Start(len(st.Script)); err != nil {
		colours.Error.Printf("❌ %v\n", err)
		return
	}
	colours.Info.Println("▶️  Playing. p = pause/resume, s = stop, then enter.")
	s.playbackLoop()
}

// playbackLoop handles pause and stop input while the sequence runs.
func (s *Studio) playbackLoop() {
	for {
		text, err := s.in.ReadString('\n')
		if err != nil {
			s.seq.Stop()
			return
		}
		if !s.seq.Active() {
			return
		}
		switch strings.TrimSpace(text) {
		case "p", "pause":
			if err := s.seq.Toggle(); err != nil {
				colours.Error.Printf("❌ %v\n", err)
			}
		case "s", "stop", "q":
			s.seq.Stop()
			colours.Warning.Println("⏹️  Stopped.")
			return
		}
	}
}

func (s *Studio) export(arg string) {
	if len(s.current.Script) == 0 {
		colours.Warning.Println("📜 Nothing to export.")
		return
	}
	dir := viper.GetString("export.dir")

	var path string
	var err error
	switch arg {
	case "zip", "":
		path, err = s.exporter.Archive(s.ctx, s.current, dir)
	case "wav":
		path, err = s.exporter.SingleFile(s.ctx, s.current, dir)
	default:
		var i int
		var ok bool
		if i, ok = s.lineArg(arg); !ok {
			return
		}
		path, err = s.exporter.Line(s.ctx, s.current, i, dir)
	}
	if err != nil {
		colours.Error.Printf("❌ %v\n", err)
		return
	}
	colours.Success.Printf("📦 Exported to %s\n", path)
}

func (s *Studio) writeScript() {
	if s.writer == nil {
		colours.Error.Println("❌ Script writing needs an OpenAI API key (set OPENAI_API_KEY).")
		return
	}
	if len(s.current.Characters) == 0 {
		colours.Error.Println("❌ Add characters first; the writer only casts them.")
		return
	}
	prompt := s.prompt("✍️  What should the story be about? ")
	if prompt == "" {
		return
	}
	if len(s.current.Script) > 0 {
		if answer := s.prompt("⚠️  This replaces the current script. Continue? (y/n): "); answer != "y" && answer != "yes" {
			return
		}
	}

	colours.Info.Println("✍️  Writing...")
	lines, err := s.writer.Generate(s.ctx, prompt, s.current.Characters)
	if err != nil {
		colours.Error.Printf("❌ %v\n", err)
		return
	}
	s.current.Script = lines
	colours.Success.Printf("✅ Drafted %d lines. 'show' to read them, 'gen' to voice them.\n", len(lines))
}

func (s *Studio) formatScript() {
	if s.writer == nil {
		colours.Error.Println("❌ Script formatting needs an OpenAI API key (set OPENAI_API_KEY).")
		return
	}
	if len(s.current.Script) == 0 {
		colours.Warning.Println("📜 Nothing to format.")
		return
	}

	colours.Info.Println("🎨 Enriching the script with voice instructions...")
	lines, err := s.writer.Reformat(s.ctx, s.current.Script, s.current.Characters)
	if err != nil {
		colours.Error.Printf("❌ %v\n", err)
		return
	}
	s.current.Script = lines
	colours.Success.Printf("✅ Reformatted %d lines\n", len(lines))
}

func (s *Studio) setTitle(title string) {
	if title == "" {
		colours.Error.Println("❌ Usage: title <text>")
		return
	}
	s.current.Title = title
	colours.Success.Printf("✅ Now titled %q\n", title)
}

func (s *Studio) clearScript() {
	if answer := s.prompt("⚠️  Discard the script and all generated audio? (y/n): "); answer != "y" && answer != "yes" {
		return
	}
	s.Stop()
	s.current.Script = nil
	s.cache.Clear()
	colours.Success.Println("🗑️  Script cleared")
}

func (s *Studio) save() {
	id, err := s.store.Save(s.current)
	if err != nil {
		colours.Error.Printf("❌ %v\n", err)
		return
	}
	colours.Success.Printf("💾 Saved %q (id %s)\n", s.current.Title, id)
}

// lineArg parses a 1-based line number argument.
func (s *Studio) lineArg(arg string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		colours.Error.Println("❌ Which line? Give its number from 'show'.")
		return 0, false
	}
	if n < 1 || n > len(s.current.Script) {
		colours.Error.Printf("❌ Line %d does not exist (script has %d lines).\n", n, len(s.current.Script))
		return 0, false
	}
	return n - 1, true
}
