package script

import (
	"regexp"
	"strings"

	"talecast/internal/domain/story"
)

// speakerLine matches "SPEAKER NAME: dialogue text". Speaker names are
// written in capitals, optionally with spaces.
var speakerLine = regexp.MustCompile(`^([A-Z][A-Z\s]*[A-Z]?):\s(.+)$`)

// Parse converts a raw script blob into an ordered line sequence.
//
// The convention, as produced by the script-generation service:
//
//	NARRATOR: Once upon a time.
//	(slow, warm)
//	WOLF: Who goes there?
//
// An instruction block in parentheses applies to the preceding line
// and may span several raw lines; a bare line continues the previous
// dialogue.
func Parse(raw string) []story.Line {
	var lines []story.Line

	var (
		speaker      string
		text         string
		instructions string
		collecting   bool
	)

	flush := func() {
		if speaker != "" && text != "" {
			lines = append(lines, story.Line{
				Speaker:      speaker,
				Text:         text,
				Instructions: instructions,
			})
		}
	}

	for _, rawLine := range strings.Split(raw, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}

		if m := speakerLine.FindStringSubmatch(line); m != nil && !strings.HasPrefix(line, "(") {
			flush()
			speaker = strings.TrimSpace(m[1])
			text = strings.TrimSpace(m[2])
			instructions = ""
			collecting = false
			continue
		}

		switch {
		case strings.HasPrefix(line, "(") && strings.HasSuffix(line, ")"):
			instructions = strings.TrimSpace(line[1 : len(line)-1])
			collecting = false
		case strings.HasPrefix(line, "("):
			instructions = strings.TrimSpace(line[1:])
			collecting = true
		case collecting && strings.HasSuffix(line, ")"):
			instructions += " " + strings.TrimSpace(line[:len(line)-1])
			collecting = false
		case collecting:
			instructions += " " + line
		case speaker != "":
			text += " " + line
		}
	}

	flush()
	return lines
}

// Render writes a script back out in the same textual convention,
// suitable as input to the reformatting service.
func Render(lines []story.Line) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(strings.ToUpper(l.Speaker))
		b.WriteString(": ")
		b.WriteString(l.Text)
		b.WriteString("\n")
		if l.Instructions != "" {
			b.WriteString("(")
			b.WriteString(l.Instructions)
			b.WriteString(")\n")
		}
	}
	return b.String()
}
