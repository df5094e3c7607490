package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/tidycode/magetui/internal/input"
	"github.com/tidycode/magetui/internal/process"
	"github.com/tidycode/magetui/internal/services"
	"github.com/tidycode/magetui/internal/ui/components"
)

// narrowWidth is where the hint bar collapses into a single help line.
const narrowWidth = 72

// hintBar renders the key hints for a screen.
func hintBar(width int, bindings ...key.Binding) string {
	if width > 0 && width < narrowWidth {
		h := help.New()
		h.Width = width
		return h.ShortHelpView(bindings)
	}
	hints := make([]components.KeyHint, 0, len(bindings))
	for _, b := range bindings {
		if !b.Enabled() {
			continue
		}
		hints = append(hints, components.KeyHint{Key: b.Help().Key, Desc: b.Help().Desc})
	}
	return components.StatusBar(hints, width)
}

// page stacks the screen body and the hint bar.
func page(body, hints string) string {
	if hints == "" {
		return body
	}
	return body + "\n" + hints
}

// visibleRows estimates how many table rows fit once reserved rows are
// taken for borders, headers and hints.
func visibleRows(height, reserved int) int {
	n := height - reserved
	if n < 3 {
		n = 3
	}
	return n
}

// contentWidth is the usable width inside a box.
func contentWidth(width int) int {
	w := components.BoxContentWidth(width)
	if w < 20 {
		w = 20
	}
	return w
}

// spinnerFrame picks the dot spinner frame for t.
func spinnerFrame(t time.Time) string {
	s := spinner.Dot
	fps := s.FPS
	if fps <= 0 {
		fps = time.Second / 10
	}
	return s.Frames[int(t.UnixNano()/int64(fps))%len(s.Frames)]
}

// outputPanel renders the last n lines of a background process.
func outputPanel(title, output string, n int, running bool, now time.Time, width int) string {
	lines := process.LastLines(output, n)
	if len(lines) == 0 {
		lines = []string{MutedStyle.Render("Waiting for output...")}
	}
	cw := contentWidth(width)
	for i, l := range lines {
		lines[i] = components.ClampTextWidth(l, cw)
	}
	if running {
		title = spinnerFrame(now) + " " + title
	}
	return components.TitledBox(title, strings.Join(lines, "\n"), width)
}

// styledRow is components.InfoRow with a coloured value.
func styledRow(label, value string, style lipgloss.Style) string {
	return MetaKeyStyle.Render(components.SanitizeOneLine(label)+": ") + style.Render(components.SanitizeOneLine(value))
}

// infoRows renders label/value rows, one per line.
func infoRows(rows []services.InfoRow) string {
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = components.InfoRow(r.Label, r.Value)
	}
	return strings.Join(lines, "\n")
}

// columns lays panels side by side on wide terminals and stacks them
// otherwise. render receives the width each panel gets.
func columns(width int, render ...func(w int) string) string {
	if width < 100 || len(render) < 2 {
		blocks := make([]string, len(render))
		for i, r := range render {
			blocks[i] = r(width)
		}
		return joinBlocks(blocks...)
	}
	w := width / len(render)
	blocks := make([]string, len(render))
	for i, r := range render {
		blocks[i] = r(w)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, blocks...)
}

// message renders a one line outcome: ✓ for success, ✗ for failure.
func message(text string) string {
	switch {
	case text == "":
		return ""
	case strings.HasPrefix(text, "✓"):
		return SuccessStyle.Render(text)
	case strings.HasPrefix(text, "✗"):
		return ErrorStyle.Render(text)
	}
	return WarningStyle.Render(text)
}

func okMsg(text string) string   { return "✓ " + text }
func failMsg(text string) string { return "✗ " + text }

// joinBlocks stacks the non-empty blocks.
func joinBlocks(blocks ...string) string {
	var kept []string
	for _, b := range blocks {
		if b != "" {
			kept = append(kept, b)
		}
	}
	return strings.Join(kept, "\n")
}

// prompt is a modal single line editor on top of bubbles textinput.
type prompt struct {
	input  textinput.Model
	active bool
}

func newPrompt(placeholder string, limit int) prompt {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Cursor.SetMode(cursor.CursorStatic)
	return prompt{input: ti}
}

// open starts editing with value prefilled and the cursor at its end.
func (p *prompt) open(value string) {
	p.input.SetValue(value)
	p.input.CursorEnd()
	p.input.Focus()
	p.active = true
}

// close leaves edit mode and drops the buffer.
func (p *prompt) close() {
	p.input.Blur()
	p.input.Reset()
	p.active = false
}

// update feeds one key to the editor.
func (p *prompt) update(k input.Key) {
	p.input, _ = p.input.Update(k.Msg())
}

func (p *prompt) value() string {
	return p.input.Value()
}

func (p *prompt) view() string {
	return p.input.View()
}
