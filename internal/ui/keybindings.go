package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/tidycode/magetui/internal/input"
)

// --- Key Helpers ---

func isKey(k input.Key, names ...string) bool {
	s := k.String()
	for _, n := range names {
		if s == n {
			return true
		}
	}
	return false
}

func isQuit(k input.Key) bool {
	return isKey(k, "ctrl+c")
}

// isBack is the shared "leave this screen" key.
func isBack(k input.Key) bool {
	return isKey(k, "esc", "q", "Q")
}

func isEscape(k input.Key) bool {
	return k.Type == input.KeyEscape
}

func isUp(k input.Key) bool {
	return isKey(k, "up")
}

func isDown(k input.Key) bool {
	return isKey(k, "down")
}

func isEnter(k input.Key) bool {
	return isKey(k, "enter")
}

func isPageUp(k input.Key) bool {
	return isKey(k, "pgup")
}

func isPageDown(k input.Key) bool {
	return isKey(k, "pgdown")
}

func isConfirm(k input.Key) bool {
	return isKey(k, "y", "Y")
}

func isCancel(k input.Key) bool {
	return isKey(k, "n", "N", "esc")
}

// --- Key Maps ---

func binding(help, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

// navKeys are shown on every list screen.
type navKeys struct {
	Move key.Binding
	Page key.Binding
	Back key.Binding
}

var nav = navKeys{
	Move: binding("↑/↓", "navigate", "up", "down"),
	Page: binding("pgup/pgdn", "page", "pgup", "pgdown"),
	Back: binding("esc/q", "back", "esc", "q", "Q"),
}

// matches reports whether k triggers b.
func matches(k input.Key, b key.Binding) bool {
	return key.Matches(k, b)
}
