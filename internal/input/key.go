package input

import (
	"fmt"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
)

// KeyType classifies a decoded key.
type KeyType int

const (
	KeyNone KeyType = iota
	KeyRune
	KeyEnter
	KeyEscape
	KeyBackspace
	KeyTab
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyInsert
	KeyDelete
	KeyCtrl
	KeyAlt
	KeyF
	KeySequence
)

// Key is one logical keypress. Raw always holds the exact bytes read from
// the terminal, so the up arrow is "\x1b[A" and a lone escape is "\x1b".
// N is the function key number for KeyF.
type Key struct {
	Type KeyType
	Rune rune
	N    int
	Raw  []byte
}

// Is reports whether the key is the single printable rune r.
func (k Key) Is(r rune) bool {
	return k.Type == KeyRune && k.Rune == r
}

// IsPrintable reports whether the key inserts visible text into a buffer.
func (k Key) IsPrintable() bool {
	return k.Type == KeyRune && k.Rune >= 0x20 && k.Rune != 0x7f
}

// String names the key the way bubbletea names tea.KeyMsg values, which
// lets key.Binding definitions match decoded keys directly.
func (k Key) String() string {
	switch k.Type {
	case KeyRune:
		return string(k.Rune)
	case KeyEnter:
		return "enter"
	case KeyEscape:
		return "esc"
	case KeyBackspace:
		return "backspace"
	case KeyTab:
		return "tab"
	case KeyUp:
		return "up"
	case KeyDown:
		return "down"
	case KeyLeft:
		return "left"
	case KeyRight:
		return "right"
	case KeyHome:
		return "home"
	case KeyEnd:
		return "end"
	case KeyPageUp:
		return "pgup"
	case KeyPageDown:
		return "pgdown"
	case KeyInsert:
		return "insert"
	case KeyDelete:
		return "delete"
	case KeyCtrl:
		return fmt.Sprintf("ctrl+%c", k.Rune)
	case KeyAlt:
		return "alt+" + string(k.Rune)
	case KeyF:
		return fmt.Sprintf("f%d", k.N)
	case KeySequence:
		return fmt.Sprintf("%q", k.Raw)
	}
	return ""
}

// Msg converts the key into a tea.KeyMsg so bubbles components
// (textinput, list cursors) can consume it through their Update methods.
func (k Key) Msg() tea.KeyMsg {
	switch k.Type {
	case KeyRune:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{k.Rune}}
	case KeyEnter:
		return tea.KeyMsg{Type: tea.KeyEnter}
	case KeyEscape:
		return tea.KeyMsg{Type: tea.KeyEscape}
	case KeyBackspace:
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case KeyTab:
		return tea.KeyMsg{Type: tea.KeyTab}
	case KeyUp:
		return tea.KeyMsg{Type: tea.KeyUp}
	case KeyDown:
		return tea.KeyMsg{Type: tea.KeyDown}
	case KeyLeft:
		return tea.KeyMsg{Type: tea.KeyLeft}
	case KeyRight:
		return tea.KeyMsg{Type: tea.KeyRight}
	case KeyHome:
		return tea.KeyMsg{Type: tea.KeyHome}
	case KeyEnd:
		return tea.KeyMsg{Type: tea.KeyEnd}
	case KeyPageUp:
		return tea.KeyMsg{Type: tea.KeyPgUp}
	case KeyPageDown:
		return tea.KeyMsg{Type: tea.KeyPgDown}
	case KeyInsert:
		return tea.KeyMsg{Type: tea.KeyInsert}
	case KeyDelete:
		return tea.KeyMsg{Type: tea.KeyDelete}
	case KeyCtrl:
		// tea.KeyCtrlA is 0x01 and the rest follow in byte order.
		return tea.KeyMsg{Type: tea.KeyType(k.Rune - 'a' + 1)}
	case KeyAlt:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{k.Rune}, Alt: true}
	case KeyF:
		if k.N >= 1 && k.N <= len(teaFunctionKeys) {
			return tea.KeyMsg{Type: teaFunctionKeys[k.N-1]}
		}
	}
	return tea.KeyMsg{}
}

var teaFunctionKeys = []tea.KeyType{
	tea.KeyF1, tea.KeyF2, tea.KeyF3, tea.KeyF4, tea.KeyF5, tea.KeyF6,
	tea.KeyF7, tea.KeyF8, tea.KeyF9, tea.KeyF10, tea.KeyF11, tea.KeyF12,
}

// functionKeys maps the xterm ESC [ n ~ codes to F1-F12. 16 and 22 are
// unused by xterm.
var functionKeys = map[string]int{
	"[11~": 1, "[12~": 2, "[13~": 3, "[14~": 4,
	"[15~": 5, "[17~": 6, "[18~": 7, "[19~": 8,
	"[20~": 9, "[21~": 10, "[23~": 11, "[24~": 12,
}

// classify builds a Key from a complete raw sequence.
func classify(raw []byte) Key {
	k := Key{Type: KeySequence, Raw: raw}
	if len(raw) == 0 {
		k.Type = KeyNone
		return k
	}

	b := raw[0]
	if b != esc {
		switch {
		case b == '\r' || b == '\n':
			k.Type = KeyEnter
		case b == 0x7f || b == 0x08:
			k.Type = KeyBackspace
		case b == '\t':
			k.Type = KeyTab
		case b < 0x20:
			k.Type = KeyCtrl
			k.Rune = rune(b) + 'a' - 1
		default:
			r, size := utf8.DecodeRune(raw)
			if r == utf8.RuneError && size <= 1 {
				r = rune(b)
			}
			k.Type = KeyRune
			k.Rune = r
		}
		return k
	}

	if len(raw) == 1 {
		k.Type = KeyEscape
		return k
	}

	if raw[1] != '[' && raw[1] != 'O' {
		if len(raw) == 2 {
			k.Type = KeyAlt
			k.Rune = rune(raw[1])
		}
		return k
	}

	switch string(raw[1:]) {
	case "[A", "OA":
		k.Type = KeyUp
	case "[B", "OB":
		k.Type = KeyDown
	case "[C", "OC":
		k.Type = KeyRight
	case "[D", "OD":
		k.Type = KeyLeft
	case "[H", "OH", "[1~", "[7~":
		k.Type = KeyHome
	case "[F", "OF", "[4~", "[8~":
		k.Type = KeyEnd
	case "[2~":
		k.Type = KeyInsert
	case "[3~":
		k.Type = KeyDelete
	case "[5~":
		k.Type = KeyPageUp
	case "[6~":
		k.Type = KeyPageDown
	default:
		if n, ok := functionKeys[string(raw[1:])]; ok {
			k.Type = KeyF
			k.N = n
		}
	}
	return k
}

// KeyOf builds a Key from raw bytes. Tests and scripted sources use it to
// produce keys identical to what the decoder returns.
func KeyOf(raw string) Key {
	return classify([]byte(raw))
}

// Rune is shorthand for KeyOf(string(r)).
func Rune(r rune) Key {
	return classify([]byte(string(r)))
}

// Common raw sequences.
const (
	RawUp       = "\x1b[A"
	RawDown     = "\x1b[B"
	RawRight    = "\x1b[C"
	RawLeft     = "\x1b[D"
	RawPageUp   = "\x1b[5~"
	RawPageDown = "\x1b[6~"
	RawEscape   = "\x1b"
	RawEnter    = "\r"
	RawBack     = "\x7f"
	RawCtrlC    = "\x03"
)
