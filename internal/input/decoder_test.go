package input

import (
	"io"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeAll(t *testing.T, chunks ...string) []Key {
	t.Helper()
	d := NewDecoder(NewScript(chunks...))
	var keys []Key
	for i := 0; i < 64; i++ {
		k, ok, err := d.Next()
		require.NoError(t, err)
		if !ok {
			if len(keys) > 0 || i > 8 {
				break
			}
			continue
		}
		keys = append(keys, k)
	}
	return keys
}

func TestDecoderPlainByte(t *testing.T) {
	keys := decodeAll(t, "q")
	require.Len(t, keys, 1)
	assert.Equal(t, KeyRune, keys[0].Type)
	assert.Equal(t, 'q', keys[0].Rune)
	assert.Equal(t, []byte("q"), keys[0].Raw)
}

func TestDecoderLoneEscape(t *testing.T) {
	keys := decodeAll(t, "\x1b")
	require.Len(t, keys, 1)
	assert.Equal(t, KeyEscape, keys[0].Type)
	assert.Equal(t, []byte{0x1b}, keys[0].Raw)
	assert.Equal(t, "esc", keys[0].String())
}

func TestDecoderArrowKeysKeepRawBytes(t *testing.T) {
	cases := map[string]KeyType{
		RawUp:    KeyUp,
		RawDown:  KeyDown,
		RawRight: KeyRight,
		RawLeft:  KeyLeft,
		"\x1b[H": KeyHome,
		"\x1b[F": KeyEnd,
	}
	for raw, want := range cases {
		keys := decodeAll(t, raw)
		require.Len(t, keys, 1, raw)
		assert.Equal(t, want, keys[0].Type, raw)
		assert.Equal(t, []byte(raw), keys[0].Raw, raw)
	}
}

func TestDecoderExtendedSequences(t *testing.T) {
	cases := map[string]KeyType{
		RawPageUp:   KeyPageUp,
		RawPageDown: KeyPageDown,
		"\x1b[3~":   KeyDelete,
		"\x1b[2~":   KeyInsert,
		"\x1b[1~":   KeyHome,
		"\x1b[4~":   KeyEnd,
	}
	for raw, want := range cases {
		keys := decodeAll(t, raw)
		require.Len(t, keys, 1, raw)
		assert.Equal(t, want, keys[0].Type, raw)
		assert.Equal(t, []byte(raw), keys[0].Raw, raw)
	}
}

func TestDecoderModifiedArrowStopsAtSemicolon(t *testing.T) {
	d := NewDecoder(NewScript("\x1b[1;5A"))
	k, ok, err := d.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("\x1b[1;"), k.Raw)
	assert.Equal(t, KeySequence, k.Type)
}

func TestDecoderAltKey(t *testing.T) {
	keys := decodeAll(t, "\x1bx")
	require.Len(t, keys, 1)
	assert.Equal(t, KeyAlt, keys[0].Type)
	assert.Equal(t, []byte("\x1bx"), keys[0].Raw)
	assert.Equal(t, "alt+x", keys[0].String())
}

func TestDecoderIncompleteCSI(t *testing.T) {
	keys := decodeAll(t, "\x1b[")
	require.Len(t, keys, 1)
	assert.Equal(t, []byte("\x1b["), keys[0].Raw)
}

func TestDecoderMouseReportIsSwallowed(t *testing.T) {
	src := NewScript("\x1b[<0;12;5M", "j")
	d := NewDecoder(src)

	_, ok, err := d.Next()
	require.NoError(t, err)
	assert.False(t, ok)

	k, ok, err := d.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, k.Is('j'))
}

func TestDecoderUTF8(t *testing.T) {
	keys := decodeAll(t, "é")
	require.Len(t, keys, 1)
	assert.Equal(t, 'é', keys[0].Rune)
	assert.Equal(t, []byte("é"), keys[0].Raw)
}

func TestDecoderTruncatedUTF8ReturnsLeadByte(t *testing.T) {
	d := NewDecoder(NewScript("\xc3"))
	k, ok, err := d.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{0xc3}, k.Raw)
}

func TestDecoderBrokenUTF8KeepsFollowingKey(t *testing.T) {
	keys := decodeAll(t, "\xc3q")
	require.Len(t, keys, 2)
	assert.Equal(t, []byte{0xc3}, keys[0].Raw)
	assert.True(t, keys[1].Is('q'))
}

func TestDecoderBrokenUTF8KeepsFollowingSequence(t *testing.T) {
	keys := decodeAll(t, "\xc3"+RawUp)
	require.Len(t, keys, 2)
	assert.Equal(t, []byte{0xc3}, keys[0].Raw)
	assert.Equal(t, KeyUp, keys[1].Type)
	assert.Equal(t, []byte(RawUp), keys[1].Raw)
}

func TestDecoderFunctionKeys(t *testing.T) {
	cases := map[string]int{
		"\x1b[11~": 1,
		"\x1b[15~": 5,
		"\x1b[17~": 6,
		"\x1b[21~": 10,
		"\x1b[24~": 12,
	}
	for raw, n := range cases {
		keys := decodeAll(t, raw)
		require.Len(t, keys, 1, raw)
		assert.Equal(t, KeyF, keys[0].Type, raw)
		assert.Equal(t, n, keys[0].N, raw)
	}

	f5 := KeyOf("\x1b[15~")
	assert.Equal(t, "f5", f5.String())
	assert.Equal(t, tea.KeyF5, f5.Msg().Type)
	assert.Equal(t, KeySequence, KeyOf("\x1b[16~").Type)
}

func TestDecoderNoInput(t *testing.T) {
	d := NewDecoder(NewScript())
	_, ok, err := d.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDecoderClosedSource(t *testing.T) {
	s := NewScript()
	s.Close()
	_, ok, err := NewDecoder(s).Next()
	assert.False(t, ok)
	assert.ErrorIs(t, err, io.EOF)
}

func TestControlBytes(t *testing.T) {
	assert.Equal(t, KeyEnter, KeyOf("\r").Type)
	assert.Equal(t, KeyEnter, KeyOf("\n").Type)
	assert.Equal(t, KeyBackspace, KeyOf("\x7f").Type)
	assert.Equal(t, KeyTab, KeyOf("\t").Type)

	ctrlC := KeyOf(RawCtrlC)
	assert.Equal(t, KeyCtrl, ctrlC.Type)
	assert.Equal(t, "ctrl+c", ctrlC.String())
	assert.Equal(t, tea.KeyCtrlC, ctrlC.Msg().Type)
}

func TestKeyMsgConversion(t *testing.T) {
	msg := Rune('s').Msg()
	assert.Equal(t, tea.KeyRunes, msg.Type)
	assert.Equal(t, []rune{'s'}, msg.Runes)
	assert.Equal(t, "s", msg.String())

	assert.Equal(t, "up", KeyOf(RawUp).Msg().String())
	assert.Equal(t, "pgdown", KeyOf(RawPageDown).Msg().String())
	assert.Equal(t, KeyOf(RawPageDown).String(), KeyOf(RawPageDown).Msg().String())
}

func TestPrintable(t *testing.T) {
	assert.True(t, Rune('a').IsPrintable())
	assert.True(t, Rune(' ').IsPrintable())
	assert.False(t, KeyOf(RawEnter).IsPrintable())
	assert.False(t, KeyOf(RawUp).IsPrintable())
}
