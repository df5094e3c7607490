package input

import (
	"errors"
	"time"
)

const esc = 0x1b

// ByteTimeout is how long the decoder waits for each follow-up byte.
const ByteTimeout = 50 * time.Millisecond

const (
	maxMouseBytes   = 32
	maxExtendedTail = 5
)

// ErrTimeout is returned by a ByteSource when no byte arrived in time.
var ErrTimeout = errors.New("input: read timeout")

// ByteSource delivers terminal input one byte at a time.
type ByteSource interface {
	// ReadByte waits up to timeout for the next byte. It returns
	// ErrTimeout when nothing arrived and any other error when the
	// source is closed or broken.
	ReadByte(timeout time.Duration) (byte, error)
}

// Decoder turns raw terminal bytes into logical keys.
type Decoder struct {
	src     ByteSource
	timeout time.Duration

	// pending holds a byte read ahead of the key it belongs to.
	pending    byte
	hasPending bool
}

// NewDecoder returns a decoder reading from src with the default timeout.
func NewDecoder(src ByteSource) *Decoder {
	return &Decoder{src: src, timeout: ByteTimeout}
}

// Next reads at most one logical key. ok is false when no key was
// available within the timeout or when a mouse report was swallowed.
func (d *Decoder) Next() (Key, bool, error) {
	b, err := d.read()
	if err != nil {
		return Key{}, false, ignoreTimeout(err)
	}

	if b != esc {
		return d.finishRune(b)
	}

	second, err := d.read()
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			return classify([]byte{esc}), true, nil
		}
		return Key{}, false, err
	}
	if second != '[' {
		return classify([]byte{esc, second}), true, nil
	}

	third, err := d.read()
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			return classify([]byte{esc, '['}), true, nil
		}
		return Key{}, false, err
	}

	switch {
	case third == '<':
		return Key{}, false, d.discardMouse()
	case third >= '1' && third <= '6':
		return d.finishExtended([]byte{esc, '[', third})
	}
	return classify([]byte{esc, '[', third}), true, nil
}

// finishRune completes a UTF-8 sequence started by lead. A missing
// continuation byte yields the lead byte alone, and a byte that is not a
// continuation is kept for the next key.
func (d *Decoder) finishRune(lead byte) (Key, bool, error) {
	need := utf8Continuations(lead)
	raw := []byte{lead}
	for i := 0; i < need; i++ {
		b, err := d.read()
		if err != nil {
			if errors.Is(err, ErrTimeout) {
				return classify([]byte{lead}), true, nil
			}
			return Key{}, false, err
		}
		if b&0xC0 != 0x80 {
			d.unread(b)
			return classify([]byte{lead}), true, nil
		}
		raw = append(raw, b)
	}
	return classify(raw), true, nil
}

// finishExtended reads the tail of an ESC [ digit sequence until '~', ';'
// or a letter terminates it.
func (d *Decoder) finishExtended(raw []byte) (Key, bool, error) {
	for i := 0; i < maxExtendedTail; i++ {
		b, err := d.read()
		if err != nil {
			if errors.Is(err, ErrTimeout) {
				break
			}
			return Key{}, false, err
		}
		raw = append(raw, b)
		if b == '~' || b == ';' || isLetter(b) {
			break
		}
	}
	return classify(raw), true, nil
}

// discardMouse drops an SGR mouse report up to its M/m terminator.
func (d *Decoder) discardMouse() error {
	for i := 0; i < maxMouseBytes; i++ {
		b, err := d.read()
		if err != nil {
			return ignoreTimeout(err)
		}
		if b == 'M' || b == 'm' {
			return nil
		}
	}
	return nil
}

func (d *Decoder) read() (byte, error) {
	if d.hasPending {
		d.hasPending = false
		return d.pending, nil
	}
	return d.src.ReadByte(d.timeout)
}

func (d *Decoder) unread(b byte) {
	d.pending, d.hasPending = b, true
}

func ignoreTimeout(err error) error {
	if errors.Is(err, ErrTimeout) {
		return nil
	}
	return err
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func utf8Continuations(lead byte) int {
	switch {
	case lead&0xE0 == 0xC0:
		return 1
	case lead&0xF0 == 0xE0:
		return 2
	case lead&0xF8 == 0xF0:
		return 3
	}
	return 0
}
