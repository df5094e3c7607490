package input

import (
	"io"
	"sync"
	"time"
)

// Script is an in-memory ByteSource. Bytes queued with Feed are returned in
// order and an empty queue reports ErrTimeout immediately. Tests in this
// and other packages feed decoders through it.
type Script struct {
	mu     sync.Mutex
	buf    []byte
	closed bool
}

// NewScript returns a source preloaded with the given chunks.
func NewScript(chunks ...string) *Script {
	s := &Script{}
	for _, c := range chunks {
		s.Feed(c)
	}
	return s
}

// Feed appends bytes to the queue.
func (s *Script) Feed(chunk string) {
	s.mu.Lock()
	s.buf = append(s.buf, chunk...)
	s.mu.Unlock()
}

// Close makes every later read fail with io.EOF once the queue drains.
func (s *Script) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Len reports how many bytes are still queued.
func (s *Script) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf)
}

func (s *Script) ReadByte(_ time.Duration) (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buf) == 0 {
		if s.closed {
			return 0, io.EOF
		}
		return 0, ErrTimeout
	}
	b := s.buf[0]
	s.buf = s.buf[1:]
	return b, nil
}
