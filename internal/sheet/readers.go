package sheet

// readers.go holds the io.Reader wrappers applied to delimited input before
// it reaches encoding/csv:
//
//   - bomReader drops a leading UTF-8 BOM written by Excel on Windows
//   - sanitizer replaces invalid UTF-8 bytes with '?'
//   - limitReader fails with ErrFileTooLarge past a byte budget

import (
	"bufio"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// bomReader strips a UTF-8 byte order mark from the start of a stream.
type bomReader struct {
	br      *bufio.Reader
	checked bool
}

func newBOMReader(r io.Reader) *bomReader {
	return &bomReader{br: bufio.NewReader(r)}
}

func (r *bomReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true
		head, err := r.br.Peek(len(utf8BOM))
		if err != nil && err != io.EOF {
			return 0, err
		}
		if len(head) == len(utf8BOM) && head[0] == utf8BOM[0] && head[1] == utf8BOM[1] && head[2] == utf8BOM[2] {
			if _, err := r.br.Discard(len(utf8BOM)); err != nil {
				return 0, err
			}
		}
	}
	return r.br.Read(p)
}

// sanitizer rewrites invalid UTF-8 in place. A multi-byte rune split across
// two reads is held back until the next call so it is not mistaken for
// garbage.
type sanitizer struct {
	r       io.Reader
	pending []byte
}

func newSanitizer(r io.Reader) *sanitizer {
	return &sanitizer{r: r, pending: make([]byte, 0, utf8.UTFMax)}
}

func (s *sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	n := copy(p, s.pending)
	s.pending = s.pending[:0]

	m, err := s.r.Read(p[n:])
	n += m
	if n == 0 {
		return 0, err
	}

	return s.clean(p[:n], err == io.EOF), err
}

// clean rewrites data and returns how many bytes of it are ready to hand
// out. Trailing bytes of an unfinished rune go to s.pending unless atEOF.
func (s *sanitizer) clean(data []byte, atEOF bool) int {
	w := 0
	for i := 0; i < len(data); {
		if data[i] < utf8.RuneSelf {
			data[w] = data[i]
			w++
			i++
			continue
		}

		if !atEOF && !utf8.FullRune(data[i:]) {
			s.pending = append(s.pending, data[i:]...)
			return w
		}

		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			data[w] = '?'
			w++
			i++
			continue
		}
		w += copy(data[w:], data[i:i+size])
		i += size
	}
	return w
}

// limitReader passes through at most max bytes and reports ErrFileTooLarge
// once the source has more. max <= 0 disables the check.
type limitReader struct {
	r    io.Reader
	max  int64
	read int64
}

func newLimitReader(r io.Reader, max int64) io.Reader {
	if max <= 0 {
		return r
	}
	return &limitReader{r: r, max: max}
}

func (l *limitReader) Read(p []byte) (int, error) {
	if l.read > l.max {
		return 0, ErrFileTooLarge
	}
	// Allow one byte past the limit so an exact-size file is not rejected.
	if room := l.max + 1 - l.read; int64(len(p)) > room {
		p = p[:room]
	}
	n, err := l.r.Read(p)
	l.read += int64(n)
	if l.read > l.max {
		return 0, ErrFileTooLarge
	}
	return n, err
}

// wrapDelimited applies the size guard, BOM stripping and UTF-8 cleanup in
// that order.
func wrapDelimited(r io.Reader, maxBytes int64) io.Reader {
	return newSanitizer(newBOMReader(newLimitReader(r, maxBytes)))
}
