package etl

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
)

// decodeReader wraps r so it yields UTF-8 decoded from the named encoding.
// UTF-8 itself is validated strictly: the first invalid sequence makes
// Read fail with ErrEncodingMismatch.
func decodeReader(name string, r io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "utf-8", "utf8", "":
		return &strictUTF8Reader{r: r}, nil
	case "latin-1", "latin1", "iso-8859-1", "iso8859-1", "l1":
		return charmap.ISO8859_1.NewDecoder().Reader(r), nil
	case "cp1252", "windows-1252":
		return charmap.Windows1252.NewDecoder().Reader(r), nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	if enc == encoding.Nop {
		return r, nil
	}
	return enc.NewDecoder().Reader(r), nil
}

// strictUTF8Reader passes bytes through while checking they are valid
// UTF-8. A rune split across reads is held back until completed.
type strictUTF8Reader struct {
	r       io.Reader
	pending []byte
	offset  int64
	err     error
}

func (s *strictUTF8Reader) Read(p []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	if len(p) < utf8.UTFMax {
		return 0, io.ErrShortBuffer
	}

	for {
		n := copy(p, s.pending)
		s.pending = s.pending[:0]

		m, readErr := s.r.Read(p[n:])
		n += m
		buf := p[:n]

		valid, bad := validUTF8Prefix(buf)
		if bad {
			s.err = fmt.Errorf("%w: invalid UTF-8 at byte %d", ErrEncodingMismatch, s.offset+int64(valid))
			s.offset += int64(valid)
			return valid, s.err
		}

		tail := buf[valid:]
		if len(tail) > 0 {
			if readErr == io.EOF {
				s.err = fmt.Errorf("%w: truncated UTF-8 at byte %d", ErrEncodingMismatch, s.offset+int64(valid))
				s.offset += int64(valid)
				return valid, s.err
			}
			s.pending = append(s.pending, tail...)
		}

		s.offset += int64(valid)
		if readErr != nil {
			s.err = readErr
			return valid, readErr
		}
		if valid > 0 {
			return valid, nil
		}
	}
}

// validUTF8Prefix returns the length of the longest prefix of buf made of
// whole valid runes. bad is true when an invalid sequence follows it; when
// false the remaining bytes are the start of an incomplete rune.
func validUTF8Prefix(buf []byte) (n int, bad bool) {
	for n < len(buf) {
		if buf[n] < utf8.RuneSelf {
			n++
			continue
		}
		r, size := utf8.DecodeRune(buf[n:])
		if r == utf8.RuneError && size == 1 {
			if !utf8.FullRune(buf[n:]) {
				return n, false
			}
			return n, true
		}
		n += size
	}
	return n, false
}
