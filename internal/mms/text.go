package mms

// text.go turns raw entry bytes into text the scanner can trust:
//
//   - a leading UTF-8 BOM is dropped
//   - any invalid UTF-8 fails the read with ErrInvalidText
//   - bytes read are counted for FileResult.Bytes
//
// Validation streams with O(1) extra memory; a multi-byte sequence split
// across two reads is held back until the next read completes it. Reads into
// a buffer shorter than utf8.UTFMax are served from a small internal buffer.

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// NewTextReader wraps r with BOM skipping and strict UTF-8 validation.
func NewTextReader(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return &utf8Validator{r: br}
}

type utf8Validator struct {
	r       io.Reader
	pending [utf8.UTFMax]byte
	npend   int
	offset  int64
	err     error

	small [utf8.UTFMax]byte
	held  []byte // validated bytes in small not yet returned
}

func (v *utf8Validator) Read(p []byte) (int, error) {
	if len(v.held) > 0 {
		n := copy(p, v.held)
		v.held = v.held[n:]
		return n, nil
	}
	if v.err != nil {
		return 0, v.err
	}
	if len(p) >= utf8.UTFMax {
		return v.read(p)
	}
	if len(p) == 0 {
		return 0, nil
	}

	m, err := v.read(v.small[:])
	n := copy(p, v.small[:m])
	v.held = v.small[n:m]
	if len(v.held) > 0 {
		// err is kept in v.err and returned once held drains
		return n, nil
	}
	return n, err
}

// read validates into p, which must hold at least utf8.UTFMax bytes.
func (v *utf8Validator) read(p []byte) (int, error) {
	for {
		n := copy(p, v.pending[:v.npend])
		v.npend = 0

		m, err := v.r.Read(p[n:])
		n += m

		if err != nil {
			// Final chunk: nothing can complete a trailing partial sequence.
			if bad := firstInvalid(p[:n]); bad >= 0 {
				v.err = fmt.Errorf("%w at byte %d", ErrInvalidText, v.offset+int64(bad))
				return bad, v.err
			}
			v.offset += int64(n)
			v.err = err
			return n, err
		}

		keep := incompleteTrailingBytes(p[:n])
		valid := n - keep
		if bad := firstInvalid(p[:valid]); bad >= 0 {
			v.err = fmt.Errorf("%w at byte %d", ErrInvalidText, v.offset+int64(bad))
			return bad, v.err
		}
		v.npend = copy(v.pending[:], p[valid:n])
		if valid == 0 {
			continue
		}
		v.offset += int64(valid)
		return valid, nil
	}
}

// firstInvalid returns the offset of the first invalid byte, or -1.
func firstInvalid(data []byte) int {
	if utf8.Valid(data) {
		return -1
	}
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return -1
}

// incompleteTrailingBytes returns how many bytes at the end of data start a
// multi-byte sequence that is not yet complete.
func incompleteTrailingBytes(data []byte) int {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(data); i++ {
		b := data[len(data)-i]
		if b >= 0xC0 {
			if i < runeLen(b) {
				return i
			}
			return 0
		}
		if b&0xC0 != 0x80 {
			return 0
		}
	}
	return 0
}

// runeLen returns the sequence length announced by a UTF-8 lead byte.
func runeLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b < 0xC0:
		return 0
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	default:
		return 4
	}
}

// countingReader tracks bytes read through it.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
