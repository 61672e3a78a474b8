// Package bytecode provides the raw byte buffer and sequential cursor
// the disassembler reads from, plus loading of encoded payload dumps.
package bytecode

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode"

	"github.com/xxtea/xxtea-go/xxtea"
)

// ErrOutOfBounds is returned when a read would run past the end of the buffer.
var ErrOutOfBounds = errors.New("read past end of bytecode buffer")

// Reader is a forward-only cursor over a fixed byte buffer. The offset
// advances by exactly the number of bytes consumed; there is no peek,
// rewind or random access.
type Reader struct {
	buf []byte
	off int
}

// NewReader wraps data in a Reader positioned at offset 0.
func NewReader(data []byte) *Reader {
	return &Reader{buf: data}
}

// Offset returns the current read position.
func (r *Reader) Offset() int { return r.off }

// Len returns the total buffer length.
func (r *Reader) Len() int { return len(r.buf) }

// Remaining reports how many bytes are left to read.
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

// ReadByte returns the byte at the cursor and advances by one.
func (r *Reader) ReadByte() (byte, error) {
	if r.off >= len(r.buf) {
		return 0, fmt.Errorf("%w: offset %d, length %d", ErrOutOfBounds, r.off, len(r.buf))
	}
	b := r.buf[r.off]
	r.off++
	return b, nil
}

// ReadWord16 reads two bytes big-endian.
func (r *Reader) ReadWord16() (uint32, error) {
	hi, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	lo, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	return uint32(hi)<<8 | uint32(lo), nil
}

// ReadWord32 reads four bytes big-endian. Every jump/entry/offset field in
// the instruction stream is this width, even where the wire format's origins
// suggest a narrower field.
func (r *Reader) ReadWord32() (uint32, error) {
	var v uint32
	for i := 0; i < 4; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		v = v<<8 | uint32(b)
	}
	return v, nil
}

// ReadBytes reads exactly n bytes. The cursor does not advance on failure.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if r.off+n > len(r.buf) {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, length %d", ErrOutOfBounds, n, r.off, len(r.buf))
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// FromBase64 decodes a textual bytecode dump. Dumps taken from devtools or
// runtime hooks are frequently wrapped and indented, so all whitespace is
// stripped before decoding.
func FromBase64(text string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)

	data, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 payload: %w", err)
	}
	return data, nil
}

// Decrypt removes an XXTEA container from an encrypted payload, checking and
// stripping the signature prefix when one is given.
func Decrypt(data []byte, key string, signature string) ([]byte, error) {
	if signature != "" {
		if !bytes.HasPrefix(data, []byte(signature)) {
			return nil, fmt.Errorf("payload does not start with signature %q", signature)
		}
		data = data[len(signature):]
	}

	decrypted := xxtea.Decrypt(data, []byte(key))
	if decrypted == nil {
		return nil, errors.New("xxtea decryption failed (wrong key?)")
	}
	return decrypted, nil
}

// DetectAndDecompress checks whether data is a gzip stream and inflates it,
// returning the input unchanged otherwise.
func DetectAndDecompress(data []byte) ([]byte, error) {
	if len(data) < 2 {
		return data, nil
	}

	if data[0] == 0x1f && data[1] == 0x8b {
		slog.Debug("Detected gzip compression in payload")
		reader, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress payload: %w", err)
		}
		return decompressed, nil
	}

	return data, nil
}
