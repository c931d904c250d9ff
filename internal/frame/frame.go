// Package frame implements the browser native-messaging wire format: a
// 4-byte little-endian length followed by that many bytes of UTF-8 JSON.
package frame

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// PrefixLen is the size of the length prefix.
const PrefixLen = 4

var (
	ErrShortHeader     = errors.New("frame: short length prefix")
	ErrShortPayload    = errors.New("frame: payload shorter than announced length")
	ErrPayloadTooLarge = errors.New("frame: payload too large")
	// ErrMalformed marks a complete frame whose payload is not valid UTF-8
	// JSON. The stream itself is still aligned on a frame boundary.
	ErrMalformed = errors.New("frame: malformed payload")
)

// Limits constrains message sizes. Zero means unlimited.
type Limits struct {
	MaxPayloadBytes uint32
}

func DefaultLimits() Limits {
	return Limits{}
}

func (l Limits) exceeded(n uint64) bool {
	return l.MaxPayloadBytes > 0 && n > uint64(l.MaxPayloadBytes)
}

// ReadMessage reads one frame. It returns io.EOF when the stream ends cleanly
// before a new prefix.
func ReadMessage(r io.Reader, limits Limits) ([]byte, error) {
	var prefix [PrefixLen]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrShortHeader
		}
		return nil, err
	}

	n := binary.LittleEndian.Uint32(prefix[:])
	if limits.exceeded(uint64(n)) {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, n)
	}

	// Grow with the data actually received rather than trusting the prefix.
	var buf bytes.Buffer
	got, err := io.CopyN(&buf, r, int64(n))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: got %d of %d bytes", ErrShortPayload, got, n)
		}
		return nil, err
	}
	return buf.Bytes(), nil
}

type flusher interface {
	Flush() error
}

// WriteMessage writes prefix and payload with a single Write and flushes w
// when it buffers.
func WriteMessage(w io.Writer, payload []byte, limits Limits) error {
	if uint64(len(payload)) > 1<<32-1 || limits.exceeded(uint64(len(payload))) {
		return fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}

	msg := make([]byte, PrefixLen+len(payload))
	binary.LittleEndian.PutUint32(msg[:PrefixLen], uint32(len(payload)))
	copy(msg[PrefixLen:], payload)

	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("frame: write: %w", err)
	}
	if f, ok := w.(flusher); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("frame: flush: %w", err)
		}
	}
	return nil
}

// Decoder reads JSON messages from a stream.
type Decoder struct {
	r      io.Reader
	limits Limits
}

func NewDecoder(r io.Reader, limits Limits) *Decoder {
	return &Decoder{r: r, limits: limits}
}

// Decode reads the next frame into v. Errors wrapping ErrMalformed leave the
// stream usable; any other error except io.EOF means the stream is corrupt.
func (d *Decoder) Decode(v any) error {
	payload, err := ReadMessage(d.r, d.limits)
	if err != nil {
		return err
	}
	if !utf8.Valid(payload) {
		return fmt.Errorf("%w: invalid UTF-8", ErrMalformed)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// Encoder writes JSON messages to a stream.
type Encoder struct {
	w      io.Writer
	limits Limits
}

func NewEncoder(w io.Writer, limits Limits) *Encoder {
	return &Encoder{w: w, limits: limits}
}

// Encode marshals v without HTML escaping and writes it as one frame.
func (e *Encoder) Encode(v any) error {
	payload, err := Marshal(v)
	if err != nil {
		return err
	}
	return WriteMessage(e.w, payload, e.limits)
}

// Marshal encodes v as compact JSON without HTML escaping.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("frame: encode: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
