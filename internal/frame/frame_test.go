package frame

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

func TestRoundTripNonASCII(t *testing.T) {
	msg := map[string]string{"action": "write", "title": "Café — 日本語 <b>&</b>"}

	var buf bytes.Buffer
	if err := NewEncoder(&buf, DefaultLimits()).Encode(msg); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	raw := buf.Bytes()
	n := binary.LittleEndian.Uint32(raw[:PrefixLen])
	if int(n) != len(raw)-PrefixLen {
		t.Fatalf("prefix %d, payload %d", n, len(raw)-PrefixLen)
	}
	if !bytes.Contains(raw, []byte("Café — 日本語 <b>&</b>")) {
		t.Fatalf("payload was escaped: %s", raw[PrefixLen:])
	}

	var got map[string]string
	if err := NewDecoder(&buf, DefaultLimits()).Decode(&got); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got["title"] != msg["title"] || got["action"] != "write" {
		t.Fatalf("got %v", got)
	}
}

func TestPingFrameBytes(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMessage(&buf, []byte(`{"action":"ping"}`), DefaultLimits()); err != nil {
		t.Fatal(err)
	}
	want := append([]byte{0x11, 0x00, 0x00, 0x00}, []byte(`{"action":"ping"}`)...)
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("got % x", buf.Bytes())
	}
}

func TestCleanEOF(t *testing.T) {
	_, err := ReadMessage(bytes.NewReader(nil), DefaultLimits())
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestShortPrefix(t *testing.T) {
	_, err := ReadMessage(bytes.NewReader([]byte{0x05, 0x00}), DefaultLimits())
	if !errors.Is(err, ErrShortHeader) {
		t.Fatalf("expected ErrShortHeader, got %v", err)
	}
}

func TestShortPayload(t *testing.T) {
	data := append([]byte{0x0a, 0x00, 0x00, 0x00}, []byte(`{"a"`)...)
	_, err := ReadMessage(bytes.NewReader(data), DefaultLimits())
	if !errors.Is(err, ErrShortPayload) {
		t.Fatalf("expected ErrShortPayload, got %v", err)
	}
}

func TestLimits(t *testing.T) {
	limits := Limits{MaxPayloadBytes: 4}
	if err := WriteMessage(io.Discard, []byte("12345"), limits); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("write: expected ErrPayloadTooLarge, got %v", err)
	}
	data := append([]byte{0x05, 0x00, 0x00, 0x00}, []byte("12345")...)
	if _, err := ReadMessage(bytes.NewReader(data), limits); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("read: expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestMalformedKeepsStreamAligned(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMessage(&buf, []byte("not json"), DefaultLimits()); err != nil {
		t.Fatal(err)
	}
	if err := WriteMessage(&buf, []byte{0xff, 0xfe}, DefaultLimits()); err != nil {
		t.Fatal(err)
	}
	if err := WriteMessage(&buf, []byte(`{"action":"ping"}`), DefaultLimits()); err != nil {
		t.Fatal(err)
	}

	dec := NewDecoder(&buf, DefaultLimits())
	var v map[string]any
	for i := 0; i < 2; i++ {
		if err := dec.Decode(&v); !errors.Is(err, ErrMalformed) {
			t.Fatalf("frame %d: expected ErrMalformed, got %v", i, err)
		}
	}
	if err := dec.Decode(&v); err != nil {
		t.Fatalf("third frame: %v", err)
	}
	if v["action"] != "ping" {
		t.Fatalf("got %v", v)
	}
}

type countingWriter struct {
	writes  int
	flushed bool
	bytes.Buffer
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.writes++
	return c.Buffer.Write(p)
}

func (c *countingWriter) Flush() error {
	c.flushed = true
	return nil
}

func TestSingleWriteThenFlush(t *testing.T) {
	w := &countingWriter{}
	if err := NewEncoder(w, DefaultLimits()).Encode(map[string]bool{"success": true}); err != nil {
		t.Fatal(err)
	}
	if w.writes != 1 || !w.flushed {
		t.Fatalf("writes=%d flushed=%v", w.writes, w.flushed)
	}
}

func TestBufferedWriterIsFlushed(t *testing.T) {
	var out bytes.Buffer
	bw := bufio.NewWriter(&out)
	if err := WriteMessage(bw, []byte(`{}`), DefaultLimits()); err != nil {
		t.Fatal(err)
	}
	if out.Len() != PrefixLen+2 {
		t.Fatalf("expected flushed frame, got %d bytes", out.Len())
	}
}
