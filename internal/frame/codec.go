// Package frame implements the length-delimited transport framing used to
// carry protocol buffers over the compiler host's stdio streams.
//
// Each frame on the wire is an unsigned LEB128 varint giving the length of
// the payload in bytes, immediately followed by that many payload bytes.
// This is the same varint encoding protobuf itself uses for field tags and
// lengths, so the codec is built directly on protowire's varint primitives
// rather than reimplementing them.
package frame

import (
	"bufio"
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrTruncated is returned by Reader.Next when the stream ends in the middle of a
// varint length or in the middle of a payload.
var ErrTruncated = fmt.Errorf("frame: truncated frame at end of stream")

// Reader decodes a stream of length-prefixed frames.
//
// A Reader is not safe for concurrent use; the root dispatcher owns a
// single Reader and reads it from its own goroutine.
type Reader struct {
	r   *bufio.Reader
	buf []byte
}

// NewReader wraps r for frame-at-a-time decoding.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next reads and returns the next frame's payload. It returns io.EOF (and no
// payload) only when the stream ends exactly on a frame boundary. Any other
// truncation — a partial varint or a payload cut short by EOF — is reported
// as ErrTruncated, which callers must treat as a fatal PARSE error per the
// protocol's framing contract.
//
// The returned slice is owned by the Reader and is only valid until the
// next call to Next.
func (r *Reader) Next() ([]byte, error) {
	length, err := readUvarint(r.r)
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, ErrTruncated
	}

	if cap(r.buf) < int(length) {
		r.buf = make([]byte, length)
	}
	buf := r.buf[:length]

	if _, err := io.ReadFull(r.r, buf); err != nil {
		return nil, ErrTruncated
	}

	return buf, nil
}

// readUvarint reads a base-128 varint one byte at a time so that a clean EOF
// before any byte is read can be distinguished from a truncated varint.
func readUvarint(r io.ByteReader) (uint64, error) {
	var buf []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF && len(buf) == 0 {
				return 0, io.EOF
			}
			return 0, ErrTruncated
		}
		buf = append(buf, b)
		if b < 0x80 {
			break
		}
	}

	v, n := protowire.ConsumeVarint(buf)
	if n < 0 {
		return 0, ErrTruncated
	}
	return v, nil
}

// Writer encodes frames onto an underlying stream.
//
// A Writer is not safe for concurrent use without external synchronization;
// the root dispatcher serializes all writes behind a single mutex (see
// host.Dispatcher) because multiple workers may have outbound messages ready
// at once.
type Writer struct {
	w io.Writer
}

// NewWriter wraps w for frame-at-a-time encoding.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write emits payload as a single length-prefixed frame.
func (w *Writer) Write(payload []byte) error {
	buf := protowire.AppendVarint(nil, uint64(len(payload)))
	buf = append(buf, payload...)
	_, err := w.w.Write(buf)
	return err
}
