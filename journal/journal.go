// Package journal implements the append-only exchange journal.
//
// Each backend exchange is recorded as a length-prefixed msgpack frame:
// a 4-byte big-endian payload length followed by the msgpack-encoded
// Record. The format is documented in docs/PROTOCOL.md.
package journal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/petrel-io/pybuild/iox"
)

// Frame size constants.
const (
	// MaxFrameSize is the maximum frame size (16 MiB), including length prefix.
	MaxFrameSize = 16 * 1024 * 1024
	// MaxPayloadSize is the maximum payload size (MaxFrameSize - 4 bytes).
	MaxPayloadSize = MaxFrameSize - LengthPrefixSize
	// LengthPrefixSize is the size of the length prefix in bytes.
	LengthPrefixSize = 4
)

// Exchange outcomes recorded in the journal.
const (
	// OutcomeOK marks an exchange whose result carried a return value.
	OutcomeOK = "ok"
	// OutcomeBackendError marks an exchange the backend reported as failed,
	// including the synthesized missing-response failure.
	OutcomeBackendError = "backend_error"
)

// Record is one journalled backend exchange.
type Record struct {
	// ID uniquely identifies the exchange (matches the result-file name).
	ID string `msgpack:"id"`
	// Cmd is the operation name sent to the backend.
	Cmd string `msgpack:"cmd"`
	// Backend is the backend identity (module[:obj]).
	Backend string `msgpack:"backend"`
	// StartedAt is when the request message was handed to the transport.
	StartedAt time.Time `msgpack:"started_at"`
	// DurationMS is the wall time until the command status reported done.
	DurationMS int64 `msgpack:"duration_ms"`
	// Outcome is OutcomeOK or OutcomeBackendError.
	Outcome string `msgpack:"outcome"`
	// Code is the backend-reported exit code for failed exchanges.
	// Nil when the backend reported null or the exchange succeeded.
	Code *int `msgpack:"code,omitempty"`
	// ExcType is the backend-reported exception type for failed exchanges.
	ExcType string `msgpack:"exc_type,omitempty"`
	// ExcMsg is the backend-reported exception message for failed exchanges.
	ExcMsg string `msgpack:"exc_msg,omitempty"`
	// OutBytes is the size of the captured standard output text.
	OutBytes int `msgpack:"out_bytes"`
	// ErrBytes is the size of the captured standard error text.
	ErrBytes int `msgpack:"err_bytes"`
}

// ErrFrameTooLarge reports a frame exceeding MaxFrameSize.
var ErrFrameTooLarge = errors.New("journal frame exceeds maximum size")

// ErrPartialFrame reports a truncated frame at the end of a journal file.
var ErrPartialFrame = errors.New("truncated journal frame")

// Writer appends records to a journal file.
// Safe for concurrent use; each Append writes one whole frame.
type Writer struct {
	mu sync.Mutex
	f  *os.File
}

// OpenWriter opens (creating if needed) a journal file for appending.
func OpenWriter(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	return &Writer{f: f}, nil
}

// Append encodes rec and writes it as a single length-prefixed frame.
func (w *Writer) Append(rec *Record) error {
	payload, err := msgpack.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode journal record: %w", err)
	}
	if len(payload) > MaxPayloadSize {
		return ErrFrameTooLarge
	}

	frame := make([]byte, LengthPrefixSize+len(payload))
	binary.BigEndian.PutUint32(frame[:LengthPrefixSize], uint32(len(payload)))
	copy(frame[LengthPrefixSize:], payload)

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.f.Write(frame); err != nil {
		return fmt.Errorf("write journal frame: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}

// Decoder reads length-prefixed records from a journal stream.
type Decoder struct {
	reader io.Reader
}

// NewDecoder creates a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{reader: r}
}

// Next reads a single record from the stream.
//
// Errors:
//   - io.EOF: stream ended cleanly (no more records)
//   - ErrPartialFrame: incomplete frame at end of stream
//   - ErrFrameTooLarge: length prefix exceeds the limit
func (d *Decoder) Next() (*Record, error) {
	var lengthBuf [LengthPrefixSize]byte
	if _, err := io.ReadFull(d.reader, lengthBuf[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: length prefix: %v", ErrPartialFrame, err)
	}

	payloadSize := binary.BigEndian.Uint32(lengthBuf[:])
	if payloadSize > MaxPayloadSize {
		return nil, fmt.Errorf("%w: payload size %d", ErrFrameTooLarge, payloadSize)
	}

	payload := make([]byte, payloadSize)
	if _, err := io.ReadFull(d.reader, payload); err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrPartialFrame, err)
	}

	var rec Record
	if err := msgpack.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("decode journal record: %w", err)
	}
	return &rec, nil
}

// ReadFile decodes every record in a journal file. On ErrPartialFrame the
// records decoded before the truncated tail are returned alongside the
// error, so a journal cut short by a crash still yields its intact prefix.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	defer iox.DiscardClose(f)

	var records []Record
	dec := NewDecoder(f)
	for {
		rec, err := dec.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, *rec)
	}
}
