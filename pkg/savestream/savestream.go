// Package savestream is a small ordered stream of primitive values used to
// persist game-side memory. Values are read back in the order they were
// written. Each value is a protobuf wire field whose number is its position
// in the stream, so a reader detects a truncated or shuffled blob instead of
// silently misreading it.
package savestream

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

var (
	ErrUnexpectedEOF = errors.New("savestream: unexpected end of stream")
	ErrWireType      = errors.New("savestream: wrong wire type")
	ErrFieldOrder    = errors.New("savestream: field out of order")
	ErrTrailingData  = errors.New("savestream: trailing data after last field")
)

// Pair is an ordered (owner, id) identity.
type Pair struct {
	A int64
	B int64
}

// Writer appends values to an in-memory buffer.
type Writer struct {
	buf []byte
	num protowire.Number
}

// NewWriter returns an empty writer.
func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) next(typ protowire.Type) {
	w.num++
	w.buf = protowire.AppendTag(w.buf, w.num, typ)
}

func (w *Writer) WriteInt(v int64) {
	w.next(protowire.VarintType)
	w.buf = protowire.AppendVarint(w.buf, protowire.EncodeZigZag(v))
}

// WritePairs writes a length-prefixed set of pairs as one field.
func (w *Writer) WritePairs(pairs []Pair) {
	body := protowire.AppendVarint(nil, uint64(len(pairs)))
	for _, p := range pairs {
		body = protowire.AppendVarint(body, protowire.EncodeZigZag(p.A))
		body = protowire.AppendVarint(body, protowire.EncodeZigZag(p.B))
	}
	w.next(protowire.BytesType)
	w.buf = protowire.AppendBytes(w.buf, body)
}

// Bytes returns the encoded stream.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Reader consumes values written by a Writer.
type Reader struct {
	buf []byte
	num protowire.Number
}

// NewReader returns a reader over b.
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

func (r *Reader) next(want protowire.Type) error {
	if len(r.buf) == 0 {
		return ErrUnexpectedEOF
	}
	num, typ, n := protowire.ConsumeTag(r.buf)
	if n < 0 {
		return fmt.Errorf("read tag: %w", protowire.ParseError(n))
	}
	r.num++
	if num != r.num {
		return fmt.Errorf("%w: got field %d, want %d", ErrFieldOrder, num, r.num)
	}
	if typ != want {
		return fmt.Errorf("%w: field %d has type %d, want %d", ErrWireType, num, typ, want)
	}
	r.buf = r.buf[n:]
	return nil
}

func (r *Reader) varint() (uint64, error) {
	v, n := protowire.ConsumeVarint(r.buf)
	if n < 0 {
		return 0, fmt.Errorf("read varint: %w", protowire.ParseError(n))
	}
	r.buf = r.buf[n:]
	return v, nil
}

func (r *Reader) ReadInt() (int64, error) {
	if err := r.next(protowire.VarintType); err != nil {
		return 0, err
	}
	v, err := r.varint()
	if err != nil {
		return 0, err
	}
	return protowire.DecodeZigZag(v), nil
}

func (r *Reader) ReadPairs() ([]Pair, error) {
	if err := r.next(protowire.BytesType); err != nil {
		return nil, err
	}
	body, n := protowire.ConsumeBytes(r.buf)
	if n < 0 {
		return nil, fmt.Errorf("read pairs: %w", protowire.ParseError(n))
	}
	r.buf = r.buf[n:]

	count, n := protowire.ConsumeVarint(body)
	if n < 0 {
		return nil, fmt.Errorf("read pair count: %w", protowire.ParseError(n))
	}
	body = body[n:]
	// each pair needs at least two bytes
	if count > uint64(len(body))/2 {
		return nil, fmt.Errorf("read pairs: count %d exceeds payload: %w", count, ErrUnexpectedEOF)
	}
	pairs := make([]Pair, 0, count)
	for range count {
		a, n := protowire.ConsumeVarint(body)
		if n < 0 {
			return nil, fmt.Errorf("read pair: %w", protowire.ParseError(n))
		}
		body = body[n:]
		b, n := protowire.ConsumeVarint(body)
		if n < 0 {
			return nil, fmt.Errorf("read pair: %w", protowire.ParseError(n))
		}
		body = body[n:]
		pairs = append(pairs, Pair{A: protowire.DecodeZigZag(a), B: protowire.DecodeZigZag(b)})
	}
	return pairs, nil
}

// Remaining reports how many bytes have not been consumed. A reader that
// has taken every value it expects should have none left.
func (r *Reader) Remaining() int {
	return len(r.buf)
}
