// ABOUTME: MSB-first bit writer and reader
// ABOUTME: Packet assembly for the encoder; the decoder reads through icza/bitio
package alac

import (
	"bytes"
	"fmt"

	"github.com/icza/bitio"
)

// bitWriter appends bits most significant first.
type bitWriter struct {
	buf  []byte
	acc  uint64
	nacc uint
}

func newBitWriter(capacity int) *bitWriter {
	return &bitWriter{buf: make([]byte, 0, capacity)}
}

// write appends the low n bits of v, n <= 32.
func (w *bitWriter) write(v uint32, n uint) {
	if n == 0 {
		return
	}
	w.acc = w.acc<<n | uint64(v)&(1<<n-1)
	w.nacc += n
	for w.nacc >= 8 {
		w.nacc -= 8
		w.buf = append(w.buf, byte(w.acc>>w.nacc))
	}
}

// writeBits appends everything written to o.
func (w *bitWriter) writeBits(o *bitWriter) {
	for _, b := range o.buf {
		w.write(uint32(b), 8)
	}
	if o.nacc > 0 {
		w.write(uint32(o.acc), o.nacc)
	}
}

// byteAlign pads with zero bits to the next byte boundary.
func (w *bitWriter) byteAlign() {
	if w.nacc > 0 {
		w.write(0, 8-w.nacc)
	}
}

// bitLen returns the number of bits written so far.
func (w *bitWriter) bitLen() int {
	return len(w.buf)*8 + int(w.nacc)
}

// bytes returns the written bytes; the writer must be byte aligned.
func (w *bitWriter) bytes() []byte {
	return w.buf
}

// bitReader consumes bits most significant first.
type bitReader struct {
	r *bitio.Reader
}

func newBitReader(buf []byte) *bitReader {
	return &bitReader{r: bitio.NewReader(bytes.NewReader(buf))}
}

// read returns the next n bits, n <= 32.
func (r *bitReader) read(n uint) (uint32, error) {
	if n == 0 {
		return 0, nil
	}
	v, err := r.r.ReadBits(uint8(n))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCorruptPacket, err)
	}
	return uint32(v), nil
}
