// ABOUTME: Container layout shared by the file and rtp sinks
// ABOUTME: A format tag, the magic cookie, then length-prefixed records
package sink

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/aerial-go/pkg/alac"
	"github.com/Resonate-Protocol/aerial-go/pkg/audio/encode"
	"github.com/pion/rtp"
)

// Stream tags at the start of every file written by a sink.
const (
	TagALAC = "alac"
	TagRTP  = "rtp "
)

// ErrBadStream is returned for files that are not sink output.
var ErrBadStream = errors.New("not an aerial stream file")

func writeStreamHeader(w io.Writer, tag string, cfg alac.SpecificConfig) error {
	cookie, err := cfg.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, tag); err != nil {
		return err
	}
	_, err = w.Write(cookie)
	return err
}

// writeHeader writes and flushes the stream header so a file that cannot
// be written fails Open rather than the first packet.
func writeHeader(w *bufio.Writer, tag string, cfg alac.SpecificConfig) error {
	if err := writeStreamHeader(w, tag, cfg); err != nil {
		return fmt.Errorf("failed to write stream header: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write stream header: %w", err)
	}
	return nil
}

func writeRecord(w io.Writer, data []byte) error {
	if len(data) > 0xffff {
		return fmt.Errorf("record of %d bytes does not fit a 16-bit length", len(data))
	}
	var n [2]byte
	binary.BigEndian.PutUint16(n[:], uint16(len(data)))
	if _, err := w.Write(n[:]); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

// Reader reads back files written by the file and rtp sinks.
type Reader struct {
	r      *bufio.Reader
	tag    string
	cfg    alac.SpecificConfig
	header *rtp.Header
}

// NewReader parses the stream header from r.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	head := make([]byte, 4+alac.SpecificConfigSize)
	if _, err := io.ReadFull(br, head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadStream, err)
	}
	tag := string(head[:4])
	if tag != TagALAC && tag != TagRTP {
		return nil, fmt.Errorf("%w: tag %q", ErrBadStream, tag)
	}
	var cfg alac.SpecificConfig
	if err := cfg.UnmarshalBinary(head[4:]); err != nil {
		return nil, err
	}
	return &Reader{r: br, tag: tag, cfg: cfg}, nil
}

// Tag returns the stream tag, TagALAC or TagRTP.
func (r *Reader) Tag() string { return r.tag }

// Config returns the stream's magic cookie.
func (r *Reader) Config() alac.SpecificConfig { return r.cfg }

// RTPHeader returns the header of the last RTP record read, or nil.
func (r *Reader) RTPHeader() *rtp.Header { return r.header }

// Next returns the next ALAC packet, or io.EOF at the end of the file.
func (r *Reader) Next() (encode.Packet, error) {
	var n [2]byte
	if _, err := io.ReadFull(r.r, n[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return encode.Packet{}, fmt.Errorf("%w: truncated record length", ErrBadStream)
		}
		return encode.Packet{}, err
	}
	data := make([]byte, binary.BigEndian.Uint16(n[:]))
	if _, err := io.ReadFull(r.r, data); err != nil {
		return encode.Packet{}, fmt.Errorf("%w: truncated record: %v", ErrBadStream, err)
	}

	if r.tag == TagALAC {
		return encode.Packet{Data: data}, nil
	}
	var pkt rtp.Packet
	if err := pkt.Unmarshal(data); err != nil {
		return encode.Packet{}, fmt.Errorf("%w: %v", ErrBadStream, err)
	}
	r.header = &pkt.Header
	return encode.Packet{Data: pkt.Payload}, nil
}
