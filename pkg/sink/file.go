// ABOUTME: File sink element
// ABOUTME: Writes an ALAC elementary stream: tag, magic cookie, length-prefixed packets
package sink

import (
	"bufio"
	"fmt"
	"os"

	"github.com/Resonate-Protocol/aerial-go/pkg/alac"
	"github.com/Resonate-Protocol/aerial-go/pkg/audio/encode"
	"go.uber.org/zap"
)

func init() {
	mustRegister(Element{
		Name:        "file",
		Description: "ALAC elementary stream file",
		NeedsPath:   true,
		New: func(o Options) (Sink, error) {
			return NewFile(o.Path), nil
		},
	})
}

// FileSink writes packets to a file.
type FileSink struct {
	path    string
	f       *os.File
	w       *bufio.Writer
	packets int
}

// NewFile returns a sink writing to path.
func NewFile(path string) *FileSink {
	return &FileSink{path: path}
}

// Open creates the file and writes the stream header. On failure the
// sink stays closed.
func (s *FileSink) Open(cfg alac.SpecificConfig) error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", s.path, err)
	}
	w := bufio.NewWriter(f)
	if err := writeHeader(w, TagALAC, cfg); err != nil {
		f.Close()
		return err
	}
	s.f, s.w = f, w
	zap.L().Debug("file sink opened", zap.String("path", s.path))
	return nil
}

// WritePacket appends one length-prefixed packet.
func (s *FileSink) WritePacket(pkt encode.Packet, frames int) error {
	if s.w == nil {
		return ErrNotOpen
	}
	if err := writeRecord(s.w, pkt.Data); err != nil {
		return fmt.Errorf("failed to write packet: %w", err)
	}
	s.packets++
	return nil
}

// Close flushes and closes the file.
func (s *FileSink) Close() error {
	if s.f == nil {
		return nil
	}
	flushErr := s.w.Flush()
	closeErr := s.f.Close()
	s.f, s.w = nil, nil
	zap.L().Debug("file sink closed", zap.String("path", s.path), zap.Int("packets", s.packets))
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
