// ABOUTME: Tests for the sink registry and built-in elements
// ABOUTME: Covers registration, file and rtp layouts, monitor playback and SDP
package sink

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Resonate-Protocol/aerial-go/pkg/audio"
	"github.com/Resonate-Protocol/aerial-go/pkg/audio/encode"
	"github.com/pion/sdp/v3"
)

func testPackets(t *testing.T, n int) []encode.Packet {
	t.Helper()
	packets := make([]encode.Packet, n)
	for i := range packets {
		frame := make([]byte, audio.FrameBytes)
		for j := range frame {
			frame[j] = byte((i*31 + j) % 17)
		}
		pkt, err := encode.EncodeFrame(frame)
		if err != nil {
			t.Fatalf("EncodeFrame() failed: %v", err)
		}
		packets[i] = pkt
	}
	return packets
}

func TestPlugin(t *testing.T) {
	p := Plugin()
	if p.Name != "aerial" || p.Description != "Aerial Airtunes Sink" || p.License != "LGPL" || p.Source != "libaerial" {
		t.Errorf("unexpected plugin info %+v", p)
	}
	if p.Version == "" {
		t.Error("plugin version is empty")
	}
}

func TestBuiltinElements(t *testing.T) {
	var names []string
	for _, e := range Elements() {
		names = append(names, e.Name)
	}
	got := strings.Join(names, ",")
	for _, want := range []string{"file", "monitor", "null", "rtp"} {
		if !strings.Contains(got, want) {
			t.Errorf("element %s not registered (have %s)", want, got)
		}
	}
	if names[0] > names[len(names)-1] {
		t.Error("Elements() not sorted")
	}
}

func TestRegister(t *testing.T) {
	e := Element{Name: "test-dup", New: func(Options) (Sink, error) { return &NullSink{}, nil }}
	if err := Register(e); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if err := Register(e); !errors.Is(err, ErrDuplicateElement) {
		t.Errorf("second Register() = %v, want ErrDuplicateElement", err)
	}
	if err := Register(Element{Name: "no-factory"}); err == nil {
		t.Error("Register() without factory should fail")
	}
	if _, err := Lookup("test-dup"); err != nil {
		t.Errorf("Lookup() failed: %v", err)
	}
	if _, err := Lookup("nope"); !errors.Is(err, ErrUnknownElement) {
		t.Errorf("Lookup(nope) = %v, want ErrUnknownElement", err)
	}
}

func TestNewNeedsPath(t *testing.T) {
	if _, err := New("file", Options{}); err == nil {
		t.Error("file sink without path should fail")
	}
	if _, err := New("null", Options{}); err != nil {
		t.Errorf("New(null) failed: %v", err)
	}
}

func TestWriteBeforeOpen(t *testing.T) {
	pkt := encode.Packet{Data: []byte{1}}
	for _, s := range []Sink{NewFile("x"), NewRTP("x", 0, 0), NewMonitor(&fakeOutput{})} {
		if err := s.WritePacket(pkt, 1); !errors.Is(err, ErrNotOpen) {
			t.Errorf("%T.WritePacket() = %v, want ErrNotOpen", s, err)
		}
	}
}

func TestOpenFailureLeavesSinkClosed(t *testing.T) {
	// Writes to /dev/full fail with ENOSPC.
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}
	pkt := encode.Packet{Data: []byte{1}}
	for _, s := range []Sink{NewFile("/dev/full"), NewRTP("/dev/full", 0, 0)} {
		if err := s.Open(encode.StreamConfig()); err == nil {
			t.Errorf("%T.Open() succeeded on a full device", s)
		}
		if err := s.WritePacket(pkt, 1); !errors.Is(err, ErrNotOpen) {
			t.Errorf("%T.WritePacket() after failed Open = %v, want ErrNotOpen", s, err)
		}
		if err := s.Close(); err != nil {
			t.Errorf("%T.Close() after failed Open = %v, want nil", s, err)
		}
	}
}

func TestFileSinkRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.alac")
	packets := testPackets(t, 3)

	s, err := New("file", Options{Path: path})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if err := s.Open(encode.StreamConfig()); err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	for _, p := range packets {
		if err := s.WritePacket(p, audio.FramesPerPacket); err != nil {
			t.Fatalf("WritePacket() failed: %v", err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	raw, _ := os.ReadFile(path)
	if string(raw[:4]) != TagALAC {
		t.Errorf("file starts with %q", raw[:4])
	}
	wantSize := 4 + 24
	for _, p := range packets {
		wantSize += 2 + p.Len()
	}
	if len(raw) != wantSize {
		t.Errorf("file is %d bytes, want %d", len(raw), wantSize)
	}

	f, _ := os.Open(path)
	defer f.Close()
	r, err := NewReader(f)
	if err != nil {
		t.Fatalf("NewReader() failed: %v", err)
	}
	if r.Config() != encode.StreamConfig() {
		t.Errorf("cookie = %+v", r.Config())
	}
	for i, want := range packets {
		got, err := r.Next()
		if err != nil {
			t.Fatalf("Next() failed: %v", err)
		}
		if string(got.Data) != string(want.Data) {
			t.Errorf("packet %d differs", i)
		}
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("Next() at end = %v, want EOF", err)
	}
}

func TestRTPSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.rtp")
	packets := testPackets(t, 4)

	s := NewRTP(path, 0, 0x1234)
	if err := s.Open(encode.StreamConfig()); err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	for _, p := range packets {
		if err := s.WritePacket(p, audio.FramesPerPacket); err != nil {
			t.Fatalf("WritePacket() failed: %v", err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	f, _ := os.Open(path)
	defer f.Close()
	r, err := NewReader(f)
	if err != nil {
		t.Fatalf("NewReader() failed: %v", err)
	}
	if r.Tag() != TagRTP {
		t.Errorf("Tag() = %q", r.Tag())
	}

	var lastSeq uint16
	var lastTS uint32
	for i, want := range packets {
		got, err := r.Next()
		if err != nil {
			t.Fatalf("Next() failed: %v", err)
		}
		if string(got.Data) != string(want.Data) {
			t.Errorf("payload %d differs", i)
		}
		h := r.RTPHeader()
		if h.Version != 2 || h.PayloadType != 96 || h.SSRC != 0x1234 {
			t.Errorf("packet %d header %+v", i, h)
		}
		if h.Marker != (i == 0) {
			t.Errorf("packet %d marker = %v", i, h.Marker)
		}
		if i > 0 {
			if h.SequenceNumber != lastSeq+1 {
				t.Errorf("packet %d sequence %d after %d", i, h.SequenceNumber, lastSeq)
			}
			if h.Timestamp != lastTS+audio.FramesPerPacket {
				t.Errorf("packet %d timestamp %d after %d", i, h.Timestamp, lastTS)
			}
		}
		lastSeq, lastTS = h.SequenceNumber, h.Timestamp
	}
}

func TestReaderRejectsGarbage(t *testing.T) {
	if _, err := NewReader(strings.NewReader("nope")); !errors.Is(err, ErrBadStream) {
		t.Errorf("short input = %v, want ErrBadStream", err)
	}
	if _, err := NewReader(strings.NewReader(strings.Repeat("x", 40))); !errors.Is(err, ErrBadStream) {
		t.Errorf("bad tag = %v, want ErrBadStream", err)
	}
}

func TestMonitorSink(t *testing.T) {
	out := &fakeOutput{}
	s, err := New("monitor", Options{Output: out})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if err := s.Open(encode.StreamConfig()); err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if out.rate != audio.SampleRate || out.channels != audio.Channels {
		t.Errorf("output opened at %d Hz %d channels", out.rate, out.channels)
	}

	packets := testPackets(t, 2)
	if err := s.WritePacket(packets[0], audio.FramesPerPacket); err != nil {
		t.Fatalf("WritePacket() failed: %v", err)
	}
	if err := s.WritePacket(packets[1], 100); err != nil {
		t.Fatalf("WritePacket() failed: %v", err)
	}
	want := (audio.FramesPerPacket + 100) * audio.Channels
	if out.samples != want {
		t.Errorf("played %d samples, want %d", out.samples, want)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if !out.closed {
		t.Error("output not closed")
	}
}

func TestNullSink(t *testing.T) {
	s := &NullSink{}
	for _, p := range testPackets(t, 3) {
		s.WritePacket(p, audio.FramesPerPacket)
	}
	if s.Packets() != 3 || s.Bytes() == 0 {
		t.Errorf("counted %d packets %d bytes", s.Packets(), s.Bytes())
	}
}

func TestAnnounce(t *testing.T) {
	body, err := Announce(encode.StreamConfig(), AnnounceOptions{SessionID: 42, LocalAddr: "10.0.0.2", RemoteAddr: "10.0.0.9"})
	if err != nil {
		t.Fatalf("Announce() failed: %v", err)
	}
	text := string(body)
	for _, want := range []string{
		"o=iTunes 42 0 IN IP4 10.0.0.2",
		"c=IN IP4 10.0.0.9",
		"m=audio 0 RTP/AVP 96",
		"a=rtpmap:96 AppleLossless",
		"a=fmtp:96 352 0 16 40 10 14 2 255 0 0 44100",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("announce body missing %q:\n%s", want, text)
		}
	}

	var desc sdp.SessionDescription
	if err := desc.Unmarshal(body); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	if v, ok := desc.MediaDescriptions[0].Attribute("fmtp"); !ok || !strings.HasPrefix(v, "96 352") {
		t.Errorf("fmtp attribute = %q, %v", v, ok)
	}
}

type fakeOutput struct {
	rate, channels int
	samples        int
	closed         bool
}

func (f *fakeOutput) Open(rate, channels int) error {
	f.rate, f.channels = rate, channels
	return nil
}

func (f *fakeOutput) Write(samples []int32) error {
	f.samples += len(samples)
	return nil
}

func (f *fakeOutput) Close() error {
	f.closed = true
	return nil
}
