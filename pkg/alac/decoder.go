// ABOUTME: ALAC packet decoder
// ABOUTME: Reconstructs interleaved 16-bit PCM from one ALAC packet
package alac

import "fmt"

// Decoder decodes ALAC packets described by a SpecificConfig. A Decoder
// is not safe for concurrent use.
type Decoder struct {
	cfg  SpecificConfig
	pred []int32
	mixU []int32
	mixV []int32
}

// PacketInfo summarizes the first element header of a packet.
type PacketInfo struct {
	Channels int
	Frames   int
	Partial  bool
	Escaped  bool
}

type channelHeader struct {
	mode     uint32
	denShift uint
	pbFactor uint32
	coefs    []int16
}

// NewDecoder returns a decoder for streams described by cfg.
func NewDecoder(cfg SpecificConfig) (*Decoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Decoder{
		cfg:  cfg,
		pred: make([]int32, cfg.FrameLength),
		mixU: make([]int32, cfg.FrameLength),
		mixV: make([]int32, cfg.FrameLength),
	}, nil
}

// Config returns the decoder's stream configuration.
func (d *Decoder) Config() SpecificConfig {
	return d.cfg
}

// Decode returns the interleaved samples carried by packet.
func (d *Decoder) Decode(packet []byte) ([]int16, error) {
	r := newBitReader(packet)
	var out []int16
	for {
		tag, err := r.read(3)
		if err != nil {
			return nil, err
		}
		switch tag {
		case idSCE, idCPE:
			channels := 1
			if tag == idCPE {
				channels = 2
			}
			if channels != int(d.cfg.NumChannels) || out != nil {
				return nil, fmt.Errorf("%w: unexpected %d channel element", ErrCorruptPacket, channels)
			}
			if out, err = d.decodeElement(r, channels); err != nil {
				return nil, err
			}
		case idEND:
			if out == nil {
				return nil, fmt.Errorf("%w: no audio element", ErrCorruptPacket)
			}
			return out, nil
		default:
			return nil, fmt.Errorf("%w: unsupported element %d", ErrCorruptPacket, tag)
		}
	}
}

func (d *Decoder) decodeElement(r *bitReader, channels int) ([]int16, error) {
	info, err := readElementHeader(r, d.cfg.FrameLength)
	if err != nil {
		return nil, err
	}
	numSamples := info.Frames
	out := make([]int16, numSamples*channels)

	if info.Escaped {
		for i := range out {
			v, err := r.read(16)
			if err != nil {
				return nil, err
			}
			out[i] = int16(v)
		}
		return out, nil
	}

	mixBits, err := r.read(8)
	if err != nil {
		return nil, err
	}
	rawRes, err := r.read(8)
	if err != nil {
		return nil, err
	}
	mixRes := int32(int8(rawRes))
	if mixBits > 16 {
		return nil, fmt.Errorf("%w: mix bits %d", ErrCorruptPacket, mixBits)
	}

	heads := make([]channelHeader, channels)
	for ch := range heads {
		if heads[ch], err = readChannelHeader(r); err != nil {
			return nil, err
		}
	}

	chanBits := uint(d.cfg.BitDepth) + uint(channels-1)
	chans := [2][]int32{d.mixU[:numSamples], d.mixV[:numSamples]}
	pred := d.pred[:numSamples]
	for ch, h := range heads {
		params := newAGParams(uint32(d.cfg.MB), uint32(d.cfg.PB)*h.pbFactor/4, uint32(d.cfg.KB))
		if err := agDecode(r, params, pred, uint32(chanBits)); err != nil {
			return nil, err
		}
		switch h.mode {
		case 0:
		case 15:
			unpcBlock(pred, pred, nil, numActiveFirst, chanBits, 0)
		default:
			return nil, fmt.Errorf("%w: prediction mode %d", ErrCorruptPacket, h.mode)
		}
		unpcBlock(pred, chans[ch], h.coefs, len(h.coefs), chanBits, h.denShift)
	}

	if channels == 2 {
		unmix16(chans[0], chans[1], out, uint(mixBits), mixRes)
	} else {
		for i, s := range chans[0] {
			out[i] = int16(s)
		}
	}
	return out, nil
}

func readChannelHeader(r *bitReader) (channelHeader, error) {
	var h channelHeader
	b, err := r.read(8)
	if err != nil {
		return h, err
	}
	h.mode = b >> 4
	h.denShift = uint(b & 0xf)
	if b, err = r.read(8); err != nil {
		return h, err
	}
	h.pbFactor = b >> 5
	h.coefs = make([]int16, b&0x1f)
	for i := range h.coefs {
		c, err := r.read(16)
		if err != nil {
			return h, err
		}
		h.coefs[i] = int16(c)
	}
	return h, nil
}

// readElementHeader parses the fields following an element tag.
func readElementHeader(r *bitReader, frameLength uint32) (PacketInfo, error) {
	var info PacketInfo
	if _, err := r.read(4); err != nil {
		return info, err
	}
	unused, err := r.read(12)
	if err != nil {
		return info, err
	}
	if unused != 0 {
		return info, fmt.Errorf("%w: reserved header bits set", ErrCorruptPacket)
	}
	flags, err := r.read(4)
	if err != nil {
		return info, err
	}
	info.Partial = flags&0x8 != 0
	info.Escaped = flags&0x1 != 0
	if shift := (flags >> 1) & 0x3; shift != 0 {
		return info, fmt.Errorf("%w: %d shifted bytes", ErrUnsupportedFormat, shift)
	}

	info.Frames = int(frameLength)
	if info.Partial {
		n, err := r.read(32)
		if err != nil {
			return info, err
		}
		if n == 0 || n > frameLength {
			return info, fmt.Errorf("%w: partial frame of %d samples", ErrCorruptPacket, n)
		}
		info.Frames = int(n)
	}
	return info, nil
}

// ReadPacketInfo parses the element header at the start of packet.
func ReadPacketInfo(packet []byte, frameLength uint32) (PacketInfo, error) {
	r := newBitReader(packet)
	tag, err := r.read(3)
	if err != nil {
		return PacketInfo{}, err
	}
	var channels int
	switch tag {
	case idSCE:
		channels = 1
	case idCPE:
		channels = 2
	default:
		return PacketInfo{}, fmt.Errorf("%w: element %d", ErrCorruptPacket, tag)
	}
	info, err := readElementHeader(r, frameLength)
	info.Channels = channels
	return info, err
}
