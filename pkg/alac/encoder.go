// ABOUTME: ALAC packet encoder
// ABOUTME: Predicts, entropy codes and frames one packet of 16-bit PCM
package alac

import (
	"encoding/binary"
	"fmt"
)

// convergePasses is how many times the predictor runs over a packet to
// settle its coefficients before they are written to the header.
const convergePasses = 2

var tapChoices = [...]int{4, 8}

// Encoder encodes 16-bit mono or stereo PCM into ALAC packets. An
// Encoder is not safe for concurrent use.
type Encoder struct {
	frameSize   uint32
	channels    int
	bitDepth    int
	sampleRate  uint32
	initialized bool
	closed      bool

	maxFrameBytes uint32
	totalBytes    uint64
	totalFrames   uint64

	samples []int16
	mixU    []int32
	mixV    []int32
	pred    []int32
}

// channelCode is one channel's predictor header and coded residuals.
type channelCode struct {
	coefs     []int16
	residuals *bitWriter
}

// NewEncoder returns an encoder with the default frame size.
func NewEncoder() *Encoder {
	return &Encoder{frameSize: DefaultFrameSize}
}

// SetFrameSize sets the number of frames per packet. It must be called
// before InitializeEncoder and match the output FramesPerPacket.
func (e *Encoder) SetFrameSize(frames uint32) {
	e.frameSize = frames
}

// InitializeEncoder prepares the encoder for the given Apple Lossless
// output format.
func (e *Encoder) InitializeEncoder(out FormatDescription) error {
	if e.closed {
		return fmt.Errorf("%w: encoder closed", ErrParam)
	}
	if out.FormatID != FormatAppleLossless {
		return fmt.Errorf("%w: output format id %#x", ErrUnsupportedFormat, out.FormatID)
	}
	depth, err := out.bitDepth()
	if err != nil {
		return err
	}
	if depth != 16 {
		return fmt.Errorf("%w: %d-bit source data", ErrUnsupportedFormat, depth)
	}
	if out.ChannelsPerFrame == 0 || out.ChannelsPerFrame > MaxChannels {
		return fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, out.ChannelsPerFrame)
	}
	if e.frameSize == 0 || e.frameSize > MaxFrameLength {
		return fmt.Errorf("%w: frame size %d out of range 1..%d", ErrParam, e.frameSize, MaxFrameLength)
	}
	if out.FramesPerPacket != 0 && out.FramesPerPacket != e.frameSize {
		return fmt.Errorf("%w: frame size %d does not match %d frames per packet",
			ErrParam, e.frameSize, out.FramesPerPacket)
	}

	e.channels = int(out.ChannelsPerFrame)
	e.bitDepth = depth
	e.sampleRate = uint32(out.SampleRate)
	e.samples = make([]int16, int(e.frameSize)*e.channels)
	e.mixU = make([]int32, e.frameSize)
	e.mixV = make([]int32, e.frameSize)
	e.pred = make([]int32, e.frameSize)
	e.initialized = true
	return nil
}

// Encode compresses *numBytes bytes of input PCM described by in into
// output. On return *numBytes holds the packet size. Fewer frames than
// the frame size produce a partial packet.
func (e *Encoder) Encode(in, out FormatDescription, input, output []byte, numBytes *int) error {
	if !e.initialized || e.closed {
		return fmt.Errorf("%w: encoder not initialized", ErrParam)
	}
	if numBytes == nil {
		return fmt.Errorf("%w: nil byte count", ErrParam)
	}
	if in.FormatID != FormatLinearPCM || in.FormatFlags&FormatFlagIsSignedInteger == 0 {
		return fmt.Errorf("%w: input must be signed integer linear PCM", ErrUnsupportedFormat)
	}
	if out.FormatID != FormatAppleLossless {
		return fmt.Errorf("%w: output format id %#x", ErrUnsupportedFormat, out.FormatID)
	}
	depth, err := in.bitDepth()
	if err != nil {
		return err
	}
	if depth != e.bitDepth || int(in.ChannelsPerFrame) != e.channels {
		return fmt.Errorf("%w: input is %d-bit %d channel, encoder is %d-bit %d channel",
			ErrUnsupportedFormat, depth, in.ChannelsPerFrame, e.bitDepth, e.channels)
	}

	bytesPerFrame := e.channels * e.bitDepth / 8
	if in.BytesPerFrame != 0 && int(in.BytesPerFrame) != bytesPerFrame {
		return fmt.Errorf("%w: %d bytes per frame, want %d", ErrParam, in.BytesPerFrame, bytesPerFrame)
	}
	n := *numBytes
	if n <= 0 || n > len(input) || n%bytesPerFrame != 0 {
		return fmt.Errorf("%w: byte count %d (input %d bytes)", ErrParam, n, len(input))
	}
	numFrames := n / bytesPerFrame
	if numFrames > int(e.frameSize) {
		return fmt.Errorf("%w: %d frames exceeds frame size %d", ErrParam, numFrames, e.frameSize)
	}

	order := byteOrder(in.FormatFlags)
	samples := e.samples[:numFrames*e.channels]
	for i := range samples {
		samples[i] = int16(order.Uint16(input[2*i:]))
	}

	packet := e.encodePacket(samples, numFrames)
	if len(packet) > len(output) {
		return fmt.Errorf("%w: packet is %d bytes, buffer holds %d", ErrBufferTooSmall, len(packet), len(output))
	}
	copy(output, packet)
	*numBytes = len(packet)

	if uint32(len(packet)) > e.maxFrameBytes {
		e.maxFrameBytes = uint32(len(packet))
	}
	e.totalBytes += uint64(len(packet))
	e.totalFrames += uint64(numFrames)
	return nil
}

// Config returns the magic cookie describing the encoded stream,
// including frame size statistics gathered so far.
func (e *Encoder) Config() SpecificConfig {
	c := NewSpecificConfig(e.frameSize, e.sampleRate, uint8(e.channels), uint8(e.bitDepth))
	c.MaxFrameBytes = e.maxFrameBytes
	if e.totalFrames > 0 && e.sampleRate > 0 {
		c.AvgBitRate = uint32(e.totalBytes * 8 * uint64(e.sampleRate) / e.totalFrames)
	}
	return c
}

// Close releases the encoder's scratch buffers. Encode fails afterwards.
func (e *Encoder) Close() error {
	e.closed = true
	e.samples = nil
	e.mixU = nil
	e.mixV = nil
	e.pred = nil
	return nil
}

// encodePacket returns one complete, byte aligned packet.
func (e *Encoder) encodePacket(samples []int16, numFrames int) []byte {
	partial := numFrames != int(e.frameSize)

	var body *bitWriter
	if e.channels == 2 {
		body = e.encodeStereo(samples, numFrames, partial)
	} else {
		body = e.encodeMono(samples, numFrames, partial)
	}
	escape := e.encodeEscape(samples, numFrames, partial)
	if body.bitLen() >= escape.bitLen() {
		body = escape
	}

	tag := uint32(idSCE)
	if e.channels == 2 {
		tag = idCPE
	}
	w := newBitWriter(body.bitLen()/8 + 2)
	w.write(tag, 3)
	w.write(0, 4)
	w.writeBits(body)
	w.write(idEND, 3)
	w.byteAlign()
	return w.bytes()
}

func (e *Encoder) writeFrameHeader(w *bitWriter, numFrames int, partial, escape bool) {
	var flags uint32
	if partial {
		flags |= 1 << 3
	}
	if escape {
		flags |= 1
	}
	w.write(0, 12)
	w.write(flags, 4)
	if partial {
		w.write(uint32(numFrames), 32)
	}
}

func (e *Encoder) encodeEscape(samples []int16, numFrames int, partial bool) *bitWriter {
	w := newBitWriter(len(samples)*2 + 8)
	e.writeFrameHeader(w, numFrames, partial, true)
	for _, s := range samples {
		w.write(uint32(uint16(s)), 16)
	}
	return w
}

func (e *Encoder) encodeMono(samples []int16, numFrames int, partial bool) *bitWriter {
	u := e.mixU[:numFrames]
	for i, s := range samples {
		u[i] = int32(s)
	}
	code := e.encodeChannel(u, uint(e.bitDepth))

	w := newBitWriter(numFrames*2 + 32)
	e.writeFrameHeader(w, numFrames, partial, false)
	w.write(0, 8)
	w.write(0, 8)
	code.writeParams(w)
	w.writeBits(code.residuals)
	return w
}

func (e *Encoder) encodeStereo(samples []int16, numFrames int, partial bool) *bitWriter {
	u := e.mixU[:numFrames]
	v := e.mixV[:numFrames]
	chanBits := uint(e.bitDepth) + 1

	var best *bitWriter
	for mixRes := int32(0); mixRes <= mixResMax; mixRes++ {
		mix16(samples, u, v, mixBitsDefault, mixRes)
		cu := e.encodeChannel(u, chanBits)
		cv := e.encodeChannel(v, chanBits)

		w := newBitWriter(numFrames*4 + 64)
		e.writeFrameHeader(w, numFrames, partial, false)
		w.write(mixBitsDefault, 8)
		w.write(uint32(uint8(int8(mixRes))), 8)
		cu.writeParams(w)
		cv.writeParams(w)
		w.writeBits(cu.residuals)
		w.writeBits(cv.residuals)

		if best == nil || w.bitLen() < best.bitLen() {
			best = w
		}
	}
	return best
}

// encodeChannel picks the predictor order that codes x in the fewest bits.
func (e *Encoder) encodeChannel(x []int32, chanBits uint) channelCode {
	pred := e.pred[:len(x)]
	params := newAGParams(DefaultMB, DefaultPB*pbFactorDefault/4, DefaultKB)

	var best channelCode
	bestBits := 0
	for _, taps := range tapChoices {
		coefs := initCoefs(denShiftDefault, taps)
		for pass := 0; pass < convergePasses; pass++ {
			pcBlock(x, pred, coefs, chanBits, denShiftDefault)
		}
		header := append([]int16(nil), coefs...)
		pcBlock(x, pred, append([]int16(nil), header...), chanBits, denShiftDefault)

		w := newBitWriter(len(x)*2 + 8)
		agEncode(w, params, pred, uint32(chanBits))
		total := w.bitLen() + 16*taps
		if best.residuals == nil || total < bestBits {
			best = channelCode{coefs: header, residuals: w}
			bestBits = total
		}
	}
	return best
}

// writeParams writes the per-channel predictor header.
func (c channelCode) writeParams(w *bitWriter) {
	const mode = 0
	w.write(mode<<4|denShiftDefault, 8)
	w.write(pbFactorDefault<<5|uint32(len(c.coefs)), 8)
	for _, coef := range c.coefs {
		w.write(uint32(uint16(coef)), 16)
	}
}

func byteOrder(flags uint32) binary.ByteOrder {
	if flags&FormatFlagIsBigEndian != 0 {
		return binary.BigEndian
	}
	return binary.LittleEndian
}
