// ABOUTME: The verify command
// ABOUTME: Decodes a file or rtp sink output and optionally writes the PCM back out
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Resonate-Protocol/aerial-go/pkg/alac"
	"github.com/Resonate-Protocol/aerial-go/pkg/audio"
	"github.com/Resonate-Protocol/aerial-go/pkg/audio/encode"
	"github.com/Resonate-Protocol/aerial-go/pkg/sink"
	"github.com/urfave/cli/v2"
)

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "Decode a stream written by the file or rtp sink",
		ArgsUsage: "<stream file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "pcm", Usage: "Write decoded little-endian PCM to this file"},
			&cli.IntFlag{Name: "pcm-depth", Value: 16, Usage: "Bit depth of --pcm output (16 or 24)"},
		},
		Action: runVerify,
	}
}

// verifyResult summarizes a decoded stream.
type verifyResult struct {
	Tag     string
	Config  alac.SpecificConfig
	Packets int
	Samples int
	Bytes   int
}

func runVerify(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("verify needs exactly one stream file")
	}

	f, err := os.Open(c.Args().First())
	if err != nil {
		return err
	}
	defer f.Close()

	path := c.String("pcm")
	if path == "" {
		res, err := verifyStream(f, nil)
		if err != nil {
			return err
		}
		printVerify(c, res)
		return nil
	}

	enc, err := encode.NewPCM(audio.Format{Codec: "pcm", BitDepth: c.Int("pcm-depth")})
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(out)
	res, err := verifyStream(f, &pcmWriter{w: bw, enc: enc})
	if err != nil {
		out.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		out.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	printVerify(c, res)
	return nil
}

func printVerify(c *cli.Context, res verifyResult) {
	w := c.App.Writer
	fmt.Fprintf(w, "%s stream: %d Hz, %d channels, %d frames/packet\n",
		streamKind(res.Tag), res.Config.SampleRate, res.Config.NumChannels, res.Config.FrameLength)
	fmt.Fprintf(w, "  packets: %d (%d bytes)\n", res.Packets, res.Bytes)
	fmt.Fprintf(w, "  decoded: %s\n", audio.PacketDuration(res.Samples/int(res.Config.NumChannels)))
}

// pcmWriter packs decoded samples with enc and writes them to w.
type pcmWriter struct {
	w   io.Writer
	enc encode.Encoder
}

func (p *pcmWriter) write(samples []int32) error {
	b, err := p.enc.Encode(samples)
	if err != nil {
		return err
	}
	_, err = p.w.Write(b)
	return err
}

// verifyStream decodes every packet in r. Decoded samples go to pcm when
// pcm is not nil.
func verifyStream(r io.Reader, pcm *pcmWriter) (verifyResult, error) {
	sr, err := sink.NewReader(r)
	if err != nil {
		return verifyResult{}, err
	}
	res := verifyResult{Tag: sr.Tag(), Config: sr.Config()}

	dec, err := alac.NewDecoder(res.Config)
	if err != nil {
		return res, err
	}

	var wide []int32
	for {
		pkt, err := sr.Next()
		if err == io.EOF {
			return res, nil
		}
		if err != nil {
			return res, err
		}

		samples, err := dec.Decode(pkt.Data)
		if err != nil {
			return res, fmt.Errorf("packet %d: %w", res.Packets, err)
		}
		res.Packets++
		res.Samples += len(samples)
		res.Bytes += pkt.Len()

		if pcm == nil {
			continue
		}
		wide = wide[:0]
		for _, s := range samples {
			wide = append(wide, audio.SampleFromInt16(s))
		}
		if err := pcm.write(wide); err != nil {
			return res, err
		}
	}
}

func streamKind(tag string) string {
	if tag == sink.TagRTP {
		return "RTP"
	}
	return "ALAC"
}
