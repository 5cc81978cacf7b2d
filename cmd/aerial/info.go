// ABOUTME: The info and sinks commands
// ABOUTME: Print the stream cookie, SDP announcement and registered sink elements
package main

import (
	"encoding/hex"
	"fmt"

	"github.com/Resonate-Protocol/aerial-go/internal/version"
	"github.com/Resonate-Protocol/aerial-go/pkg/audio/encode"
	"github.com/Resonate-Protocol/aerial-go/pkg/sink"
	"github.com/urfave/cli/v2"
)

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "Show the stream configuration and its AirTunes announcement",
		Flags: []cli.Flag{
			&cli.UintFlag{Name: "payload-type", Value: sink.DefaultPayloadType, Usage: "RTP payload type"},
			&cli.StringFlag{Name: "local", Value: "127.0.0.1", Usage: "Local address for the announcement"},
			&cli.StringFlag{Name: "remote", Usage: "Remote address for the announcement"},
		},
		Action: runInfo,
	}
}

func runInfo(c *cli.Context) error {
	pt := c.Uint("payload-type")
	if pt > 127 {
		return fmt.Errorf("payload type %d out of range", pt)
	}

	cfg := encode.StreamConfig()
	cookie, err := cfg.MarshalBinary()
	if err != nil {
		return err
	}
	sdpBody, err := sink.Announce(cfg, sink.AnnounceOptions{
		LocalAddr:   c.String("local"),
		RemoteAddr:  c.String("remote"),
		PayloadType: uint8(pt),
	})
	if err != nil {
		return err
	}

	w := c.App.Writer
	p := sink.Plugin()
	fmt.Fprintf(w, "%s %s (%s %s)\n", version.Product, version.Version, p.Name, p.Description)
	fmt.Fprintf(w, "  license: %s, source: %s, origin: %s\n\n", p.License, p.Source, p.Origin)

	fmt.Fprintf(w, "Stream\n")
	fmt.Fprintf(w, "  sample rate:  %d Hz\n", cfg.SampleRate)
	fmt.Fprintf(w, "  channels:     %d\n", cfg.NumChannels)
	fmt.Fprintf(w, "  bit depth:    %d\n", cfg.BitDepth)
	fmt.Fprintf(w, "  frame length: %d\n", cfg.FrameLength)
	fmt.Fprintf(w, "  max packet:   %d bytes\n", encode.MaxPacketBytes)
	fmt.Fprintf(w, "  cookie:       %s\n", hex.EncodeToString(cookie))
	fmt.Fprintf(w, "  fmtp:         %s\n\n", cfg.FMTP(uint8(pt)))

	fmt.Fprintf(w, "Announcement\n%s", sdpBody)
	return nil
}

func sinksCommand() *cli.Command {
	return &cli.Command{
		Name:  "sinks",
		Usage: "List the registered sink elements",
		Action: func(c *cli.Context) error {
			w := c.App.Writer
			for _, e := range sink.Elements() {
				path := ""
				if e.NeedsPath {
					path = " (needs --output)"
				}
				fmt.Fprintf(w, "  %-8s %s%s\n", e.Name, e.Description, path)
			}
			return nil
		},
	}
}
