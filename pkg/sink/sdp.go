// ABOUTME: AirTunes session description
// ABOUTME: Renders the ANNOUNCE body for an ALAC stream with pion/sdp
package sink

import (
	"fmt"
	"strconv"

	"github.com/Resonate-Protocol/aerial-go/pkg/alac"
	"github.com/pion/sdp/v3"
)

// AnnounceOptions fills the addressing fields of the description.
type AnnounceOptions struct {
	SessionID   uint64
	LocalAddr   string
	RemoteAddr  string
	PayloadType uint8
}

// Announce returns the SDP body an AirTunes sender announces for a
// stream described by cfg.
func Announce(cfg alac.SpecificConfig, opts AnnounceOptions) ([]byte, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.PayloadType == 0 {
		opts.PayloadType = DefaultPayloadType
	}
	if opts.LocalAddr == "" {
		opts.LocalAddr = "127.0.0.1"
	}
	if opts.RemoteAddr == "" {
		opts.RemoteAddr = opts.LocalAddr
	}
	pt := strconv.Itoa(int(opts.PayloadType))

	desc := &sdp.SessionDescription{
		Version: 0,
		Origin: sdp.Origin{
			Username:       "iTunes",
			SessionID:      opts.SessionID,
			SessionVersion: 0,
			NetworkType:    "IN",
			AddressType:    "IP4",
			UnicastAddress: opts.LocalAddr,
		},
		SessionName: "iTunes",
		ConnectionInformation: &sdp.ConnectionInformation{
			NetworkType: "IN",
			AddressType: "IP4",
			Address:     &sdp.Address{Address: opts.RemoteAddr},
		},
		TimeDescriptions: []sdp.TimeDescription{{Timing: sdp.Timing{}}},
		MediaDescriptions: []*sdp.MediaDescription{{
			MediaName: sdp.MediaName{
				Media:   "audio",
				Port:    sdp.RangedPort{Value: 0},
				Protos:  []string{"RTP", "AVP"},
				Formats: []string{pt},
			},
			Attributes: []sdp.Attribute{
				{Key: "rtpmap", Value: pt + " AppleLossless"},
				{Key: "fmtp", Value: cfg.FMTP(opts.PayloadType)},
			},
		}},
	}

	b, err := desc.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session description: %w", err)
	}
	return b, nil
}
