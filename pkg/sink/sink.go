// ABOUTME: Sink element interface and registry
// ABOUTME: Named destinations for encoded packets plus the plugin description
package sink

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Resonate-Protocol/aerial-go/internal/version"
	"github.com/Resonate-Protocol/aerial-go/pkg/alac"
	"github.com/Resonate-Protocol/aerial-go/pkg/audio/encode"
	"github.com/Resonate-Protocol/aerial-go/pkg/audio/output"
)

// Sink consumes encoded packets of one stream.
type Sink interface {
	// Open starts a stream described by the magic cookie.
	Open(cfg alac.SpecificConfig) error
	// WritePacket consumes one packet carrying frames valid sample
	// frames; the rest of the packet is padding.
	WritePacket(pkt encode.Packet, frames int) error
	// Close flushes and releases the sink.
	Close() error
}

// Options configures a sink when it is created.
type Options struct {
	// Path is the destination file for file-backed sinks.
	Path string
	// PayloadType and SSRC configure RTP packetization.
	PayloadType uint8
	SSRC        uint32
	// Output overrides the playback device of the monitor sink.
	Output output.Output
	// Backend names the playback backend when Output is nil.
	Backend string
}

// Element is a registered sink factory.
type Element struct {
	Name        string
	Description string
	NeedsPath   bool
	New         func(Options) (Sink, error)
}

// PluginInfo describes the element collection.
type PluginInfo struct {
	Name        string
	Description string
	Version     string
	License     string
	Source      string
	Origin      string
}

var (
	// ErrUnknownElement is returned by Lookup for unregistered names.
	ErrUnknownElement = errors.New("unknown sink element")
	// ErrDuplicateElement is returned when a name is registered twice.
	ErrDuplicateElement = errors.New("sink element already registered")
	// ErrNotOpen is returned when a packet arrives before Open.
	ErrNotOpen = errors.New("sink not open")
)

var (
	registryMu sync.RWMutex
	registry   = map[string]Element{}
)

// Plugin returns the description of this element collection.
func Plugin() PluginInfo {
	return PluginInfo{
		Name:        "aerial",
		Description: "Aerial Airtunes Sink",
		Version:     version.Version,
		License:     "LGPL",
		Source:      "libaerial",
		Origin:      "http://github.com/agrif/libaerial",
	}
}

// Register adds an element. Names must be unique and New must be set.
func Register(e Element) error {
	if e.Name == "" || e.New == nil {
		return fmt.Errorf("invalid sink element %q", e.Name)
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[e.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateElement, e.Name)
	}
	registry[e.Name] = e
	return nil
}

func mustRegister(e Element) {
	if err := Register(e); err != nil {
		panic(err)
	}
}

// Lookup returns the element registered under name.
func Lookup(name string) (Element, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	e, ok := registry[name]
	if !ok {
		return Element{}, fmt.Errorf("%w: %s", ErrUnknownElement, name)
	}
	return e, nil
}

// Elements returns all registered elements sorted by name.
func Elements() []Element {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]Element, 0, len(registry))
	for _, e := range registry {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// New creates the sink registered under name.
func New(name string, opts Options) (Sink, error) {
	e, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	if e.NeedsPath && opts.Path == "" {
		return nil, fmt.Errorf("sink %s needs an output path", name)
	}
	return e.New(opts)
}
