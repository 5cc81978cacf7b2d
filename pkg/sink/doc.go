// Package sink holds the named destinations an encoded stream can be
// written to.
//
// Elements register themselves at init and are created by name with
// New. Built in: file (ALAC elementary stream), rtp (AirTunes RTP
// capture), monitor (decode and play locally) and null. Files written
// by file and rtp are read back with NewReader.
package sink
