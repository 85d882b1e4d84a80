package tts

import (
	"encoding/binary"
	"fmt"
	"io"
)

// WAVFormat is the fmt chunk of a PCM wave stream
type WAVFormat struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// ReadWAVHeader consumes a RIFF header from r and stops at the start of
// the data chunk. Streaming writers such as espeak --stdout set the data
// size to 0xFFFFFFFF, so the size is not used to bound the read.
func ReadWAVHeader(r io.Reader) (WAVFormat, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return WAVFormat{}, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return WAVFormat{}, fmt.Errorf("%w: missing RIFF/WAVE magic", ErrInvalidWAV)
	}

	var format WAVFormat
	haveFormat := false

	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			return WAVFormat{}, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])

		switch id {
		case "fmt ":
			if size < 16 {
				return WAVFormat{}, fmt.Errorf("%w: short fmt chunk", ErrInvalidWAV)
			}
			body := make([]byte, size+size%2)
			if _, err := io.ReadFull(r, body); err != nil {
				return WAVFormat{}, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
			}
			if tag := binary.LittleEndian.Uint16(body[0:2]); tag != 1 {
				return WAVFormat{}, fmt.Errorf("%w: unsupported encoding %d", ErrInvalidWAV, tag)
			}
			format.Channels = int(binary.LittleEndian.Uint16(body[2:4]))
			format.SampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			format.BitsPerSample = int(binary.LittleEndian.Uint16(body[14:16]))
			haveFormat = true

		case "data":
			if !haveFormat {
				return WAVFormat{}, fmt.Errorf("%w: data before fmt", ErrInvalidWAV)
			}
			if format.BitsPerSample != 16 {
				return WAVFormat{}, fmt.Errorf("%w: %d-bit samples", ErrInvalidWAV, format.BitsPerSample)
			}
			if format.Channels == 0 || format.SampleRate == 0 {
				return WAVFormat{}, fmt.Errorf("%w: %d channels at %d Hz", ErrInvalidWAV, format.Channels, format.SampleRate)
			}
			return format, nil

		default:
			if _, err := io.CopyN(io.Discard, r, int64(size)+int64(size%2)); err != nil {
				return WAVFormat{}, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
			}
		}
	}
}
