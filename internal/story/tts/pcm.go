package tts

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Remote speech arrives as mono signed 16-bit little-endian PCM.
const (
	SampleRate     = 24000
	Channels       = 1
	BitDepth       = 16
	BytesPerSample = BitDepth / 8
)

// Buffer holds decoded mono samples normalized to [-1, 1).
type Buffer struct {
	Samples    []float64
	SampleRate int
}

// Duration is the playback length at normal speed.
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate == 0 {
		return 0
	}
	return time.Duration(len(b.Samples)) * time.Second / time.Duration(b.SampleRate)
}

// DecodePCM decodes a base64 payload of raw 24 kHz PCM.
func DecodePCM(payload string) (*Buffer, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, newError(ErrorDecode, errors.New("empty payload"))
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, newError(ErrorDecode, fmt.Errorf("base64: %w", err))
	}
	return DecodePCMBytes(data)
}

// DecodePCMBytes converts raw little-endian 16-bit samples. A trailing odd
// byte is discarded.
func DecodePCMBytes(data []byte) (*Buffer, error) {
	frames := len(data) / BytesPerSample
	if frames == 0 {
		return nil, newError(ErrorDecode, fmt.Errorf("payload of %d bytes holds no samples", len(data)))
	}
	samples := make([]float64, frames)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(data[i*BytesPerSample:]))
		samples[i] = float64(v) / 32768.0
	}
	return &Buffer{Samples: samples, SampleRate: SampleRate}, nil
}
