// Package audio wraps the raw PCM returned by the TTS model in a WAV container.
package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"
)

// The TTS model returns 16-bit little-endian PCM at 24kHz mono. These are
// assumptions of the upstream API, not detectable from the payload itself.
const (
	DefaultSampleRate = 24000
	DefaultChannels   = 1

	bytesPerSample = 2
)

// WAV prepends a RIFF/WAVE header to a raw s16le PCM payload.
func WAV(pcm []byte, sampleRate, channels int) ([]byte, error) {
	if len(pcm) == 0 {
		return nil, fmt.Errorf("empty PCM payload")
	}
	if len(pcm)%(bytesPerSample*channels) != 0 {
		return nil, fmt.Errorf("PCM payload of %d bytes is not aligned to %d-channel 16-bit frames", len(pcm), channels)
	}
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("invalid format: %d Hz, %d channels", sampleRate, channels)
	}

	byteRate := sampleRate * channels * bytesPerSample
	blockAlign := channels * bytesPerSample

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(16)) // bits per sample

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes(), nil
}

// Duration reports the playback length of a raw s16le PCM payload.
func Duration(pcm []byte, sampleRate, channels int) time.Duration {
	if sampleRate <= 0 || channels <= 0 {
		return 0
	}
	frames := len(pcm) / (bytesPerSample * channels)
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}
