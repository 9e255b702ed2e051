package gemini

import (
	"bytes"
	"encoding/binary"
	"mime"
	"strconv"
	"strings"
)

const (
	defaultPCMRate     = 24000
	pcmChannels        = 1
	pcmBitsPerSample   = 16
	wavHeaderSizeBytes = 44
)

// PCMRate reads the sample rate advertised in a TTS mime type such as
// "audio/L16;codec=pcm;rate=24000".
func PCMRate(mimeType string) int {
	_, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return defaultPCMRate
	}
	if rate, err := strconv.Atoi(params["rate"]); err == nil && rate > 0 {
		return rate
	}
	return defaultPCMRate
}

// IsRawPCM reports whether the mime type is headerless linear PCM rather than a container format.
func IsRawPCM(mimeType string) bool {
	lower := strings.ToLower(mimeType)
	return strings.HasPrefix(lower, "audio/l16") || strings.Contains(lower, "codec=pcm") || strings.HasPrefix(lower, "audio/pcm")
}

// WrapPCM prefixes 16-bit little-endian mono PCM with a RIFF/WAVE header.
func WrapPCM(pcm []byte, sampleRate int) []byte {
	if sampleRate <= 0 {
		sampleRate = defaultPCMRate
	}
	blockAlign := pcmChannels * pcmBitsPerSample / 8
	byteRate := sampleRate * blockAlign

	var buf bytes.Buffer
	buf.Grow(wavHeaderSizeBytes + len(pcm))
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(pcmChannels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(pcmBitsPerSample))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}
