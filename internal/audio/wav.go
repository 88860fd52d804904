package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Clip is a decoded PCM stream with normalized samples in [-1, 1],
// interleaved by channel.
type Clip struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	ByteRate      int
	Samples       []float64

	// Truncated is set when the data chunk carried fewer bytes than its
	// declared length. The decoded prefix is still usable.
	Truncated bool
}

// FrameCount returns the number of multi-channel sample frames.
func (c *Clip) FrameCount() int {
	if c == nil || c.Channels == 0 {
		return 0
	}
	return len(c.Samples) / c.Channels
}

// DurationSeconds is derived from decoded frames, not header bookkeeping, so
// truncated files report what is actually present.
func (c *Clip) DurationSeconds() float64 {
	if c == nil || c.SampleRate == 0 {
		return 0
	}
	return float64(c.FrameCount()) / float64(c.SampleRate)
}

var (
	ErrNotRIFF      = errors.New("not a RIFF/WAVE container")
	ErrNoFormat     = errors.New("missing fmt chunk")
	ErrNoData       = errors.New("missing data chunk")
	ErrBadFormat    = errors.New("unsupported encoding")
	ErrEmptyPayload = errors.New("empty payload")
)

const (
	formatPCM       = 1
	formatIEEEFloat = 3
)

// DecodeWAV parses a RIFF/WAVE payload. PCM (8/16/24/32-bit) and 32/64-bit
// float encodings are supported. A short data chunk decodes to a truncated
// clip rather than failing outright.
func DecodeWAV(r io.Reader) (*Clip, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return DecodeWAVBytes(raw)
}

func DecodeWAVBytes(raw []byte) (*Clip, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyPayload
	}
	if len(raw) < 12 || !bytes.Equal(raw[0:4], []byte("RIFF")) || !bytes.Equal(raw[8:12], []byte("WAVE")) {
		return nil, ErrNotRIFF
	}

	var (
		clip      Clip
		haveFmt   bool
		haveData  bool
		audioFmt  int
		dataBytes []byte
		truncated bool
	)

	offset := 12
	for offset+8 <= len(raw) {
		chunkID := string(raw[offset : offset+4])
		chunkLen := int(binary.LittleEndian.Uint32(raw[offset+4 : offset+8]))
		body := raw[offset+8:]
		if chunkLen > len(body) {
			chunkLen = len(body)
			truncated = true
		}

		switch chunkID {
		case "fmt ":
			if chunkLen < 16 {
				return nil, ErrNoFormat
			}
			audioFmt = int(binary.LittleEndian.Uint16(body[0:2]))
			clip.Channels = int(binary.LittleEndian.Uint16(body[2:4]))
			clip.SampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			clip.ByteRate = int(binary.LittleEndian.Uint32(body[8:12]))
			clip.BitsPerSample = int(binary.LittleEndian.Uint16(body[14:16]))
			haveFmt = true
		case "data":
			dataBytes = body[:chunkLen]
			haveData = true
		}

		advance := chunkLen
		if advance%2 == 1 {
			advance++ // RIFF chunks are word-aligned
		}
		offset += 8 + advance
	}

	if !haveFmt {
		return nil, ErrNoFormat
	}
	if !haveData {
		return nil, ErrNoData
	}
	if clip.Channels <= 0 || clip.SampleRate <= 0 {
		return nil, ErrBadFormat
	}

	samples, decodeErr := decodeSamples(audioFmt, clip.BitsPerSample, dataBytes)
	if decodeErr != nil {
		return nil, decodeErr
	}
	clip.Samples = samples
	clip.Truncated = truncated
	return &clip, nil
}

func decodeSamples(audioFmt, bits int, data []byte) ([]float64, error) {
	switch audioFmt {
	case formatPCM:
		switch bits {
		case 8:
			out := make([]float64, len(data))
			for i, b := range data {
				out[i] = (float64(b) - 128) / 128
			}
			return out, nil
		case 16:
			n := len(data) / 2
			out := make([]float64, n)
			for i := 0; i < n; i++ {
				v := int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
				out[i] = float64(v) / 32768
			}
			return out, nil
		case 24:
			n := len(data) / 3
			out := make([]float64, n)
			for i := 0; i < n; i++ {
				b := data[i*3 : i*3+3]
				v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
				if v&0x800000 != 0 {
					v |= ^int32(0xffffff)
				}
				out[i] = float64(v) / 8388608
			}
			return out, nil
		case 32:
			n := len(data) / 4
			out := make([]float64, n)
			for i := 0; i < n; i++ {
				v := int32(binary.LittleEndian.Uint32(data[i*4 : i*4+4]))
				out[i] = float64(v) / 2147483648
			}
			return out, nil
		}
	case formatIEEEFloat:
		switch bits {
		case 32:
			n := len(data) / 4
			out := make([]float64, n)
			for i := 0; i < n; i++ {
				out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4 : i*4+4])))
			}
			return out, nil
		case 64:
			n := len(data) / 8
			out := make([]float64, n)
			for i := 0; i < n; i++ {
				out[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8 : i*8+8]))
			}
			return out, nil
		}
	}
	return nil, fmt.Errorf("%w: format=%d bits=%d", ErrBadFormat, audioFmt, bits)
}
