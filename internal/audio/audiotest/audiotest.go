// Package audiotest builds small WAV payloads for tests.
package audiotest

import (
	"bytes"
	"encoding/binary"
	"math"
)

// PCM16 encodes normalized samples as a 16-bit PCM RIFF/WAVE payload.
// Samples are interleaved by channel and clamped to [-1, 1].
func PCM16(sampleRate, channels int, samples []float64) []byte {
	var data bytes.Buffer
	for _, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(math.Round(s * 32767))
		binary.Write(&data, binary.LittleEndian, v)
	}

	blockAlign := channels * 2
	byteRate := sampleRate * blockAlign

	var out bytes.Buffer
	out.WriteString("RIFF")
	binary.Write(&out, binary.LittleEndian, uint32(4+8+16+8+data.Len()))
	out.WriteString("WAVE")

	out.WriteString("fmt ")
	binary.Write(&out, binary.LittleEndian, uint32(16))
	binary.Write(&out, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&out, binary.LittleEndian, uint16(channels))
	binary.Write(&out, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&out, binary.LittleEndian, uint32(byteRate))
	binary.Write(&out, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&out, binary.LittleEndian, uint16(16))

	out.WriteString("data")
	binary.Write(&out, binary.LittleEndian, uint32(data.Len()))
	out.Write(data.Bytes())
	return out.Bytes()
}

// Tone generates a mono sine at the given frequency and amplitude.
func Tone(sampleRate int, seconds, freq, amp float64) []float64 {
	n := int(float64(sampleRate) * seconds)
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

// Silence generates a run of zero samples.
func Silence(sampleRate int, seconds float64) []float64 {
	return make([]float64, int(float64(sampleRate)*seconds))
}

// Concat joins sample runs into one stream.
func Concat(runs ...[]float64) []float64 {
	var out []float64
	for _, r := range runs {
		out = append(out, r...)
	}
	return out
}

// Truncate drops trailing bytes from an encoded payload, leaving the declared
// data length intact.
func Truncate(wav []byte, drop int) []byte {
	if drop >= len(wav) {
		return nil
	}
	return wav[:len(wav)-drop]
}
