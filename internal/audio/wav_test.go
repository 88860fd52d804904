package audio_test

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/bilyfoster/librelog-backend/internal/audio"
	"github.com/bilyfoster/librelog-backend/internal/audio/audiotest"
)

func TestDecodePCM16RoundTrip(t *testing.T) {
	samples := audiotest.Tone(8000, 0.5, 440, 0.5)
	wav := audiotest.PCM16(8000, 1, samples)

	clip, err := audio.DecodeWAVBytes(wav)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if clip.SampleRate != 8000 || clip.Channels != 1 || clip.BitsPerSample != 16 {
		t.Fatalf("format: got %d Hz / %d ch / %d bit", clip.SampleRate, clip.Channels, clip.BitsPerSample)
	}
	if clip.FrameCount() != len(samples) {
		t.Fatalf("frames: got %d, want %d", clip.FrameCount(), len(samples))
	}
	if got := clip.DurationSeconds(); math.Abs(got-0.5) > 0.001 {
		t.Fatalf("duration: got %v, want 0.5", got)
	}
	if clip.Truncated {
		t.Fatal("full payload must not report truncation")
	}
	for i, want := range samples {
		if math.Abs(clip.Samples[i]-want) > 1.0/32768*2 {
			t.Fatalf("sample %d: got %v, want %v", i, clip.Samples[i], want)
		}
	}
}

func TestDecodeStereoInterleaving(t *testing.T) {
	// Left channel at full positive, right at full negative.
	interleaved := []float64{0.5, -0.5, 0.5, -0.5, 0.5, -0.5}
	wav := audiotest.PCM16(44100, 2, interleaved)

	clip, err := audio.DecodeWAVBytes(wav)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if clip.Channels != 2 || clip.FrameCount() != 3 {
		t.Fatalf("got %d ch / %d frames", clip.Channels, clip.FrameCount())
	}
	for f := 0; f < 3; f++ {
		if clip.Samples[f*2] < 0 || clip.Samples[f*2+1] > 0 {
			t.Fatalf("frame %d lost channel order: %v / %v", f, clip.Samples[f*2], clip.Samples[f*2+1])
		}
	}
}

func TestDecodeTruncatedDataChunk(t *testing.T) {
	wav := audiotest.PCM16(8000, 1, audiotest.Tone(8000, 0.25, 440, 0.5))
	short := audiotest.Truncate(wav, 500)

	clip, err := audio.DecodeWAVBytes(short)
	if err != nil {
		t.Fatalf("truncated payload must still decode: %v", err)
	}
	if !clip.Truncated {
		t.Fatal("truncation flag not set")
	}
	if clip.FrameCount() >= 2000 {
		t.Fatalf("decoded more frames than bytes allow: %d", clip.FrameCount())
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	cases := []struct {
		name string
		raw  []byte
		want error
	}{
		{name: "empty", raw: nil, want: audio.ErrEmptyPayload},
		{name: "not riff", raw: []byte("ID3\x04this is not a wav file at all"), want: audio.ErrNotRIFF},
		{name: "riff no chunks", raw: []byte("RIFF\x04\x00\x00\x00WAVE"), want: audio.ErrNoFormat},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := audio.DecodeWAVBytes(tc.raw)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestDecodeMissingData(t *testing.T) {
	wav := audiotest.PCM16(8000, 1, audiotest.Tone(8000, 0.1, 440, 0.5))
	// Corrupt the data chunk ID so only fmt survives.
	idx := bytes.Index(wav, []byte("data"))
	if idx < 0 {
		t.Fatal("no data chunk in synthesized payload")
	}
	copy(wav[idx:], []byte("junk"))

	_, err := audio.DecodeWAVBytes(wav)
	if !errors.Is(err, audio.ErrNoData) {
		t.Fatalf("got %v, want ErrNoData", err)
	}
}

func TestDecodeViaReader(t *testing.T) {
	wav := audiotest.PCM16(16000, 1, audiotest.Tone(16000, 0.1, 1000, 0.9))
	clip, err := audio.DecodeWAV(bytes.NewReader(wav))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if clip.SampleRate != 16000 {
		t.Fatalf("sample rate: got %d", clip.SampleRate)
	}
}
