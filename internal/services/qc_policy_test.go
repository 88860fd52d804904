package services

import (
	"os"
	"path/filepath"
	"testing"
)

func TestQCPolicyExtensions(t *testing.T) {
	p := DefaultQCPolicy()
	cases := []struct {
		ext  string
		want bool
	}{
		{".wav", true},
		{".WAV", true},
		{".wave", true},
		{".mp3", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := p.supportsExtension(tc.ext); got != tc.want {
			t.Fatalf("supportsExtension(%q)=%v, want %v", tc.ext, got, tc.want)
		}
	}
}

func TestLoadQCPolicyFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qc_policy.yaml")
	body := "min_volume_db: -25\nsilence_flag_seconds: 0.5\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write policy: %v", err)
	}

	p, err := LoadQCPolicyFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.MinVolumeDB != -25 || p.SilenceFlagSeconds != 0.5 {
		t.Fatalf("overlaid values: %+v", p)
	}
	// Keys absent from the file keep their defaults.
	if p.ClipAmplitude != 0.99 || p.SilenceThresholdDB != -40 {
		t.Fatalf("defaults lost: %+v", p)
	}
	if len(p.SupportedExtensions) != 2 {
		t.Fatalf("extensions lost: %v", p.SupportedExtensions)
	}
}

func TestLoadQCPolicyFileMissing(t *testing.T) {
	p, err := LoadQCPolicyFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("missing file must error")
	}
	// Caller still gets usable defaults.
	if p.MinVolumeDB != DefaultQCPolicy().MinVolumeDB {
		t.Fatalf("fallback policy: %+v", p)
	}
}
