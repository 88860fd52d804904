package services

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bilyfoster/librelog-backend/internal/audio"
)

// QCPolicy holds the tunable thresholds of the analysis pipeline. Values come
// from env with an optional YAML file layered on top.
type QCPolicy struct {
	SilenceThresholdDB  float64  `yaml:"silence_threshold_db"`
	MinVolumeDB         float64  `yaml:"min_volume_db"`
	ClipAmplitude       float64  `yaml:"clip_amplitude"`
	SilenceFlagSeconds  float64  `yaml:"silence_flag_seconds"`
	SupportedExtensions []string `yaml:"supported_extensions"`
}

func DefaultQCPolicy() QCPolicy {
	return QCPolicy{
		SilenceThresholdDB:  -40,
		MinVolumeDB:         -30,
		ClipAmplitude:       0.99,
		SilenceFlagSeconds:  0.1,
		SupportedExtensions: []string{".wav", ".wave"},
	}
}

// LoadQCPolicyFile overlays a YAML policy file onto the defaults. Missing
// keys keep their default values.
func LoadQCPolicyFile(path string) (QCPolicy, error) {
	policy := DefaultQCPolicy()
	raw, err := os.ReadFile(path)
	if err != nil {
		return policy, fmt.Errorf("read qc policy file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &policy); err != nil {
		return policy, fmt.Errorf("parse qc policy file: %w", err)
	}
	return policy, nil
}

func (p QCPolicy) thresholds() audio.Thresholds {
	return audio.Thresholds{
		SilenceDB:     p.SilenceThresholdDB,
		MinVolumeDB:   p.MinVolumeDB,
		ClipAmplitude: p.ClipAmplitude,
	}
}

func (p QCPolicy) supportsExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range p.SupportedExtensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}
