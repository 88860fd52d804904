package traffic

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// QCResult is one automated analysis run against a cut's audio payload.
// Metrics that could not be computed stay null rather than zero. The row is
// immutable except for the override fields.
type QCResult struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CutID     *uuid.UUID `gorm:"type:uuid;index" json:"cut_id,omitempty"`
	VersionID *uuid.UUID `gorm:"type:uuid;index" json:"version_id,omitempty"`

	AudioFileRef string `gorm:"column:audio_file_ref;not null" json:"audio_file_ref"`

	DurationSeconds    *float64 `gorm:"column:duration_seconds" json:"duration_seconds,omitempty"`
	SampleRateHz       *int     `gorm:"column:sample_rate_hz" json:"sample_rate_hz,omitempty"`
	BitrateBps         *int     `gorm:"column:bitrate_bps" json:"bitrate_bps,omitempty"`
	ChannelCount       *int     `gorm:"column:channel_count" json:"channel_count,omitempty"`
	HeadSilenceSeconds *float64 `gorm:"column:head_silence_seconds" json:"head_silence_seconds,omitempty"`
	TailSilenceSeconds *float64 `gorm:"column:tail_silence_seconds" json:"tail_silence_seconds,omitempty"`
	PeakDB             *float64 `gorm:"column:peak_db" json:"peak_db,omitempty"`
	RMSDB              *float64 `gorm:"column:rms_db" json:"rms_db,omitempty"`
	LoudnessLUFS       *float64 `gorm:"column:loudness_lufs" json:"loudness_lufs,omitempty"`
	ClipSampleCount    *int     `gorm:"column:clip_sample_count" json:"clip_sample_count,omitempty"`

	FormatValid           bool `gorm:"column:format_valid;not null;default:false" json:"format_valid"`
	FileCorrupted         bool `gorm:"column:file_corrupted;not null;default:false" json:"file_corrupted"`
	SilenceDetected       bool `gorm:"column:silence_detected;not null;default:false" json:"silence_detected"`
	ClippingDetected      bool `gorm:"column:clipping_detected;not null;default:false" json:"clipping_detected"`
	VolumeThresholdPassed bool `gorm:"column:volume_threshold_passed;not null;default:false" json:"volume_threshold_passed"`
	QCPassed              bool `gorm:"column:qc_passed;not null;default:false" json:"qc_passed"`

	QCWarnings datatypes.JSON `gorm:"column:qc_warnings;type:jsonb" json:"qc_warnings"`
	QCErrors   datatypes.JSON `gorm:"column:qc_errors;type:jsonb" json:"qc_errors"`

	Overridden        bool       `gorm:"column:overridden;not null;default:false" json:"overridden"`
	OverriddenBy      string     `gorm:"column:overridden_by" json:"overridden_by,omitempty"`
	OverrideReason    string     `gorm:"column:override_reason" json:"override_reason,omitempty"`
	OverrideTimestamp *time.Time `gorm:"column:override_timestamp" json:"override_timestamp,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (QCResult) TableName() string { return "qc_result" }
