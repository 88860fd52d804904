package traffic

import (
	"time"

	"github.com/google/uuid"
)

// CutVersion is an immutable snapshot of a cut's payload state. Rows are only
// ever inserted, and only removed when the owning cut is hard-deleted.
type CutVersion struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CutID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_version_cut_number" json:"cut_id"`
	Cut   *Cut      `gorm:"constraint:OnDelete:CASCADE;foreignKey:CutID;references:ID" json:"cut,omitempty"`

	VersionNumber   int    `gorm:"column:version_number;not null;uniqueIndex:idx_version_cut_number" json:"version_number"`
	AudioFileRef    string `gorm:"column:audio_file_ref" json:"audio_file_ref"`
	ContentChecksum string `gorm:"column:content_checksum" json:"content_checksum"`
	Notes           string `gorm:"column:notes" json:"notes"`
	ChangedBy       string `gorm:"column:changed_by" json:"changed_by"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (CutVersion) TableName() string { return "cut_version" }
