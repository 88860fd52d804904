package traffic

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Cut is one named audio variant of a copy ("Cut A", "Cut B", ...).
type Cut struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CopyID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_cut_copy_label" json:"copy_id"`
	Copy   *Copy     `gorm:"constraint:OnDelete:CASCADE;foreignKey:CopyID;references:ID" json:"copy,omitempty"`

	// Label is the within-copy identifier ("A", "1"). Unique per copy.
	CutLabel string `gorm:"column:cut_label;not null;uniqueIndex:idx_cut_copy_label" json:"cut_id"`
	CutName  string `gorm:"column:cut_name" json:"cut_name"`
	Notes    string `gorm:"column:notes" json:"notes"`
	Tags     datatypes.JSON `gorm:"column:tags;type:jsonb" json:"tags"`

	AudioFileRef    string `gorm:"column:audio_file_ref" json:"audio_file_ref"`
	ContentChecksum string `gorm:"column:content_checksum" json:"content_checksum"`

	// Version advances monotonically from 1; guarded by compare-and-swap on
	// concurrent mutations.
	Version int `gorm:"column:version;not null;default:1" json:"version"`

	RotationWeight      float64        `gorm:"column:rotation_weight;not null;default:1" json:"rotation_weight"`
	DaypartRestrictions datatypes.JSON `gorm:"column:daypart_restrictions;type:jsonb" json:"daypart_restrictions"`
	ProgramAssociations datatypes.JSON `gorm:"column:program_associations;type:jsonb" json:"program_associations"`

	ExpiresAt *time.Time `gorm:"column:expires_at;index" json:"expires_at,omitempty"`
	Active    bool       `gorm:"column:active;not null;default:true" json:"active"`

	CreatedBy string    `gorm:"column:created_by" json:"created_by"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Cut) TableName() string { return "cut" }

// EncodeIDList stores a set of external ids as a JSON array. Nil input means
// unrestricted and round-trips as nil.
func EncodeIDList(ids []string) datatypes.JSON {
	if ids == nil {
		return nil
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

// DecodeIDList reads a JSON array column back into a slice. Null, empty, or
// malformed columns all decode to nil (unrestricted).
func DecodeIDList(js datatypes.JSON) []string {
	if len(js) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(js, &out); err != nil {
		return nil
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
