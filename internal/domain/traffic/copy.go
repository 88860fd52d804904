package traffic

import (
	"time"

	"github.com/google/uuid"
)

// Copy is the owning creative. The wider traffic system manages the rest of
// its row; this core only reads existence and maintains cut_count.
type Copy struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title      string    `gorm:"column:title;not null" json:"title"`
	Advertiser string    `gorm:"column:advertiser" json:"advertiser"`

	// Denormalized count of live cuts. Maintained in the same transaction as
	// cut create/delete, never recomputed lazily.
	CutCount int `gorm:"column:cut_count;not null;default:0" json:"cut_count"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Copy) TableName() string { return "copy" }
