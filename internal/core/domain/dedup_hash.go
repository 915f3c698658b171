package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DedupHash records the hash of a normalized text seen by a job, so later
// jobs can drop texts that were already produced
type DedupHash struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	JobID            uuid.UUID `gorm:"type:uuid;not null;index:idx_dedup_job_hash" json:"job_id"`
	Hash             string    `gorm:"type:varchar(64);not null;index:idx_dedup_job_hash;index:idx_dedup_hash" json:"hash"`
	OriginalRowIndex int       `gorm:"not null" json:"original_row_index"`
	Kept             bool      `gorm:"not null;index:idx_dedup_kept" json:"kept"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`

	Job *Job `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for GORM
func (DedupHash) TableName() string {
	return "dedup_hashes"
}

// BeforeCreate assigns an ID when the database default is bypassed
func (d *DedupHash) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// Models lists every persisted model, in migration order
func Models() []interface{} {
	return []interface{}{
		&Job{},
		&DedupHash{},
	}
}
