package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Job kinds
const (
	JobKindBatch = "batch"
	JobKindFile  = "file"
)

// Job statuses
const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// Job represents an asynchronous preprocessing run over a text batch or an uploaded file
type Job struct {
	ID               uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Kind             string     `gorm:"type:varchar(20);not null" json:"kind"`
	Status           string     `gorm:"type:varchar(50);not null;default:'queued';index:idx_jobs_status" json:"status"`
	OriginalFilename string     `gorm:"type:varchar(500)" json:"original_filename,omitempty"`
	InputPath        string     `gorm:"type:text" json:"input_path,omitempty"`
	ResultPath       string     `gorm:"type:text" json:"result_path,omitempty"`
	TextColumn       string     `gorm:"type:varchar(255)" json:"text_column,omitempty"`
	Deduplicate      bool       `gorm:"default:false" json:"deduplicate"`
	Options          JSONB      `gorm:"type:jsonb;serializer:json" json:"options"`
	TotalItems       int        `gorm:"default:0" json:"total_items"`
	ProcessedItems   int        `gorm:"default:0" json:"processed_items"`
	FilteredItems    int        `gorm:"default:0" json:"filtered_items"`
	FailedItems      int        `gorm:"default:0" json:"failed_items"`
	DuplicateItems   int        `gorm:"default:0" json:"duplicate_items"`
	Error            string     `gorm:"type:text" json:"error,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`

	// Relations
	DedupHashes []DedupHash `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for GORM
func (Job) TableName() string {
	return "jobs"
}

// BeforeCreate GORM hook - called before creating a record
func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}

// IsTerminal reports whether the job has finished, successfully or not
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// ValidStatuses returns list of valid job statuses
func ValidStatuses() []string {
	return []string{
		JobStatusQueued,
		JobStatusProcessing,
		JobStatusCompleted,
		JobStatusFailed,
	}
}

// IsValidStatus checks if a status is valid
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// JSONB is a custom type for JSONB columns
type JSONB map[string]interface{}
