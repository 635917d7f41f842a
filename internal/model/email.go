package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringList is a JSON-encoded string array column
type StringList []string

// Value implements driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return fmt.Errorf("unsupported type for StringList: %T", value)
}

// ThreadContext is the slice of thread analysis carried in extracted_details
type ThreadContext struct {
	MessageCount   int      `json:"messageCount"`
	PrimaryCompany string   `json:"primaryCompany,omitempty"`
	RequiresAction bool     `json:"requiresAction"`
	Highlights     []string `json:"highlights"`
}

// ExtractedDetails is the JSON blob column holding every processing output
// not promoted to its own email column. Fields are explicit so tests can be
// exhaustive; Extra is the only open map, reserved for forward-compatible
// extension data.
type ExtractedDetails struct {
	ApplicationStatus *ApplicationStatus `json:"applicationStatus"`
	Dates             ExtractedDates     `json:"dates"`
	Recruiter         RecruiterContact   `json:"recruiter"`
	Metadata          JobMetadata        `json:"metadata"`
	NextAction        *string            `json:"nextAction"`
	Keywords          []string           `json:"keywords"`
	Enhanced          *EmailAnnotation   `json:"enhanced,omitempty"`
	ThreadContext     *ThreadContext     `json:"threadContext,omitempty"`
	JobLinkConfidence *float64           `json:"jobLinkConfidence,omitempty"`
	JobLinkStrategy   *Strategy          `json:"jobLinkStrategy,omitempty"`
	Extra             map[string]string  `json:"extra,omitempty"`
}

// Value implements driver.Valuer
func (d ExtractedDetails) Value() (driver.Value, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (d *ExtractedDetails) Scan(value interface{}) error {
	if value == nil {
		*d = ExtractedDetails{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	}
	return fmt.Errorf("unsupported type for ExtractedDetails: %T", value)
}

// Email represents an ingested message plus the pipeline's processing
// outputs. The raw message fields are immutable after ingestion; only the
// orchestrator writes the processing columns.
type Email struct {
	ID          string     `json:"id" gorm:"primaryKey;type:varchar(64)"`
	ThreadID    string     `json:"thread_id" gorm:"type:varchar(64);index"`
	Subject     string     `json:"subject" gorm:"type:varchar(512)"`
	SenderName  string     `json:"sender_name" gorm:"type:varchar(255)"`
	SenderEmail string     `json:"sender_email" gorm:"type:varchar(255);index"`
	Recipients  StringList `json:"recipients" gorm:"type:json"`
	Body        string     `json:"body" gorm:"type:longtext"`
	ReceivedAt  time.Time  `json:"received_at" gorm:"index"`

	// Processing outputs
	IsJobRelated             *bool            `json:"is_job_related"`
	EmailType                string           `json:"email_type" gorm:"type:varchar(64)"`
	JobConfidence            float64          `json:"job_confidence"`
	ClassificationConfidence float64          `json:"classification_confidence"`
	Company                  string           `json:"company" gorm:"type:varchar(255);index"`
	Position                 string           `json:"position" gorm:"type:varchar(255)"`
	Summary                  string           `json:"summary" gorm:"type:text"`
	Preview                  string           `json:"preview" gorm:"type:varchar(512)"`
	ThreadSummary            string           `json:"thread_summary" gorm:"type:text"`
	ThreadPosition           int              `json:"thread_position"`
	IsThreadRoot             bool             `json:"is_thread_root"`
	AIProcessed              bool             `json:"ai_processed"`
	ProcessingVersion        string           `json:"processing_version" gorm:"type:varchar(32)"`
	RequiresAction           bool             `json:"requires_action"`
	ActionDeadline           *time.Time       `json:"action_deadline"`
	Labels                   StringList       `json:"labels" gorm:"type:json"`
	ActionItems              StringList       `json:"action_items" gorm:"type:json"`
	ExtractedEvents          StringList       `json:"extracted_events" gorm:"type:json"`
	JobID                    *uint            `json:"job_id" gorm:"index"`
	ExtractedDetails         ExtractedDetails `json:"extracted_details" gorm:"type:json"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Email
func (Email) TableName() string {
	return "emails"
}

// JobApplication represents a tracked job application. The linker reads and
// conditionally updates status; it never creates rows.
type JobApplication struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Company   string    `json:"company" gorm:"type:varchar(255);not null;index"`
	Title     string    `json:"title" gorm:"type:varchar(255);not null"`
	URL       string    `json:"url" gorm:"type:varchar(1024)"`
	Status    string    `json:"status" gorm:"type:varchar(32)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for JobApplication
func (JobApplication) TableName() string {
	return "job_applications"
}
