package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"jobmail-intel/internal/model"
)

// EmailRepository handles all email table access
type EmailRepository struct {
	db *gorm.DB
}

// NewEmailRepository creates a new email repository
func NewEmailRepository(db *gorm.DB) *EmailRepository {
	return &EmailRepository{db: db}
}

// GetByID fetches one email by its provider id
func (r *EmailRepository) GetByID(ctx context.Context, id string) (*model.Email, error) {
	var email model.Email
	result := r.db.WithContext(ctx).First(&email, "id = ?", id)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("email %s not found", id)
		}
		return nil, fmt.Errorf("failed to fetch email %s: %w", id, result.Error)
	}
	return &email, nil
}

// ListThreadEmails returns all emails in a thread ordered by receipt time
// ascending
func (r *EmailRepository) ListThreadEmails(ctx context.Context, threadID string) ([]model.Email, error) {
	var emails []model.Email
	result := r.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("received_at ASC").
		Find(&emails)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list thread %s: %w", threadID, result.Error)
	}
	return emails, nil
}

// LinkedJobCounts returns, for a thread, how many sibling emails are linked
// to each job id
func (r *EmailRepository) LinkedJobCounts(ctx context.Context, threadID, excludeEmailID string) (map[uint]int, error) {
	var emails []model.Email
	result := r.db.WithContext(ctx).
		Select("id", "job_id").
		Where("thread_id = ? AND id <> ? AND job_id IS NOT NULL", threadID, excludeEmailID).
		Find(&emails)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to count linked jobs in thread %s: %w", threadID, result.Error)
	}

	counts := make(map[uint]int)
	for _, email := range emails {
		if email.JobID != nil {
			counts[*email.JobID]++
		}
	}
	return counts, nil
}

// SaveProcessingResult writes the pipeline's output columns for one email
// in a single update. Re-running recomputes and overwrites; it never
// appends.
func (r *EmailRepository) SaveProcessingResult(ctx context.Context, id string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&model.Email{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to persist processing result for email %s: %w", id, result.Error)
	}
	return nil
}

// Upsert stores a fetched email if it is not already present. Existing rows
// keep their processing outputs untouched.
func (r *EmailRepository) Upsert(ctx context.Context, email *model.Email) error {
	result := r.db.WithContext(ctx).Where("id = ?", email.ID).FirstOrCreate(email)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert email %s: %w", email.ID, result.Error)
	}
	return nil
}

// ListUnprocessed returns emails not yet run through the pipeline, most
// recent first
func (r *EmailRepository) ListUnprocessed(ctx context.Context, limit int) ([]model.Email, error) {
	var emails []model.Email
	result := r.db.WithContext(ctx).
		Where("ai_processed = ?", false).
		Order("received_at DESC").
		Limit(limit).
		Find(&emails)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list unprocessed emails: %w", result.Error)
	}
	return emails, nil
}

// GetByIDs fetches the emails matching the given ids; missing ids are
// simply absent from the result
func (r *EmailRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Email, error) {
	var emails []model.Email
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&emails)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to fetch emails by ids: %w", result.Error)
	}
	return emails, nil
}
