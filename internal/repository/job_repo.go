package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"jobmail-intel/internal/model"
)

// JobRepository handles job application table access. The pipeline reads
// jobs and conditionally updates their status; it never creates rows.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// SearchCandidates returns jobs whose company or title contains the given
// strings, most recent first
func (r *JobRepository) SearchCandidates(ctx context.Context, company, position string, limit int) ([]model.JobApplication, error) {
	var jobs []model.JobApplication
	result := r.db.WithContext(ctx).
		Where("company LIKE ? OR title LIKE ?", "%"+company+"%", "%"+position+"%").
		Order("created_at DESC").
		Limit(limit).
		Find(&jobs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to search job candidates: %w", result.Error)
	}
	return jobs, nil
}

// FindByDomain returns jobs whose company name contains the domain's first
// label or whose URL contains the domain, most recent first
func (r *JobRepository) FindByDomain(ctx context.Context, domain string) ([]model.JobApplication, error) {
	label := strings.Split(domain, ".")[0]

	var jobs []model.JobApplication
	result := r.db.WithContext(ctx).
		Where("company LIKE ? OR url LIKE ?", "%"+label+"%", "%"+domain+"%").
		Order("created_at DESC").
		Find(&jobs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find jobs for domain %s: %w", domain, result.Error)
	}
	return jobs, nil
}

// FindAtCompanyCreatedBetween returns jobs at a company created inside the
// given window
func (r *JobRepository) FindAtCompanyCreatedBetween(ctx context.Context, company string, from, to time.Time) ([]model.JobApplication, error) {
	var jobs []model.JobApplication
	result := r.db.WithContext(ctx).
		Where("company LIKE ? AND created_at BETWEEN ? AND ?", "%"+company+"%", from, to).
		Order("created_at DESC").
		Find(&jobs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find jobs at %s: %w", company, result.Error)
	}
	return jobs, nil
}

// UpdateStatusIfNewer sets a job's status only when the email timestamp is
// strictly newer than the job's last update. The job's updated_at becomes
// the email time, so ordering is by email time rather than processing time.
func (r *JobRepository) UpdateStatusIfNewer(ctx context.Context, id uint, status string, emailTime time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.JobApplication{}).
		Where("id = ? AND updated_at < ?", id, emailTime).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": emailTime,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to update status for job %d: %w", id, result.Error)
	}
	return result.RowsAffected > 0, nil
}
