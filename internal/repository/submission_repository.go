package repository

import (
	"context"
	"editorial_composer/internal/model"

	"gorm.io/gorm"
)

type SubmissionRepository struct {
	DB *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{DB: db}
}

func (r *SubmissionRepository) Create(ctx context.Context, record *model.SubmissionRecord) error {
	return r.DB.WithContext(ctx).Create(record).Error
}

// List returns records newest first. kind filters when non-empty.
func (r *SubmissionRepository) List(ctx context.Context, kind model.SubmissionKind, page, pageSize int) ([]model.SubmissionRecord, int64, error) {
	var records []model.SubmissionRecord
	var total int64

	query := r.DB.WithContext(ctx).Model(&model.SubmissionRecord{})
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("id DESC").Offset(offset).Limit(pageSize).Find(&records).Error
	return records, total, err
}

func (r *SubmissionRepository) FindByDraftID(ctx context.Context, draftID string) ([]model.SubmissionRecord, error) {
	var records []model.SubmissionRecord
	err := r.DB.WithContext(ctx).Where("draft_id = ?", draftID).Order("id ASC").Find(&records).Error
	return records, err
}
