package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"storefront/internal/model"
)

// ==================== 仓储接口 ====================

// WizardRepository 上架向导仓储接口
type WizardRepository interface {
	Create(ctx context.Context, w *model.ListingWizard) error
	GetByPublicID(ctx context.Context, publicID string) (*model.ListingWizard, error)
	Save(ctx context.Context, w *model.ListingWizard) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	Delete(ctx context.Context, id int64) error

	// 过期清理相关
	FindAbandoned(ctx context.Context, before time.Time, limit int) ([]*model.ListingWizard, error)
}

// ==================== 仓储实现 ====================

type wizardRepo struct {
	db *gorm.DB
}

// NewWizardRepository 创建向导仓储
func NewWizardRepository(db *gorm.DB) WizardRepository {
	return &wizardRepo{db: db}
}

func (r *wizardRepo) Create(ctx context.Context, w *model.ListingWizard) error {
	return r.db.WithContext(ctx).Create(w).Error
}

func (r *wizardRepo) GetByPublicID(ctx context.Context, publicID string) (*model.ListingWizard, error) {
	var w model.ListingWizard
	if err := r.db.WithContext(ctx).Where("public_id = ?", publicID).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *wizardRepo) Save(ctx context.Context, w *model.ListingWizard) error {
	return r.db.WithContext(ctx).Save(w).Error
}

func (r *wizardRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.ListingWizard{}).Where("id = ?", id).Updates(fields).Error
}

func (r *wizardRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.ListingWizard{}, id).Error
}

// FindAbandoned 超过期限未操作、仍处于打开状态的向导
func (r *wizardRepo) FindAbandoned(ctx context.Context, before time.Time, limit int) ([]*model.ListingWizard, error) {
	if limit <= 0 {
		limit = 100
	}
	var list []*model.ListingWizard
	err := r.db.WithContext(ctx).
		Where("status IN ? AND last_active_at < ?",
			[]string{model.WizardStatusActive, model.WizardStatusSubmitting}, before).
		Order("last_active_at ASC").
		Limit(limit).
		Find(&list).Error
	return list, err
}
